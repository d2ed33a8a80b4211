/*
Copyright (c) 2023-2026 Microbus LLC and various contributors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package cfg

import (
	"github.com/microbus-io/errors"
)

// Config is a single named, validated property with a default value and an optional
// programmatically assigned value. It does not read the environment itself; the router's
// own settings are resolved separately into RouterConfig by LoadRouterConfig.
type Config struct {
	Name         string
	Description  string
	DefaultValue string
	Validation   string
	Secret       bool

	Set   bool
	Value string
}

// NewConfig creates a new config property.
func NewConfig(name string, options ...Option) (*Config, error) {
	if name == "" {
		return nil, errors.New("config name is required")
	}
	c := &Config{
		Name:       name,
		Validation: "str",
	}
	err := c.Apply(options...)
	if err != nil {
		return nil, err
	}
	if err := c.validateValue(c.DefaultValue); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

// Apply the provided options to the config.
func (c *Config) Apply(options ...Option) error {
	for _, opt := range options {
		err := opt(c)
		if err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// SetValue assigns value as the property's current value, after validating it against the
// property's validation rule. On success the property is marked Set.
func (c *Config) SetValue(value string) error {
	if err := c.validateValue(value); err != nil {
		return errors.Trace(err)
	}
	c.Value = value
	c.Set = true
	return nil
}

// Get returns the property's current value if Set, otherwise its default value.
func (c *Config) Get() string {
	if c.Set {
		return c.Value
	}
	return c.DefaultValue
}
