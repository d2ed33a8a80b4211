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
	"strconv"
	"strings"

	"github.com/microbus-io/errors"
)

// Option customizes a Config property at construction.
type Option func(c *Config) error

// Description sets the human-readable explanation of what the property configures.
func Description(description string) Option {
	return func(c *Config) error {
		c.Description = description
		return nil
	}
}

// Secret marks the property as secret-valued, excluded from plain-text dumps (e.g. persistence.path
// is not secret, but a broker credential config would be).
func Secret() Option {
	return func(c *Config) error {
		c.Secret = true
		return nil
	}
}

// DefaultValue sets the value used when no override is supplied.
func DefaultValue(value string) Option {
	return func(c *Config) error {
		c.DefaultValue = value
		return nil
	}
}

// Validation sets the validation rule for the property's value, one of:
//
//	str
//	bool
//	int [min,max]
//	float [min,max]
//
// The range is optional and, when present, bounds-checks both the default value and any
// value later assigned with SetValue.
func Validation(rule string) Option {
	return func(c *Config) error {
		if _, _, _, err := parseValidation(rule); err != nil {
			return errors.Trace(err)
		}
		c.Validation = rule
		return nil
	}
}

// parseValidation parses a rule string into its kind and optional numeric bounds.
func parseValidation(rule string) (kind string, min, max *float64, err error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return "str", nil, nil, nil
	}
	fields := strings.SplitN(rule, "[", 2)
	kind = strings.TrimSpace(fields[0])
	switch kind {
	case "str", "bool":
		if len(fields) > 1 {
			return "", nil, nil, errors.Newf("validation rule '%s' does not take a range", kind)
		}
		return kind, nil, nil, nil
	case "int", "float":
		if len(fields) == 1 {
			return kind, nil, nil, nil
		}
		rangePart := strings.TrimSuffix(strings.TrimSpace(fields[1]), "]")
		parts := strings.SplitN(rangePart, ",", 2)
		if len(parts) != 2 {
			return "", nil, nil, errors.Newf("invalid range in validation rule '%s'", rule)
		}
		lo, errLo := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		hi, errHi := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if errLo != nil || errHi != nil {
			return "", nil, nil, errors.Newf("invalid range in validation rule '%s'", rule)
		}
		return kind, &lo, &hi, nil
	default:
		return "", nil, nil, errors.Newf("unknown validation kind '%s'", kind)
	}
}

// validateValue checks value against the property's validation rule.
func (c *Config) validateValue(value string) error {
	if value == "" {
		return nil
	}
	kind, min, max, err := parseValidation(c.Validation)
	if err != nil {
		return errors.Trace(err)
	}
	switch kind {
	case "bool":
		if _, err := strconv.ParseBool(value); err != nil {
			return errors.Newf("'%s' is not a valid bool for config '%s'", value, c.Name)
		}
	case "int":
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return errors.Newf("'%s' is not a valid int for config '%s'", value, c.Name)
		}
		if (min != nil && float64(n) < *min) || (max != nil && float64(n) > *max) {
			return errors.Newf("'%s' is out of range for config '%s'", value, c.Name)
		}
	case "float":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Newf("'%s' is not a valid float for config '%s'", value, c.Name)
		}
		if (min != nil && f < *min) || (max != nil && f > *max) {
			return errors.Newf("'%s' is out of range for config '%s'", value, c.Name)
		}
	}
	return nil
}
