/*
Copyright (c) 2023-2025 Microbus LLC and various contributors

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

// Package env resolves configuration values from, in order of precedence:
// a test-time push stack, a ".env" file in the working directory, then the OS environment.
// cfg.LoadRouterConfig uses this package to resolve the router's configuration properties (SPEC_FULL.md §A.3/§E).
package env

import (
	"bufio"
	"os"
	"strings"
	"sync"

	"github.com/microbus-io/errors"
)

var (
	mux    sync.Mutex
	stacks = map[string][]string{}
)

// Get returns the value for key, or an empty string if not set anywhere.
func Get(key string) string {
	v, _ := Lookup(key)
	return v
}

// Lookup returns the value for key and whether it was found.
// Precedence: Push()-ed overrides, then a ".env" file in the working directory, then the OS environment.
// Keys are case sensitive throughout.
func Lookup(key string) (value string, ok bool) {
	mux.Lock()
	if stack := stacks[key]; len(stack) > 0 {
		v := stack[len(stack)-1]
		mux.Unlock()
		return v, true
	}
	mux.Unlock()

	if v, ok := readEnvFile()[key]; ok {
		return v, true
	}
	return os.LookupEnv(key)
}

// Push overrides key with value until a matching Pop is called. Intended for tests.
func Push(key string, value string) {
	mux.Lock()
	stacks[key] = append(stacks[key], value)
	mux.Unlock()
}

// Pop removes the most recently Push()-ed override for key.
// It panics if there is no pushed override to pop.
func Pop(key string) {
	mux.Lock()
	defer mux.Unlock()
	stack := stacks[key]
	if len(stack) == 0 {
		panic(errors.Newf("env: no pushed value to pop for '%s'", key))
	}
	stacks[key] = stack[:len(stack)-1]
}

// readEnvFile reads KEY=VALUE pairs from a ".env" file in the current working directory.
// A missing file yields an empty map; this is not an error condition.
func readEnvFile() map[string]string {
	result := map[string]string{}
	f, err := os.Open(".env")
	if err != nil {
		return result
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return result
}
