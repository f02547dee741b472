/*
 * Copyright 2026 the button-gateway authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package logger

import (
	"errors"
	"os"
	"strings"
)

const (
	outputStdout = "stdout"
	outputStderr = "stderr"
)

var errInvalidVerbosity = errors.New("verbosity must be between 1 and 5")

type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"`
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

func DefaultConfig() *Config {
	return &Config{
		Level:      getEnvOrDefault("LOG_LEVEL", "info"),
		Debug:      getEnvBoolOrDefault("DEBUG", false),
		Output:     getEnvOrDefault("LOG_OUTPUT", outputStdout),
		TimeFormat: getEnvOrDefault("LOG_TIME_FORMAT", ""),
	}
}

// verbosityLevels maps the numeric -v flag values onto zerolog level names.
// 1 is quietest (fatal only), 5 is loudest (debug).
var verbosityLevels = map[int]string{
	1: "fatal",
	2: "error",
	3: "warn",
	4: "info",
	5: "debug",
}

// LevelFromVerbosity translates a 1..5 verbosity value to a level name.
func LevelFromVerbosity(v int) (string, error) {
	level, ok := verbosityLevels[v]
	if !ok {
		return "", errInvalidVerbosity
	}

	return level, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	value = strings.ToLower(value)

	return value == "true" || value == "1" || value == "yes" || value == "on"
}
