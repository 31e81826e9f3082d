// Package config loads process settings from environment variables.
//
// Every loader is fail-open: an unset variable yields the default silently,
// and an unparsable or invalid one yields the default plus a warning. Callers
// log the warnings and record them with ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult is the outcome of loading one variable.
//
//	result := LoadEnvDuration("ENRICH_DELAY", 10*time.Second, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    logger.Warn("config fallback", slog.Any("warnings", result.Warnings))
//	}
//	delay := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// LoadEnvString returns the variable or the default when unset. No validation.
func LoadEnvString(envKey, defaultValue string) string {
	if value := os.Getenv(envKey); value != "" {
		return value
	}
	return defaultValue
}

// LoadEnvWithFallback loads a string validated by validator (nil skips validation).
func LoadEnvWithFallback(envKey, defaultValue string, validator func(string) error) ConfigLoadResult {
	return load(envKey, defaultValue,
		func(s string) (string, error) { return s, nil },
		validator,
		func(v string) string { return v })
}

// LoadEnvDuration loads a time.ParseDuration value.
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return load(envKey, defaultValue, time.ParseDuration, validator,
		func(v time.Duration) string { return v.String() })
}

// LoadEnvInt loads a base-10 integer.
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return load(envKey, defaultValue,
		func(s string) (int, error) {
			n, err := strconv.Atoi(s)
			if err != nil {
				return 0, fmt.Errorf("invalid integer format")
			}
			return n, nil
		},
		validator,
		strconv.Itoa)
}

// LoadEnvFloat loads a float, e.g. a sampling ratio.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	return load(envKey, defaultValue,
		func(s string) (float64, error) { return strconv.ParseFloat(s, 64) },
		validator,
		func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) })
}

// LoadEnvBool accepts the strconv.ParseBool spellings.
func LoadEnvBool(envKey string, defaultValue bool) ConfigLoadResult {
	return load(envKey, defaultValue,
		func(s string) (bool, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return false, fmt.Errorf("invalid boolean format, expected 'true' or 'false'")
			}
			return b, nil
		},
		nil,
		strconv.FormatBool)
}

func load[T any](envKey string, defaultValue T, parse func(string) (T, error), validator func(T) error, format func(T) string) ConfigLoadResult {
	raw := os.Getenv(envKey)
	if raw == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	fallback := func(err error) ConfigLoadResult {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf("Invalid %s='%s': %v, falling back to default '%s'",
				envKey, raw, err, format(defaultValue))},
			FallbackApplied: true,
		}
	}

	value, err := parse(raw)
	if err != nil {
		return fallback(err)
	}
	if validator != nil {
		if err := validator(value); err != nil {
			return fallback(err)
		}
	}
	return ConfigLoadResult{Value: value}
}
