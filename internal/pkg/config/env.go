// Package config reads process configuration from environment variables.
//
// Every loader is fail-open: an unset variable yields the default silently,
// and an unparsable or invalid one yields the default plus a warning, so a
// typo in one variable never keeps a process from starting. Callers log the
// warnings and count them with ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Outcome is the type-independent part of a Result.
type Outcome struct {
	// Warnings holds one message per rejected value.
	Warnings []string
	// FallbackApplied is set when the variable was present but rejected.
	FallbackApplied bool
}

// Result is a loaded value and how it was obtained.
type Result[T any] struct {
	Value T
	Outcome
}

// load is the shared fail-open path of every typed loader.
func load[T any](key string, def T, parse func(string) (T, error), validate func(T) error) Result[T] {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return Result[T]{Value: def}
	}

	v, err := parse(raw)
	if err == nil && validate != nil {
		err = validate(v)
	}
	if err != nil {
		return Result[T]{
			Value: def,
			Outcome: Outcome{
				Warnings:        []string{fmt.Sprintf("invalid %s=%q: %v, falling back to default '%v'", key, raw, err, def)},
				FallbackApplied: true,
			},
		}
	}
	return Result[T]{Value: v}
}

// LoadEnvString returns key's value, or def when it is unset or blank.
func LoadEnvString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// LoadEnvWithFallback loads a string checked by validate.
func LoadEnvWithFallback(key, def string, validate func(string) error) Result[string] {
	return load(key, def, func(s string) (string, error) { return s, nil }, validate)
}

// LoadEnvDuration loads a time.ParseDuration value checked by validate.
func LoadEnvDuration(key string, def time.Duration, validate func(time.Duration) error) Result[time.Duration] {
	return load(key, def, time.ParseDuration, validate)
}

// LoadEnvInt loads a base-10 integer checked by validate.
func LoadEnvInt(key string, def int, validate func(int) error) Result[int] {
	return load(key, def, strconv.Atoi, validate)
}

// LoadEnvBool loads a strconv.ParseBool value.
func LoadEnvBool(key string, def bool) Result[bool] {
	return load(key, def, strconv.ParseBool, nil)
}

// LoadEnvFloat loads a strconv.ParseFloat value checked by validate.
func LoadEnvFloat(key string, def float64, validate func(float64) error) Result[float64] {
	return load(key, def, func(s string) (float64, error) { return strconv.ParseFloat(s, 64) }, validate)
}
