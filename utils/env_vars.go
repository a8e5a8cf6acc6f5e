package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"
)

type envTypes interface {
	string | int | float64 | bool
}

// GetEnv reads an environment variable into the requested type, falling back
// to defaultValue when unset or empty. A set but unparsable value panics: the
// deployment is misconfigured and must not start.
func GetEnv[T envTypes](envVar string, defaultValue T) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		return defaultValue
	}

	value, err := parseEnv[T](envVar, envValue)
	if err != nil {
		panic(err)
	}
	return value
}

func GetRequiredEnv[T envTypes](envVar string) T {
	envValue, ok := os.LookupEnv(envVar)
	if !ok || envValue == "" {
		log.Fatalf("%s environment variable is required", envVar)
	}

	value, err := parseEnv[T](envVar, envValue)
	if err != nil {
		log.Fatal(err)
	}
	return value
}

func parseEnv[T envTypes](envVar, envValue string) (T, error) {
	var out T

	switch ptr := any(&out).(type) {
	case *string:
		*ptr = envValue
	case *int:
		intValue, err := strconv.Atoi(envValue)
		if err != nil {
			return out, fmt.Errorf("environment variable %s: '%s' is not an integer", envVar, envValue)
		}
		*ptr = intValue
	case *float64:
		floatValue, err := strconv.ParseFloat(envValue, 64)
		if err != nil {
			return out, fmt.Errorf("environment variable %s: '%s' is not a number", envVar, envValue)
		}
		*ptr = floatValue
	case *bool:
		boolValue, err := strconv.ParseBool(envValue)
		if err != nil {
			return out, fmt.Errorf("environment variable %s: '%s' is not a boolean", envVar, envValue)
		}
		*ptr = boolValue
	}

	return out, nil
}
