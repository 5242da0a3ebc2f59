package config

import (
	"flag"
	"fmt"
	"reflect"
	"strconv"
)

func setupFlags(flags *flag.FlagSet, value reflect.Value) error {
	return reflectConfiguration(
		value,
		func(flagName, defaultValue, flagUsage string) bool {
			return flagName != ""
		},
		func(fieldValue reflect.Value, flagName, defaultValue, flagUsage string) error {
			switch fieldValue.Kind() {
			case reflect.Bool:
				b, err := strconv.ParseBool(defaultValue)
				if err != nil {
					return err
				}
				flags.Bool(flagName, b, flagUsage)
			case reflect.Int64:
				i, err := strconv.ParseInt(defaultValue, 10, 64)
				if err != nil {
					return err
				}
				flags.Int64(flagName, i, flagUsage)
			case reflect.Float64:
				f, err := strconv.ParseFloat(defaultValue, 64)
				if err != nil {
					return err
				}
				flags.Float64(flagName, f, flagUsage)
			case reflect.String:
				flags.String(flagName, defaultValue, flagUsage)
			default:
				return fmt.Errorf("config: unsupported kind %s for flag %s", fieldValue.Kind(), flagName)
			}
			return nil
		},
	)
}

func setDefaults(value reflect.Value) error {
	return reflectConfiguration(
		value,
		func(flagName, defaultValue, flagUsage string) bool {
			return flagName != ""
		},
		func(fieldValue reflect.Value, flagName, defaultValue, flagUsage string) error {
			return setField(fieldValue, flagName, defaultValue)
		},
	)
}

func setFromFlags(flags *flag.FlagSet, value reflect.Value) error {
	setFlags := make(map[string]flag.Value)
	flags.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = f.Value
	})

	return reflectConfiguration(
		value,
		func(flagName, defaultValue, flagUsage string) bool {
			_, ok := setFlags[flagName]
			return ok
		},
		func(fieldValue reflect.Value, flagName, defaultValue, flagUsage string) error {
			return setField(fieldValue, flagName, setFlags[flagName].String())
		},
	)
}

func setField(fieldValue reflect.Value, flagName, raw string) error {
	switch fieldValue.Kind() {
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("config: %s: %w", flagName, err)
		}
		fieldValue.SetBool(b)
	case reflect.Int64:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", flagName, err)
		}
		fieldValue.SetInt(i)
	case reflect.Float64:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("config: %s: %w", flagName, err)
		}
		fieldValue.SetFloat(f)
	case reflect.String:
		fieldValue.SetString(raw)
	default:
		return fmt.Errorf("config: unsupported kind %s for flag %s", fieldValue.Kind(), flagName)
	}

	return nil
}

func reflectConfiguration(
	value reflect.Value,
	shouldHandle func(flagName, defaultValue, flagUsage string) bool,
	handle func(fieldValue reflect.Value, flagName, defaultValue, flagUsage string) error,
) error {
	if value.Kind() != reflect.Struct {
		return nil
	}

	t := value.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)

		flagName := field.Tag.Get("flag")
		defaultValue := field.Tag.Get("default")
		flagUsage := field.Tag.Get("usage")

		fieldValue := value.Field(i)

		if shouldHandle(flagName, defaultValue, flagUsage) {
			if err := handle(fieldValue, flagName, defaultValue, flagUsage); err != nil {
				return err
			}
		} else if fieldValue.Kind() == reflect.Struct {
			if err := reflectConfiguration(fieldValue, shouldHandle, handle); err != nil {
				return err
			}
		}
	}

	return nil
}
