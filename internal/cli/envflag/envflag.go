// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package envflag provides a wrapper around the standard flag package, allowing
// flags to be overridden by environment variables.
//
// Flags given on the command line win over environment variables, which win
// over defaults.
package envflag

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Type is a constraint that permits only types supported by envflag package.
type Type interface {
	int | int64 | float64 | bool | string | time.Duration
}

// Value sets up a flag on fs with the given name, default value, and usage
// information, and returns a pointer to its value.
//
// If the environment variable specified by envName is set when [Apply] is
// called and the flag was not given on the command line, it overrides the
// flag's default value.
func Value[T Type](fs *flag.FlagSet, name, envName string, value T, usage string) *T {
	result := new(T)
	Var(fs, result, name, envName, value, usage)
	return result
}

// Var is like [Value], but stores the flag's value in p.
func Var[T Type](fs *flag.FlagSet, p *T, name, envName string, value T, usage string) {
	*p = value
	usage += " Can be overridden by " + envName + " environment variable."
	fs.Var(&flagValue[T]{value: p, envName: envName}, name, usage)
}

// Apply sets every flag of fs that was defined by [Value] and not set on the
// command line from its environment variable, as returned by getenv.
//
// It must be called after fs.Parse.
func Apply(fs *flag.FlagSet, getenv func(string) string) error {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })

	var errs []error
	fs.VisitAll(func(f *flag.Flag) {
		ev, ok := f.Value.(envValue)
		if !ok || set[f.Name] {
			return
		}
		s := getenv(ev.env())
		if s == "" {
			return
		}
		if err := f.Value.Set(s); err != nil {
			errs = append(errs, fmt.Errorf("invalid value %q for %s: %w", s, ev.env(), err))
		}
	})
	return errors.Join(errs...)
}

type envValue interface {
	flag.Value
	env() string
}

type flagValue[T Type] struct {
	value   *T
	envName string
}

func (f *flagValue[T]) env() string { return f.envName }

// IsBoolFlag allows boolean flags to be given without a value, like -sandbox.
func (f *flagValue[T]) IsBoolFlag() bool {
	_, ok := any(f.value).(*bool)
	return ok
}

func (f *flagValue[T]) String() string {
	if f.value == nil {
		return ""
	}
	switch v := any(*f.value).(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case string:
		return v
	case time.Duration:
		return v.String()
	default:
		return ""
	}
}

func (f *flagValue[T]) Set(s string) error {
	switch p := any(f.value).(type) {
	case *int:
		v, err := strconv.Atoi(s)
		if err != nil {
			return err
		}
		*p = v
	case *int64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return err
		}
		*p = v
	case *float64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*p = v
	case *bool:
		v, err := strconv.ParseBool(s)
		if err != nil {
			return err
		}
		*p = v
	case *string:
		*p = s
	case *time.Duration:
		v, err := time.ParseDuration(s)
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}
