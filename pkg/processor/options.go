package processor

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var (
	ErrUndefinedOption = errors.New("undefined option")
	ErrMissingOption   = errors.New("missing required option")
	ErrInvalidOption   = errors.New("invalid option")
)

type (
	// Options is a per-call configuration map.
	Options map[string]any

	// Normalizer validates an option value and returns its canonical form.
	Normalizer func(value any) (any, error)

	// ConfigurationError reports an option that could not be resolved.
	ConfigurationError struct {
		Option string
		Err    error
		Detail string
	}

	// OptionsResolver validates option maps against declared options and applies defaults.
	// Options that were not declared are rejected.
	OptionsResolver struct {
		defined     map[string]struct{}
		defaults    map[string]any
		required    map[string]struct{}
		normalizers map[string]Normalizer
	}
)

func (e *ConfigurationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("option %q: %v", e.Option, e.Err)
	}

	return fmt.Sprintf("option %q: %v: %s", e.Option, e.Err, e.Detail)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

func NewOptionsResolver() *OptionsResolver {
	return &OptionsResolver{
		defined:     make(map[string]struct{}),
		defaults:    make(map[string]any),
		required:    make(map[string]struct{}),
		normalizers: make(map[string]Normalizer),
	}
}

// SetDefault declares name with a default value.
func (r *OptionsResolver) SetDefault(name string, value any) *OptionsResolver {
	r.defined[name] = struct{}{}
	r.defaults[name] = value

	return r
}

// SetRequired declares options that must be present after defaults are applied.
func (r *OptionsResolver) SetRequired(names ...string) *OptionsResolver {
	for _, name := range names {
		r.defined[name] = struct{}{}
		r.required[name] = struct{}{}
	}

	return r
}

// SetNormalizer registers fn to validate and canonicalize the value of name.
func (r *OptionsResolver) SetNormalizer(name string, fn Normalizer) *OptionsResolver {
	r.defined[name] = struct{}{}
	r.normalizers[name] = fn

	return r
}

// DefinedOptions returns the declared option names, sorted.
func (r *OptionsResolver) DefinedOptions() []string {
	return slices.Sorted(maps.Keys(r.defined))
}

// Resolve merges options onto the defaults and validates the result.
// Defaults go through the normalizers too, so a resolved map never shares
// mutable values with the resolver.
func (r *OptionsResolver) Resolve(options Options) (Options, error) {
	var undefined []string
	for name := range options {
		if _, ok := r.defined[name]; !ok {
			undefined = append(undefined, name)
		}
	}

	if len(undefined) > 0 {
		slices.Sort(undefined)

		return nil, &ConfigurationError{
			Option: undefined[0],
			Err:    ErrUndefinedOption,
			Detail: "defined options are: " + strings.Join(r.DefinedOptions(), ", "),
		}
	}

	resolved := make(Options, len(r.defined))
	for name, value := range r.defaults {
		resolved[name] = value
	}

	for name, value := range options {
		resolved[name] = value
	}

	for _, name := range slices.Sorted(maps.Keys(r.required)) {
		if _, ok := resolved[name]; !ok {
			return nil, &ConfigurationError{Option: name, Err: ErrMissingOption}
		}
	}

	for _, name := range slices.Sorted(maps.Keys(r.normalizers)) {
		value, ok := resolved[name]
		if !ok {
			continue
		}

		normalized, err := r.normalizers[name](value)
		if err != nil {
			return nil, &ConfigurationError{Option: name, Err: ErrInvalidOption, Detail: err.Error()}
		}

		resolved[name] = normalized
	}

	return resolved, nil
}

// IntNormalizer accepts any Go integer type not below minValue and returns an int.
func IntNormalizer(minValue int) Normalizer {
	return func(value any) (any, error) {
		n, ok := ToInt(value)
		if !ok {
			return nil, fmt.Errorf("expected an integer, got %T", value)
		}

		if n < minValue {
			return nil, fmt.Errorf("must be greater than or equal to %d, got %d", minValue, n)
		}

		return n, nil
	}
}

// StringNormalizer accepts a string, optionally requiring it to contain substr.
func StringNormalizer(substr string) Normalizer {
	return func(value any) (any, error) {
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string, got %T", value)
		}

		if substr != "" && !strings.Contains(s, substr) {
			return nil, fmt.Errorf("must contain %q", substr)
		}

		return s, nil
	}
}

// ToInt converts any Go integer type to int.
func ToInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case uint:
		return int(v), true
	case uint8:
		return int(v), true
	case uint16:
		return int(v), true
	case uint32:
		return int(v), true
	case uint64:
		return int(v), true
	default:
		return 0, false
	}
}
