// Package errkind attaches a kind, and the kinds it also satisfies, to an error value.
//
// Kinds let configuration refer to families of failures by name. A kinded error
// created with lineage ["http.error", "transient"] is matched by a rule naming
// its own kind, by a rule naming any kind in its lineage, and by the root kind Any.
package errkind

import (
	"errors"
	"strings"
)

// Any is the root kind. Every non-nil error satisfies it.
const Any Kind = "error"

type (
	// Kind identifies a family of errors.
	Kind string

	// Kinder is implemented by errors that report the kinds they satisfy,
	// most specific first.
	Kinder interface {
		Kinds() []Kind
	}

	// Error is an error tagged with a kind and its lineage.
	Error struct {
		Kind    Kind
		Lineage []Kind
		Msg     string
		Err     error
	}
)

// New returns an error of the given kind. parents lists the kinds it also
// satisfies, most specific first.
func New(kind Kind, msg string, parents ...Kind) *Error {
	return &Error{
		Kind:    kind,
		Lineage: parents,
		Msg:     msg,
	}
}

// Wrap tags err with a kind. It returns nil when err is nil.
func Wrap(err error, kind Kind, parents ...Kind) error {
	if err == nil {
		return nil
	}

	return &Error{
		Kind:    kind,
		Lineage: parents,
		Err:     err,
	}
}

func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Err != nil:
		return e.Msg + ": " + e.Err.Error()
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kinds returns the error kind followed by its lineage.
func (e *Error) Kinds() []Kind {
	kinds := make([]Kind, 0, len(e.Lineage)+1)
	kinds = append(kinds, e.Kind)

	return append(kinds, e.Lineage...)
}

// Is reports whether any error in err's tree is of the given kind, either
// directly or through its lineage. Kinds are compared case-insensitively and a
// leading backslash is ignored.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}

	want := normalize(kind)
	if want == normalize(Any) {
		return true
	}

	return walk(err, func(e error) bool {
		k, ok := e.(Kinder)
		if !ok {
			return false
		}

		for _, have := range k.Kinds() {
			if normalize(have) == want {
				return true
			}
		}

		return false
	})
}

// Of returns the most specific kind found in err's tree, or Any.
func Of(err error) Kind {
	var k Kinder
	if errors.As(err, &k) {
		if kinds := k.Kinds(); len(kinds) > 0 {
			return kinds[0]
		}
	}

	return Any
}

func walk(err error, fn func(error) bool) bool {
	for err != nil {
		if fn(err) {
			return true
		}

		switch x := err.(type) {
		case interface{ Unwrap() error }:
			err = x.Unwrap()
		case interface{ Unwrap() []error }:
			for _, inner := range x.Unwrap() {
				if walk(inner, fn) {
					return true
				}
			}

			return false
		default:
			return false
		}
	}

	return false
}

func normalize(k Kind) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(string(k)), `\`))
}
