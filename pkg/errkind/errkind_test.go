package errkind

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs(t *testing.T) {
	t.Parallel()

	badCall := New("BadMethodCallException", "bad call", "BadFunctionCallException", "LogicException")

	tests := []struct {
		name string
		err  error
		kind Kind
		want bool
	}{
		{name: "exact kind", err: badCall, kind: "BadMethodCallException", want: true},
		{name: "ancestor kind", err: badCall, kind: "LogicException", want: true},
		{name: "leading backslash", err: badCall, kind: `\LogicException`, want: true},
		{name: "case insensitive", err: badCall, kind: "logicexception", want: true},
		{name: "unrelated kind", err: badCall, kind: "RuntimeException", want: false},
		{name: "root kind", err: badCall, kind: Any, want: true},
		{name: "plain error matches root", err: errors.New("boom"), kind: Any, want: true},
		{name: "plain error has no kind", err: errors.New("boom"), kind: "LogicException", want: false},
		{name: "wrapped with fmt", err: fmt.Errorf("outer: %w", badCall), kind: "LogicException", want: true},
		{name: "joined errors", err: errors.Join(errors.New("a"), badCall), kind: "BadFunctionCallException", want: true},
		{name: "nil error", err: nil, kind: Any, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, Is(tt.err, tt.kind))
		})
	}
}

func TestWrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := Wrap(cause, "transport", "transient")

	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, "transient"))
	assert.Equal(t, "connection refused", err.Error())
	assert.Nil(t, Wrap(nil, "transport"))
}

func TestOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Kind("timeout"), Of(fmt.Errorf("wrapped: %w", New("timeout", "slow", "transient"))))
	assert.Equal(t, Any, Of(errors.New("plain")))
}

func TestError_Error(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "a: b", (&Error{Kind: "k", Msg: "a", Err: errors.New("b")}).Error())
	assert.Equal(t, "k", (&Error{Kind: "k"}).Error())
	assert.Equal(t, []Kind{"k", "p"}, New("k", "", "p").Kinds())
}
