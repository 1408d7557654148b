// Package processor defines the contract shared by message handlers and the
// decorators wrapped around them.
//
// A Processor handles one message with a set of options. Decorators such as the
// retry processor implement the same contract as the processor they wrap, so
// they can be stacked in any order:
//
//	stack := throttle.New(retry.New(handler, publisher, retry.WithLogger(logger)))
//	err := stack.Process(ctx, msg, processor.Options{
//		"retry_key_pattern":       "retry_%attempt%",
//		"max_messages_per_second": 50,
//	})
//
// Processors that accept options implement Configurable. The outermost layer
// resolves the options of the whole stack once and inner layers trust the result.
// Decorators hand over to the processor they wrap through Next, so a plain
// handler never sees the resolved mark and any stack it runs resolves its own
// options.
package processor

import (
	"context"

	"github.com/architeacher/svc-message-retry/pkg/broker"
)

type (
	// Processor handles a single message.
	Processor interface {
		Process(ctx context.Context, msg broker.Message, options Options) error
	}

	// Configurable is implemented by processors that declare options.
	// Decorators also declare the options of the processor they wrap.
	Configurable interface {
		SetDefaultOptions(resolver *OptionsResolver)
	}

	// Func adapts a function to Processor.
	Func func(ctx context.Context, msg broker.Message, options Options) error
)

func (f Func) Process(ctx context.Context, msg broker.Message, options Options) error {
	return f(ctx, msg, options)
}

type resolvedKey struct{}

func withoutResolvedOptions(ctx context.Context) context.Context {
	if !OptionsResolved(ctx) {
		return ctx
	}

	return context.WithValue(ctx, resolvedKey{}, false)
}

// WithResolvedOptions marks ctx as carrying options already resolved for the whole stack.
func WithResolvedOptions(ctx context.Context) context.Context {
	return context.WithValue(ctx, resolvedKey{}, true)
}

// OptionsResolved reports whether an enclosing layer already resolved the options.
func OptionsResolved(ctx context.Context) bool {
	resolved, _ := ctx.Value(resolvedKey{}).(bool)

	return resolved
}

// Declare lets p declare its options into resolver when p is Configurable.
func Declare(p Processor, resolver *OptionsResolver) {
	if c, ok := p.(Configurable); ok {
		c.SetDefaultOptions(resolver)
	}
}

// Resolve resolves options for the stack rooted at p, unless ctx shows that an
// enclosing layer already did. The returned context is marked as resolved.
func Resolve(ctx context.Context, p Processor, options Options) (context.Context, Options, error) {
	if OptionsResolved(ctx) {
		return ctx, options, nil
	}

	resolver := NewOptionsResolver()
	Declare(p, resolver)

	resolved, err := resolver.Resolve(options)
	if err != nil {
		return ctx, nil, err
	}

	return WithResolvedOptions(ctx), resolved, nil
}

// Next calls inner with options resolved by an enclosing layer. The resolved
// mark is kept only when inner is Configurable, which means it declared its
// options into the same resolver.
func Next(ctx context.Context, inner Processor, msg broker.Message, options Options) error {
	if _, ok := inner.(Configurable); !ok {
		ctx = withoutResolvedOptions(ctx)
	}

	return inner.Process(ctx, msg, options)
}
