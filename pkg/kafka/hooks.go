package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Hook observes message handling. Before may enrich the handler context;
// an error from it fails the message without calling the handler.
type Hook interface {
	Before(ctx context.Context, km kafka.Message) (context.Context, error)
	After(ctx context.Context, km kafka.Message, err error)
	Failed(ctx context.Context, km kafka.Message, err error)
}

// HookFuncs adapts plain functions to Hook. Nil fields do nothing.
type HookFuncs struct {
	BeforeFunc func(context.Context, kafka.Message) (context.Context, error)
	AfterFunc  func(context.Context, kafka.Message, error)
	FailedFunc func(context.Context, kafka.Message, error)
}

func (h HookFuncs) Before(ctx context.Context, km kafka.Message) (context.Context, error) {
	if h.BeforeFunc == nil {
		return ctx, nil
	}
	return h.BeforeFunc(ctx, km)
}

func (h HookFuncs) After(ctx context.Context, km kafka.Message, err error) {
	if h.AfterFunc != nil {
		h.AfterFunc(ctx, km, err)
	}
}

func (h HookFuncs) Failed(ctx context.Context, km kafka.Message, err error) {
	if h.FailedFunc != nil {
		h.FailedFunc(ctx, km, err)
	}
}

type eventKeyCtx struct{}

// KeyHook exposes the message key to handlers through EventKey.
func KeyHook() Hook {
	return HookFuncs{BeforeFunc: func(ctx context.Context, km kafka.Message) (context.Context, error) {
		if len(km.Key) == 0 {
			return ctx, nil
		}
		return WithEventKey(ctx, string(km.Key)), nil
	}}
}

// EventKey returns the key stored by KeyHook, or "".
func EventKey(ctx context.Context) string {
	k, _ := ctx.Value(eventKeyCtx{}).(string)
	return k
}

// WithEventKey is what KeyHook does, for handler tests.
func WithEventKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, eventKeyCtx{}, key)
}
