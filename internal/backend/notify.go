package backend

import (
	"context"
	"time"

	"github.com/equip-manager/equip-console/internal/shared"
)

// Notification kinds understood by the UI.
const (
	KindSuccess = "success"
	KindError   = "error"
	KindWarning = "warning"
	KindInfo    = "info"
)

// Notification is a transient message shown to the operator.
type Notification struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Notifier delivers notifications to whoever is watching the request.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notification)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, n Notification) { f(ctx, n) }

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, Notification) {})

// SessionNotifier queues notifications as flash messages on the session in ctx.
type SessionNotifier struct{}

// Notify implements Notifier.
func (SessionNotifier) Notify(ctx context.Context, n Notification) {
	if sess := shared.SessionFromContext(ctx); sess != nil {
		sess.AddFlash(shared.FlashMessage{Kind: n.Kind, Message: n.Message})
	}
}

// RequestInfo describes one backend call for observers.
type RequestInfo struct {
	Method   string
	Endpoint string
	Status   int
	Err      error
	Elapsed  time.Duration
}

// Observer is told when backend calls start and finish. Finished is
// always called once for every Started.
type Observer interface {
	RequestStarted(ctx context.Context, info RequestInfo)
	RequestFinished(ctx context.Context, info RequestInfo)
}

type notifierKey struct{}
type observerKey struct{}

// WithNotifier overrides the notifier for calls made with ctx.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, notifierKey{}, n)
}

// WithObserver adds an observer for calls made with ctx.
func WithObserver(ctx context.Context, o Observer) context.Context {
	return context.WithValue(ctx, observerKey{}, o)
}

// Detach returns a context for work that outlives the caller's goroutine:
// not cancelled with ctx, notifications muted and no per-request observer.
// Request values such as the request id are kept.
func Detach(ctx context.Context) context.Context {
	ctx = context.WithoutCancel(ctx)
	ctx = context.WithValue(ctx, notifierKey{}, Discard)
	return context.WithValue(ctx, observerKey{}, nil)
}

// Notify sends n through the notifier bound to ctx, or fallback when none is bound.
func Notify(ctx context.Context, fallback Notifier, n Notification) {
	if override, ok := ctx.Value(notifierKey{}).(Notifier); ok && override != nil {
		override.Notify(ctx, n)
		return
	}
	if fallback != nil {
		fallback.Notify(ctx, n)
	}
}

func observerFromContext(ctx context.Context) Observer {
	o, _ := ctx.Value(observerKey{}).(Observer)
	return o
}
