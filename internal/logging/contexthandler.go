package logging

import (
	"context"
	"log/slog"
)

// ContextProvider returns the live view state (bearing, zoom, active gesture)
// to stamp on each record.
type ContextProvider func() []slog.Attr

// ContextHandler stamps every record with the provider's attributes. A
// provider attribute is dropped when the record or a With call already set
// the same key, and empty string values are omitted so an idle gesture does
// not show up as gesture="".
type ContextHandler struct {
	inner    slog.Handler
	provider ContextProvider
	bound    map[string]bool
}

// NewContextHandler wraps inner. provider may be nil.
func NewContextHandler(inner slog.Handler, provider ContextProvider) *ContextHandler {
	return &ContextHandler{inner: inner, provider: provider}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.provider == nil {
		return h.inner.Handle(ctx, r)
	}

	own := make(map[string]bool, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		own[a.Key] = true
		return true
	})

	for _, a := range h.provider() {
		if own[a.Key] || h.bound[a.Key] {
			continue
		}
		if a.Value.Kind() == slog.KindString && a.Value.String() == "" {
			continue
		}
		r.AddAttrs(a)
	}
	return h.inner.Handle(ctx, r)
}

func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	bound := make(map[string]bool, len(h.bound)+len(attrs))
	for k := range h.bound {
		bound[k] = true
	}
	for _, a := range attrs {
		bound[a.Key] = true
	}
	return &ContextHandler{inner: h.inner.WithAttrs(attrs), provider: h.provider, bound: bound}
}

// WithGroup nests both the record's and the provider's attributes under name.
// Keys bound outside the group no longer shadow provider attributes.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	return &ContextHandler{inner: h.inner.WithGroup(name), provider: h.provider}
}
