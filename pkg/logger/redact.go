package logger

import (
	"context"
	"log/slog"
	"slices"
	"strings"
)

// RedactedPlaceholder replaces every secret occurrence.
const RedactedPlaceholder = "[REDACTED]"

// Redactor replaces known secret values inside arbitrary text.
// A nil Redactor is valid and returns input unchanged.
type Redactor struct {
	replacer *strings.Replacer
}

// NewRedactor builds a Redactor for the given secrets.
// Empty secrets are ignored. Longer secrets are replaced first so a
// secret that contains another is never partially revealed.
func NewRedactor(secrets ...string) *Redactor {
	clean := make([]string, 0, len(secrets))
	for _, s := range secrets {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	if len(clean) == 0 {
		return &Redactor{}
	}

	slices.SortFunc(clean, func(a, b string) int { return len(b) - len(a) })
	pairs := make([]string, 0, len(clean)*2)
	for _, s := range clean {
		pairs = append(pairs, s, RedactedPlaceholder)
	}
	return &Redactor{replacer: strings.NewReplacer(pairs...)}
}

// Redact returns s with every configured secret replaced.
func (r *Redactor) Redact(s string) string {
	if r == nil || r.replacer == nil {
		return s
	}
	return r.replacer.Replace(s)
}

// WithRedaction wraps the logger so secrets never reach any output.
func WithRedaction(log *slog.Logger, r *Redactor) *slog.Logger {
	if r == nil || r.replacer == nil {
		return log
	}
	return slog.New(&redactHandler{next: log.Handler(), redactor: r})
}

// redactHandler rewrites the message and every string-like attribute.
type redactHandler struct {
	next     slog.Handler
	redactor *Redactor
}

func (h *redactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *redactHandler) Handle(ctx context.Context, rec slog.Record) error {
	out := slog.NewRecord(rec.Time, rec.Level, h.redactor.Redact(rec.Message), rec.PC)
	rec.Attrs(func(a slog.Attr) bool {
		out.AddAttrs(h.redactAttr(a))
		return true
	})
	return h.next.Handle(ctx, out)
}

func (h *redactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clean := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		clean[i] = h.redactAttr(a)
	}
	return &redactHandler{next: h.next.WithAttrs(clean), redactor: h.redactor}
}

func (h *redactHandler) WithGroup(name string) slog.Handler {
	return &redactHandler{next: h.next.WithGroup(name), redactor: h.redactor}
}

func (h *redactHandler) redactAttr(a slog.Attr) slog.Attr {
	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, h.redactor.Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		clean := make([]any, len(group))
		for i, ga := range group {
			clean[i] = h.redactAttr(ga)
		}
		return slog.Group(a.Key, clean...)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return slog.String(a.Key, h.redactor.Redact(err.Error()))
		}
		return a
	default:
		return a
	}
}
