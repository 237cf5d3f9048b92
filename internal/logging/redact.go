// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatehouse Contributors

package logging

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// Redaction replaces sensitive values in log output.
const Redaction = "***"

// DefaultRedactFields are the attr keys masked when no explicit list
// is configured.
var DefaultRedactFields = []string{"password", "password_hash", "session_token", "reset_token"}

// Redact obfuscates the values of the named fields in a separated
// "field=value" message, e.g. Redact([]string{"password"}, "***",
// "email=a@b.c;password=hunter2;", ";").
func Redact(fields []string, redaction, message, separator string) string {
	if len(fields) == 0 {
		return message
	}
	escaped := make([]string, len(fields))
	for i, f := range fields {
		escaped[i] = regexp.QuoteMeta(f)
	}
	pattern := regexp.MustCompile(
		"(" + strings.Join(escaped, "|") + ")=([^" + regexp.QuoteMeta(separator) + "]*)",
	)
	return pattern.ReplaceAllString(message, "${1}="+redaction)
}

// redactingHandler masks the values of configured attr keys before the
// record reaches the inner handler.
type redactingHandler struct {
	handler slog.Handler
	fields  map[string]struct{}
}

// NewRedactingHandler wraps a handler so that attrs with the given
// keys log the redaction marker instead of their value. Matching is
// by attr key, at any group depth.
func NewRedactingHandler(inner slog.Handler, fields []string) slog.Handler {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return &redactingHandler{handler: inner, fields: set}
}

// Handle masks sensitive attrs and forwards the record.
func (h *redactingHandler) Handle(ctx context.Context, r slog.Record) error {
	masked := slog.NewRecord(r.Time, r.Level, r.Message, r.PC)
	r.Attrs(func(a slog.Attr) bool {
		masked.AddAttrs(h.mask(a))
		return true
	})
	//nolint:wrapcheck // Handler interface requires unwrapped error passthrough
	return h.handler.Handle(ctx, masked)
}

func (h *redactingHandler) mask(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		maskedGroup := make([]any, 0, len(group))
		for _, ga := range group {
			maskedGroup = append(maskedGroup, h.mask(ga))
		}
		return slog.Group(a.Key, maskedGroup...)
	}
	if _, sensitive := h.fields[a.Key]; sensitive {
		return slog.String(a.Key, Redaction)
	}
	return a
}

// Enabled returns true if the level is enabled.
func (h *redactingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes, masked.
func (h *redactingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		masked = append(masked, h.mask(a))
	}
	return &redactingHandler{handler: h.handler.WithAttrs(masked), fields: h.fields}
}

// WithGroup returns a new handler with the given group.
func (h *redactingHandler) WithGroup(name string) slog.Handler {
	return &redactingHandler{handler: h.handler.WithGroup(name), fields: h.fields}
}
