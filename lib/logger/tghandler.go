package logger

import (
	"context"
	"fmt"
	"log/slog"
)

// AdminNotifier forwards a text message to the bot admin chat.
// Implemented by bot.TgBot.
type AdminNotifier interface {
	NotifyAdmin(text string)
}

// AdminHandler is a slog.Handler that mirrors records at or above minLevel
// to the admin chat, on top of the wrapped handler. It lets operators see
// errors without tailing the log file.
type AdminHandler struct {
	handler  slog.Handler
	notifier AdminNotifier
	minLevel slog.Level
	attrs    []slog.Attr
}

func NewAdminHandler(handler slog.Handler, notifier AdminNotifier, minLevel slog.Level) *AdminHandler {
	return &AdminHandler{
		handler:  handler,
		notifier: notifier,
		minLevel: minLevel,
	}
}

func (h *AdminHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *AdminHandler) Handle(ctx context.Context, record slog.Record) error {
	err := h.handler.Handle(ctx, record)
	if err != nil {
		return err
	}

	if record.Level < h.minLevel || h.notifier == nil {
		return nil
	}

	msg := fmt.Sprintf("%s %s", record.Level.String(), record.Message)
	for _, attr := range h.attrs {
		msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
	}
	record.Attrs(func(attr slog.Attr) bool {
		msg += fmt.Sprintf("\n%s: %v", attr.Key, attr.Value)
		return true
	})
	h.notifier.NotifyAdmin(msg)
	return nil
}

func (h *AdminHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &AdminHandler{
		handler:  h.handler.WithAttrs(attrs),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    merged,
	}
}

func (h *AdminHandler) WithGroup(name string) slog.Handler {
	return &AdminHandler{
		handler:  h.handler.WithGroup(name),
		notifier: h.notifier,
		minLevel: h.minLevel,
		attrs:    h.attrs,
	}
}
