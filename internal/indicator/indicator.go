// Package indicator surfaces party state as desktop notifications.
package indicator

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/rbright/cakemic/internal/config"
)

// Controller is the party-facing indicator contract.
type Controller interface {
	ShowListening(context.Context)
	ShowMicError(context.Context, string)
	ShowCelebration(context.Context, string)
	Hide(context.Context)
}

// Nop discards every indicator update.
type Nop struct{}

func (Nop) ShowListening(context.Context)           {}
func (Nop) ShowMicError(context.Context, string)    {}
func (Nop) ShowCelebration(context.Context, string) {}
func (Nop) Hide(context.Context)                    {}

const (
	dispatchTimeout           = 400 * time.Millisecond
	listeningTimeout          = 5 * time.Minute
	defaultErrorTimeout       = 1200 * time.Millisecond
	defaultCelebrationTimeout = 6 * time.Second
)

type kind int

const (
	kindListening kind = iota
	kindMicError
	kindCelebration
)

type notice struct {
	kind    kind
	text    string
	timeout time.Duration
}

// backend renders notices on one notification surface.
type backend interface {
	show(context.Context, notice) error
	clear(context.Context) error
}

// Notifier implements Controller on Hyprland toasts or freedesktop
// notifications. Dispatch failures are logged at debug and never returned.
type Notifier struct {
	enabled  bool
	backend  backend
	logger   *slog.Logger
	texts    messages
	errorTTL time.Duration
	partyTTL time.Duration
}

// New builds a notifier for cfg.Backend ("hypr" or "desktop").
func New(cfg config.IndicatorConfig, logger *slog.Logger) *Notifier {
	texts := localMessages()
	override(&texts.listening, cfg.TextListening)
	override(&texts.micError, cfg.TextMicError)
	override(&texts.celebration, cfg.TextCelebration)

	var b backend = hyprland{}
	if strings.EqualFold(strings.TrimSpace(cfg.Backend), "desktop") {
		name := strings.TrimSpace(cfg.DesktopAppName)
		if name == "" {
			name = "cakemic"
		}
		b = newDesktop(name)
	}

	return &Notifier{
		enabled:  cfg.Enable,
		backend:  b,
		logger:   logger,
		texts:    texts,
		errorTTL: millisOr(cfg.ErrorTimeoutMS, defaultErrorTimeout),
		partyTTL: millisOr(cfg.CelebrationTimeoutMS, defaultCelebrationTimeout),
	}
}

// ShowListening signals that the microphone is armed.
func (n *Notifier) ShowListening(ctx context.Context) {
	n.show(ctx, notice{kind: kindListening, text: n.texts.listening, timeout: listeningTimeout})
}

// ShowMicError reports that blow detection is unavailable.
func (n *Notifier) ShowMicError(ctx context.Context, text string) {
	if strings.TrimSpace(text) == "" {
		text = n.texts.micError
	}
	n.show(ctx, notice{kind: kindMicError, text: text, timeout: n.errorTTL})
}

// ShowCelebration announces that every candle is out.
func (n *Notifier) ShowCelebration(ctx context.Context, message string) {
	text := n.texts.celebration
	if message = strings.TrimSpace(message); message != "" {
		text += " " + message
	}
	n.show(ctx, notice{kind: kindCelebration, text: text, timeout: n.partyTTL})
}

// Hide clears whatever is showing.
func (n *Notifier) Hide(ctx context.Context) {
	if !n.enabled {
		return
	}
	n.dispatch(ctx, "hide", n.backend.clear)
}

func (n *Notifier) show(ctx context.Context, msg notice) {
	if !n.enabled {
		return
	}
	n.dispatch(ctx, "show", func(ctx context.Context) error {
		return n.backend.show(ctx, msg)
	})
}

func (n *Notifier) dispatch(ctx context.Context, op string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()
	if err := fn(ctx); err != nil && n.logger != nil {
		n.logger.Debug("indicator dispatch failed", "op", op, "error", err.Error())
	}
}

func override(dst *string, value string) {
	if value = strings.TrimSpace(value); value != "" {
		*dst = value
	}
}

func millisOr(ms int, fallback time.Duration) time.Duration {
	if ms <= 0 {
		return fallback
	}
	return time.Duration(ms) * time.Millisecond
}
