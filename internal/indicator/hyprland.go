package indicator

import (
	"context"

	"github.com/rbright/cakemic/internal/hypr"
)

var hyprStyles = map[kind]struct {
	icon  hypr.Icon
	color string
}{
	kindListening:   {hypr.IconHint, "rgb(a6e3a1)"},
	kindMicError:    {hypr.IconError, "rgb(f38ba8)"},
	kindCelebration: {hypr.IconOK, "rgb(f9e2af)"},
}

// hyprland shows notices as hyprctl toasts.
type hyprland struct{}

func (hyprland) show(ctx context.Context, n notice) error {
	style := hyprStyles[n.kind]
	return hypr.Notify(ctx, hypr.Notification{
		Icon:    style.icon,
		Timeout: n.timeout,
		Color:   style.color,
		Text:    n.text,
	})
}

func (hyprland) clear(ctx context.Context) error {
	return hypr.Dismiss(ctx)
}
