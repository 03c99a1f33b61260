package ui

import (
	"fmt"

	"github.com/rivo/tview"
)

// Logo displays the app title and the endpoint in use.
type Logo struct {
	*tview.TextView
	theme *Theme
}

// NewLogo creates a new logo component.
func NewLogo(theme *Theme, endpoint string) *Logo {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetTextAlign(tview.AlignLeft)
	tv.SetBackgroundColor(theme.BgColor)
	tv.SetBorderPadding(0, 0, 1, 0)

	l := &Logo{
		TextView: tv,
		theme:    theme,
	}
	l.render(endpoint)
	return l
}

func (l *Logo) render(endpoint string) {
	_, _ = fmt.Fprintf(l,
		"[%s::b]✎ Guestbook[-:-:-]  [%s]%s[-]",
		ColorTag(l.theme.TitleColor), ColorTag(l.theme.MutedColor), tview.Escape(endpoint),
	)
}
