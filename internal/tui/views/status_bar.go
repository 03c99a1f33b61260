package views

import (
	"fmt"
	"time"

	"github.com/matheus3301/guestbook/internal/guestbook"
	"github.com/matheus3301/guestbook/internal/tui/ui"
	"github.com/rivo/tview"
)

// StatusBar displays the controller state on one line.
type StatusBar struct {
	*tview.TextView
	theme   *ui.Theme
	count   int
	mode    guestbook.Mode
	signals guestbook.Signals
	now     func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBackgroundColor(tview.Styles.MoreContrastBackgroundColor)

	sb := &StatusBar{TextView: tv, theme: theme, mode: guestbook.Composing, now: time.Now}
	sb.render()
	return sb
}

// Update records the latest snapshot and redraws.
func (sb *StatusBar) Update(count int, mode guestbook.Mode, s guestbook.Signals) {
	sb.count = count
	sb.mode = mode
	sb.signals = s
	sb.render()
}

// Tick redraws the clock.
func (sb *StatusBar) Tick() {
	sb.render()
}

func (sb *StatusBar) state() string {
	switch {
	case sb.signals.Submitting:
		return fmt.Sprintf("[%s]saving[-]", ui.ColorTag(sb.theme.FlashWarnColor))
	case sb.signals.InitialLoading:
		return fmt.Sprintf("[%s]loading[-]", ui.ColorTag(sb.theme.MutedColor))
	case sb.signals.LastError != "":
		return fmt.Sprintf("[%s]offline[-]", ui.ColorTag(sb.theme.FlashErrColor))
	}
	return "[green]ok[-]"
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprintf(sb, " [::b]%s[-:-:-] | %d entries | %s | %s",
		sb.mode, sb.count, sb.state(), sb.now().Format("15:04"))
}
