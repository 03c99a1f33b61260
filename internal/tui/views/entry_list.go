package views

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/guestbook/internal/entry"
	"github.com/matheus3301/guestbook/internal/guestbook"
	"github.com/matheus3301/guestbook/internal/tui/ui"
	"github.com/rivo/tview"
)

// Placeholder texts shown in place of the table.
const (
	WakingText = "Waking up the server... Please wait a moment."
	EmptyText  = "No entries yet. Be the first to sign!"
)

// EntryList is the table of signed entries, newest first.
type EntryList struct {
	*tview.Table
	theme *ui.Theme
	shown []entry.Entry
	now   func() time.Time
}

// NewEntryList creates an empty entry table.
func NewEntryList(theme *ui.Theme) *EntryList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	table.SetBorder(true).
		SetBorderColor(theme.BorderColor).
		SetTitle(" Entries ").
		SetTitleColor(theme.TitleColor)
	table.SetBackgroundColor(theme.BgColor)
	table.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	return &EntryList{Table: table, theme: theme, now: time.Now}
}

// Update redraws the table. While the first load is pending, or after a failed
// fetch, a single notice replaces the rows. editing marks the row being edited.
func (l *EntryList) Update(entries []entry.Entry, s guestbook.Signals, editing entry.ID) {
	keep, hadSelection := l.SelectedEntry()
	l.Clear()
	l.shown = nil

	switch {
	case s.InitialLoading:
		l.placeholder(WakingText, l.theme.MutedColor)
		l.SetTitle(" Entries ")
		return
	case s.LastError != "":
		l.placeholder(s.LastError, l.theme.FlashErrColor)
		l.SetTitle(" Entries ")
		return
	case len(entries) == 0:
		l.placeholder(EmptyText, l.theme.MutedColor)
		l.SetTitle(" Entries (0) ")
		return
	}

	l.SetTitle(fmt.Sprintf(" Entries (%d) ", len(entries)))
	header := func(text string) *tview.TableCell {
		return tview.NewTableCell(text).SetSelectable(false).SetTextColor(l.theme.TableHeaderFg)
	}
	l.SetCell(0, 0, header(" "))
	l.SetCell(0, 1, header(" Name"))
	l.SetCell(0, 2, header(" Message"))
	l.SetCell(0, 3, header(" When"))

	now := l.now()
	selectRow := 1
	for i, e := range entries {
		row := i + 1
		mark := " "
		if editing != "" && e.ID == editing {
			mark = fmt.Sprintf("[%s]✎[-]", ui.ColorTag(l.theme.EditMarkColor))
		}
		l.SetCell(row, 0, tview.NewTableCell(mark))
		l.SetCell(row, 1, tview.NewTableCell(" "+tview.Escape(preview(e.Name, 24))).SetMaxWidth(26).SetExpansion(1))
		l.SetCell(row, 2, tview.NewTableCell(" "+tview.Escape(preview(e.Message, 80))).SetExpansion(3))
		l.SetCell(row, 3, tview.NewTableCell(" "+formatWhen(e.CreatedAt, now)).SetMaxWidth(12))
		if hadSelection && e.ID == keep.ID {
			selectRow = row
		}
	}
	l.shown = entries
	l.Select(selectRow, 0)
}

func (l *EntryList) placeholder(text string, color tcell.Color) {
	l.SetCell(0, 0, tview.NewTableCell(" "+tview.Escape(text)).
		SetSelectable(false).
		SetExpansion(1).
		SetTextColor(color))
}

// SelectedEntry returns the entry under the cursor.
func (l *EntryList) SelectedEntry() (entry.Entry, bool) {
	row, _ := l.GetSelection()
	idx := row - 1 // header
	if idx < 0 || idx >= len(l.shown) {
		return entry.Entry{}, false
	}
	return l.shown[idx], true
}
