package views

import (
	"sync"

	"github.com/matheus3301/guestbook/internal/tui/ui"
	"github.com/rivo/tview"
)

const (
	confirmPage   = "confirm"
	confirmYes    = "Delete"
	confirmCancel = "Cancel"
)

// ModalConfirmer asks for confirmation with a modal dialog. Confirm blocks the
// calling goroutine until the user answers, so it must never be called from
// the UI goroutine.
type ModalConfirmer struct {
	modal   *tview.Modal
	pages   *ui.Pages
	queue   func(func())
	onShow  func(tview.Primitive)
	onHide  func()
	stop    chan struct{}
	stopped sync.Once

	mu      sync.Mutex
	pending chan bool
}

// NewModalConfirmer builds the dialog. queue schedules work on the UI
// goroutine; onShow and onHide move focus to and from the dialog.
func NewModalConfirmer(theme *ui.Theme, pages *ui.Pages, queue func(func()), onShow func(tview.Primitive), onHide func()) *ModalConfirmer {
	c := &ModalConfirmer{
		pages:  pages,
		queue:  queue,
		onShow: onShow,
		onHide: onHide,
		stop:   make(chan struct{}),
	}
	c.modal = tview.NewModal().
		AddButtons([]string{confirmYes, confirmCancel}).
		SetDoneFunc(func(_ int, label string) {
			c.answer(label == confirmYes)
		})
	c.modal.SetBackgroundColor(theme.BgColor).
		SetBorderColor(theme.FlashWarnColor)
	return c
}

// Confirm shows prompt and waits for an answer. A second prompt while one is
// open, or a prompt after Close, is declined.
func (c *ModalConfirmer) Confirm(prompt string) bool {
	ch := make(chan bool, 1)
	c.mu.Lock()
	if c.pending != nil {
		c.mu.Unlock()
		return false
	}
	c.pending = ch
	c.mu.Unlock()

	select {
	case <-c.stop:
		c.clear(ch)
		return false
	default:
	}

	c.queue(func() {
		c.modal.SetText(prompt)
		c.pages.ShowModal(confirmPage, c.modal)
		if c.onShow != nil {
			c.onShow(c.modal)
		}
	})

	select {
	case ok := <-ch:
		return ok
	case <-c.stop:
		c.clear(ch)
		return false
	}
}

// Pending reports whether a prompt is waiting for an answer.
func (c *ModalConfirmer) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Close declines any open prompt and all later ones.
func (c *ModalConfirmer) Close() {
	c.stopped.Do(func() { close(c.stop) })
}

// answer runs on the UI goroutine when a button is chosen.
func (c *ModalConfirmer) answer(ok bool) {
	c.mu.Lock()
	ch := c.pending
	c.pending = nil
	c.mu.Unlock()

	c.pages.HideModal(confirmPage)
	if c.onHide != nil {
		c.onHide()
	}
	if ch != nil {
		ch <- ok
	}
}

func (c *ModalConfirmer) clear(ch chan bool) {
	c.mu.Lock()
	if c.pending == ch {
		c.pending = nil
	}
	c.mu.Unlock()
}
