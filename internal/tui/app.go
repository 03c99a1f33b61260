package tui

import (
	"context"
	"errors"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/guestbook/internal/bus"
	"github.com/matheus3301/guestbook/internal/guestbook"
	"github.com/matheus3301/guestbook/internal/tui/keys"
	"github.com/matheus3301/guestbook/internal/tui/ui"
	"github.com/matheus3301/guestbook/internal/tui/views"
	"github.com/rivo/tview"
	"go.uber.org/zap"
)

// Focus scopes used for key dispatch.
const (
	scopeList = "list"
	scopeForm = "form"
)

const mainPage = "main"

// App is the main TUI application shell.
type App struct {
	app       *tview.Application
	theme     *ui.Theme
	pages     *ui.Pages
	ctrl      *guestbook.Controller
	bus       *bus.Bus
	registry  *keys.Registry
	flash     *ui.FlashModel
	flashBar  *ui.FlashBar
	menu      *ui.Menu
	logo      *ui.Logo
	statusBar *views.StatusBar
	list      *views.EntryList
	form      *views.EntryForm
	confirm   *views.ModalConfirmer
	logger    *zap.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewApp creates the TUI over remote. endpoint is only displayed.
func NewApp(remote guestbook.Remote, endpoint string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	theme := ui.DefaultTheme()

	a := &App{
		app:       tview.NewApplication(),
		theme:     theme,
		bus:       bus.New(),
		registry:  keys.NewRegistry(),
		flash:     ui.NewFlashModel(),
		flashBar:  ui.NewFlashBar(theme),
		menu:      ui.NewMenu(theme),
		logo:      ui.NewLogo(theme, endpoint),
		statusBar: views.NewStatusBar(theme),
		list:      views.NewEntryList(theme),
		form:      views.NewEntryForm(theme),
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}

	a.setupLayout()
	a.confirm = views.NewModalConfirmer(theme, a.pages,
		func(fn func()) { a.app.QueueUpdateDraw(fn) },
		func(p tview.Primitive) { a.app.SetFocus(p) },
		func() { a.app.SetFocus(a.list) },
	)
	a.ctrl = guestbook.New(remote, a.confirm, a.bus, logger.Named("guestbook"))

	a.setupBindings()
	a.setupCallbacks()
	a.sync()
	return a
}

func (a *App) setupLayout() {
	body := tview.NewFlex().
		AddItem(a.form, 0, 2, true).
		AddItem(a.list, 0, 3, false)

	root := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(a.logo, 1, 0, false).
		AddItem(body, 0, 1, true).
		AddItem(a.flashBar, 1, 0, false).
		AddItem(a.menu, 1, 0, false).
		AddItem(a.statusBar, 1, 0, false)

	a.pages = ui.NewPages(mainPage, root)
	a.app.SetRoot(a.pages, true)

	a.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		// The modal owns every key while it is up.
		if a.pages.HasModal() {
			return event
		}
		if a.registry.HandleEvent(a.scope(), event) {
			return nil
		}
		return event
	})
}

func (a *App) setupBindings() {
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyCtrlS, Label: "ctrl-s", Description: "save", Visible: true,
		Handler: a.submit,
	})
	a.registry.AddGlobal(&keys.Action{
		Key: tcell.KeyCtrlR, Label: "ctrl-r", Description: "refresh",
		Handler: a.refresh,
	})

	a.registry.AddView(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: 'i', Label: "i", Description: "write", Visible: true,
		Handler: a.enterForm,
	})
	a.registry.AddView(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: 'e', Label: "e", Description: "edit", Visible: true,
		Handler: a.editSelected,
	})
	a.registry.AddView(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: 'd', Label: "d", Description: "delete", Visible: true,
		Handler: a.deleteSelected,
	})
	a.registry.AddView(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: 'r', Label: "r", Description: "refresh", Visible: true,
		Handler: a.refresh,
	})
	a.registry.AddView(scopeList, &keys.Action{
		Key: tcell.KeyRune, Rune: 'q', Label: "q", Description: "quit", Visible: true,
		Handler: a.app.Stop,
	})
	a.registry.AddView(scopeForm, &keys.Action{
		Key: tcell.KeyEscape, Label: "esc", Description: "back", Visible: true,
		Handler: a.leaveForm,
	})
}

func (a *App) setupCallbacks() {
	a.form.SetOnName(a.ctrl.SetName)
	a.form.SetOnMessage(a.ctrl.SetMessage)
	a.form.SetOnSubmit(a.submit)
	a.form.SetOnCancel(a.ctrl.CancelEdit)

	a.list.SetSelectedFunc(func(_, _ int) { a.editSelected() })
	a.app.SetBeforeDrawFunc(func(tcell.Screen) bool {
		a.menu.Update(a.registry.Hints(a.scope()))
		return false
	})
}

func (a *App) scope() string {
	if a.list.HasFocus() {
		return scopeList
	}
	return scopeForm
}

func (a *App) enterForm() {
	a.form.FocusName()
	a.app.SetFocus(a.form)
}

// leaveForm drops an edit in progress and returns to the list. A compose
// draft is kept.
func (a *App) leaveForm() {
	if a.ctrl.Draft().Mode() == guestbook.Editing {
		a.ctrl.CancelEdit()
	}
	a.app.SetFocus(a.list)
}

func (a *App) editSelected() {
	e, ok := a.list.SelectedEntry()
	if !ok {
		return
	}
	if err := a.ctrl.BeginEdit(e); err != nil {
		a.flash.Warn("That entry is no longer in the list.")
		return
	}
	a.enterForm()
}

func (a *App) deleteSelected() {
	e, ok := a.list.SelectedEntry()
	if !ok {
		return
	}
	// Delete blocks on the modal, which needs the UI goroutine free.
	go func() {
		err := a.ctrl.Delete(a.ctx, e.ID)
		switch {
		case err == nil:
			a.flash.Info("Entry deleted.")
		case errors.Is(err, guestbook.ErrNotConfirmed), errors.Is(err, guestbook.ErrClosed):
		default:
			a.logger.Debug("delete returned", zap.Error(err))
		}
	}()
}

func (a *App) submit() {
	go func() {
		err := a.ctrl.Submit(a.ctx)
		switch {
		case err == nil:
			a.flash.Info("Saved.")
		case errors.Is(err, guestbook.ErrInvalidDraft):
			a.flash.Warn("Name and message are required.")
		case errors.Is(err, guestbook.ErrSubmitInFlight), errors.Is(err, guestbook.ErrClosed):
		default:
			a.logger.Debug("submit returned", zap.Error(err))
		}
	}()
}

func (a *App) refresh() {
	go func() { _ = a.ctrl.Refresh(a.ctx) }()
}

// sync copies controller state into the widgets. Runs on the UI goroutine.
func (a *App) sync() {
	entries := a.ctrl.Entries()
	d := a.ctrl.Draft()
	s := a.ctrl.Signals()

	a.list.Update(entries, s, d.EditTarget)
	a.form.Sync(d, s.Submitting)
	a.statusBar.Update(len(entries), d.Mode(), s)
	if n, ok := a.ctrl.TakeNotice(); ok {
		a.flash.Err(n.Text)
	}
	a.flashBar.Update(a.flash.Current())
}

// watch redraws on every controller event, flash message and clock tick.
func (a *App) watch(events <-chan bus.Event) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-events:
			a.app.QueueUpdateDraw(a.sync)
		case <-a.flash.Watch():
			a.app.QueueUpdateDraw(func() { a.flashBar.Update(a.flash.Current()) })
		case <-ticker.C:
			a.app.QueueUpdateDraw(func() {
				a.flashBar.Update(a.flash.Current())
				a.statusBar.Tick()
			})
		case <-a.ctx.Done():
			return
		}
	}
}

// Run starts the initial load and blocks until the user quits.
func (a *App) Run() error {
	events, unsub := a.bus.Subscribe("", 64)
	defer unsub()
	defer a.shutdown()

	go a.watch(events)
	a.ctrl.Start(a.ctx)
	a.logger.Info("tui started")
	return a.app.Run()
}

func (a *App) shutdown() {
	a.cancel()
	a.confirm.Close()
	a.ctrl.Close()
	a.logger.Info("tui stopped")
}

// Stop gracefully shuts down the TUI.
func (a *App) Stop() {
	a.app.Stop()
}
