package views

import (
	"fmt"

	"github.com/matheus3301/guestbook/internal/guestbook"
	"github.com/matheus3301/guestbook/internal/tui/ui"
	"github.com/rivo/tview"
)

// Submit button labels.
const (
	SignLabel   = "Sign Guestbook"
	UpdateLabel = "Update Entry"
	SavingLabel = "Saving..."
)

const (
	submitButton = 0
	cancelButton = 1
)

// EntryForm edits the draft: a name field, a message area and two buttons.
// The widgets only mirror the draft; every change is reported through callbacks.
type EntryForm struct {
	*tview.Form
	theme   *ui.Theme
	name    *tview.InputField
	message *tview.TextArea

	onName    func(string)
	onMessage func(string)
	onSubmit  func()
	onCancel  func()
}

// NewEntryForm creates an empty compose form.
func NewEntryForm(theme *ui.Theme) *EntryForm {
	ef := &EntryForm{Form: tview.NewForm(), theme: theme}

	ef.name = tview.NewInputField().
		SetLabel("Name").
		SetFieldWidth(0).
		SetPlaceholder("Your name")
	ef.name.SetChangedFunc(func(text string) {
		if ef.onName != nil {
			ef.onName(text)
		}
	})

	ef.message = tview.NewTextArea().
		SetLabel("Message").
		SetPlaceholder("Leave a message...")
	ef.message.SetSize(6, 0)
	ef.message.SetChangedFunc(func() {
		if ef.onMessage != nil {
			ef.onMessage(ef.message.GetText())
		}
	})

	ef.AddFormItem(ef.name).
		AddFormItem(ef.message).
		AddButton(SignLabel, func() {
			if ef.onSubmit != nil {
				ef.onSubmit()
			}
		}).
		AddButton("Clear", func() {
			if ef.onCancel != nil {
				ef.onCancel()
			}
		})

	ef.SetBorder(true).
		SetBorderColor(theme.BorderColor).
		SetTitle(" Sign the Guestbook ").
		SetTitleColor(theme.TitleColor)
	ef.SetBackgroundColor(theme.BgColor)
	ef.SetButtonBackgroundColor(theme.ButtonBgColor)
	ef.SetButtonTextColor(theme.ButtonFgColor)
	return ef
}

// SetOnName sets the callback for name edits.
func (ef *EntryForm) SetOnName(fn func(string)) { ef.onName = fn }

// SetOnMessage sets the callback for message edits.
func (ef *EntryForm) SetOnMessage(fn func(string)) { ef.onMessage = fn }

// SetOnSubmit sets the submit button callback.
func (ef *EntryForm) SetOnSubmit(fn func()) { ef.onSubmit = fn }

// SetOnCancel sets the Clear/Cancel button callback.
func (ef *EntryForm) SetOnCancel(fn func()) { ef.onCancel = fn }

// Sync makes the widgets reflect d. Fields are only rewritten when they differ,
// so the cursor is not disturbed while the user types.
func (ef *EntryForm) Sync(d guestbook.Draft, submitting bool) {
	if ef.name.GetText() != d.Name {
		ef.name.SetText(d.Name)
	}
	if ef.message.GetText() != d.Message {
		ef.message.SetText(d.Message, true)
	}

	label, cancel, title := SignLabel, "Clear", " Sign the Guestbook "
	if d.Mode() == guestbook.Editing {
		label, cancel = UpdateLabel, "Cancel"
		title = fmt.Sprintf(" Editing entry %s ", tview.Escape(string(d.EditTarget)))
	}
	if submitting {
		label = SavingLabel
	}
	submit := ef.GetButton(submitButton)
	submit.SetLabel(label)
	submit.SetDisabled(submitting)
	ef.GetButton(cancelButton).SetLabel(cancel)
	ef.SetTitle(title)
}

// SubmitLabel returns the current submit button label.
func (ef *EntryForm) SubmitLabel() string {
	return ef.GetButton(submitButton).GetLabel()
}

// Values returns the texts currently in the widgets.
func (ef *EntryForm) Values() (name, message string) {
	return ef.name.GetText(), ef.message.GetText()
}

// FocusName moves focus to the name field on the next draw.
func (ef *EntryForm) FocusName() {
	ef.SetFocus(0)
}
