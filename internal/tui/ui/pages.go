package ui

import "github.com/rivo/tview"

// Pages wraps tview.Pages with a base page and a stack of modal overlays.
type Pages struct {
	*tview.Pages
	base   string
	modals []string
}

// NewPages creates a page manager whose base page is p.
func NewPages(name string, p tview.Primitive) *Pages {
	pages := &Pages{Pages: tview.NewPages(), base: name}
	pages.AddPage(name, p, true, true)
	return pages
}

// ShowModal overlays p on top of the current page. Showing a name that is
// already up replaces its primitive.
func (p *Pages) ShowModal(name string, prim tview.Primitive) {
	if p.HasPage(name) {
		p.RemovePage(name)
		p.dropModal(name)
	}
	p.AddPage(name, prim, true, true)
	p.modals = append(p.modals, name)
}

// HideModal removes the named overlay. Unknown names are ignored.
func (p *Pages) HideModal(name string) {
	if !p.HasPage(name) {
		return
	}
	p.RemovePage(name)
	p.dropModal(name)
}

// HasModal reports whether any overlay is showing.
func (p *Pages) HasModal() bool {
	return len(p.modals) > 0
}

// Current returns the topmost page name.
func (p *Pages) Current() string {
	if n := len(p.modals); n > 0 {
		return p.modals[n-1]
	}
	return p.base
}

func (p *Pages) dropModal(name string) {
	for i, n := range p.modals {
		if n == name {
			p.modals = append(p.modals[:i], p.modals[i+1:]...)
			return
		}
	}
}
