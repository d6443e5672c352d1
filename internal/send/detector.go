// Package send recognizes user actions on the page that submit the prompt.
package send

import (
	"golang.org/x/net/html"

	"github.com/j-veylop/token-overlay-tui/internal/config"
	"github.com/j-veylop/token-overlay-tui/internal/models"
	"github.com/j-veylop/token-overlay-tui/internal/page"
)

// Kind is the role a registered element plays.
type Kind int

const (
	// KindEditor is the compose editor; plain Enter sends.
	KindEditor Kind = iota
	// KindSendButton is the send button; a click sends.
	KindSendButton
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindEditor:
		return "editor"
	case KindSendButton:
		return "send-button"
	default:
		return "unknown"
	}
}

// Trigger describes a detected send action.
type Trigger struct {
	Kind  Kind
	Event models.InputEvent
}

type registration struct {
	el   page.Element
	kind Kind
}

// Detector keeps the set of elements listened to. Registration is keyed by
// element identity, so attaching the same element twice is a no-op and a
// re-rendered element is a new registration.
type Detector struct {
	selectors     config.Selectors
	registrations map[*html.Node]registration
}

// New creates a Detector for the selector profile.
func New(selectors config.Selectors) *Detector {
	return &Detector{
		selectors:     selectors,
		registrations: make(map[*html.Node]registration),
	}
}

// Attach registers the editor and send button of doc. Registrations of
// elements that are no longer part of doc are dropped. It returns the
// number of new registrations and is safe to call after every mutation.
func (d *Detector) Attach(doc *page.Document) int {
	for node, reg := range d.registrations {
		if !doc.Contains(reg.el) {
			delete(d.registrations, node)
		}
	}

	added := 0
	if editor, ok := doc.QueryFirst(d.selectors.Editor); ok {
		if d.register(editor, KindEditor) {
			added++
		}
	}
	if button, ok := doc.QueryFirst(d.selectors.SendButton); ok {
		if d.register(button, KindSendButton) {
			added++
		}
	}
	return added
}

func (d *Detector) register(el page.Element, kind Kind) bool {
	if _, ok := d.registrations[el.Node()]; ok {
		return false
	}
	d.registrations[el.Node()] = registration{el: el, kind: kind}
	return true
}

// Registered reports whether el is listened to and in which role.
func (d *Detector) Registered(el page.Element) (Kind, bool) {
	reg, ok := d.registrations[el.Node()]
	return reg.kind, ok
}

// Len returns the number of registered elements.
func (d *Detector) Len() int {
	return len(d.registrations)
}

// Dispatch delivers ev to doc. The event bubbles from its target through
// the target's ancestors; the first registered element that treats it as a
// send returns the trigger. Events whose target is not in doc are ignored.
func (d *Detector) Dispatch(doc *page.Document, ev models.InputEvent) (Trigger, bool) {
	target, ok := doc.Find(ev.Target)
	if !ok {
		return Trigger{}, false
	}

	for el, ok := target, true; ok; el, ok = el.Parent() {
		reg, registered := d.registrations[el.Node()]
		if !registered {
			continue
		}
		switch {
		case reg.kind == KindEditor && ev.IsEnterWithoutShift():
			return Trigger{Kind: KindEditor, Event: ev}, true
		case reg.kind == KindSendButton && ev.Type == models.InputClick:
			return Trigger{Kind: KindSendButton, Event: ev}, true
		}
	}
	return Trigger{}, false
}
