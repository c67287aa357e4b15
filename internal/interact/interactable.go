// Package interact implements the interactable component: doors, chests,
// levers and anything else the player can use when facing it.
package interact

import (
	"github.com/dgrg/dungeon/internal/core/ecs"
	"github.com/dgrg/dungeon/internal/core/event"
)

// Interactable is attached to an entity the player can use. It starts
// unlocked.
type Interactable struct {
	Owner    ecs.EntityID
	unlocked bool
	focused  bool

	OnInteract     event.Signal[ecs.EntityID] // interactor
	OnCantInteract event.Signal[ecs.EntityID] // interactor, fired while locked
	OnLocked       event.Notify
	OnUnlocked     event.Notify
	OnFocusIn      event.Notify
	OnFocusOut     event.Notify
}

func New(owner ecs.EntityID) *Interactable {
	return &Interactable{Owner: owner, unlocked: true}
}

func (i *Interactable) Unlocked() bool { return i.unlocked }
func (i *Interactable) Focused() bool  { return i.focused }

// Interact uses the component on behalf of interactor.
func (i *Interactable) Interact(interactor ecs.EntityID) {
	if !i.unlocked {
		i.OnCantInteract.Broadcast(interactor)
		return
	}
	i.OnInteract.Broadcast(interactor)
}

func (i *Interactable) SetLock() {
	i.unlocked = false
	i.OnLocked.Broadcast()
}

func (i *Interactable) SetUnlock() {
	i.unlocked = true
	i.OnUnlocked.Broadcast()
}

func (i *Interactable) SetFocusIn() {
	i.focused = true
	i.OnFocusIn.Broadcast()
}

func (i *Interactable) SetFocusOut() {
	i.focused = false
	i.OnFocusOut.Broadcast()
}
