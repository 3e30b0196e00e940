// Package dialog manages the transient state of the create/edit form
// and the delete confirmation, delegating the confirmed operation to
// the CRUD service.
package dialog

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/conflu/conflu-admin/internal/api"
	"github.com/conflu/conflu-admin/internal/crud"
	"github.com/conflu/conflu-admin/internal/model"
)

// Mode is the explicit form mode, fixed at open time. It is never
// re-derived from whether a selection happens to be nil.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

var (
	// ErrNoOpenForm is returned when Submit is called with no form open.
	ErrNoOpenForm = errors.New("no form is open")
	// ErrNoPendingDelete is returned when ConfirmDelete is called with
	// no delete confirmation open.
	ErrNoPendingDelete = errors.New("no entity is pending deletion")
)

// Orchestrator owns {formOpen, deleteOpen, selected, pendingDelete}
// for one entity kind. Error display stays with the CRUD service's
// error slots; the orchestrator only decides whether dialogs stay open.
type Orchestrator[T model.Entity, C any, U any] struct {
	svc *crud.Service[T, C, U]
	log zerolog.Logger

	mu            sync.Mutex
	formOpen      bool
	mode          Mode
	selected      *T
	deleteOpen    bool
	pendingDelete *T
}

// New builds an orchestrator over a CRUD service.
func New[T model.Entity, C any, U any](svc *crud.Service[T, C, U], log zerolog.Logger) *Orchestrator[T, C, U] {
	return &Orchestrator[T, C, U]{
		svc: svc,
		log: log.With().Str("component", "dialog").Str("kind", string(svc.Kind())).Logger(),
	}
}

// OpenCreate opens the form in create mode with no selection.
func (o *Orchestrator[T, C, U]) OpenCreate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.formOpen = true
	o.mode = ModeCreate
	o.selected = nil
}

// OpenEdit opens the form in edit mode for the given entity.
func (o *Orchestrator[T, C, U]) OpenEdit(item T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.formOpen = true
	o.mode = ModeEdit
	o.selected = &item
}

// CloseForm closes the form and clears the selection.
func (o *Orchestrator[T, C, U]) CloseForm() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.formOpen = false
	o.mode = ModeCreate
	o.selected = nil
}

// IsFormOpen reports whether the form dialog is open.
func (o *Orchestrator[T, C, U]) IsFormOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.formOpen
}

// FormMode returns the mode fixed when the form was opened.
func (o *Orchestrator[T, C, U]) FormMode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Selected returns the entity being edited, nil in create mode.
func (o *Orchestrator[T, C, U]) Selected() *T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.selected
}

// Submit dispatches the form: update when opened in edit mode, create
// otherwise. Success closes the form and clears the selection; failure
// leaves it open and returns the error (already recorded on the CRUD
// service's slot for display).
func (o *Orchestrator[T, C, U]) Submit(ctx context.Context, create C, update U) error {
	o.mu.Lock()
	if !o.formOpen {
		o.mu.Unlock()
		return ErrNoOpenForm
	}
	mode := o.mode
	selected := o.selected
	o.mu.Unlock()

	var err error
	if mode == ModeEdit {
		_, err = o.svc.Update(ctx, (*selected).EntityID(), update)
	} else {
		_, err = o.svc.Create(ctx, create)
	}
	if err != nil {
		o.log.Debug().Err(err).Str("mode", mode.String()).Msg("form submit failed")
		return err
	}

	o.CloseForm()
	return nil
}

// RequestDelete opens the delete confirmation for the given entity.
func (o *Orchestrator[T, C, U]) RequestDelete(item T) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleteOpen = true
	o.pendingDelete = &item
}

// CancelDelete closes the confirmation without deleting.
func (o *Orchestrator[T, C, U]) CancelDelete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.deleteOpen = false
	o.pendingDelete = nil
}

// IsDeleteOpen reports whether the delete confirmation is open.
func (o *Orchestrator[T, C, U]) IsDeleteOpen() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deleteOpen
}

// PendingDelete returns the entity awaiting confirmation, nil if none.
func (o *Orchestrator[T, C, U]) PendingDelete() *T {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pendingDelete
}

// ConfirmDelete deletes the pending entity. Success closes the
// confirmation, and a NotFound counts as success since the entity is
// already gone. Any other failure keeps the confirmation open and
// returns the error.
func (o *Orchestrator[T, C, U]) ConfirmDelete(ctx context.Context) error {
	o.mu.Lock()
	if !o.deleteOpen || o.pendingDelete == nil {
		o.mu.Unlock()
		return ErrNoPendingDelete
	}
	pending := o.pendingDelete
	o.mu.Unlock()

	err := o.svc.Delete(ctx, (*pending).EntityID())
	if err != nil && !api.IsNotFound(err) {
		o.log.Debug().Err(err).Int("id", (*pending).EntityID()).Msg("delete failed")
		return err
	}

	o.CancelDelete()
	return nil
}
