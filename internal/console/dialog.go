package console

import (
	"errors"
	"fmt"

	"github.com/ymiyake/userboard/internal/client"
)

// ErrInvalidTransition reports a dialog event fired from a state that
// does not accept it. Callers are expected to disable the offending
// control instead of handling this at submission time.
var ErrInvalidTransition = errors.New("invalid dialog transition")

// Mode identifies which single view is active. Exactly one mode is
// active at any time; the delete confirmation is its own mode with the
// detail view as its cancel target.
type Mode int

const (
	ModeList Mode = iota
	ModeCreate
	ModeDetail
	ModeEdit
	ModeDeleteConfirm
)

func (m Mode) String() string {
	switch m {
	case ModeList:
		return "list"
	case ModeCreate:
		return "create"
	case ModeDetail:
		return "detail"
	case ModeEdit:
		return "edit"
	case ModeDeleteConfirm:
		return "delete-confirm"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Dialog is the finite-state controller for the CRUD modals. The
// create mode requires no selection; detail, edit, and delete-confirm
// require one. Both invariants hold by construction: the only way to
// gain a selection is Select, and the only ways to lose it are Close
// and a completed delete, all of which also set the matching mode.
type Dialog struct {
	mode     Mode
	selected *client.User
	message  string
}

// NewDialog starts in the list view with nothing selected.
func NewDialog() *Dialog {
	return &Dialog{mode: ModeList}
}

// Mode returns the active view.
func (d *Dialog) Mode() Mode { return d.mode }

// Selected returns the selected user, or nil outside the detail flow.
func (d *Dialog) Selected() *client.User { return d.selected }

// Message returns the current success notice, if any.
func (d *Dialog) Message() string { return d.message }

// OpenCreate moves list → create.
func (d *Dialog) OpenCreate() error {
	if d.mode != ModeList {
		return d.badTransition("openCreate")
	}
	d.mode = ModeCreate
	d.message = ""
	return nil
}

// CancelCreate moves create → list.
func (d *Dialog) CancelCreate() error {
	if d.mode != ModeCreate {
		return d.badTransition("cancelCreate")
	}
	d.mode = ModeList
	return nil
}

// Select moves list → detail for the given user and clears any notice.
func (d *Dialog) Select(u client.User) error {
	if d.mode != ModeList {
		return d.badTransition("select")
	}
	d.selected = &u
	d.mode = ModeDetail
	d.message = ""
	return nil
}

// Close moves detail → list, dropping the selection and notice.
func (d *Dialog) Close() error {
	if d.mode != ModeDetail {
		return d.badTransition("close")
	}
	d.selected = nil
	d.mode = ModeList
	d.message = ""
	return nil
}

// OpenEdit moves detail → edit.
func (d *Dialog) OpenEdit() error {
	if d.mode != ModeDetail {
		return d.badTransition("openEdit")
	}
	d.mode = ModeEdit
	return nil
}

// CancelEdit moves edit → detail.
func (d *Dialog) CancelEdit() error {
	if d.mode != ModeEdit {
		return d.badTransition("cancelEdit")
	}
	d.mode = ModeDetail
	return nil
}

// OpenDelete moves detail → delete-confirm.
func (d *Dialog) OpenDelete() error {
	if d.mode != ModeDetail {
		return d.badTransition("openDelete")
	}
	d.mode = ModeDeleteConfirm
	return nil
}

// CancelDelete moves delete-confirm → detail.
func (d *Dialog) CancelDelete() error {
	if d.mode != ModeDeleteConfirm {
		return d.badTransition("cancelDelete")
	}
	d.mode = ModeDetail
	return nil
}

// completeCreate lands on the detail view of the newly created user.
func (d *Dialog) completeCreate(u *client.User, message string) {
	d.selected = u
	d.mode = ModeDetail
	d.message = message
}

// completeEdit lands on the detail view of the server-returned record.
func (d *Dialog) completeEdit(u *client.User, message string) {
	d.selected = u
	d.mode = ModeDetail
	d.message = message
}

// completeDelete returns to the list, keeping the confirmation notice
// for one showing.
func (d *Dialog) completeDelete(message string) {
	d.selected = nil
	d.mode = ModeList
	d.message = message
}

func (d *Dialog) badTransition(event string) error {
	return fmt.Errorf("%w: %s from %s", ErrInvalidTransition, event, d.mode)
}
