// Package console implements the client-side state of the admin user
// UI: the fetched collection snapshot, the draft of uncommitted form
// edits, and the dialog state machine, tied together by a submission
// controller that talks to the remote API. All state lives in three
// independent slices (collection, draft, dialog) so no event can
// clobber unrelated fields.
package console

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/ymiyake/userboard/internal/client"
)

// ErrSubmissionInFlight reports a second submit while the previous one
// has not completed. Callers should disable the submit control for the
// duration instead of retrying.
var ErrSubmissionInFlight = errors.New("submission already in flight")

// Resource is the remote API surface the console drives.
type Resource interface {
	List(ctx context.Context) ([]client.User, error)
	Create(ctx context.Context, p client.Payload) (client.Outcome, error)
	Update(ctx context.Context, id int64, p client.Payload) (client.Outcome, error)
	Delete(ctx context.Context, id int64) (string, error)
}

var _ Resource = (*client.Client)(nil)

// Console coordinates the dialog state machine, the form draft, and
// the collection snapshot. Methods correspond one-to-one to UI events.
// Events are expected to arrive sequentially (cooperative UI loop);
// only the in-flight submit guard is safe against overlapping calls.
type Console struct {
	api        Resource
	collection *Collection
	dialog     *Dialog
	draft      *Draft
	inFlight   atomic.Bool
}

// New creates a console over the given remote resource.
func New(api Resource) *Console {
	return &Console{
		api:        api,
		collection: &Collection{},
		dialog:     NewDialog(),
		draft:      &Draft{},
	}
}

// Start performs the initial collection fetch.
func (c *Console) Start(ctx context.Context) error {
	return c.refresh(ctx)
}

// Mode returns the active dialog mode.
func (c *Console) Mode() Mode { return c.dialog.Mode() }

// Selected returns the selected user, or nil.
func (c *Console) Selected() *client.User { return c.dialog.Selected() }

// Message returns the current success notice, if any.
func (c *Console) Message() string { return c.dialog.Message() }

// Draft exposes the form draft for field edits and error display.
func (c *Console) Draft() *Draft { return c.draft }

// CollectionStatus returns the list's loading status.
func (c *Console) CollectionStatus() Status { return c.collection.Status() }

// Users returns the last loaded list snapshot.
func (c *Console) Users() []client.User { return c.collection.Items() }

// OpenCreate opens the registration dialog with a fresh draft.
func (c *Console) OpenCreate() error {
	if err := c.dialog.OpenCreate(); err != nil {
		return err
	}
	c.draft.Reset()
	return nil
}

// CancelCreate abandons the registration dialog and its draft.
func (c *Console) CancelCreate() error {
	if err := c.dialog.CancelCreate(); err != nil {
		return err
	}
	c.draft.Reset()
	return nil
}

// Select opens the detail view for a user. The selection change
// triggers a full collection refresh.
func (c *Console) Select(ctx context.Context, u client.User) error {
	if err := c.dialog.Select(u); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// Close leaves the detail view back to the list and refreshes.
func (c *Console) Close(ctx context.Context) error {
	if err := c.dialog.Close(); err != nil {
		return err
	}
	return c.refresh(ctx)
}

// OpenEdit opens the edit dialog for the selected user with a fresh draft.
func (c *Console) OpenEdit() error {
	if err := c.dialog.OpenEdit(); err != nil {
		return err
	}
	c.draft.Reset()
	return nil
}

// CancelEdit abandons the edit dialog and its draft.
func (c *Console) CancelEdit() error {
	if err := c.dialog.CancelEdit(); err != nil {
		return err
	}
	c.draft.Reset()
	return nil
}

// OpenDelete opens the delete confirmation for the selected user.
func (c *Console) OpenDelete() error {
	return c.dialog.OpenDelete()
}

// CancelDelete backs out of the delete confirmation.
func (c *Console) CancelDelete() error {
	return c.dialog.CancelDelete()
}

// SubmitCreate sends the draft as a registration. A validation
// rejection keeps the dialog open with messages attached to the draft;
// only transport failures return an error.
func (c *Console) SubmitCreate(ctx context.Context) error {
	if c.dialog.Mode() != ModeCreate {
		return ErrInvalidTransition
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	out, err := c.api.Create(ctx, c.draft.payload())
	if err != nil {
		return err
	}
	if !out.OK() {
		c.draft.Errors = out.ErrorMessages
		return nil
	}

	user := *out.User
	c.draft.Reset()
	c.dialog.completeCreate(&user, out.Message)
	return c.refresh(ctx)
}

// SubmitUpdate sends the touched draft fields as a partial edit. When
// nothing was touched, no request is issued at all and the dialog stays
// open.
func (c *Console) SubmitUpdate(ctx context.Context) error {
	if c.dialog.Mode() != ModeEdit {
		return ErrInvalidTransition
	}
	if !c.draft.Touched() {
		return nil
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	out, err := c.api.Update(ctx, c.dialog.Selected().ID, c.draft.payload())
	if err != nil {
		return err
	}
	if !out.OK() {
		c.draft.Errors = out.ErrorMessages
		return nil
	}

	user := *out.User
	c.draft.Reset()
	c.dialog.completeEdit(&user, out.Message)
	return c.refresh(ctx)
}

// ConfirmDelete deletes the selected user and returns to the list,
// where the server's confirmation notice is shown once.
func (c *Console) ConfirmDelete(ctx context.Context) error {
	if c.dialog.Mode() != ModeDeleteConfirm {
		return ErrInvalidTransition
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return ErrSubmissionInFlight
	}
	defer c.inFlight.Store(false)

	message, err := c.api.Delete(ctx, c.dialog.Selected().ID)
	if err != nil {
		return err
	}

	c.dialog.completeDelete(message)
	return c.refresh(ctx)
}

func (c *Console) refresh(ctx context.Context) error {
	return c.collection.Refresh(ctx, c.api.List)
}
