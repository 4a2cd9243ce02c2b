package console

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ymiyake/userboard/internal/client"
)

// Draft holds in-progress, uncommitted form edits for the create and
// edit dialogs, plus the validation messages from the last rejected
// submission. It is reset whenever a dialog opens or closes and after
// every accepted submission.
type Draft struct {
	UserName             Field[string]
	Email                Field[string]
	Password             Field[string]
	PasswordConfirmation Field[string]
	Admin                Field[bool]
	Guest                Field[bool]
	Profile              Field[string]
	Avatar               Field[client.Attachment]

	Errors []string

	preview *Preview
}

// SetAvatar stages an avatar selection and replaces the local preview,
// releasing any previous one.
func (d *Draft) SetAvatar(a client.Attachment) (*Preview, error) {
	p, err := newPreview(a)
	if err != nil {
		return nil, err
	}
	if d.preview != nil {
		d.preview.Release()
	}
	d.preview = p
	d.Avatar.Set(a)
	return p, nil
}

// Preview returns the current avatar preview, or nil.
func (d *Draft) Preview() *Preview {
	return d.preview
}

// Reset clears every field, the error messages, and the avatar preview.
// The preview's backing resource is always released here so abandoned
// selections cannot leak.
func (d *Draft) Reset() {
	if d.preview != nil {
		d.preview.Release()
		d.preview = nil
	}
	*d = Draft{}
}

// Touched reports whether any monitored field was edited. The monitored
// set matches the edit dialog's inputs: the password fields are not
// part of the edit flow and do not count.
func (d *Draft) Touched() bool {
	return d.UserName.IsSet() ||
		d.Email.IsSet() ||
		d.Admin.IsSet() ||
		d.Guest.IsSet() ||
		d.Profile.IsSet() ||
		d.Avatar.IsSet()
}

// payload builds the outgoing field set. user_name, email, and the
// password pair go on the wire whenever they were touched, blank
// included, so the server's presence validation can fire. The flag,
// profile, and avatar fields are included only when truthy/non-empty:
// clearing them is indistinguishable from leaving them alone, a known
// limitation of the form contract.
func (d *Draft) payload() client.Payload {
	var p client.Payload
	if v, ok := d.UserName.Get(); ok {
		p.Set("user_name", v)
	}
	if v, ok := d.Email.Get(); ok {
		p.Set("email", v)
	}
	if v, ok := d.Password.Get(); ok {
		p.Set("password", v)
	}
	if v, ok := d.PasswordConfirmation.Get(); ok {
		p.Set("password_confirmation", v)
	}
	if v, ok := d.Admin.Get(); ok && v {
		p.SetBool("admin", v)
	}
	if v, ok := d.Guest.Get(); ok && v {
		p.SetBool("guest", v)
	}
	if v, ok := d.Profile.Get(); ok && v != "" {
		p.Set("user_profile", v)
	}
	if a, ok := d.Avatar.Get(); ok && len(a.Data) > 0 {
		p.SetAvatar(a)
	}
	return p
}

// Preview is a locally materialized copy of a selected avatar, usable
// for display before anything is uploaded. It is never sent to the
// server and must be released when the draft resets.
type Preview struct {
	URI      string
	path     string
	released bool
}

func newPreview(a client.Attachment) (*Preview, error) {
	f, err := os.CreateTemp("", "avatar-preview-*"+filepath.Ext(a.Filename))
	if err != nil {
		return nil, fmt.Errorf("create preview file: %w", err)
	}
	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return nil, fmt.Errorf("write preview file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return nil, fmt.Errorf("close preview file: %w", err)
	}
	return &Preview{URI: "file://" + f.Name(), path: f.Name()}, nil
}

// Release removes the preview's backing file. Safe to call twice.
func (p *Preview) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	return os.Remove(p.path)
}

// Released reports whether the preview's resource was freed.
func (p *Preview) Released() bool {
	return p.released
}
