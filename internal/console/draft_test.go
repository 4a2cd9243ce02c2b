package console

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ymiyake/userboard/internal/client"
)

func TestField_SetToZeroIsNotUnset(t *testing.T) {
	var f Field[string]
	_, ok := f.Get()
	assert.False(t, ok)

	f.Set("")
	v, ok := f.Get()
	assert.True(t, ok, "blank is a value, not absence")
	assert.Equal(t, "", v)

	f.Clear()
	_, ok = f.Get()
	assert.False(t, ok)
}

func TestDraft_PayloadIncludesBlankTouchedFieldsOmitsUntouched(t *testing.T) {
	var d Draft
	d.UserName.Set("") // touched, explicitly blank
	d.Email.Set("a@x.com")

	p := d.payload()
	fields := p.Fields()

	assert.Contains(t, fields, "user_name", "blank but touched fields must go on the wire")
	assert.Contains(t, fields, "email")
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "password_confirmation")
	assert.NotContains(t, fields, "user_profile")
	assert.NotContains(t, fields, "admin")
	assert.NotContains(t, fields, "guest")
}

func TestDraft_PayloadTruthyOnlyFields(t *testing.T) {
	var d Draft
	d.Admin.Set(false)
	d.Guest.Set(true)
	d.Profile.Set("")

	p := d.payload()
	fields := p.Fields()

	// Flags and profile ride along only when truthy/non-empty; a false
	// or blank edit is indistinguishable from no edit.
	assert.NotContains(t, fields, "admin")
	assert.Contains(t, fields, "guest")
	assert.NotContains(t, fields, "user_profile")

	d.Profile.Set("hello")
	p = d.payload()
	assert.Contains(t, p.Fields(), "user_profile")
}

func TestDraft_TouchedIgnoresPasswordFields(t *testing.T) {
	var d Draft
	assert.False(t, d.Touched())

	d.Password.Set("secret")
	d.PasswordConfirmation.Set("secret")
	assert.False(t, d.Touched(), "password fields are not part of the edit flow")

	d.Profile.Set("bio")
	assert.True(t, d.Touched())
}

func TestDraft_ResetReleasesPreview(t *testing.T) {
	var d Draft
	preview, err := d.SetAvatar(client.Attachment{
		Filename:    "me.png",
		ContentType: "image/png",
		Data:        []byte("not really a png"),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(preview.URI, "file://"))

	path := strings.TrimPrefix(preview.URI, "file://")
	_, err = os.Stat(path)
	require.NoError(t, err, "preview file must exist while draft is live")

	d.Reset()

	assert.True(t, preview.Released())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "preview file must be removed on reset")
	assert.False(t, d.Avatar.IsSet())
	assert.Nil(t, d.Preview())
}

func TestDraft_ReplacingAvatarReleasesOldPreview(t *testing.T) {
	var d Draft
	first, err := d.SetAvatar(client.Attachment{Filename: "a.png", ContentType: "image/png", Data: []byte("a")})
	require.NoError(t, err)

	second, err := d.SetAvatar(client.Attachment{Filename: "b.png", ContentType: "image/png", Data: []byte("b")})
	require.NoError(t, err)

	assert.True(t, first.Released())
	assert.False(t, second.Released())
	assert.Same(t, second, d.Preview())

	d.Reset()
	assert.True(t, second.Released())
}

func TestPreview_ReleaseIsIdempotent(t *testing.T) {
	var d Draft
	p, err := d.SetAvatar(client.Attachment{Filename: "x.gif", ContentType: "image/gif", Data: []byte("x")})
	require.NoError(t, err)

	require.NoError(t, p.Release())
	assert.NoError(t, p.Release(), "second release must be a no-op")
}
