package service_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ymiyake/userboard/internal/domain"
	"github.com/ymiyake/userboard/internal/repository/sqlite"
	"github.com/ymiyake/userboard/internal/service"
)

const testBcryptCost = 4 // minimum cost, tests only

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func newUserService(t *testing.T) (*service.UserService, *sqlite.DB) {
	t.Helper()
	db := newTestDB(t)
	return service.NewUserService(db.Users(), db.Files(), testBcryptCost), db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func validInput() service.UserInput {
	return service.UserInput{
		UserName:             strPtr("alice"),
		Email:                strPtr("alice@example.com"),
		Password:             strPtr("password123"),
		PasswordConfirmation: strPtr("password123"),
	}
}

func requireValidation(t *testing.T, err error) domain.ValidationErrors {
	t.Helper()
	var verrs domain.ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	return verrs
}

func containsMessage(verrs domain.ValidationErrors, msg string) bool {
	for _, m := range verrs {
		if m == msg {
			return true
		}
	}
	return false
}

func TestUserService_Create(t *testing.T) {
	svc, _ := newUserService(t)

	user, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.ID == 0 {
		t.Fatal("expected ID to be set")
	}
	if user.UserName != "alice" {
		t.Fatalf("expected user_name alice, got %q", user.UserName)
	}
	if user.PasswordHash == "password123" {
		t.Fatal("password must be hashed, not stored as-is")
	}
	if user.Admin || user.Guest {
		t.Fatal("flags default to false")
	}
}

func TestUserService_CreatePresenceMessages(t *testing.T) {
	svc, _ := newUserService(t)

	_, err := svc.Create(context.Background(), service.UserInput{})
	verrs := requireValidation(t, err)

	for _, want := range []string{
		"user_nameを入力してください",
		"emailを入力してください",
		"passwordを入力してください",
		"password_confirmationを入力してください",
	} {
		if !containsMessage(verrs, want) {
			t.Errorf("missing message %q in %v", want, verrs)
		}
	}
}

func TestUserService_CreateBlankStringCountsAsMissing(t *testing.T) {
	svc, _ := newUserService(t)

	in := validInput()
	in.UserName = strPtr("")
	_, err := svc.Create(context.Background(), in)
	verrs := requireValidation(t, err)
	if !containsMessage(verrs, "user_nameを入力してください") {
		t.Fatalf("blank user_name must trigger presence validation, got %v", verrs)
	}
}

func TestUserService_CreatePasswordMismatch(t *testing.T) {
	svc, _ := newUserService(t)

	in := validInput()
	in.PasswordConfirmation = strPtr("different")
	_, err := svc.Create(context.Background(), in)
	verrs := requireValidation(t, err)
	if !containsMessage(verrs, "password_confirmationとpasswordの入力が一致しません") {
		t.Fatalf("expected mismatch message, got %v", verrs)
	}
}

func TestUserService_CreateDuplicateUserName(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, validInput()); err != nil {
		t.Fatalf("first Create: %v", err)
	}

	in := validInput()
	in.Email = strPtr("other@example.com")
	_, err := svc.Create(ctx, in)
	verrs := requireValidation(t, err)
	if !containsMessage(verrs, "user_nameはすでに存在します") {
		t.Fatalf("expected taken message, got %v", verrs)
	}
}

func TestUserService_CreateAvatarValidation(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	in := validInput()
	in.Avatar = &service.AvatarUpload{
		Filename:    "doc.pdf",
		ContentType: "application/pdf",
		Data:        []byte("not an image"),
	}
	_, err := svc.Create(ctx, in)
	verrs := requireValidation(t, err)
	if !containsMessage(verrs, "jpeg, gif, pngのみ添付可能です．") {
		t.Fatalf("expected type message, got %v", verrs)
	}

	in = validInput()
	in.Avatar = &service.AvatarUpload{
		Filename:    "big.png",
		ContentType: "image/png",
		Data:        bytes.Repeat([]byte("x"), 5*1024*1024),
	}
	_, err = svc.Create(ctx, in)
	verrs = requireValidation(t, err)
	if !containsMessage(verrs, "画像の容量は5MB以下として下さい．") {
		t.Fatalf("expected size message, got %v", verrs)
	}
}

func TestUserService_CreateStoresAvatar(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	in := validInput()
	in.Avatar = &service.AvatarUpload{
		Filename:    "me.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
	}
	user, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if user.AvatarKey == "" {
		t.Fatal("expected avatar key to be assigned")
	}

	data, contentType, err := svc.Avatar(ctx, user.ID)
	if err != nil {
		t.Fatalf("Avatar: %v", err)
	}
	if string(data) != "png-bytes" {
		t.Fatalf("expected stored bytes back, got %q", data)
	}
	if contentType != "image/png" {
		t.Fatalf("expected image/png, got %q", contentType)
	}
}

func TestUserService_UpdatePartial(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(ctx, user.ID, service.UserInput{
		Profile: strPtr("new bio"),
		Admin:   boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Profile != "new bio" || !updated.Admin {
		t.Fatalf("expected submitted fields to change, got %+v", updated)
	}
	if updated.UserName != "alice" || updated.Email != "alice@example.com" {
		t.Fatal("unsubmitted fields must keep their values")
	}
	if updated.PasswordHash != user.PasswordHash {
		t.Fatal("password must not change when not submitted")
	}
}

func TestUserService_UpdatePasswordRequiresBothFields(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	_, err = svc.Update(ctx, user.ID, service.UserInput{Password: strPtr("newpassword")})
	verrs := requireValidation(t, err)
	if !containsMessage(verrs, "password_confirmationを入力してください") {
		t.Fatalf("expected confirmation presence message, got %v", verrs)
	}

	_, err = svc.Update(ctx, user.ID, service.UserInput{
		Password:             strPtr("newpassword"),
		PasswordConfirmation: strPtr("other"),
	})
	verrs = requireValidation(t, err)
	if !containsMessage(verrs, "password_confirmationとpasswordの入力が一致しません") {
		t.Fatalf("expected mismatch message, got %v", verrs)
	}

	updated, err := svc.Update(ctx, user.ID, service.UserInput{
		Password:             strPtr("newpassword"),
		PasswordConfirmation: strPtr("newpassword"),
	})
	if err != nil {
		t.Fatalf("Update with matching pair: %v", err)
	}
	if updated.PasswordHash == user.PasswordHash {
		t.Fatal("expected password hash to change")
	}
}

func TestUserService_UpdateReplacesAvatar(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	in := validInput()
	in.Avatar = &service.AvatarUpload{Filename: "old.png", ContentType: "image/png", Data: []byte("old")}
	user, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	oldKey := user.AvatarKey

	updated, err := svc.Update(ctx, user.ID, service.UserInput{
		Avatar: &service.AvatarUpload{Filename: "new.gif", ContentType: "image/gif", Data: []byte("new")},
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.AvatarKey == oldKey {
		t.Fatal("expected a new storage key")
	}
	if updated.AvatarType != "image/gif" {
		t.Fatalf("expected image/gif, got %q", updated.AvatarType)
	}

	// The old blob is gone once nothing references it.
	if _, err := db.Files().Get(ctx, oldKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected old blob removed, got %v", err)
	}
}

func TestUserService_DeleteRemovesAvatarBlob(t *testing.T) {
	svc, db := newUserService(t)
	ctx := context.Background()

	in := validInput()
	in.Avatar = &service.AvatarUpload{Filename: "me.png", ContentType: "image/png", Data: []byte("png")}
	user, err := svc.Create(ctx, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	removed, err := svc.Delete(ctx, user.ID)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed.UserName != "alice" {
		t.Fatalf("expected the removed user back, got %q", removed.UserName)
	}

	if _, err := svc.GetByID(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if _, err := db.Files().Get(ctx, user.AvatarKey); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected avatar blob removed, got %v", err)
	}
}

func TestUserService_AvatarWithoutUpload(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	user, err := svc.Create(ctx, validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, _, err := svc.Avatar(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a user without avatar, got %v", err)
	}
}
