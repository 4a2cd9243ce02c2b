package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ymiyake/userboard/internal/domain"
	"github.com/ymiyake/userboard/internal/repository/sqlite"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := sqlite.New(dbPath)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestUserRepository_Create(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{
		UserName:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "hashedpw",
		Profile:      "hello",
	}

	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if user.ID == 0 {
		t.Fatal("expected user ID to be set after create")
	}
	if user.CreatedAt.IsZero() {
		t.Fatal("expected CreatedAt to be set")
	}
}

func TestUserRepository_CreateDuplicates(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	first := &domain.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create: %v", err)
	}

	sameName := &domain.User{UserName: "alice", Email: "other@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, sameName); !errors.Is(err, domain.ErrDuplicateUserName) {
		t.Fatalf("expected ErrDuplicateUserName, got %v", err)
	}

	sameEmail := &domain.User{UserName: "bob", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, sameEmail); !errors.Is(err, domain.ErrDuplicateEmail) {
		t.Fatalf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestUserRepository_ListInsertionOrder(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		u := &domain.User{UserName: name, Email: name + "@example.com", PasswordHash: "x"}
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
	}

	users, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	// Insertion order, not alphabetical.
	if users[0].UserName != "carol" || users[2].UserName != "bob" {
		t.Fatalf("unexpected order: %s, %s, %s", users[0].UserName, users[1].UserName, users[2].UserName)
	}
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)

	_, err := repo.GetByID(context.Background(), 999)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUserRepository_UpdatePartial(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.Update(ctx, user.ID, domain.UserUpdate{
		Profile: strPtr("new bio"),
		Admin:   boolPtr(true),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.Profile != "new bio" {
		t.Fatalf("expected profile to change, got %q", updated.Profile)
	}
	if !updated.Admin {
		t.Fatal("expected admin flag to change")
	}
	if updated.UserName != "alice" || updated.Email != "alice@example.com" {
		t.Fatal("untouched fields must keep their values")
	}
	if !updated.UpdatedAt.After(updated.CreatedAt) && !updated.UpdatedAt.Equal(updated.CreatedAt) {
		t.Fatal("expected UpdatedAt to be maintained")
	}
}

func TestUserRepository_UpdateBlankString(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x", Profile: "bio"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// A blank pointer clears the column; a nil pointer would not.
	updated, err := repo.Update(ctx, user.ID, domain.UserUpdate{Profile: strPtr("")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Profile != "" {
		t.Fatalf("expected profile cleared, got %q", updated.Profile)
	}
}

func TestUserRepository_UpdateNothingReturnsCurrentRow(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := repo.Update(ctx, user.ID, domain.UserUpdate{})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.UserName != "alice" {
		t.Fatalf("expected unchanged row, got %q", updated.UserName)
	}
}

func TestUserRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := sqlite.NewUserRepository(db)
	ctx := context.Background()

	user := &domain.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "x"}
	if err := repo.Create(ctx, user); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}

func TestFileStore_SaveGetDelete(t *testing.T) {
	db := newTestDB(t)
	files := db.Files()
	ctx := context.Background()

	if err := files.Save(ctx, "key1", []byte("image-bytes")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := files.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Fatalf("expected stored bytes back, got %q", data)
	}

	if err := files.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := files.Get(ctx, "key1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
