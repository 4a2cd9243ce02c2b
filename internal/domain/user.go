package domain

import (
	"context"
	"time"
)

// User represents an account managed through the admin console.
type User struct {
	ID           int64
	UserName     string
	Email        string
	PasswordHash string
	Admin        bool
	Guest        bool
	Profile      string
	AvatarKey    string // storage key into the file store, empty when no avatar
	AvatarType   string // content type of the stored avatar
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserUpdate is a partial update. Nil fields are left untouched; blank
// strings are meaningful (they clear the column), so the distinction
// between absent and empty travels as pointers.
type UserUpdate struct {
	UserName     *string
	Email        *string
	PasswordHash *string
	Admin        *bool
	Guest        *bool
	Profile      *string
	AvatarKey    *string
	AvatarType   *string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	List(ctx context.Context) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByUserName(ctx context.Context, userName string) (*User, error)
	Update(ctx context.Context, id int64, upd UserUpdate) (*User, error)
	Delete(ctx context.Context, id int64) error
}

// FileStore persists raw file bytes (user avatars) under opaque keys.
type FileStore interface {
	Save(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}
