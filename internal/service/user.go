package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/ymiyake/userboard/internal/domain"
)

const maxAvatarSize = 5 * 1024 * 1024 // 5MB

// Validation messages mirror the Japanese account UI.
const (
	msgAvatarType       = "jpeg, gif, pngのみ添付可能です．"
	msgAvatarSize       = "画像の容量は5MB以下として下さい．"
	msgPasswordMismatch = "password_confirmationとpasswordの入力が一致しません"
)

var allowedAvatarTypes = map[string]bool{
	"image/jpeg": true,
	"image/gif":  true,
	"image/png":  true,
}

func msgPresence(field string) string { return field + "を入力してください" }
func msgTaken(field string) string    { return field + "はすでに存在します" }

// AvatarUpload carries an uploaded avatar image.
type AvatarUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// UserInput is a partial field set from a create or edit form. Nil
// pointers mean the field was not submitted at all; blank strings were
// submitted blank and still trigger presence validation on create.
type UserInput struct {
	UserName             *string
	Email                *string
	Password             *string
	PasswordConfirmation *string
	Admin                *bool
	Guest                *bool
	Profile              *string
	Avatar               *AvatarUpload
}

// UserService implements account management on top of the repository
// and the avatar blob store.
type UserService struct {
	users      domain.UserRepository
	files      domain.FileStore
	bcryptCost int
}

// NewUserService creates a new UserService.
func NewUserService(users domain.UserRepository, files domain.FileStore, bcryptCost int) *UserService {
	return &UserService{users: users, files: files, bcryptCost: bcryptCost}
}

// List returns all users in server-defined order.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return s.users.List(ctx)
}

// GetByID retrieves a single user.
func (s *UserService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create registers a new account. Validation failures come back as
// domain.ValidationErrors; any other error is a server fault.
func (s *UserService) Create(ctx context.Context, in UserInput) (*domain.User, error) {
	var verrs domain.ValidationErrors
	requireString := func(field string, v *string) string {
		if v == nil || *v == "" {
			verrs = append(verrs, msgPresence(field))
			return ""
		}
		return *v
	}

	userName := requireString("user_name", in.UserName)
	email := requireString("email", in.Email)
	password := requireString("password", in.Password)
	confirmation := requireString("password_confirmation", in.PasswordConfirmation)

	if password != "" && confirmation != "" && password != confirmation {
		verrs = append(verrs, msgPasswordMismatch)
	}
	if err := validateAvatar(in.Avatar); err != nil {
		verrs = append(verrs, err...)
	}
	if len(verrs) > 0 {
		return nil, verrs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		UserName:     userName,
		Email:        email,
		PasswordHash: string(hash),
	}
	if in.Admin != nil {
		user.Admin = *in.Admin
	}
	if in.Guest != nil {
		user.Guest = *in.Guest
	}
	if in.Profile != nil {
		user.Profile = *in.Profile
	}

	if in.Avatar != nil {
		key, err := s.saveAvatar(ctx, in.Avatar)
		if err != nil {
			return nil, err
		}
		user.AvatarKey = key
		user.AvatarType = in.Avatar.ContentType
	}

	if err := s.users.Create(ctx, user); err != nil {
		if user.AvatarKey != "" {
			// Best-effort cleanup of the stored file.
			s.files.Delete(ctx, user.AvatarKey)
		}
		if errors.Is(err, domain.ErrDuplicateUserName) {
			return nil, domain.ValidationErrors{msgTaken("user_name")}
		}
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ValidationErrors{msgTaken("email")}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// Update applies a partial edit. Only submitted fields change; a
// password change is accepted only when password and confirmation are
// submitted together and match.
func (s *UserService) Update(ctx context.Context, id int64, in UserInput) (*domain.User, error) {
	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var verrs domain.ValidationErrors
	if err := validateAvatar(in.Avatar); err != nil {
		verrs = append(verrs, err...)
	}

	upd := domain.UserUpdate{
		UserName: in.UserName,
		Email:    in.Email,
		Admin:    in.Admin,
		Guest:    in.Guest,
		Profile:  in.Profile,
	}

	if in.Password != nil || in.PasswordConfirmation != nil {
		switch {
		case in.Password == nil || *in.Password == "":
			verrs = append(verrs, msgPresence("password"))
		case in.PasswordConfirmation == nil || *in.PasswordConfirmation == "":
			verrs = append(verrs, msgPresence("password_confirmation"))
		case *in.Password != *in.PasswordConfirmation:
			verrs = append(verrs, msgPasswordMismatch)
		default:
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.bcryptCost)
			if err != nil {
				return nil, fmt.Errorf("hash password: %w", err)
			}
			h := string(hash)
			upd.PasswordHash = &h
		}
	}

	if len(verrs) > 0 {
		return nil, verrs
	}

	if in.Avatar != nil {
		key, err := s.saveAvatar(ctx, in.Avatar)
		if err != nil {
			return nil, err
		}
		upd.AvatarKey = &key
		upd.AvatarType = &in.Avatar.ContentType
	}

	updated, err := s.users.Update(ctx, id, upd)
	if err != nil {
		if upd.AvatarKey != nil {
			s.files.Delete(ctx, *upd.AvatarKey)
		}
		if errors.Is(err, domain.ErrDuplicateUserName) {
			return nil, domain.ValidationErrors{msgTaken("user_name")}
		}
		if errors.Is(err, domain.ErrDuplicateEmail) {
			return nil, domain.ValidationErrors{msgTaken("email")}
		}
		return nil, err
	}

	// Drop the previous avatar blob once it is unreferenced.
	if in.Avatar != nil && current.AvatarKey != "" {
		s.files.Delete(ctx, current.AvatarKey)
	}

	return updated, nil
}

// Delete removes the account and its avatar blob. The removed user is
// returned so callers can build the confirmation message.
func (s *UserService) Delete(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return nil, err
	}
	if user.AvatarKey != "" {
		s.files.Delete(ctx, user.AvatarKey)
	}
	return user, nil
}

// Avatar returns the stored avatar bytes and content type for a user.
func (s *UserService) Avatar(ctx context.Context, id int64) ([]byte, string, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if user.AvatarKey == "" {
		return nil, "", domain.ErrNotFound
	}
	data, err := s.files.Get(ctx, user.AvatarKey)
	if err != nil {
		return nil, "", err
	}
	return data, user.AvatarType, nil
}

func (s *UserService) saveAvatar(ctx context.Context, avatar *AvatarUpload) (string, error) {
	key, err := generateStorageKey()
	if err != nil {
		return "", fmt.Errorf("generate storage key: %w", err)
	}
	if err := s.files.Save(ctx, key, avatar.Data); err != nil {
		return "", fmt.Errorf("save avatar: %w", err)
	}
	return key, nil
}

func validateAvatar(avatar *AvatarUpload) domain.ValidationErrors {
	if avatar == nil {
		return nil
	}
	var verrs domain.ValidationErrors
	if !allowedAvatarTypes[avatar.ContentType] {
		verrs = append(verrs, msgAvatarType)
	}
	if len(avatar.Data) >= maxAvatarSize {
		verrs = append(verrs, msgAvatarSize)
	}
	return verrs
}

func generateStorageKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
