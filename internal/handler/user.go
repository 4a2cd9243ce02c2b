package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/ymiyake/userboard/internal/domain"
	"github.com/ymiyake/userboard/internal/service"
)

// maxMultipartMemory bounds the in-memory portion of form parsing.
// Avatars are capped at 5MB by the service, so 8MB is plenty.
const maxMultipartMemory = 8 << 20

// UserHandler handles the admin users API.
type UserHandler struct {
	users *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// HandleList returns all users.
// GET /api/v1/admin/users
// Response: {"users": [...]}
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		slog.Error("list users", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"users": toUserDTOs(users),
	})
}

// HandleGet returns a single user.
// GET /api/v1/admin/users/{id}
// Response: {"user": {...}}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "アカウントが見つかりません．")
			return
		}
		slog.Error("get user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": toUserDTO(user)})
}

// HandleCreate registers a new account from a multipart form.
// POST /api/v1/admin/users
// Response: 201 {"user": {...}, "message": "..."} or 422 {"error_messages": [...]}
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	input, err := parseUserForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "リクエストが不正です．")
		return
	}

	user, err := h.users.Create(r.Context(), input)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			writeValidationErrors(w, verrs)
			return
		}
		slog.Error("create user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"user":    toUserDTO(user),
		"message": fmt.Sprintf("アカウント「%s」を登録しました．", user.UserName),
	})
}

// HandleUpdate applies a partial edit from a multipart form. Only
// fields present in the form change; absent fields keep their values.
// PUT /api/v1/admin/users/{id}
// Response: {"user": {...}, "message": "..."} or 422 {"error_messages": [...]}
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	// Guests may not edit accounts; non-admins may only edit themselves.
	current := UserFromContext(r.Context())
	if current == nil || current.Guest || (current.ID != id && !current.Admin) {
		writeMessage(w, http.StatusForbidden, "権限がありません．")
		return
	}

	input, err := parseUserForm(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "リクエストが不正です．")
		return
	}

	user, err := h.users.Update(r.Context(), id, input)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			writeValidationErrors(w, verrs)
			return
		}
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "アカウントが見つかりません．")
			return
		}
		slog.Error("update user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user":    toUserDTO(user),
		"message": fmt.Sprintf("アカウント「%s」を更新しました．", user.UserName),
	})
}

// HandleDelete removes an account.
// DELETE /api/v1/admin/users/{id}
// Response: {"message": "..."}
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "アカウントが見つかりません．")
			return
		}
		slog.Error("delete user", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	writeMessage(w, http.StatusOK, fmt.Sprintf("アカウント「%s」を削除しました．", user.UserName))
}

// HandleAvatar serves the stored avatar bytes.
// GET /api/v1/admin/users/{id}/avatar
func (h *UserHandler) HandleAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	data, contentType, err := h.users.Avatar(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "画像が見つかりません．")
			return
		}
		slog.Error("get avatar", "error", err)
		writeMessage(w, http.StatusInternalServerError, "予期しないエラーが発生しました．")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

func parseID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "リクエストが不正です．")
		return 0, false
	}
	return id, true
}

// parseUserForm converts a multipart form into a partial UserInput.
// Presence in the form is meaningful: a field that was not submitted
// stays nil so the service can tell "not edited" from "set to blank".
func parseUserForm(r *http.Request) (service.UserInput, error) {
	var input service.UserInput

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return input, fmt.Errorf("parse multipart form: %w", err)
	}

	stringField := func(name string) *string {
		values, ok := r.MultipartForm.Value[name]
		if !ok || len(values) == 0 {
			return nil
		}
		v := values[0]
		return &v
	}
	boolField := func(name string) *bool {
		s := stringField(name)
		if s == nil {
			return nil
		}
		v := *s == "true" || *s == "1"
		return &v
	}

	input.UserName = stringField("user_name")
	input.Email = stringField("email")
	input.Password = stringField("password")
	input.PasswordConfirmation = stringField("password_confirmation")
	input.Admin = boolField("admin")
	input.Guest = boolField("guest")
	input.Profile = stringField("user_profile")

	file, header, err := r.FormFile("user_avatar")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return input, fmt.Errorf("read avatar: %w", err)
		}
		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = http.DetectContentType(data)
		}
		input.Avatar = &service.AvatarUpload{
			Filename:    header.Filename,
			ContentType: contentType,
			Data:        data,
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		return input, fmt.Errorf("avatar form file: %w", err)
	}

	return input, nil
}
