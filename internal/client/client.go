// Package client is the HTTP client for the admin users API. It speaks
// the JSON/multipart wire contract and normalizes every create/update
// attempt into an Outcome: either the saved user or the server's
// validation messages. Only transport-level failures (unreachable
// server, unexpected statuses) are returned as errors.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// User is the wire representation of an account.
type User struct {
	ID        int64  `json:"id"`
	UserName  string `json:"user_name"`
	Email     string `json:"email"`
	Admin     bool   `json:"admin"`
	Guest     bool   `json:"guest"`
	Profile   string `json:"user_profile"`
	AvatarURL string `json:"avatar_url"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// Attachment is a file selected for upload.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Payload is the set of fields a form actually touched. Field order is
// preserved so requests are deterministic. An empty payload means
// "nothing to send".
type Payload struct {
	fields []payloadField
	avatar *Attachment
}

type payloadField struct {
	name  string
	value string
}

// Set stages a text field. Blank values are sent as-is; the server's
// presence validation decides whether blank is acceptable.
func (p *Payload) Set(name, value string) {
	for i := range p.fields {
		if p.fields[i].name == name {
			p.fields[i].value = value
			return
		}
	}
	p.fields = append(p.fields, payloadField{name: name, value: value})
}

// SetBool stages a boolean field in the form's "true"/"false" encoding.
func (p *Payload) SetBool(name string, value bool) {
	p.Set(name, strconv.FormatBool(value))
}

// SetAvatar stages the avatar file part.
func (p *Payload) SetAvatar(a Attachment) {
	p.avatar = &a
}

// Empty reports whether nothing was staged.
func (p *Payload) Empty() bool {
	return len(p.fields) == 0 && p.avatar == nil
}

// Fields returns the staged field names, avatar included.
func (p *Payload) Fields() []string {
	names := make([]string, 0, len(p.fields)+1)
	for _, f := range p.fields {
		names = append(names, f.name)
	}
	if p.avatar != nil {
		names = append(names, "user_avatar")
	}
	return names
}

// Outcome is the normalized result of a create or update attempt.
// Exactly one of User or ErrorMessages is populated.
type Outcome struct {
	User          *User
	Message       string
	ErrorMessages []string
}

// OK reports whether the server accepted the submission.
func (o Outcome) OK() bool {
	return o.User != nil
}

// StatusError reports a response the client has no mapping for.
// It is a transport-kind failure, distinct from validation outcomes.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client issues requests against one admin users collection.
// It never holds resource state; callers own caching and refresh.
type Client struct {
	base string
	hc   *http.Client
}

// New creates a client for the API at base (e.g. "http://localhost:8080").
// A cookie jar carries the auth session between calls.
func New(base string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
	}, nil
}

// Login signs in with user name and password.
func (c *Client) Login(ctx context.Context, userName, password string) (*User, error) {
	return c.postLogin(ctx, "/api/v1/login", map[string]string{
		"user_name": userName,
		"password":  password,
	})
}

// GuestLogin signs into the shared guest account.
func (c *Client) GuestLogin(ctx context.Context) (*User, error) {
	return c.postLogin(ctx, "/api/v1/guest_login", map[string]string{})
}

// Logout clears the session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.base+"/api/v1/logout", nil)
	if err != nil {
		return err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return &StatusError{StatusCode: resp.StatusCode}
	}
	return nil
}

// List fetches the full collection in server-defined order.
func (c *Client) List(ctx context.Context) ([]User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/v1/admin/users", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var body struct {
		Users []User `json:"users"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode user list: %w", err)
	}
	return body.Users, nil
}

// Create submits a registration form.
func (c *Client) Create(ctx context.Context, p Payload) (Outcome, error) {
	return c.submit(ctx, http.MethodPost, c.base+"/api/v1/admin/users", p)
}

// Update submits a partial edit for one user.
func (c *Client) Update(ctx context.Context, id int64, p Payload) (Outcome, error) {
	return c.submit(ctx, http.MethodPut, c.userURL(id), p)
}

// Delete removes a user and returns the server's confirmation message.
func (c *Client) Delete(ctx context.Context, id int64) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.userURL(id), nil)
	if err != nil {
		return "", err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return "", fmt.Errorf("delete user: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", statusError(resp)
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode delete response: %w", err)
	}
	return body.Message, nil
}

func (c *Client) userURL(id int64) string {
	return c.base + "/api/v1/admin/users/" + strconv.FormatInt(id, 10)
}

// submit encodes the payload as multipart form data and normalizes the
// response. 2xx with a user is success; 422 with error_messages is a
// validation outcome; anything else is a transport failure.
func (c *Client) submit(ctx context.Context, method, url string, p Payload) (Outcome, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, f := range p.fields {
		if err := mw.WriteField(f.name, f.value); err != nil {
			return Outcome{}, fmt.Errorf("encode field %s: %w", f.name, err)
		}
	}
	if p.avatar != nil {
		part, err := mw.CreatePart(fileHeader("user_avatar", p.avatar.Filename, p.avatar.ContentType))
		if err != nil {
			return Outcome{}, fmt.Errorf("encode avatar: %w", err)
		}
		if _, err := part.Write(p.avatar.Data); err != nil {
			return Outcome{}, fmt.Errorf("encode avatar: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Outcome{}, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return Outcome{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.hc.Do(req)
	if err != nil {
		return Outcome{}, fmt.Errorf("submit user form: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var body struct {
			User    *User  `json:"user"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return Outcome{}, fmt.Errorf("decode submit response: %w", err)
		}
		if body.User == nil {
			return Outcome{}, &StatusError{StatusCode: resp.StatusCode, Message: "response missing user"}
		}
		return Outcome{User: body.User, Message: body.Message}, nil

	case resp.StatusCode == http.StatusUnprocessableEntity:
		var body struct {
			ErrorMessages []string `json:"error_messages"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return Outcome{}, fmt.Errorf("decode validation response: %w", err)
		}
		return Outcome{ErrorMessages: body.ErrorMessages}, nil

	default:
		return Outcome{}, statusError(resp)
	}
}

func (c *Client) postLogin(ctx context.Context, path string, form map[string]string) (*User, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp)
	}

	var out struct {
		User *User `json:"user"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode login response: %w", err)
	}
	return out.User, nil
}

// statusError drains the message from an unexpected response.
func statusError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	json.Unmarshal(data, &body)
	return &StatusError{StatusCode: resp.StatusCode, Message: body.Message}
}

func fileHeader(fieldName, filename, contentType string) textproto.MIMEHeader {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, fieldName, filename))
	h.Set("Content-Type", contentType)
	return h
}
