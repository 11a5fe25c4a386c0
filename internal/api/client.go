// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// package api is the thin request layer over the remote attendance
// service. It owns the base URL and is the single place the bearer
// token is attached to outgoing requests. All persistent state and
// business rules (code uniqueness, duplicate rejection, auth) live on
// the service side; this client only transports.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adjoumani/presence/internal/model"
)

// TokenSource yields the current bearer token. The session store
// satisfies this.
type TokenSource interface {
	Token() string
}

// Error is a server-reported rejection. Message carries the service's
// human-readable `message` field verbatim; callers surface it as-is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("service error (status %d)", e.Status)
}

// IsUnauthorized reports whether err is a server rejection of the
// credential itself, meaning the session should be treated as invalid.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// ServerMessage extracts the verbatim server message from err, or ""
// when err is a transport failure with no server response.
func ServerMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// Registration is the sign-up payload. Field names follow the
// service's French wire format.
type Registration struct {
	LastName  string `json:"nom"`
	FirstName string `json:"prenom"`
	Email     string `json:"email"`
	Password  string `json:"motDePasse"`
	Track     string `json:"filiere"`
	Level     string `json:"niveau"`
	Committee string `json:"comite"`
}

// Client calls the remote attendance service.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	Tokens  TokenSource
}

// New creates a client for the service at baseURL. Tokens may be nil
// for a client used only for authenticate/register.
func New(baseURL string, tokens TokenSource) *Client {
	return &Client{
		BaseURL: baseURL,
		Tokens:  tokens,
		HTTP: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Authenticate exchanges credentials for the identity and bearer token.
func (c *Client) Authenticate(ctx context.Context, email, password string) (model.User, string, error) {
	payload := map[string]string{"email": email, "motDePasse": password}
	var out struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", payload, false, &out); err != nil {
		return model.User{}, "", err
	}
	return out.User, out.Token, nil
}

// Register creates a new member account.
func (c *Client) Register(ctx context.Context, r Registration) error {
	return c.do(ctx, http.MethodPost, "/api/auth/register", r, false, nil)
}

// Meetings lists all meetings.
func (c *Client) Meetings(ctx context.Context) ([]model.Meeting, error) {
	var out []model.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/meetings", nil, true, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateMeeting creates a meeting; the service assigns its unique code.
// date is passed through in the form's datetime-local format.
func (c *Client) CreateMeeting(ctx context.Context, title, date string) (model.Meeting, error) {
	payload := map[string]string{"titre": title, "date": date}
	var out struct {
		Meeting model.Meeting `json:"meeting"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/meetings", payload, true, &out); err != nil {
		return model.Meeting{}, err
	}
	return out.Meeting, nil
}

// Meeting fetches a single meeting by id.
func (c *Client) Meeting(ctx context.Context, id string) (model.Meeting, error) {
	var out model.Meeting
	if err := c.do(ctx, http.MethodGet, "/api/meetings/"+id, nil, true, &out); err != nil {
		return model.Meeting{}, err
	}
	return out, nil
}

// Attendances lists the caller's attendance records (for members) or
// all records (for admins); the service decides based on the token.
func (c *Client) Attendances(ctx context.Context) ([]model.AttendanceRecord, error) {
	var out struct {
		Attendances []model.AttendanceRecord `json:"attendances"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/attendance", nil, true, &out); err != nil {
		return nil, err
	}
	return out.Attendances, nil
}

// MeetingAttendances lists the attendance roster of one meeting.
func (c *Client) MeetingAttendances(ctx context.Context, meetingID string) ([]model.AttendanceRecord, error) {
	var out struct {
		Attendances []model.AttendanceRecord `json:"attendances"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/attendance/meeting/"+meetingID, nil, true, &out); err != nil {
		return nil, err
	}
	return out.Attendances, nil
}

// SubmitScan registers a presence for the meeting identified by the
// decoded code. On success the service returns the meeting.
func (c *Client) SubmitScan(ctx context.Context, code string) (model.Meeting, error) {
	payload := map[string]string{"meetingCode": code}
	var out struct {
		Meeting model.Meeting `json:"meeting"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/attendance/scan", payload, true, &out); err != nil {
		return model.Meeting{}, err
	}
	return out.Meeting, nil
}

// do performs one request. body is JSON-encoded when non-nil; out is
// JSON-decoded from a 2xx response when non-nil. Non-2xx responses turn
// into *Error carrying the service's message field.
func (c *Client) do(ctx context.Context, method, path string, body any, auth bool, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth && c.Tokens != nil {
		if token := c.Tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("attendance service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode}
		var decoded struct {
			Message string `json:"message"`
		}
		if b, readErr := io.ReadAll(resp.Body); readErr == nil {
			if json.Unmarshal(b, &decoded) == nil {
				apiErr.Message = decoded.Message
			}
		}
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
