// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type staticToken string

func (t staticToken) Token() string { return string(t) }

func TestAuthenticate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auth/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var in map[string]string
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			t.Fatalf("decode login payload: %v", err)
		}
		if in["email"] != "a@b.fr" || in["motDePasse"] != "secret" {
			t.Errorf("payload = %v", in)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": map[string]any{
				"_id":    "u1",
				"nom":    "Adjoumani",
				"prenom": "Koffi",
				"email":  "a@b.fr",
				"role":   "admin",
			},
			"token": "tok-123",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, nil)
	user, token, err := c.Authenticate(context.Background(), "a@b.fr", "secret")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("token = %q", token)
	}
	if user.ID != "u1" || !user.IsAdmin() {
		t.Fatalf("user = %+v", user)
	}
	if got, want := user.FullName(), "Adjoumani Koffi"; got != want {
		t.Fatalf("FullName() = %q, want %q", got, want)
	}
}

func TestBearerTokenAttached(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok-123"))
	if _, err := c.Meetings(context.Background()); err != nil {
		t.Fatalf("Meetings: %v", err)
	}
	if gotAuth != "Bearer tok-123" {
		t.Fatalf("Authorization = %q", gotAuth)
	}
}

func TestSubmitScan(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/attendance/scan" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["meetingCode"] != "ABC123" {
			t.Errorf("payload = %v", in)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meeting": map[string]any{"_id": "m1", "titre": "Réunion Projet", "code": "ABC123"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"))
	meeting, err := c.SubmitScan(context.Background(), "ABC123")
	if err != nil {
		t.Fatalf("SubmitScan: %v", err)
	}
	if meeting.Title != "Réunion Projet" {
		t.Fatalf("meeting = %+v", meeting)
	}
}

func TestServerMessageSurfacedVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Réunion introuvable"})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"))
	_, err := c.SubmitScan(context.Background(), "BAD")
	if err == nil {
		t.Fatal("expected an error")
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "Réunion introuvable" {
		t.Fatalf("error = %+v", apiErr)
	}
	if ServerMessage(err) != "Réunion introuvable" {
		t.Fatalf("ServerMessage = %q", ServerMessage(err))
	}
}

func TestIsUnauthorized(t *testing.T) {
	if !IsUnauthorized(&Error{Status: http.StatusUnauthorized}) {
		t.Error("401 should be unauthorized")
	}
	if !IsUnauthorized(&Error{Status: http.StatusForbidden}) {
		t.Error("403 should be unauthorized")
	}
	if IsUnauthorized(&Error{Status: http.StatusNotFound}) {
		t.Error("404 is not unauthorized")
	}
	if IsUnauthorized(errors.New("dial tcp")) {
		t.Error("transport errors are not unauthorized")
	}
}

func TestTransportErrorHasNoServerMessage(t *testing.T) {
	c := New("http://127.0.0.1:1", nil)
	_, err := c.Meetings(context.Background())
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if ServerMessage(err) != "" {
		t.Fatalf("ServerMessage = %q, want empty", ServerMessage(err))
	}
}

func TestAttendancesDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"attendances": []map[string]any{
				{
					"_id":        "p1",
					"meetingId":  map[string]any{"_id": "m1", "titre": "Standup", "code": "ZZZ"},
					"userId":     map[string]any{"_id": "u1", "nom": "K", "prenom": "A"},
					"presenceAt": "2025-03-01T10:00:00Z",
				},
			},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"))
	records, err := c.Attendances(context.Background())
	if err != nil {
		t.Fatalf("Attendances: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d", len(records))
	}
	rec := records[0]
	if rec.Meeting.Code != "ZZZ" || rec.User.ID != "u1" {
		t.Fatalf("record = %+v", rec)
	}
}

func TestCreateMeeting(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var in map[string]string
		json.NewDecoder(r.Body).Decode(&in)
		if in["titre"] != "AG" || in["date"] != "2025-03-01T10:00" {
			t.Errorf("payload = %v", in)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"meeting": map[string]any{"_id": "m9", "titre": "AG", "code": "NEW1"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, staticToken("tok"))
	meeting, err := c.CreateMeeting(context.Background(), "AG", "2025-03-01T10:00")
	if err != nil {
		t.Fatalf("CreateMeeting: %v", err)
	}
	if meeting.Code != "NEW1" {
		t.Fatalf("meeting = %+v", meeting)
	}
}
