// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/scan"
	"github.com/adjoumani/presence/internal/session"
)

func testDeps(t *testing.T) Deps {
	t.Helper()
	i18n.Init("fr")
	store, err := session.Load(filepath.Join(t.TempDir(), "session.json"))
	if err != nil {
		t.Fatal(err)
	}
	return Deps{
		Client:    api.New("http://127.0.0.1:1", store),
		Store:     store,
		FramesDir: t.TempDir(),
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestInitialModelShowsLogin(t *testing.T) {
	m, cmd := initialModel(testDeps(t))
	if cmd != nil {
		t.Fatal("logged-out start should not schedule a command")
	}
	view := m.View()
	if !strings.Contains(view, "Connexion") {
		t.Fatalf("view missing login title:\n%s", view)
	}
	if !strings.Contains(view, "Presence") {
		t.Fatalf("view missing app header:\n%s", view)
	}
}

func TestPersistedSessionSkipsLogin(t *testing.T) {
	deps := testDeps(t)
	admin := model.User{ID: "u1", LastName: "A", FirstName: "K", Role: model.RoleAdmin}
	if err := deps.Store.Login(admin, "tok"); err != nil {
		t.Fatal(err)
	}

	m, cmd := initialModel(deps)
	if m.state != adminView {
		t.Fatalf("state = %v, want adminView", m.state)
	}
	if cmd == nil {
		t.Fatal("restored dashboard should load its data")
	}
}

func TestLoginRoutesToMemberDashboard(t *testing.T) {
	deps := testDeps(t)
	m, _ := initialModel(deps)

	member := model.User{ID: "u2", LastName: "B", FirstName: "L", Role: model.RoleMember, Track: "SRIT"}
	next, _ := m.Update(loggedInMsg{user: member, token: "tok"})
	m = next.(mainModel)

	if m.state != memberView {
		t.Fatalf("state = %v, want memberView", m.state)
	}
	if !deps.Store.Authenticated() {
		t.Fatal("session not persisted on login")
	}
	view := m.View()
	if !strings.Contains(view, "Tableau de bord Membre") {
		t.Fatalf("view missing member title:\n%s", view)
	}
}

func TestLogoutReturnsToLogin(t *testing.T) {
	deps := testDeps(t)
	m, _ := initialModel(deps)
	next, _ := m.Update(loggedInMsg{user: model.User{ID: "u1", Role: model.RoleAdmin}, token: "tok"})
	m = next.(mainModel)

	next, _ = m.Update(loggedOutMsg{})
	m = next.(mainModel)

	if m.state != loginView {
		t.Fatalf("state = %v, want loginView", m.state)
	}
	if deps.Store.Authenticated() {
		t.Fatal("session not cleared on logout")
	}
}

func TestRejectedCredentialForcesLoginWithNotice(t *testing.T) {
	deps := testDeps(t)
	m, _ := initialModel(deps)
	next, _ := m.Update(loggedInMsg{user: model.User{ID: "u2", Role: model.RoleMember}, token: "tok"})
	m = next.(mainModel)

	next, cmd := m.Update(attendancesMsg{err: &api.Error{Status: 401, Message: "Non autorisé"}})
	m = next.(mainModel)
	if cmd == nil {
		t.Fatal("unauthorized fetch should trigger a logout command")
	}
	out, ok := cmd().(loggedOutMsg)
	if !ok || !out.expired {
		t.Fatalf("cmd yielded %#v, want expired loggedOutMsg", cmd())
	}

	next, _ = m.Update(out)
	m = next.(mainModel)
	if m.state != loginView {
		t.Fatalf("state = %v, want loginView", m.state)
	}
	if deps.Store.Authenticated() {
		t.Fatal("session not cleared after expiry")
	}
	if !strings.Contains(m.View(), "Session expirée, veuillez vous reconnecter") {
		t.Fatalf("login view missing expiry notice:\n%s", m.View())
	}
}

func TestLoginFormRequiresBothFields(t *testing.T) {
	deps := testDeps(t)
	m := newLoginModel()

	// Enter on the empty password field submits with both fields empty.
	m.setFocus(1)
	m, cmd := m.Update(keyMsg("enter"), deps)
	if cmd != nil {
		t.Fatal("empty form should not submit")
	}
	if !strings.Contains(m.View(), "Ce champ est obligatoire") {
		t.Fatalf("view missing required-field error:\n%s", m.View())
	}
}

func TestLoginErrorShowsServerMessageVerbatim(t *testing.T) {
	deps := testDeps(t)
	m := newLoginModel()

	m, _ = m.Update(authResultMsg{err: &api.Error{Status: 401, Message: "Email ou mot de passe incorrect"}}, deps)
	if !strings.Contains(m.View(), "Email ou mot de passe incorrect") {
		t.Fatalf("server message not surfaced verbatim:\n%s", m.View())
	}

	m, _ = m.Update(authResultMsg{err: errTransport{}}, deps)
	if !strings.Contains(m.View(), "Erreur de connexion") {
		t.Fatalf("transport failure should show the generic error:\n%s", m.View())
	}
}

type errTransport struct{}

func (errTransport) Error() string { return "dial tcp: connection refused" }

func TestRegisterFormCyclesOptions(t *testing.T) {
	deps := testDeps(t)
	m := newRegisterModel()

	// Move to the track selector and cycle once to the right.
	m.setFocus(4)
	m, _ = m.Update(keyMsg("right"), deps)
	if !strings.Contains(m.View(), model.Tracks[1]) {
		t.Fatalf("view missing cycled track %q:\n%s", model.Tracks[1], m.View())
	}
	// Left from the first entry wraps to the last.
	m, _ = m.Update(keyMsg("left"), deps)
	m, _ = m.Update(keyMsg("left"), deps)
	if !strings.Contains(m.View(), model.Tracks[len(model.Tracks)-1]) {
		t.Fatalf("track selector did not wrap:\n%s", m.View())
	}
}

func TestRegisterSuccessReturnsToLoginWithNotice(t *testing.T) {
	deps := testDeps(t)
	m, _ := initialModel(deps)
	next, _ := m.Update(switchToRegisterMsg{})
	m = next.(mainModel)
	if m.state != registerView {
		t.Fatalf("state = %v, want registerView", m.state)
	}

	next, cmd := m.Update(registerResultMsg{err: nil})
	m = next.(mainModel)
	if cmd == nil {
		t.Fatal("successful sign-up should schedule the switch back to login")
	}
	next, _ = m.Update(cmd())
	m = next.(mainModel)
	if m.state != loginView {
		t.Fatalf("state = %v, want loginView", m.state)
	}
	if !strings.Contains(m.View(), "Inscription réussie") {
		t.Fatalf("view missing sign-up notice:\n%s", m.View())
	}
}

func memberWithAttendances(t *testing.T, deps Deps) *memberModel {
	t.Helper()
	user := model.User{ID: "u1", LastName: "A", FirstName: "K", Role: model.RoleMember}
	m := newMemberModel(deps, user)
	m.Update(attendancesMsg{records: []model.AttendanceRecord{
		{
			Meeting:      model.Meeting{ID: "m1", Title: "Réunion Projet", Code: "ABC123"},
			User:         user,
			RegisteredAt: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
		},
	}})
	return &m
}

func TestMemberViewListsAttendances(t *testing.T) {
	m := memberWithAttendances(t, testDeps(t))
	view := m.View()
	if !strings.Contains(view, "Réunion Projet") {
		t.Fatalf("view missing attendance entry:\n%s", view)
	}
	if !strings.Contains(view, "01/03/2025 10:05") {
		t.Fatalf("view missing formatted date:\n%s", view)
	}
}

func TestMemberScanLifecycle(t *testing.T) {
	m := memberWithAttendances(t, testDeps(t))

	cmd := m.Update(keyMsg("s"))
	if cmd == nil || !m.scanning {
		t.Fatal("s should start the scanner")
	}
	defer m.stopScanner()
	if !strings.Contains(m.View(), "Scannez un QR code") {
		t.Fatalf("view missing scan prompt:\n%s", m.View())
	}

	// A code already present in the attendance list resolves locally.
	cmd = m.Update(scanEventMsg{event: scan.Event{Code: "ABC123"}, ok: true})
	if cmd == nil {
		t.Fatal("event handling must re-arm the reader wait")
	}
	if !strings.Contains(m.View(), "Présence déjà enregistrée") {
		t.Fatalf("view missing duplicate notice:\n%s", m.View())
	}

	// A new code goes in flight.
	m.Update(scanEventMsg{event: scan.Event{Code: "NEW42"}, ok: true})
	if !strings.Contains(m.View(), "Traitement du scan...") {
		t.Fatalf("view missing processing notice:\n%s", m.View())
	}

	// Resolve the submission successfully.
	result := scan.Result{
		Submission: scan.Submission{Session: m.controller.Session(), Code: "NEW42"},
		Meeting:    model.Meeting{ID: "m2", Title: "Standup", Code: "NEW42"},
	}
	cmd = m.Update(scanResultMsg{result: result})
	if cmd == nil {
		t.Fatal("a resolved scan should schedule the cooldown tick")
	}
	if !m.refreshOnExpiry {
		t.Fatal("a successful scan should refresh attendances after the cooldown")
	}
	if !strings.Contains(m.View(), "Présence enregistrée pour la réunion: Standup") {
		t.Fatalf("view missing success message:\n%s", m.View())
	}

	// Stopping the scanner hides the panel again.
	m.Update(keyMsg("s"))
	if m.scanning {
		t.Fatal("s should stop a running scanner")
	}
	if !strings.Contains(m.View(), "Scanner le QR code") {
		t.Fatalf("view missing start hint after stop:\n%s", m.View())
	}
}

func TestMemberReaderErrorKeepsScanning(t *testing.T) {
	m := memberWithAttendances(t, testDeps(t))
	m.Update(keyMsg("s"))
	defer m.stopScanner()

	cmd := m.Update(scanEventMsg{event: scan.Event{Err: errTransport{}}, ok: true})
	if cmd == nil {
		t.Fatal("reader errors must re-arm the reader wait")
	}
	if !m.scanning {
		t.Fatal("reader errors must not stop the scanner")
	}
	if !strings.Contains(m.View(), "Erreur du scanner QR") {
		t.Fatalf("view missing reader error:\n%s", m.View())
	}
}

func TestMemberReaderClosureStopsScanner(t *testing.T) {
	m := memberWithAttendances(t, testDeps(t))
	m.Update(keyMsg("s"))

	m.Update(scanEventMsg{ok: false})
	if m.scanning {
		t.Fatal("a closed reader channel should stop the scanner")
	}
}

func adminWithMeetings(t *testing.T, deps Deps) *adminModel {
	t.Helper()
	user := model.User{ID: "u1", LastName: "A", FirstName: "K", Role: model.RoleAdmin}
	m := newAdminModel(deps, user)
	m.Update(meetingsMsg{meetings: []model.Meeting{
		{ID: "m1", Title: "Réunion Projet", Date: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), Code: "ABC123"},
		{ID: "m2", Title: "Standup", Date: time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC), Code: "XYZ789"},
	}})
	m.Update(attendancesMsg{records: []model.AttendanceRecord{
		{
			Meeting:      model.Meeting{ID: "m1", Title: "Réunion Projet", Code: "ABC123"},
			User:         model.User{ID: "u2", LastName: "B", FirstName: "L"},
			RegisteredAt: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
		},
	}})
	return &m
}

func TestAdminViewListsMeetingsAndRosters(t *testing.T) {
	m := adminWithMeetings(t, testDeps(t))
	view := m.View()
	if !strings.Contains(view, "Réunion Projet") || !strings.Contains(view, "Standup") {
		t.Fatalf("view missing meetings:\n%s", view)
	}
	if !strings.Contains(view, "ABC123") {
		t.Fatalf("view missing meeting code:\n%s", view)
	}
	// Rosters: m1 has one presence, m2 none and is skipped.
	if !strings.Contains(view, "Nombre de présences: 1") {
		t.Fatalf("view missing roster count:\n%s", view)
	}
	if !strings.Contains(view, "B L") {
		t.Fatalf("view missing attendee name:\n%s", view)
	}
}

func TestAdminTerminalQR(t *testing.T) {
	m := adminWithMeetings(t, testDeps(t))
	m.Update(keyMsg("tab")) // move focus to the list
	m.Update(keyMsg("g"))

	if m.qrArt == "" {
		t.Fatal("g should render the terminal QR code")
	}
	if !strings.Contains(m.View(), "QR Code pour la réunion: Réunion Projet") {
		t.Fatalf("view missing QR section:\n%s", m.View())
	}
}

func TestAdminCreateMeetingNavigatesToDetail(t *testing.T) {
	m := adminWithMeetings(t, testDeps(t))

	cmd := m.Update(meetingCreatedMsg{meeting: model.Meeting{ID: "m3", Title: "AG", Code: "NEW1"}})
	if cmd == nil {
		t.Fatal("a created meeting should open its detail view")
	}
	msg, ok := cmd().(openDetailMsg)
	if !ok || msg.meetingID != "m3" {
		t.Fatalf("cmd msg = %#v", cmd())
	}
	if len(m.meetings) != 3 {
		t.Fatalf("meetings = %d, want 3", len(m.meetings))
	}
}

func TestAdminCreateErrorShowsServerMessage(t *testing.T) {
	m := adminWithMeetings(t, testDeps(t))
	m.Update(meetingCreatedMsg{err: &api.Error{Status: 400, Message: "Titre déjà utilisé"}})
	if !strings.Contains(m.View(), "Titre déjà utilisé") {
		t.Fatalf("server message not surfaced verbatim:\n%s", m.View())
	}
}

func TestDetailViewShowsMeetingAndRoster(t *testing.T) {
	deps := testDeps(t)
	m := newDetailModel(deps, "m1")

	m.Update(meetingDetailMsg{
		meeting: model.Meeting{ID: "m1", Title: "Réunion Projet", Date: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC), Code: "ABC123"},
		roster: []model.AttendanceRecord{
			{
				User:         model.User{ID: "u2", LastName: "B", FirstName: "L"},
				RegisteredAt: time.Date(2025, 3, 1, 10, 5, 0, 0, time.UTC),
			},
		},
	})
	view := m.View()
	if !strings.Contains(view, "Réunion Projet") || !strings.Contains(view, "ABC123") {
		t.Fatalf("view missing meeting data:\n%s", view)
	}
	if !strings.Contains(view, "B L") {
		t.Fatalf("view missing roster entry:\n%s", view)
	}
	if m.qrArt == "" {
		t.Fatal("detail should render the QR code")
	}
}

func TestDetailEscReturnsToDashboard(t *testing.T) {
	deps := testDeps(t)
	m := newDetailModel(deps, "m1")
	cmd := m.Update(keyMsg("esc"))
	if cmd == nil {
		t.Fatal("esc should schedule the back navigation")
	}
	if _, ok := cmd().(backToDashboardMsg); !ok {
		t.Fatalf("cmd msg = %#v", cmd())
	}
}
