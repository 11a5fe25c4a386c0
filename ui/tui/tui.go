// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// This file is the main entry point for the TUI, containing the
// top-level model that routes between the login/register forms and the
// role-specific dashboards. The role branch happens exactly once, here,
// after authentication; the dashboards never re-check it.
package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/logging"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/session"
)

// viewState represents which part of the UI is currently active.
type viewState int

const (
	loginView viewState = iota
	registerView
	memberView
	adminView
	detailView
)

// Deps carries everything the dashboards need to operate.
type Deps struct {
	Client *api.Client
	Store  *session.Store
	// FramesDir is the directory the scanner watches for camera frames.
	FramesDir string
}

// loggedInMsg signals a successful authentication.
type loggedInMsg struct {
	user  model.User
	token string
}

// loggedOutMsg signals an explicit logout or an invalidated session.
// expired is set when the service rejected the credential, so the login
// form can say why the user landed back on it.
type loggedOutMsg struct {
	expired bool
}

// openDetailMsg asks the router to show one meeting's detail view.
type openDetailMsg struct {
	meetingID string
}

// backToDashboardMsg returns from the detail view.
type backToDashboardMsg struct{}

// mainModel is the top-level router model.
type mainModel struct {
	deps   Deps
	state  viewState
	login  loginModel
	signup registerModel
	member *memberModel
	admin  *adminModel
	detail *detailModel
	width  int
	height int
}

func initialModel(deps Deps) (mainModel, tea.Cmd) {
	m := mainModel{
		deps:  deps,
		state: loginView,
		login: newLoginModel(),
	}
	// A persisted session skips the login form entirely.
	if user, ok := deps.Store.Current(); ok {
		return m.dispatchRole(user)
	}
	return m, nil
}

// dispatchRole routes to the dashboard matching the user's role. The
// role set is closed: anything that is not admin is a member.
func (m mainModel) dispatchRole(user model.User) (mainModel, tea.Cmd) {
	if user.IsAdmin() {
		admin := newAdminModel(m.deps, user)
		m.admin = &admin
		m.state = adminView
		return m, admin.Init()
	}
	member := newMemberModel(m.deps, user)
	m.member = &member
	m.state = memberView
	return m, member.Init()
}

func (m mainModel) Init() tea.Cmd {
	return nil
}

func (m mainModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case loggedInMsg:
		if err := m.deps.Store.Login(msg.user, msg.token); err != nil {
			logging.Errorf("could not persist session: %v", err)
		}
		next, cmd := m.dispatchRole(msg.user)
		return next, cmd
	case loggedOutMsg:
		if err := m.deps.Store.Logout(); err != nil {
			logging.Errorf("could not clear session: %v", err)
		}
		m.member = nil
		m.admin = nil
		m.detail = nil
		m.state = loginView
		m.login = newLoginModel()
		if msg.expired {
			m.login.notice = i18n.T("errors.session_expired")
		}
		return m, nil
	case openDetailMsg:
		detail := newDetailModel(m.deps, msg.meetingID)
		m.detail = &detail
		m.state = detailView
		return m, detail.Init()
	case backToDashboardMsg:
		m.detail = nil
		m.state = adminView
		return m, nil
	case switchToRegisterMsg:
		m.signup = newRegisterModel()
		m.state = registerView
		return m, nil
	case switchToLoginMsg:
		m.login = newLoginModel()
		if msg.notice != "" {
			m.login.notice = msg.notice
		}
		m.state = loginView
		return m, nil
	}

	switch m.state {
	case loginView:
		next, cmd := m.login.Update(msg, m.deps)
		m.login = next
		return m, cmd
	case registerView:
		next, cmd := m.signup.Update(msg, m.deps)
		m.signup = next
		return m, cmd
	case memberView:
		if m.member != nil {
			cmd := m.member.Update(msg)
			return m, cmd
		}
	case adminView:
		if m.admin != nil {
			cmd := m.admin.Update(msg)
			return m, cmd
		}
	case detailView:
		if m.detail != nil {
			cmd := m.detail.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m mainModel) View() string {
	var body string
	switch m.state {
	case loginView:
		body = m.login.View()
	case registerView:
		body = m.signup.View()
	case memberView:
		if m.member != nil {
			body = m.member.View()
		}
	case adminView:
		if m.admin != nil {
			body = m.admin.View()
		}
	case detailView:
		if m.detail != nil {
			body = m.detail.View()
		}
	}
	header := titleStyle.Render(fmt.Sprintf("%s — %s", i18n.T("app.name"), i18n.T("app.tagline")))
	return docStyle.Render(header + "\n" + body)
}

// expireSessionCmd forces a logout after the service rejected the
// credential.
func expireSessionCmd() tea.Cmd {
	return func() tea.Msg { return loggedOutMsg{expired: true} }
}

// Run starts the TUI event loop.
func Run(deps Deps) error {
	m, cmd := initialModel(deps)
	opts := []tea.ProgramOption{tea.WithAltScreen()}
	p := tea.NewProgram(startupModel{inner: m, cmd: cmd}, opts...)
	_, err := p.Run()
	return err
}

// startupModel defers the initial dashboard command until the program
// is running, so a restored session loads its data immediately.
type startupModel struct {
	inner mainModel
	cmd   tea.Cmd
}

func (s startupModel) Init() tea.Cmd { return s.cmd }

func (s startupModel) View() string { return s.inner.View() }

func (s startupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) { return s.inner.Update(msg) }
