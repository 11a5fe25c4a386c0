// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
)

// switchToRegisterMsg and switchToLoginMsg flip between the two
// unauthenticated forms.
type switchToRegisterMsg struct{}

type switchToLoginMsg struct {
	notice string
}

// authResultMsg carries the outcome of an authentication attempt.
type authResultMsg struct {
	user  model.User
	token string
	err   error
}

// registerResultMsg carries the outcome of a sign-up attempt.
type registerResultMsg struct {
	err error
}

// loginModel is the sign-in form.
type loginModel struct {
	email      textinput.Model
	password   textinput.Model
	focus      int
	submitting bool
	errMsg     string
	notice     string
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = i18n.T("login.email")
	email.Focus()

	password := textinput.New()
	password.Placeholder = i18n.T("login.password")
	password.EchoMode = textinput.EchoPassword

	return loginModel{email: email, password: password}
}

func (m loginModel) Update(msg tea.Msg, deps Deps) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			return m, func() tea.Msg { return switchToRegisterMsg{} }
		case "esc":
			return m, tea.Quit
		case "up", "down":
			m.setFocus(1 - m.focus)
			return m, nil
		case "enter":
			if m.focus == 0 {
				m.setFocus(1)
				return m, nil
			}
			email := strings.TrimSpace(m.email.Value())
			password := m.password.Value()
			if email == "" || password == "" {
				m.errMsg = i18n.T("common.required")
				return m, nil
			}
			m.submitting = true
			m.errMsg = ""
			return m, authenticateCmd(deps.Client, email, password)
		}
	case authResultMsg:
		m.submitting = false
		if msg.err != nil {
			if serverMsg := api.ServerMessage(msg.err); serverMsg != "" {
				m.errMsg = serverMsg
			} else {
				m.errMsg = i18n.T("login.error_generic")
			}
			return m, nil
		}
		user, token := msg.user, msg.token
		return m, func() tea.Msg { return loggedInMsg{user: user, token: token} }
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *loginModel) setFocus(i int) {
	m.focus = i
	if i == 0 {
		m.email.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.email.Blur()
	}
}

func (m loginModel) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(i18n.T("login.title")) + "\n\n")
	if m.notice != "" {
		b.WriteString(successStyle.Render(m.notice) + "\n\n")
	}
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n\n")
	}
	b.WriteString(m.email.View() + "\n")
	b.WriteString(m.password.View() + "\n\n")
	if m.submitting {
		b.WriteString(i18n.T("login.loading") + "\n")
	} else {
		b.WriteString(helpStyle.Render(i18n.T("login.register_hint")) + "\n")
		b.WriteString(helpStyle.Render("enter: "+i18n.T("login.submit")+" · esc: "+i18n.T("common.quit")) + "\n")
	}
	return cardStyle.Render(b.String())
}

func authenticateCmd(client *api.Client, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, token, err := client.Authenticate(context.Background(), email, password)
		return authResultMsg{user: user, token: token, err: err}
	}
}

// registerModel is the sign-up form. Track, level and committee are
// closed option sets picked with left/right, the way the original
// registration form offered fixed dropdowns.
type registerModel struct {
	inputs     []textinput.Model // last name, first name, email, password
	track      int
	level      int
	committee  int
	focus      int // 0..3 inputs, 4 track, 5 level, 6 committee
	submitting bool
	errMsg     string
}

func newRegisterModel() registerModel {
	labels := []string{
		i18n.T("register.last_name"),
		i18n.T("register.first_name"),
		i18n.T("register.email"),
		i18n.T("register.password"),
	}
	inputs := make([]textinput.Model, len(labels))
	for i, label := range labels {
		ti := textinput.New()
		ti.Placeholder = label
		inputs[i] = ti
	}
	inputs[3].EchoMode = textinput.EchoPassword
	inputs[0].Focus()
	return registerModel{inputs: inputs}
}

func (m registerModel) Update(msg tea.Msg, deps Deps) (registerModel, tea.Cmd) {
	const fieldCount = 7

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "tab":
			return m, func() tea.Msg { return switchToLoginMsg{} }
		case "esc":
			return m, tea.Quit
		case "up":
			m.setFocus((m.focus + fieldCount - 1) % fieldCount)
			return m, nil
		case "down":
			m.setFocus((m.focus + 1) % fieldCount)
			return m, nil
		case "left", "right":
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			switch m.focus {
			case 4:
				m.track = cycle(m.track, delta, len(model.Tracks))
			case 5:
				m.level = cycle(m.level, delta, len(model.Levels))
			case 6:
				m.committee = cycle(m.committee, delta, len(model.Committees))
			}
			if m.focus >= 4 {
				return m, nil
			}
		case "enter":
			if m.focus < fieldCount-1 {
				m.setFocus(m.focus + 1)
				return m, nil
			}
			reg := api.Registration{
				LastName:  strings.TrimSpace(m.inputs[0].Value()),
				FirstName: strings.TrimSpace(m.inputs[1].Value()),
				Email:     strings.TrimSpace(m.inputs[2].Value()),
				Password:  m.inputs[3].Value(),
				Track:     model.Tracks[m.track],
				Level:     model.Levels[m.level],
				Committee: model.Committees[m.committee],
			}
			if reg.LastName == "" || reg.FirstName == "" || reg.Email == "" || reg.Password == "" {
				m.errMsg = i18n.T("common.required")
				return m, nil
			}
			m.submitting = true
			m.errMsg = ""
			return m, registerCmd(deps.Client, reg)
		}
	case registerResultMsg:
		m.submitting = false
		if msg.err != nil {
			if serverMsg := api.ServerMessage(msg.err); serverMsg != "" {
				m.errMsg = serverMsg
			} else {
				m.errMsg = i18n.T("register.error_generic")
			}
			return m, nil
		}
		return m, func() tea.Msg {
			return switchToLoginMsg{notice: i18n.T("register.success")}
		}
	}

	if m.focus < len(m.inputs) {
		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *registerModel) setFocus(i int) {
	m.focus = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

func (m registerModel) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(i18n.T("register.title")) + "\n\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n\n")
	}
	for _, in := range m.inputs {
		b.WriteString(in.View() + "\n")
	}
	b.WriteString(m.optionLine(4, i18n.T("register.track"), model.Tracks[m.track]))
	b.WriteString(m.optionLine(5, i18n.T("register.level"), model.Levels[m.level]))
	b.WriteString(m.optionLine(6, i18n.T("register.committee"), model.Committees[m.committee]))
	b.WriteString("\n")
	if m.submitting {
		b.WriteString(i18n.T("register.loading") + "\n")
	} else {
		b.WriteString(helpStyle.Render(i18n.T("register.login_hint")) + "\n")
		b.WriteString(helpStyle.Render("enter: "+i18n.T("register.submit")+" · esc: "+i18n.T("common.quit")) + "\n")
	}
	return cardStyle.Render(b.String())
}

func (m registerModel) optionLine(focusIndex int, label, value string) string {
	line := labelStyle.Render(label+": ") + value
	if m.focus == focusIndex {
		line = selectedItemStyle.Render("▸ ") + line + helpStyle.Render("  ←/→")
	} else {
		line = "  " + line
	}
	return line + "\n"
}

func cycle(current, delta, size int) int {
	return (current + delta + size) % size
}

func registerCmd(client *api.Client, reg api.Registration) tea.Cmd {
	return func() tea.Msg {
		return registerResultMsg{err: client.Register(context.Background(), reg)}
	}
}
