// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/qr"
	"github.com/adjoumani/presence/util/slicest"
)

// meetingsMsg delivers the meeting list.
type meetingsMsg struct {
	meetings []model.Meeting
	err      error
}

// meetingCreatedMsg delivers the outcome of a create-meeting request.
type meetingCreatedMsg struct {
	meeting model.Meeting
	err     error
}

// qrExportedMsg delivers the outcome of a QR PNG export.
type qrExportedMsg struct {
	path string
	err  error
}

// codeCopiedMsg delivers the outcome of a clipboard copy.
type codeCopiedMsg struct {
	err error
}

// adminFocus tracks which zone of the dashboard receives keys.
type adminFocus int

const (
	focusForm adminFocus = iota
	focusList
)

// adminModel composes the meeting creation form, the meeting list with
// its QR panel, and the per-meeting rosters.
type adminModel struct {
	deps Deps
	user model.User

	titleInput textinput.Model
	dateInput  textinput.Model
	formField  int
	creating   bool

	meetings    []model.Meeting
	attendances []model.AttendanceRecord
	cursor      int
	focus       adminFocus

	// qrMeeting/qrArt hold the currently displayed terminal QR render.
	qrMeeting *model.Meeting
	qrArt     string

	status string
	errMsg string
}

func newAdminModel(deps Deps, user model.User) adminModel {
	title := textinput.New()
	title.Placeholder = i18n.T("admin.meeting_title")
	title.Focus()

	date := textinput.New()
	date.Placeholder = "2025-03-01T10:00"

	return adminModel{
		deps:       deps,
		user:       user,
		titleInput: title,
		dateInput:  date,
	}
}

func (m *adminModel) Init() tea.Cmd {
	return tea.Batch(fetchMeetingsCmd(m.deps), fetchAttendancesCmd(m.deps))
}

func (m *adminModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if cmd, handled := m.updateKeys(msg); handled {
			return cmd
		}

	case meetingsMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				return expireSessionCmd()
			}
			m.errMsg = i18n.T("errors.fetch_meetings")
			return nil
		}
		m.meetings = msg.meetings
		if m.cursor >= len(m.meetings) {
			m.cursor = 0
		}

	case attendancesMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				return expireSessionCmd()
			}
			m.errMsg = i18n.T("errors.fetch_attendance")
			return nil
		}
		m.attendances = msg.records

	case meetingCreatedMsg:
		m.creating = false
		if msg.err != nil {
			if serverMsg := api.ServerMessage(msg.err); serverMsg != "" {
				m.errMsg = serverMsg
			} else {
				m.errMsg = i18n.T("admin.create_error")
			}
			return nil
		}
		m.errMsg = ""
		m.status = i18n.T("admin.created")
		m.titleInput.SetValue("")
		m.dateInput.SetValue("")
		m.meetings = append(m.meetings, msg.meeting)
		// Jump straight to the new meeting's detail, like the original
		// client navigated after creation.
		meetingID := msg.meeting.ID
		return func() tea.Msg { return openDetailMsg{meetingID: meetingID} }

	case qrExportedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return nil
		}
		m.status = i18n.T("admin.exported_qr", msg.path)

	case codeCopiedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return nil
		}
		m.status = i18n.T("admin.copied_code")
	}

	if m.focus == focusForm && !m.creating {
		var cmd tea.Cmd
		if m.formField == 0 {
			m.titleInput, cmd = m.titleInput.Update(msg)
		} else {
			m.dateInput, cmd = m.dateInput.Update(msg)
		}
		return cmd
	}
	return nil
}

// updateKeys dispatches a key press. handled is false when the key
// should flow through to the focused text input instead.
func (m *adminModel) updateKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit, true
	case "ctrl+l":
		return func() tea.Msg { return loggedOutMsg{} }, true
	case "tab":
		if m.focus == focusForm {
			m.focus = focusList
			m.titleInput.Blur()
			m.dateInput.Blur()
		} else {
			m.focus = focusForm
			m.formField = 0
			m.titleInput.Focus()
		}
		return nil, true
	}

	if m.focus == focusForm {
		return m.updateFormKeys(msg)
	}
	return m.updateListKeys(msg), true
}

func (m *adminModel) updateFormKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	if m.creating {
		return nil, true
	}
	switch msg.String() {
	case "enter":
		if m.formField == 0 {
			m.formField = 1
			m.titleInput.Blur()
			m.dateInput.Focus()
			return nil, true
		}
		title := strings.TrimSpace(m.titleInput.Value())
		date := strings.TrimSpace(m.dateInput.Value())
		if title == "" || date == "" {
			m.errMsg = i18n.T("common.required")
			return nil, true
		}
		m.creating = true
		m.errMsg = ""
		m.status = ""
		return createMeetingCmd(m.deps, title, date), true
	case "up", "down":
		m.formField = 1 - m.formField
		if m.formField == 0 {
			m.titleInput.Focus()
			m.dateInput.Blur()
		} else {
			m.dateInput.Focus()
			m.titleInput.Blur()
		}
		return nil, true
	}
	// Everything else is text for the focused input.
	return nil, false
}

func (m *adminModel) updateListKeys(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.meetings)-1 {
			m.cursor++
		}
	case "r":
		return tea.Batch(fetchMeetingsCmd(m.deps), fetchAttendancesCmd(m.deps))
	case "g":
		if meeting, ok := m.selected(); ok {
			art, err := qr.Terminal(meeting.Code)
			if err != nil {
				m.errMsg = err.Error()
				return nil
			}
			m.qrMeeting = &meeting
			m.qrArt = art
		}
	case "e":
		if meeting, ok := m.selected(); ok {
			return exportQRCmd(meeting)
		}
	case "c":
		if meeting, ok := m.selected(); ok {
			code := meeting.Code
			return func() tea.Msg { return codeCopiedMsg{err: clipboard.WriteAll(code)} }
		}
	case "enter":
		if meeting, ok := m.selected(); ok {
			meetingID := meeting.ID
			return func() tea.Msg { return openDetailMsg{meetingID: meetingID} }
		}
	}
	return nil
}

func (m *adminModel) selected() (model.Meeting, bool) {
	if m.cursor < 0 || m.cursor >= len(m.meetings) {
		return model.Meeting{}, false
	}
	return m.meetings[m.cursor], true
}

func (m *adminModel) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(i18n.T("admin.title")) + "\n\n")

	profile := labelStyle.Render(i18n.T("register.last_name")+": ") + m.user.FullName() + "\n" +
		labelStyle.Render(i18n.T("register.email")+": ") + m.user.Email + "\n" +
		labelStyle.Render(i18n.T("admin.role")+": ") + string(m.user.Role)
	b.WriteString(cardStyle.Render(sectionStyle.Render(i18n.T("member.profile")) + "\n" + profile))
	b.WriteString("\n\n")

	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}
	if m.status != "" {
		b.WriteString(successStyle.Render(m.status) + "\n")
	}

	b.WriteString(sectionStyle.Render(i18n.T("admin.create_section")) + "\n")
	b.WriteString(m.titleInput.View() + "\n")
	b.WriteString(m.dateInput.View() + "\n")
	if m.creating {
		b.WriteString(i18n.T("admin.creating") + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(i18n.T("admin.meetings")) + "\n")
	if len(m.meetings) == 0 {
		b.WriteString(i18n.T("admin.no_meetings") + "\n")
	}
	for i, meeting := range m.meetings {
		line := fmt.Sprintf("%s — %s — %s: %s",
			meeting.Title,
			meeting.Date.Format(i18n.T("common.date_format")),
			i18n.T("admin.code"), meeting.Code)
		if m.focus == focusList && i == m.cursor {
			b.WriteString(selectedItemStyle.Render("▸ "+line) + "\n")
		} else {
			b.WriteString(itemStyle.Render("  "+line) + "\n")
		}
	}

	if m.qrMeeting != nil {
		b.WriteString("\n" + sectionStyle.Render(i18n.T("admin.qr_section", m.qrMeeting.Title)) + "\n")
		b.WriteString(m.qrArt)
		b.WriteString(i18n.T("admin.code") + ": " + m.qrMeeting.Code + "\n")
	}

	b.WriteString("\n" + m.rostersView())

	b.WriteString("\n" + helpStyle.Render(
		"tab: form/liste · g: "+i18n.T("admin.show_qr")+
			" · e: "+i18n.T("admin.export_qr")+
			" · c: "+i18n.T("admin.copy_code")+
			" · enter: "+i18n.T("admin.details")+
			" · r: "+i18n.T("common.refresh")+
			" · ctrl+l: "+i18n.T("common.logout")+
			" · q: "+i18n.T("common.quit")))
	return b.String()
}

// rostersView groups all attendance records by meeting and renders the
// per-meeting rosters, skipping meetings without any presence.
func (m *adminModel) rostersView() string {
	byMeeting := slicest.ReduceD(m.attendances, map[string][]model.AttendanceRecord{},
		func(rec model.AttendanceRecord, acc map[string][]model.AttendanceRecord) map[string][]model.AttendanceRecord {
			acc[rec.Meeting.ID] = append(acc[rec.Meeting.ID], rec)
			return acc
		})

	var b strings.Builder
	b.WriteString(sectionStyle.Render(i18n.T("admin.rosters")) + "\n")
	for _, meeting := range m.meetings {
		records := byMeeting[meeting.ID]
		if len(records) == 0 {
			continue
		}
		b.WriteString(labelStyle.Render(meeting.Title) + "\n")
		b.WriteString(fmt.Sprintf("  %s: %d\n", i18n.T("admin.attendance_count"), len(records)))
		for _, rec := range records {
			b.WriteString(fmt.Sprintf("  - %s · %s\n",
				rec.User.FullName(),
				rec.RegisteredAt.Format(i18n.T("common.date_format"))))
		}
	}
	return b.String()
}

func fetchMeetingsCmd(deps Deps) tea.Cmd {
	return func() tea.Msg {
		meetings, err := deps.Client.Meetings(context.Background())
		return meetingsMsg{meetings: meetings, err: err}
	}
}

func createMeetingCmd(deps Deps, title, date string) tea.Cmd {
	return func() tea.Msg {
		meeting, err := deps.Client.CreateMeeting(context.Background(), title, date)
		return meetingCreatedMsg{meeting: meeting, err: err}
	}
}

func exportQRCmd(meeting model.Meeting) tea.Cmd {
	return func() tea.Msg {
		path := qr.ExportFilename(meeting.Title)
		if err := qr.EncodeFile(meeting.Code, path, qr.DefaultSize); err != nil {
			return qrExportedMsg{err: err}
		}
		return qrExportedMsg{path: path}
	}
}
