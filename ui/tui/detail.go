// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/qr"
)

// meetingDetailMsg delivers one meeting and its roster.
type meetingDetailMsg struct {
	meeting model.Meeting
	roster  []model.AttendanceRecord
	err     error
}

// detailModel shows a single meeting: its data, its QR code and its
// attendance roster.
type detailModel struct {
	deps      Deps
	meetingID string

	meeting model.Meeting
	roster  []model.AttendanceRecord
	qrArt   string
	loaded  bool
	errMsg  string
}

func newDetailModel(deps Deps, meetingID string) detailModel {
	return detailModel{deps: deps, meetingID: meetingID}
}

func (m *detailModel) Init() tea.Cmd {
	return fetchDetailCmd(m.deps, m.meetingID)
}

func (m *detailModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "backspace":
			return func() tea.Msg { return backToDashboardMsg{} }
		case "q":
			return tea.Quit
		case "e":
			if m.loaded {
				return exportQRCmd(m.meeting)
			}
		}
	case meetingDetailMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				return expireSessionCmd()
			}
			if serverMsg := api.ServerMessage(msg.err); serverMsg != "" {
				m.errMsg = serverMsg
			} else {
				m.errMsg = i18n.T("errors.fetch_meeting")
			}
			return nil
		}
		m.meeting = msg.meeting
		m.roster = msg.roster
		m.loaded = true
		if art, err := qr.Terminal(msg.meeting.Code); err == nil {
			m.qrArt = art
		}
	case qrExportedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
		} else {
			m.errMsg = ""
		}
	}
	return nil
}

func (m *detailModel) View() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render(i18n.T("detail.title")) + "\n\n")
	if m.errMsg != "" {
		b.WriteString(errorStyle.Render(m.errMsg) + "\n")
	}
	if !m.loaded {
		b.WriteString(i18n.T("common.loading") + "\n")
		return b.String()
	}

	b.WriteString(labelStyle.Render(m.meeting.Title) + "\n")
	b.WriteString(i18n.T("member.date") + ": " + m.meeting.Date.Format(i18n.T("common.date_format")) + "\n")
	b.WriteString(i18n.T("admin.code") + ": " + m.meeting.Code + "\n\n")
	if m.qrArt != "" {
		b.WriteString(m.qrArt + "\n")
	}

	b.WriteString(sectionStyle.Render(i18n.T("admin.rosters")) + "\n")
	if len(m.roster) == 0 {
		b.WriteString(i18n.T("member.no_attendance") + "\n")
	}
	for _, rec := range m.roster {
		b.WriteString(fmt.Sprintf("  - %s · %s\n",
			rec.User.FullName(),
			rec.RegisteredAt.Format(i18n.T("common.date_format"))))
	}

	b.WriteString("\n" + helpStyle.Render(
		"e: "+i18n.T("admin.export_qr")+" · esc: "+i18n.T("common.back")+" · q: "+i18n.T("common.quit")))
	return b.String()
}

func fetchDetailCmd(deps Deps, meetingID string) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		meeting, err := deps.Client.Meeting(ctx, meetingID)
		if err != nil {
			return meetingDetailMsg{err: err}
		}
		roster, err := deps.Client.MeetingAttendances(ctx, meetingID)
		if err != nil {
			return meetingDetailMsg{err: err}
		}
		return meetingDetailMsg{meeting: meeting, roster: roster}
	}
}
