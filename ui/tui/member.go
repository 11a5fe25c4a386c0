// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/scan"
)

// attendancesMsg delivers the member's attendance records.
type attendancesMsg struct {
	records []model.AttendanceRecord
	err     error
}

// scanEventMsg delivers one reader emission; ok is false once the
// reader channel has closed.
type scanEventMsg struct {
	event scan.Event
	ok    bool
}

// scanResultMsg delivers the outcome of an in-flight submission.
type scanResultMsg struct {
	result scan.Result
}

// cooldownExpiredMsg fires when a resolved outcome's display interval
// has elapsed. The session guards against ticks from stopped sessions.
type cooldownExpiredMsg struct {
	session string
}

// memberModel composes the profile card, the scanner panel and the
// attendance list.
type memberModel struct {
	deps Deps
	user model.User

	controller *scan.Controller
	reader     *scan.DirReader
	scanning   bool
	// refresh the attendance list when the current cooldown expires
	// (set after a successful submit, the way the original client
	// reloaded after its display delay).
	refreshOnExpiry bool

	attendances []model.AttendanceRecord
	fetchErr    string
}

func newMemberModel(deps Deps, user model.User) memberModel {
	return memberModel{
		deps:       deps,
		user:       user,
		controller: scan.New(deps.Client),
	}
}

func (m *memberModel) Init() tea.Cmd {
	return fetchAttendancesCmd(m.deps)
}

func (m *memberModel) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q":
			return tea.Quit
		case "l":
			m.stopScanner()
			return func() tea.Msg { return loggedOutMsg{} }
		case "r":
			return fetchAttendancesCmd(m.deps)
		case "s":
			if m.scanning {
				m.stopScanner()
				return nil
			}
			return m.startScanner()
		}

	case attendancesMsg:
		if msg.err != nil {
			if api.IsUnauthorized(msg.err) {
				m.stopScanner()
				return expireSessionCmd()
			}
			m.fetchErr = i18n.T("errors.fetch_attendance")
			return nil
		}
		m.fetchErr = ""
		m.attendances = msg.records
		m.controller.SetAttendances(msg.records)

	case scanEventMsg:
		if !m.scanning {
			return nil
		}
		if !msg.ok {
			// Reader went away underneath us; treat it like stop.
			m.stopScanner()
			return nil
		}
		rearm := waitForScanEventCmd(m.reader)
		if msg.event.Err != nil {
			m.controller.HandleReaderError(msg.event.Err)
			return rearm
		}
		if sub := m.controller.HandleDecode(msg.event.Code); sub != nil {
			return tea.Batch(submitScanCmd(m.controller, *sub), rearm)
		}
		return rearm

	case scanResultMsg:
		res := m.controller.Resolve(msg.result)
		if res.CooldownUntil.IsZero() {
			return nil
		}
		if res.Refresh {
			m.refreshOnExpiry = true
		}
		return cooldownCmd(m.controller.Session(), res.CooldownUntil)

	case cooldownExpiredMsg:
		if msg.session != m.controller.Session() {
			return nil
		}
		m.controller.ExpireCooldown()
		if m.refreshOnExpiry {
			m.refreshOnExpiry = false
			return fetchAttendancesCmd(m.deps)
		}
	}
	return nil
}

func (m *memberModel) startScanner() tea.Cmd {
	m.controller.Start()
	m.controller.SetAttendances(m.attendances)
	m.reader = scan.NewDirReader(m.deps.FramesDir, 500*time.Millisecond)
	m.reader.Start(context.Background())
	m.scanning = true
	return waitForScanEventCmd(m.reader)
}

func (m *memberModel) stopScanner() {
	if m.reader != nil {
		m.reader.Stop()
		m.reader = nil
	}
	m.controller.Stop()
	m.scanning = false
	m.refreshOnExpiry = false
}

func (m *memberModel) View() string {
	var b strings.Builder

	b.WriteString(sectionStyle.Render(i18n.T("member.title")) + "\n\n")

	profile := labelStyle.Render(i18n.T("register.last_name")+": ") + m.user.FullName() + "\n" +
		labelStyle.Render(i18n.T("register.email")+": ") + m.user.Email + "\n" +
		labelStyle.Render(i18n.T("member.track")+": ") + m.user.Track + "\n" +
		labelStyle.Render(i18n.T("member.level")+": ") + m.user.Level + "\n" +
		labelStyle.Render(i18n.T("member.committee")+": ") + m.user.Committee
	b.WriteString(cardStyle.Render(sectionStyle.Render(i18n.T("member.profile")) + "\n" + profile))
	b.WriteString("\n\n")

	b.WriteString(sectionStyle.Render(i18n.T("member.scan_section")) + "\n")
	if m.scanning {
		b.WriteString(m.outcomeLine())
		b.WriteString(helpStyle.Render("s: "+i18n.T("member.stop_scan")) + "\n")
	} else {
		b.WriteString(helpStyle.Render("s: "+i18n.T("member.start_scan")) + "\n")
	}
	b.WriteString("\n")

	b.WriteString(sectionStyle.Render(i18n.T("member.attendance")) + "\n")
	if m.fetchErr != "" {
		b.WriteString(errorStyle.Render(m.fetchErr) + "\n")
	}
	if len(m.attendances) == 0 {
		b.WriteString(i18n.T("member.no_attendance") + "\n")
	} else {
		for _, rec := range m.attendances {
			b.WriteString(itemStyle.Render(
				labelStyle.Render(i18n.T("member.meeting")+": ")+rec.Meeting.Title+
					"  "+labelStyle.Render(i18n.T("member.date")+": ")+
					rec.RegisteredAt.Format(i18n.T("common.date_format"))) + "\n")
		}
	}
	b.WriteString("\n" + helpStyle.Render("r: "+i18n.T("common.refresh")+" · l: "+i18n.T("common.logout")+" · q: "+i18n.T("common.quit")))
	return b.String()
}

// outcomeLine renders the controller's single current message in the
// style matching its kind.
func (m *memberModel) outcomeLine() string {
	out := m.controller.Outcome()
	switch out.Kind {
	case scan.OutcomeSuccess:
		return successStyle.Render(out.Message) + "\n"
	case scan.OutcomeError:
		return errorStyle.Render(out.Message) + "\n"
	case scan.OutcomeNone:
		return ""
	default:
		return out.Message + "\n"
	}
}

func fetchAttendancesCmd(deps Deps) tea.Cmd {
	return func() tea.Msg {
		records, err := deps.Client.Attendances(context.Background())
		return attendancesMsg{records: records, err: err}
	}
}

func waitForScanEventCmd(reader *scan.DirReader) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-reader.Events()
		return scanEventMsg{event: ev, ok: ok}
	}
}

func submitScanCmd(c *scan.Controller, sub scan.Submission) tea.Cmd {
	return func() tea.Msg {
		return scanResultMsg{result: c.Submit(context.Background(), sub)}
	}
}

func cooldownCmd(sessionID string, until time.Time) tea.Cmd {
	d := time.Until(until)
	if d < 0 {
		d = 0
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return cooldownExpiredMsg{session: sessionID}
	})
}
