// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/qr"
)

func newMeetingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meetings",
		Short: "List, create and inspect meetings",
	}
	cmd.AddCommand(newMeetingsListCmd())
	cmd.AddCommand(newMeetingsCreateCmd())
	cmd.AddCommand(newMeetingsShowCmd())
	return cmd
}

func newMeetingsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all meetings",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			meetings, err := client.Meetings(cmd.Context())
			if err != nil {
				return surfaceError(err, i18n.T("errors.fetch_meetings"))
			}
			if len(meetings) == 0 {
				fmt.Println(i18n.T("admin.no_meetings"))
				return nil
			}
			for _, m := range meetings {
				printMeeting(m)
			}
			return nil
		},
	}
}

func newMeetingsCreateCmd() *cobra.Command {
	var title, date string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a meeting; the service assigns its unique code",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			if title == "" || date == "" {
				return errors.New(i18n.T("common.required"))
			}
			meeting, err := client.CreateMeeting(cmd.Context(), title, date)
			if err != nil {
				return surfaceError(err, i18n.T("admin.create_error"))
			}
			fmt.Println(i18n.T("admin.created"))
			printMeeting(meeting)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "meeting title")
	cmd.Flags().StringVar(&date, "date", "", "date and time, e.g. 2025-03-01T10:00")
	return cmd
}

func newMeetingsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <meeting-id>",
		Short: "Show one meeting and its roster",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			meeting, err := client.Meeting(cmd.Context(), args[0])
			if err != nil {
				return surfaceError(err, i18n.T("errors.fetch_meeting"))
			}
			printMeeting(meeting)
			roster, err := client.MeetingAttendances(cmd.Context(), args[0])
			if err != nil {
				return surfaceError(err, i18n.T("errors.fetch_attendance"))
			}
			fmt.Printf("%s: %d\n", i18n.T("admin.attendance_count"), len(roster))
			for _, rec := range roster {
				fmt.Printf("  - %s · %s\n", rec.User.FullName(),
					rec.RegisteredAt.Format(i18n.T("common.date_format")))
			}
			return nil
		},
	}
}

func newQRCmd() *cobra.Command {
	var out string
	var size int

	cmd := &cobra.Command{
		Use:   "qr <meeting-id>",
		Short: "Render a meeting's QR code",
		Long: `Renders the meeting's scannable code. By default the QR is drawn in
the terminal; with --out it is written as a PNG instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			meeting, err := client.Meeting(cmd.Context(), args[0])
			if err != nil {
				return surfaceError(err, i18n.T("errors.fetch_meeting"))
			}
			if out == "" {
				art, err := qr.Terminal(meeting.Code)
				if err != nil {
					return err
				}
				fmt.Print(art)
				fmt.Printf("%s: %s\n", i18n.T("admin.code"), meeting.Code)
				return nil
			}
			if err := qr.EncodeFile(meeting.Code, out, size); err != nil {
				return err
			}
			fmt.Println(i18n.T("admin.exported_qr", out))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write a PNG to this path instead of the terminal")
	cmd.Flags().IntVar(&size, "size", qr.DefaultSize, "PNG size in pixels")
	return cmd
}

func printMeeting(m model.Meeting) {
	fmt.Printf("%s  %s  %s  %s: %s\n",
		m.ID, m.Title,
		m.Date.Format(i18n.T("common.date_format")),
		i18n.T("admin.code"), m.Code)
}
