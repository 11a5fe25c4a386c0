// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
	"github.com/adjoumani/presence/internal/qr"
	"github.com/adjoumani/presence/internal/scan"
	"github.com/adjoumani/presence/util/slicest"
)

func newAttendanceCmd() *cobra.Command {
	var meetingID string

	cmd := &cobra.Command{
		Use:   "attendance",
		Short: "List attendance records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}
			var records []model.AttendanceRecord
			var err error
			if meetingID != "" {
				records, err = client.MeetingAttendances(cmd.Context(), meetingID)
			} else {
				records, err = client.Attendances(cmd.Context())
			}
			if err != nil {
				return surfaceError(err, i18n.T("errors.fetch_attendance"))
			}
			if len(records) == 0 {
				fmt.Println(i18n.T("member.no_attendance"))
				return nil
			}
			lines := slicest.Map(records, func(rec model.AttendanceRecord) string {
				return fmt.Sprintf("%s · %s · %s",
					rec.Meeting.Title,
					rec.User.FullName(),
					rec.RegisteredAt.Format(i18n.T("common.date_format")))
			})
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&meetingID, "meeting", "", "restrict to one meeting's roster")
	return cmd
}

// newScanCmd decodes QR images and registers presences through the
// same controller the TUI scanner uses, so deduplication and error
// classification behave identically.
func newScanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image.png> [more images...]",
		Short: "Decode QR images and register the presences they carry",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireSession(); err != nil {
				return err
			}

			controller := scan.New(client)
			if records, err := client.Attendances(cmd.Context()); err == nil {
				controller.SetAttendances(records)
			}
			controller.Start()

			for _, path := range args {
				code, err := qr.DecodeFile(path)
				if err != nil {
					fmt.Printf("%s: %s\n", path, i18n.T("scan.reader_error"))
					continue
				}
				sub := controller.HandleDecode(code)
				if sub == nil {
					fmt.Printf("%s: %s\n", path, controller.Outcome().Message)
					continue
				}
				controller.Resolve(controller.Submit(cmd.Context(), *sub))
				fmt.Printf("%s: %s\n", path, controller.Outcome().Message)
			}
			controller.Stop()
			return nil
		},
	}
}
