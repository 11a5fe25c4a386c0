// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

package cli

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/model"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Authenticate against the attendance service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := readPassword(i18n.T("login.password") + ": ")
			if err != nil {
				return err
			}
			user, token, err := client.Authenticate(cmd.Context(), args[0], password)
			if err != nil {
				return surfaceError(err, i18n.T("login.error_generic"))
			}
			if err := store.Login(user, token); err != nil {
				return fmt.Errorf("could not persist session: %w", err)
			}
			fmt.Printf("%s (%s)\n", user.FullName(), user.Role)
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var reg api.Registration

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new member account",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Validation errors are caught before any request is made.
			if reg.LastName == "" || reg.FirstName == "" || reg.Email == "" {
				return errors.New(i18n.T("common.required"))
			}
			if !slices.Contains(model.Tracks, reg.Track) {
				return fmt.Errorf("%s: %s (%s)", i18n.T("register.track"), reg.Track, strings.Join(model.Tracks, ", "))
			}
			if !slices.Contains(model.Levels, reg.Level) {
				return fmt.Errorf("%s: %s (%s)", i18n.T("register.level"), reg.Level, strings.Join(model.Levels, ", "))
			}
			if !slices.Contains(model.Committees, reg.Committee) {
				return fmt.Errorf("%s: %s (%s)", i18n.T("register.committee"), reg.Committee, strings.Join(model.Committees, ", "))
			}
			password, err := readPassword(i18n.T("register.password") + ": ")
			if err != nil {
				return err
			}
			reg.Password = password
			if reg.Password == "" {
				return errors.New(i18n.T("common.required"))
			}
			if err := client.Register(cmd.Context(), reg); err != nil {
				return surfaceError(err, i18n.T("register.error_generic"))
			}
			fmt.Println(i18n.T("register.success"))
			return nil
		},
	}

	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Track, "track", "", "academic track")
	cmd.Flags().StringVar(&reg.Level, "level", "", "academic level")
	cmd.Flags().StringVar(&reg.Committee, "committee", "", "committee")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Clear the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return store.Logout()
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session identity",
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := store.Current()
			if !ok {
				return errors.New("not logged in")
			}
			fmt.Printf("%s <%s> (%s)\n", user.FullName(), user.Email, user.Role)
			return nil
		},
	}
}

// readPassword prompts without echo when stdin is a terminal and falls
// back to a plain line read otherwise (tests, pipes).
func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("could not read password: %w", err)
		}
		return string(b), nil
	}
	var line string
	if _, err := fmt.Fscanln(os.Stdin, &line); err != nil {
		return "", fmt.Errorf("could not read password: %w", err)
	}
	return line, nil
}

// surfaceError returns the service's message verbatim when there is
// one, otherwise wraps err with the generic fallback.
func surfaceError(err error, fallback string) error {
	if msg := api.ServerMessage(err); msg != "" {
		return errors.New(msg)
	}
	return fmt.Errorf("%s: %w", fallback, err)
}
