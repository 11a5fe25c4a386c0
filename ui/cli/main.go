// Copyright (c) 2026 Presence Team
// Presence - meeting attendance client
// This source code is licensed under the MIT license found in the LICENSE file.

// main.go sets up the command-line interface for the Presence client
// using the Cobra library. It defines the root command, subcommands
// (login, meetings, scan, ...), flags, and the main entry point for
// execution. Running without a subcommand launches the interactive TUI.

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/adjoumani/presence/buildvars"
	"github.com/adjoumani/presence/internal/api"
	"github.com/adjoumani/presence/internal/config"
	"github.com/adjoumani/presence/internal/i18n"
	"github.com/adjoumani/presence/internal/logging"
	"github.com/adjoumani/presence/internal/session"
	"github.com/adjoumani/presence/ui/tui"
)

var version = "dev" // this will be set by the linker

var (
	cfgFile         string
	verbose         bool
	showVersionFlag bool
	framesDir       string
)

// Package-level services wired by setupDefaultServices and shared by
// all subcommands.
var (
	appConfig config.Config
	store     *session.Store
	client    *api.Client
)

func setupDefaultServices(cmd *cobra.Command, args []string) error {
	optionalConfigPath, err := getConfigPathFromCli(cmd)
	if err != nil {
		return err
	}

	cfg, usedFile, err := config.LoadConfig(cmd, config.Defaults(), optionalConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	appConfig = cfg

	if verbose {
		logging.SetDebug(true)
	}

	// First run (or deleted config): persist the defaults so subsequent
	// runs have a file to inspect and edit.
	if usedFile == "" {
		if writeErr := config.WriteConfigFile(&appConfig, false); writeErr != nil {
			logging.Warnf("could not write default config file: %v", writeErr)
		}
	}

	i18n.Init(appConfig.Language)

	store, err = session.Load(appConfig.Session.Path)
	if err != nil {
		return fmt.Errorf("error loading session: %w", err)
	}

	client = api.New(appConfig.API.BaseURL, store)
	return nil
}

// Execute runs the CLI entrypoint. The root main package should call
// this function and handle process exit.
func Execute() error {
	rootCmd := NewRootCmd()
	return rootCmd.Execute()
}

func getConfigPathFromCli(cmd *cobra.Command) (*string, error) {
	// Only proceed if the user has explicitly set the --config flag.
	if !cmd.Flags().Changed("config") {
		return nil, nil
	}
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("could not read --config flag: %w", err)
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file specified via --config flag not found or is not accessible: %w", err)
	}
	return &path, nil
}

// NewRootCmd creates and configures a new root cobra command. This
// function is used to create the main application command as well as
// fresh instances for isolated testing.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "presence",
		Short: "Presence is a terminal client for meeting attendance tracking.",
		Long: `Presence talks to a remote attendance service: administrators
create timed meetings and hand out their QR codes, members scan those
codes to register their presence, and administrators review the
per-meeting rosters.

Running without a subcommand will launch the interactive TUI.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if showVersionFlag {
				fmt.Printf("%s\n", buildvars.VersionOrDefault(version))
				os.Exit(0)
			}
			return setupDefaultServices(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return tui.Run(tui.Deps{
				Client:    client,
				Store:     store,
				FramesDir: framesDir,
			})
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to an explicit config file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&showVersionFlag, "version", false, "print version and exit")
	cmd.PersistentFlags().String("api.base_url", "", "attendance service base URL")
	cmd.PersistentFlags().String("language", "", "UI language (fr, en)")
	cmd.Flags().StringVar(&framesDir, "frames", "frames", "directory watched for camera frame images")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newRegisterCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newMeetingsCmd())
	cmd.AddCommand(newQRCmd())
	cmd.AddCommand(newAttendanceCmd())
	cmd.AddCommand(newScanCmd())

	return cmd
}

// requireSession guards commands that need an authenticated session.
func requireSession() error {
	if store == nil || !store.Authenticated() {
		return fmt.Errorf("not logged in; run 'presence login' first")
	}
	return nil
}
