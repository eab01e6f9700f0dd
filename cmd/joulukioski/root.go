package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/akio-byte/joulun-tonttu-me/internal/capture"
	"github.com/akio-byte/joulun-tonttu-me/internal/certificate"
	"github.com/akio-byte/joulun-tonttu-me/internal/logging"
	"github.com/akio-byte/joulun-tonttu-me/internal/tui"
	"github.com/akio-byte/joulun-tonttu-me/internal/wizard"
	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "joulukioski",
		Short:         "Eduro Pikkujoulukioski: Joulun Osaaja -todistukset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, _, _, err := ctx.settings()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKiosk(cmd, ctx)
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Settings file path")

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))
	rootCmd.AddCommand(newRenderCommand(ctx))
	rootCmd.AddCommand(newBadgeCommand(ctx))
	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Show version",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "joulukioski "+version)
			return nil
		},
	}
}

// runKiosk starts the full-screen wizard. Logs go to the configured file
// because the TUI owns the terminal.
func runKiosk(cmd *cobra.Command, ctx *commandContext) error {
	s, path, exists, err := ctx.settings()
	if err != nil {
		return err
	}
	if !exists {
		printGreeting(cmd.OutOrStdout(), path)
		return nil
	}

	log, err := logging.New(logging.Options{Mode: s.LogMode, File: s.LogFile, Level: s.LogLevel})
	if err != nil {
		return fmt.Errorf("start logging: %w", err)
	}
	defer log.Sync()

	renderer, err := certificate.NewRenderer(certificate.WithLogger(log))
	if err != nil {
		return err
	}

	var issuer tui.BadgeIssuer
	if s.BadgeIssuingReady() {
		issuer = badge.NewIssuer(badgeConfig(s), log)
	}

	session := capture.NewSession(capture.FileDevice{Path: s.PhotoPath}, log)
	defer session.Close() //nolint:errcheck // best-effort on exit

	log.Info("kiosk starting",
		"version", version,
		"settings", path,
		"ai_configured", s.AIConfigured(),
		"badge_ready", s.BadgeIssuingReady(),
	)

	app := tui.NewApp(wizard.New(log), tui.Deps{
		Generator: client.NewPersonalizer(s.PersonalizeURL, s.AIAPIKey, s.GenerateTimeout(), client.WithLogger(log)),
		Capture:   session,
		Renderer:  renderer,
		Issuer:    issuer,
		OutputDir: s.OutputDir,
		Log:       log,
	})

	p := tea.NewProgram(app, tea.WithAltScreen())
	final, err := p.Run()
	if a, ok := final.(tui.App); ok {
		a.Release()
	}
	if err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}
