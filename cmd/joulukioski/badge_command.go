package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/akio-byte/joulun-tonttu-me/pkg/badge"
)

func newBadgeCommand(ctx *commandContext) *cobra.Command {
	badgeCmd := &cobra.Command{
		Use:   "badge",
		Short: "Open Badge issuance",
	}
	badgeCmd.AddCommand(newBadgeSendCommand(ctx))
	return badgeCmd
}

// newBadgeSendCommand issues a badge by hand, e.g. when the kiosk send failed.
// Unlike the kiosk it does not require a configured template id.
func newBadgeSendCommand(ctx *commandContext) *cobra.Command {
	var email, name string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Issue the Joulun Osaaja badge to one participant",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, _, err := ctx.settings()
			if err != nil {
				return err
			}
			if !s.BadgeIssuingEnabled {
				return fmt.Errorf("badge issuing is disabled (set badge_issuing_enabled = true)")
			}
			log, err := stderrLogger(s)
			if err != nil {
				return err
			}
			defer log.Sync()

			res := badge.NewIssuer(badgeConfig(s), log).Issue(contextOrBackground(cmd.Context()), badge.Recipient{Email: email, Name: name})
			if !res.OK() {
				return fmt.Errorf("badge not issued (%s): %w", res.Failure, res.Err())
			}
			printBadgeSuccess(cmd.OutOrStdout(), email, res.TemplateID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Recipient email")
	cmd.Flags().StringVar(&name, "name", "", "Recipient name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
