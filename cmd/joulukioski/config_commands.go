package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/akio-byte/joulun-tonttu-me/internal/settings"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Settings utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigShowCommand(ctx))
	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var targetPath string
	var overwrite bool
	var fromEnv bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a settings file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			if target == "" && ctx.configFlag != nil {
				target = strings.TrimSpace(*ctx.configFlag)
			}
			if target == "" {
				defaultPath, err := settings.DefaultPath()
				if err != nil {
					return fmt.Errorf("determine default settings path: %w", err)
				}
				target = defaultPath
			} else {
				expanded, err := settings.ExpandPath(target)
				if err != nil {
					return fmt.Errorf("resolve settings path: %w", err)
				}
				target = expanded
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("settings file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check settings path: %w", err)
				}
			}

			if fromEnv {
				s, err := settings.FromEnv()
				if err != nil {
					return err
				}
				if err := s.Save(target); err != nil {
					return err
				}
			} else if err := settings.CreateSample(target); err != nil {
				return fmt.Errorf("create sample settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Asetukset kirjoitettu: %s\n", target)
			fmt.Fprintln(out, "Aseta personalize_url ja ai_api_key (tai JOULUKIOSKI_AI_API_KEY) ennen kioskin käynnistystä.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the settings file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing settings if present")
	cmd.Flags().BoolVar(&fromEnv, "from-env", false, "Write the defaults with environment overrides applied")
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings with secrets masked",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, path, exists, err := ctx.settings()
			if err != nil {
				return err
			}

			masked := *s
			masked.BadgeClientSecret = mask(masked.BadgeClientSecret)
			masked.AIAPIKey = mask(masked.AIAPIKey)
			data, err := toml.Marshal(masked)
			if err != nil {
				return fmt.Errorf("encode settings: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s", path)
			if !exists {
				fmt.Fprint(out, " (ei olemassa, oletukset käytössä)")
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "# tekoäly määritetty: %s, osaamismerkit valmiina: %s\n",
				yesNo(s.AIConfigured()), yesNo(s.BadgeIssuingReady()))
			_, err = out.Write(data)
			return err
		},
	}
}

// mask keeps the last four characters of a secret.
func mask(secret string) string {
	if secret == "" {
		return ""
	}
	runes := []rune(secret)
	if len(runes) <= 4 {
		return "****"
	}
	return "****" + string(runes[len(runes)-4:])
}
