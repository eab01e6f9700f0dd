package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akio-byte/joulun-tonttu-me/internal/capture"
	"github.com/akio-byte/joulun-tonttu-me/internal/certificate"
	"github.com/akio-byte/joulun-tonttu-me/internal/wizard"
	"github.com/akio-byte/joulun-tonttu-me/pkg/client"
	"github.com/akio-byte/joulun-tonttu-me/pkg/domain"
)

// newRenderCommand runs the wizard without the TUI: an operator print test.
// Without --live the generator is skipped and the fallback result is used.
func newRenderCommand(ctx *commandContext) *cobra.Command {
	var name, email, wish, photoPath, outDir string
	var live bool

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a certificate from the command line",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, _, _, err := ctx.settings()
			if err != nil {
				return err
			}
			log, err := stderrLogger(s)
			if err != nil {
				return err
			}
			defer log.Sync()

			if strings.TrimSpace(photoPath) == "" {
				photoPath = s.PhotoPath
			}
			if strings.TrimSpace(outDir) == "" {
				outDir = s.OutputDir
			}

			var photo domain.Image
			err = capture.With(cmd.Context(), capture.FileDevice{Path: photoPath}, func(st capture.Stream) error {
				var serr error
				photo, serr = st.Snapshot(cmd.Context())
				return serr
			})
			if err != nil {
				return fmt.Errorf("read photo %s: %w", photoPath, err)
			}

			m := wizard.New(log)
			if err := m.SubmitIdentity(name, email); err != nil {
				return err
			}
			if err := m.SubmitWish(wish); err != nil {
				return err
			}

			var gen wizard.Generator
			if live {
				gen = client.NewPersonalizer(s.PersonalizeURL, s.AIAPIKey, s.GenerateTimeout(), client.WithLogger(log))
			}
			if err := m.Generate(contextOrBackground(cmd.Context()), gen, photo); err != nil {
				return err
			}

			r, err := certificate.NewRenderer(certificate.WithLogger(log))
			if err != nil {
				return err
			}
			data, err := certificate.DataFromRecord(m.Record(), time.Now())
			if err != nil {
				return err
			}
			path, err := r.Save(outDir, data)
			if err != nil {
				return err
			}
			printRenderSuccess(cmd.OutOrStdout(), path, data.Result.IsFallback)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Participant name")
	cmd.Flags().StringVar(&email, "email", "", "Participant email")
	cmd.Flags().StringVar(&wish, "wish", "", "Christmas wish")
	cmd.Flags().StringVar(&photoPath, "photo", "", "Photo file (defaults to photo_path)")
	cmd.Flags().StringVar(&outDir, "out", "", "Output directory (defaults to output_dir)")
	cmd.Flags().BoolVar(&live, "live", false, "Call the personalization service")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func contextOrBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}
