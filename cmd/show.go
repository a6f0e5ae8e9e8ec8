package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/lightnode/internal/config"
	"github.com/smazurov/lightnode/internal/logging"
	"github.com/smazurov/lightnode/internal/pixels"
	"github.com/smazurov/lightnode/internal/show"
)

// CreateShowCmd creates the show command.
func CreateShowCmd() *cobra.Command {
	var rigFile string
	var driver string
	var cycle int
	var logJSON bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Play the star light show once",
		Long: `Plays one pass of the star light show on the rig file's strip and blanks it. ` +
			`Odd cycles use random colors, even cycles the fixed programme.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SilenceUsage = true

			loggingConfig := logging.Config{Level: "info", Format: "text"}
			if logJSON {
				loggingConfig.Format = "json"
			}
			logging.Initialize(loggingConfig)
			logger := logging.GetLogger("star")

			cfg, err := config.LoadRig(rigFile)
			if err != nil {
				return err
			}
			opts := cfg.Pixels
			if driver != "" {
				opts.Driver = driver
			}
			if cfg.Kind == config.KindStar {
				opts.Brightness = cfg.Star.PixelBrightness
			}

			strip, err := pixels.New(opts, logging.GetLogger("pixels"))
			if err != nil {
				return fmt.Errorf("open strip: %w", err)
			}
			defer strip.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s := show.New(strip, nil, show.WithLogger(logger))
			logger.Info("Playing light show", "cycle", cycle, "pixels", strip.Len(), "driver", opts.Driver)
			playErr := s.Play(ctx, cycle)
			if err := s.Blank(); err != nil {
				logger.Warn("Failed to blank strip", "error", err)
			}
			if playErr != nil && ctx.Err() == nil {
				return playErr
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&rigFile, "rig", "r", "rig.toml", "Rig settings file")
	cmd.Flags().StringVar(&driver, "driver", "", "Override the strip driver (ws281x, memory)")
	cmd.Flags().IntVar(&cycle, "cycle", 0, "Show cycle, odd numbers use random colors")
	cmd.Flags().BoolVar(&logJSON, "log-json", false, "Log as JSON")
	return cmd
}
