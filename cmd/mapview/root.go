package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/OCAP2/maprotate/internal/config"
	"github.com/OCAP2/maprotate/internal/logging"
	intOtel "github.com/OCAP2/maprotate/internal/otel"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type rootFlags struct {
	configDir string
	logLevel  string
	logsDir   string
}

// session holds the logging stack of one command run.
type session struct {
	slog      *logging.SlogManager
	logger    *slog.Logger
	zerolog   zerolog.Logger
	otel      *intOtel.Provider
	logFile   *os.File
	startTime time.Time
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   AppName,
		Short: "Headless rotating map view",
		Long: `Drive a rotating map view without a renderer.

Examples:
  mapview replay script.json                        # Replay scripted input, one snapshot per step
  mapview bounds --lat 51.5 --lng -0.09 --bearing 45  # Print the rotated geographic bounds`,
		Version:       fmt.Sprintf("%s (%s)", CurrentVersion, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configDir, "config", ".", "directory containing "+config.ConfigName)
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "override the configured log level")
	cmd.PersistentFlags().StringVar(&flags.logsDir, "logs-dir", "", "write logs to a file in this directory instead of stderr")

	cmd.AddCommand(newReplayCmd(flags), newBoundsCmd(flags))
	return cmd
}

// startSession loads configuration and sets up logging. Logs never go to
// stdout, which carries command output.
func startSession(flags *rootFlags, stderr io.Writer) (*session, error) {
	s := &session{
		slog:      logging.NewSlogManager(),
		startTime: time.Now(),
	}

	configErr := config.Load(flags.configDir)
	if flags.logLevel != "" {
		viper.Set("logLevel", flags.logLevel)
	}
	if flags.logsDir != "" {
		viper.Set("logsDir", flags.logsDir)
	}
	logCfg := config.GetLogConfig()

	var out io.Writer = stderr
	if flags.logsDir != "" {
		f, err := logging.OpenLogFile(logCfg.Dir, AppName, s.startTime)
		if err != nil {
			return nil, err
		}
		s.logFile = f
		out = f
	}

	otelCfg := config.GetOTelConfig()
	provider, err := intOtel.New(intOtel.Config{
		Enabled:      otelCfg.Enabled,
		ServiceName:  otelCfg.ServiceName,
		BatchTimeout: otelCfg.BatchTimeout,
		LogWriter:    out,
		Endpoint:     otelCfg.Endpoint,
		Insecure:     otelCfg.Insecure,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to set up OTel: %w", err)
	}
	s.otel = provider

	s.slog.Setup(out, logCfg.Level, provider.LoggerProvider())
	s.logger = s.slog.Logger()

	lvl, err := zerolog.ParseLevel(logCfg.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	s.zerolog = zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().Timestamp().Logger()

	if configErr != nil {
		s.logger.Warn("Failed to load config, using defaults!", "error", configErr)
	} else {
		s.logger.Info("Loaded config", "dir", flags.configDir)
	}
	return s, nil
}

func (s *session) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if s.otel != nil {
		if err := s.slog.Flush(ctx); err != nil && s.logger != nil {
			s.logger.Warn("Failed to flush logs", "error", err)
		}
		_ = s.otel.Shutdown(ctx)
	}
	if s.logFile != nil {
		_ = s.logFile.Close()
	}
}
