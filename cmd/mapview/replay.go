package main

import (
	"fmt"
	"io"
	"time"

	"github.com/OCAP2/maprotate/internal/logging"
	"github.com/OCAP2/maprotate/internal/mapview"
	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
)

// snapshotPlaces is the rounding applied to printed snapshots.
const snapshotPlaces = 6

func newReplayCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "replay <script.json>",
		Short: "Replay scripted input and print a snapshot after each step",
		Long: `Build a map from config plus the script's overrides, feed every scripted
input step into it and print one JSON snapshot per line: the initial state
first, then one per step.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := startSession(flags, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close()

			script, err := LoadScript(args[0])
			if err != nil {
				return err
			}
			return runReplay(script, s, cmd.OutOrStdout())
		},
	}
}

func runReplay(script *Script, s *session, out io.Writer) error {
	c := &clock{now: time.Unix(0, 0).UTC()}

	m, err := mapview.New(script.MapOptions(), mapview.Dependencies{
		Logger:           s.logger,
		DispatcherLogger: logging.NewDispatcherLogger(s.zerolog),
		Now:              c.Now,
	})
	if err != nil {
		return fmt.Errorf("failed to create map: %w", err)
	}
	s.slog.SetContext(m.LogAttrs)
	defer s.slog.SetContext(nil)

	if err := script.Populate(m); err != nil {
		return err
	}

	if err := writeSnapshot(out, m.Snapshot()); err != nil {
		return err
	}

	for i, st := range script.Steps {
		if err := st.Apply(m, c); err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		snap := m.Snapshot()
		snap.Step = st.Type
		if err := writeSnapshot(out, snap); err != nil {
			return err
		}
	}

	s.logger.Info("Replay finished", "steps", len(script.Steps))
	return nil
}

func writeSnapshot(out io.Writer, snap mapview.Snapshot) error {
	data, err := sonic.Marshal(snap.Rounded(snapshotPlaces))
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}
