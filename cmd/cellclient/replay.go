package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/hako/durafmt"
	"github.com/spf13/cobra"

	"github.com/vango-dev/cellclient/internal/errors"
	"github.com/vango-dev/cellclient/pkg/recording"
)

func replayCmd(flags *globalFlags) *cobra.Command {
	var (
		asJSON bool
		upload bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file.rec>",
		Short: "Replay a recording offline",
		Long: `Feed a recording through the protocol decoder and world model
without connecting, then print what it contained and the final state of
each session.

Examples:
  cellclient replay recordings/cellclient-20260101-120000.rec
  cellclient replay session.rec --json
  cellclient replay session.rec --upload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd.Context(), flags, args[0], asJSON, upload)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVar(&upload, "upload", false, "Upload the recording to the configured bucket")

	return cmd
}

func runReplay(ctx context.Context, flags *globalFlags, path string, asJSON, upload bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger, err := newLogger(flags, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	ccfg, err := cfg.Client()
	if err != nil {
		return err
	}
	ccfg.WithLogger(logger)

	f, err := os.Open(path)
	if err != nil {
		return errors.New("E160").WithDetail(path).Wrap(err)
	}
	defer f.Close()

	r, err := recording.NewReader(f)
	if err != nil {
		return errors.New("E160").WithDetail(path).Wrap(err)
	}
	summary, err := recording.NewReplayer(ccfg).Replay(ctx, r)
	if err != nil {
		return errors.New("E160").WithDetail(path).Wrap(err)
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(summary); err != nil {
			return err
		}
	} else {
		printSummary(path, summary)
	}

	if !upload {
		return nil
	}
	if cfg.Recording.Bucket == "" {
		return errors.New("E162").WithDetail("recording.bucket is not set")
	}
	sink := recording.NewS3Sink(
		recording.NewS3Client(cfg.Recording.Region, cfg.Recording.Endpoint),
		cfg.Recording.Bucket, cfg.Recording.Prefix)
	uctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	key, err := sink.Upload(uctx, path)
	if err != nil {
		return errors.New("E162").Wrap(err)
	}
	success("Uploaded to s3://%s/%s", cfg.Recording.Bucket, key)
	return nil
}

func printSummary(path string, s *recording.Summary) {
	fmt.Println()
	success("Replayed %s", path)
	info("Frames:   %s (%s)", humanize.Comma(int64(s.Frames)), humanize.Bytes(uint64(s.Bytes)))
	if !s.Start.IsZero() {
		info("Recorded: %s, %s", s.Start.Local().Format(time.RFC1123), humanize.Time(s.Start))
		info("Length:   %s", durafmt.Parse(s.Duration().Round(time.Second)).String())
	}
	if s.DecodeErrors > 0 {
		warn("%d frames failed to decode", s.DecodeErrors)
	}

	if len(s.Opcodes) > 0 {
		fmt.Println()
		info("Opcodes:")
		for _, oc := range s.Opcodes {
			info("  %-6s %s", oc.Opcode, humanize.Comma(int64(oc.Frames)))
		}
	}

	for _, snap := range s.Sessions {
		fmt.Println()
		info("Session %s:", snap.Role)
		if snap.Border.ServerName != "" {
			info("  Server:      %s", snap.Border.ServerName)
		}
		info("  Cells:       %d visible, %d mine", len(snap.Cells), len(snap.Mine))
		lb := snap.Leaderboard
		info("  Leaderboard: %d entries", len(lb.Lines)+len(lb.Rows)+len(lb.Fractions))
		info("  Chat:        %d messages", len(snap.Chat))
		info("  Score:       %s", humanize.Comma(int64(snap.Stats.Score)))
	}
	fmt.Println()
}
