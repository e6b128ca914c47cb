package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/vango-dev/cellclient/internal/config"
	"github.com/vango-dev/cellclient/internal/debughttp"
	"github.com/vango-dev/cellclient/internal/errors"
	"github.com/vango-dev/cellclient/pkg/client"
	"github.com/vango-dev/cellclient/pkg/recording"
	"github.com/vango-dev/cellclient/pkg/world"
)

type connectOptions struct {
	name      string
	skin      string
	color     string
	play      bool
	multibox  bool
	recordDir string
	debugAddr string
	origin    string
	noInput   bool
}

func connectCmd(flags *globalFlags) *cobra.Command {
	var opts connectOptions

	cmd := &cobra.Command{
		Use:   "connect [url]",
		Short: "Connect to a game server",
		Long: `Connect to a game server and keep the session alive until interrupted.

Commands are read from stdin, one per line:
  play [primary|secondary]   spawn
  toggle                     switch to (or open) the multibox session
  server <url>               move to another server
  mouse <x> <y>              steer toward a world position
  follow <id> | unfollow     teleport-follow a cell
  lock <dx> <dy>             lock movement direction
  <action>                   split, eject, q, spectate, ...
  quit

Examples:
  cellclient connect ws://127.0.0.1:443 --name bob --play
  cellclient connect --multibox --record recordings --debug 127.0.0.1:6060`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := ""
			if len(args) == 1 {
				url = args[0]
			}
			return runConnect(flags, url, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.name, "name", "n", "", "Player name (default from config)")
	cmd.Flags().StringVar(&opts.skin, "skin", "", "Skin name")
	cmd.Flags().StringVar(&opts.color, "color", "", "Cell color as 3 or 6 hex digits")
	cmd.Flags().BoolVarP(&opts.play, "play", "p", false, "Spawn as soon as connected")
	cmd.Flags().BoolVarP(&opts.multibox, "multibox", "m", false, "Also open the secondary session")
	cmd.Flags().StringVar(&opts.recordDir, "record", "", "Record inbound frames into this directory")
	cmd.Flags().StringVar(&opts.debugAddr, "debug", "", "Serve the inspection API on this address")
	cmd.Flags().StringVar(&opts.origin, "origin", "", "Origin header for the WebSocket upgrade")
	cmd.Flags().BoolVar(&opts.noInput, "no-input", false, "Do not read commands from stdin")

	return cmd
}

func runConnect(flags *globalFlags, url string, opts connectOptions) error {
	logger, err := newLogger(flags, os.Stderr)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}
	applyConnectOverrides(cfg, url, opts)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ccfg, err := cfg.Client()
	if err != nil {
		return err
	}
	id, _ := cfg.PrimaryIdentity()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	dialer := &client.WebSocketDialer{}
	if opts.origin != "" {
		dialer.Header = map[string][]string{"Origin": {opts.origin}}
	}
	ccfg.WithLogger(logger).
		WithDialer(dialer).
		WithListener(&consoleListener{logger: logger}).
		WithMetrics(client.NewMetrics(
			client.WithNamespace(cfg.Metrics.Namespace),
			client.WithRegistry(registry),
		))

	var rec *recording.Recorder
	if cfg.Recording.Dir != "" {
		rec, err = recording.Create(cfg.Recording.Dir, time.Now())
		if err != nil {
			return errors.New("E161").Wrap(err)
		}
		ccfg.WithRecorder(rec)
		logger.Info("recording frames", "path", rec.Path())
	}

	c := client.New(ccfg, cfg.Server(), id)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Debug.Addr != "" {
		srv, err := debughttp.Start(cfg.Debug.Addr, debughttp.NewRouter(c, debughttp.Options{
			Gatherer:    registry,
			Logger:      logger,
			ValidateURL: config.ValidateServerURL,
		}), logger)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
		info("Inspection API on http://%s", srv.Addr())
	}

	printBanner()
	info("Connecting to %s as %q", cfg.Server(), id.Name)
	fmt.Println()

	if opts.play {
		err = c.Play(world.RolePrimary)
	} else {
		err = c.Connect(world.RolePrimary)
	}
	if err == nil && opts.multibox {
		err = c.ToggleActive()
	}
	if err != nil {
		return err
	}

	if !opts.noInput {
		go readCommands(ctx, os.Stdin, c, logger)
	}

	runErr := c.Run(ctx)
	if runErr == context.Canceled {
		runErr = nil
	}

	if rec != nil {
		if err := finishRecording(cfg, rec, logger); err != nil && runErr == nil {
			runErr = err
		}
	}
	fmt.Println("\n  Disconnected.")
	return runErr
}

func applyConnectOverrides(cfg *config.Config, url string, opts connectOptions) {
	if url != "" {
		cfg.Servers = append([]string{url}, cfg.Servers...)
	}
	if opts.name != "" {
		cfg.Identity.Name = opts.name
	}
	if opts.skin != "" {
		cfg.Identity.Skin = opts.skin
	}
	if opts.color != "" {
		cfg.Identity.Color = opts.color
	}
	if opts.recordDir != "" {
		cfg.Recording.Dir = opts.recordDir
	}
	if opts.debugAddr != "" {
		cfg.Debug.Addr = opts.debugAddr
	}
}

// finishRecording closes rec and uploads it when a bucket is configured.
func finishRecording(cfg *config.Config, rec *recording.Recorder, logger *slog.Logger) error {
	if err := rec.Close(); err != nil {
		return errors.New("E161").Wrap(err)
	}
	success("Recorded %s frames (%s) to %s",
		humanize.Comma(int64(rec.Frames())), humanize.Bytes(uint64(rec.Bytes())), rec.Path())

	if cfg.Recording.Bucket == "" {
		return nil
	}
	sink := recording.NewS3Sink(
		recording.NewS3Client(cfg.Recording.Region, cfg.Recording.Endpoint),
		cfg.Recording.Bucket, cfg.Recording.Prefix)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	key, err := sink.Upload(ctx, rec.Path())
	if err != nil {
		return errors.New("E162").Wrap(err)
	}
	logger.Info("recording uploaded", "bucket", cfg.Recording.Bucket, "key", key)
	success("Uploaded to s3://%s/%s", cfg.Recording.Bucket, key)
	return nil
}

// consoleListener prints user-facing signals to the terminal.
type consoleListener struct {
	logger *slog.Logger
}

func (l *consoleListener) Sound(role world.Role, s client.Sound) {
	l.logger.Debug("sound", "session", role.String(), "sound", s.String())
}

func (l *consoleListener) Overlay(role world.Role, visible bool) {
	if visible {
		warn("[%s] died", role)
	}
}

func (l *consoleListener) Connecting(role world.Role, connecting bool) {
	if connecting {
		info("[%s] connecting...", role)
		return
	}
	success("[%s] connected", role)
}

func (l *consoleListener) Chat(role world.Role, msg world.ChatMessage) {
	info("[%s] %s", role, msg.String())
}
