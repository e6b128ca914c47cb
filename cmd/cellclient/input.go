package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/vango-dev/cellclient/internal/config"
	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

// commander is the part of *client.Client driven from stdin.
type commander interface {
	Play(role world.Role) error
	ToggleActive() error
	SelectServer(url string) error
	SetMouse(x, y int32) error
	Action(a protocol.Action) error
	TeleportFollow(target uint32, start bool) error
	DirectionLock(dx, dy float64) error
	Close()
}

// command is one parsed stdin line.
type command func(commander) error

// readCommands applies stdin lines to c until EOF, quit or ctx is done.
func readCommands(ctx context.Context, r io.Reader, c commander, logger *slog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		cmd, err := parseCommand(scanner.Text())
		if err != nil {
			warn("%v", err)
			continue
		}
		if cmd == nil {
			continue
		}
		if err := cmd(c); err != nil {
			logger.Warn("command failed", "line", scanner.Text(), "error", err)
		}
	}
}

// parseCommand parses one line. Blank lines yield a nil command.
func parseCommand(line string) (command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "quit", "exit":
		return func(c commander) error { c.Close(); return nil }, nil

	case "play":
		role := world.RolePrimary
		if len(args) > 0 {
			r, ok := world.ParseRole(args[0])
			if !ok {
				return nil, fmt.Errorf("unknown session %q", args[0])
			}
			role = r
		}
		return func(c commander) error { return c.Play(role) }, nil

	case "toggle":
		return func(c commander) error { return c.ToggleActive() }, nil

	case "server":
		if len(args) != 1 {
			return nil, fmt.Errorf("usage: server <url>")
		}
		if err := config.ValidateServerURL(args[0]); err != nil {
			return nil, err
		}
		url := args[0]
		return func(c commander) error { return c.SelectServer(url) }, nil

	case "mouse":
		x, y, err := twoInts(args)
		if err != nil {
			return nil, fmt.Errorf("usage: mouse <x> <y>")
		}
		return func(c commander) error { return c.SetMouse(x, y) }, nil

	case "follow", "unfollow":
		start := name == "follow"
		var id uint64
		if start {
			if len(args) != 1 {
				return nil, fmt.Errorf("usage: follow <cell id>")
			}
			var err error
			if id, err = strconv.ParseUint(args[0], 10, 32); err != nil {
				return nil, fmt.Errorf("bad cell id %q", args[0])
			}
		}
		return func(c commander) error { return c.TeleportFollow(uint32(id), start) }, nil

	case "lock":
		if len(args) != 2 {
			return nil, fmt.Errorf("usage: lock <dx> <dy>")
		}
		dx, errX := strconv.ParseFloat(args[0], 64)
		dy, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return nil, fmt.Errorf("usage: lock <dx> <dy>")
		}
		return func(c commander) error { return c.DirectionLock(dx, dy) }, nil
	}

	if a, ok := protocol.ParseAction(name); ok {
		return func(c commander) error { return c.Action(a) }, nil
	}
	return nil, fmt.Errorf("unknown command %q", name)
}

func twoInts(args []string) (int32, int32, error) {
	if len(args) != 2 {
		return 0, 0, fmt.Errorf("want two values")
	}
	x, err := strconv.ParseInt(args[0], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	y, err := strconv.ParseInt(args[1], 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return int32(x), int32(y), nil
}
