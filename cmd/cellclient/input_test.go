package main

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"testing"

	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/world"
)

type recordingCommander struct {
	calls []string
}

func (r *recordingCommander) add(s string) error { r.calls = append(r.calls, s); return nil }

func (r *recordingCommander) Play(role world.Role) error { return r.add("play " + role.String()) }
func (r *recordingCommander) ToggleActive() error { return r.add("toggle") }
func (r *recordingCommander) SelectServer(url string) error {
	return r.add("server " + url)
}
func (r *recordingCommander) SetMouse(x, y int32) error {
	return r.add("mouse " + strconv.Itoa(int(x)) + " " + strconv.Itoa(int(y)))
}
func (r *recordingCommander) Action(a protocol.Action) error { return r.add("action " + a.String()) }
func (r *recordingCommander) TeleportFollow(target uint32, start bool) error {
	if !start {
		return r.add("unfollow")
	}
	return r.add("follow " + strconv.Itoa(int(target)))
}
func (r *recordingCommander) DirectionLock(dx, dy float64) error { return r.add("lock") }
func (r *recordingCommander) Close() { r.add("close") }

// TestParseCommand tests the stdin command grammar.
func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    string
		wantErr bool
	}{
		{"play", "play primary", false},
		{"play secondary", "play secondary", false},
		{"PLAY primary", "play primary", false},
		{"play tertiary", "", true},
		{"toggle", "toggle", false},
		{"server ws://10.0.0.1:443", "server ws://10.0.0.1:443", false},
		{"server http://x", "", true},
		{"server", "", true},
		{"mouse 100 -20", "mouse 100 -20", false},
		{"mouse 1", "", true},
		{"follow 42", "follow 42", false},
		{"follow x", "", true},
		{"unfollow", "unfollow", false},
		{"lock 1 0", "lock", false},
		{"lock a b", "", true},
		{"split", "action split", false},
		{"eject", "action eject", false},
		{"dance", "", true},
		{"quit", "close", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, err := parseCommand(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseCommand(%q) should fail", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseCommand(%q) error: %v", tt.line, err)
			}
			rc := &recordingCommander{}
			if err := cmd(rc); err != nil {
				t.Fatalf("command error: %v", err)
			}
			if len(rc.calls) != 1 || rc.calls[0] != tt.want {
				t.Errorf("calls = %v, want [%s]", rc.calls, tt.want)
			}
		})
	}
}

// TestParseCommandBlank tests that blank lines are ignored.
func TestParseCommandBlank(t *testing.T) {
	cmd, err := parseCommand("   ")
	if cmd != nil || err != nil {
		t.Errorf("parseCommand(blank) = %v, %v", cmd, err)
	}
}

// TestReadCommands tests applying a script of lines.
func TestReadCommands(t *testing.T) {
	rc := &recordingCommander{}
	script := "play\n\nbogus\nsplit\nquit\n"
	readCommands(context.Background(), strings.NewReader(script), rc, slog.New(slog.NewTextHandler(io.Discard, nil)))

	want := []string{"play primary", "action split", "close"}
	if strings.Join(rc.calls, ",") != strings.Join(want, ",") {
		t.Errorf("calls = %v, want %v", rc.calls, want)
	}
}
