package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/vango-dev/cellclient/internal/errors"
	"github.com/vango-dev/cellclient/pkg/client"
	"github.com/vango-dev/cellclient/pkg/protocol"
	"github.com/vango-dev/cellclient/pkg/session"
	"github.com/vango-dev/cellclient/pkg/world"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "cellclient.json"

	// DefaultServer is the server used when none is configured.
	DefaultServer = "ws://127.0.0.1:443"

	// DefaultMetricsNamespace is the Prometheus namespace.
	DefaultMetricsNamespace = "cellclient"
)

// Config represents the complete cellclient.json configuration.
type Config struct {
	// Servers lists game server URLs. The first is the default.
	Servers []string `json:"servers"`

	// Identity is the primary session's identity.
	Identity IdentityConfig `json:"identity"`

	// SecondaryIdentity is the multibox session's identity. When absent
	// the secondary session uses Identity.
	SecondaryIdentity *IdentityConfig `json:"secondaryIdentity,omitempty"`

	// Reconnect contains the reconnect backoff.
	Reconnect ReconnectConfig `json:"reconnect"`

	// Keepalive contains the legacy-server ping loop settings.
	Keepalive KeepaliveConfig `json:"keepalive"`

	// Timing contains tick periods and render windows.
	Timing TimingConfig `json:"timing"`

	// Chat contains chat history and overlay timing.
	Chat ChatConfig `json:"chat"`

	// Actions contains the outbound action throttle.
	Actions ActionsConfig `json:"actions"`

	// Debug contains the inspection HTTP listener.
	Debug DebugConfig `json:"debug"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `json:"metrics"`

	// Recording contains frame recording settings.
	Recording RecordingConfig `json:"recording"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// IdentityConfig is a player identity.
type IdentityConfig struct {
	Name  string `json:"name"`
	Skin  string `json:"skin,omitempty"`
	Hat   string `json:"hat,omitempty"`
	Color string `json:"color,omitempty"`
}

// ReconnectConfig is the reconnect backoff (durations like "1s").
type ReconnectConfig struct {
	Initial string  `json:"initial,omitempty"`
	Max     string  `json:"max,omitempty"`
	Factor  float64 `json:"factor,omitempty"`
}

// KeepaliveConfig configures the legacy-server ping loop.
type KeepaliveConfig struct {
	// Interval is the ping period.
	Interval string `json:"interval,omitempty"`

	// Signatures are server name substrings that enable the loop.
	Signatures []string `json:"signatures,omitempty"`
}

// TimingConfig contains tick periods and render windows.
type TimingConfig struct {
	Render        string `json:"render,omitempty"`
	Mouse         string `json:"mouse,omitempty"`
	Grace         string `json:"grace,omitempty"`
	Interpolation string `json:"interpolation,omitempty"`
	RespawnDelay  string `json:"respawnDelay,omitempty"`
	CameraDelay   string `json:"cameraDelay,omitempty"`
}

// ChatConfig contains chat history and overlay timing.
type ChatConfig struct {
	Capacity     int    `json:"capacity,omitempty"`
	MinLifetime  string `json:"minLifetime,omitempty"`
	PerChar      string `json:"perChar,omitempty"`
	ExtendWindow string `json:"extendWindow,omitempty"`
}

// ActionsConfig is the outbound action throttle.
type ActionsConfig struct {
	PerSecond float64 `json:"perSecond,omitempty"`
	Burst     int     `json:"burst,omitempty"`
}

// DebugConfig configures the inspection HTTP listener.
type DebugConfig struct {
	// Addr is the listen address (e.g., "127.0.0.1:6060"). Empty disables
	// the listener.
	Addr string `json:"addr,omitempty"`
}

// MetricsConfig configures Prometheus collectors.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
}

// RecordingConfig configures frame recording and archiving.
type RecordingConfig struct {
	// Dir enables recording into this directory.
	Dir string `json:"dir,omitempty"`

	// Bucket enables uploading finished recordings to S3.
	Bucket   string `json:"bucket,omitempty"`
	Prefix   string `json:"prefix,omitempty"`
	Region   string `json:"region,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	c := &Config{
		Identity: IdentityConfig{Name: "cellclient"},
	}
	c.applyDefaults()
	return c
}

// Load reads configuration from the specified directory.
// It looks for cellclient.json in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").
				WithDetail("No " + ConfigFileName + " found at " + path)
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E102").
			WithDetail("Failed to parse " + path + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("E104").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E104").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if len(c.Servers) == 0 {
		c.Servers = []string{DefaultServer}
	}

	backoff := session.DefaultBackoffConfig()
	if c.Reconnect.Initial == "" {
		c.Reconnect.Initial = backoff.Initial.String()
	}
	if c.Reconnect.Max == "" {
		c.Reconnect.Max = backoff.Max.String()
	}
	if c.Reconnect.Factor == 0 {
		c.Reconnect.Factor = backoff.Factor
	}

	def := client.DefaultConfig()
	if c.Keepalive.Interval == "" {
		c.Keepalive.Interval = def.KeepaliveInterval.String()
	}
	if c.Keepalive.Signatures == nil {
		c.Keepalive.Signatures = append([]string(nil), def.KeepaliveSignatures...)
	}

	if c.Timing.Render == "" {
		c.Timing.Render = def.RenderInterval.String()
	}
	if c.Timing.Mouse == "" {
		c.Timing.Mouse = def.MouseInterval.String()
	}
	if c.Timing.Grace == "" {
		c.Timing.Grace = def.Session.Grace.String()
	}
	if c.Timing.Interpolation == "" {
		c.Timing.Interpolation = def.Session.Interpolation.String()
	}
	if c.Timing.RespawnDelay == "" {
		c.Timing.RespawnDelay = def.RespawnDelay.String()
	}
	if c.Timing.CameraDelay == "" {
		c.Timing.CameraDelay = def.Session.CameraDelay.String()
	}

	chat := world.DefaultChatConfig()
	if c.Chat.Capacity == 0 {
		c.Chat.Capacity = chat.Capacity
	}
	if c.Chat.MinLifetime == "" {
		c.Chat.MinLifetime = chat.MinLifetime.String()
	}
	if c.Chat.PerChar == "" {
		c.Chat.PerChar = chat.PerChar.String()
	}
	if c.Chat.ExtendWindow == "" {
		c.Chat.ExtendWindow = chat.ExtendWindow.String()
	}

	if c.Actions.PerSecond == 0 {
		c.Actions.PerSecond = float64(def.ActionRate)
	}
	if c.Actions.Burst == 0 {
		c.Actions.Burst = def.ActionBurst
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, s := range c.Servers {
		if err := ValidateServerURL(s); err != nil {
			return err
		}
	}
	if _, err := c.PrimaryIdentity(); err != nil {
		return err
	}
	if _, err := c.SecondaryIdentityValue(); err != nil {
		return err
	}
	if c.Reconnect.Factor < 1 {
		return invalid("reconnect.factor must be at least 1")
	}
	if c.Chat.Capacity < 1 {
		return invalid("chat.capacity must be at least 1")
	}
	if c.Actions.PerSecond <= 0 || c.Actions.Burst < 1 {
		return invalid("actions.perSecond must be positive and actions.burst at least 1")
	}
	if c.Recording.Bucket != "" && c.Recording.Dir == "" {
		return invalid("recording.bucket requires recording.dir")
	}
	_, err := c.durations()
	return err
}

func invalid(detail string) error {
	return errors.New("E103").WithDetail(detail)
}

// ValidateServerURL checks that s is a ws or wss URL with a host.
func ValidateServerURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return errors.New("E120").WithDetail(fmt.Sprintf("%q is not a ws:// or wss:// URL", s))
	}
	return nil
}

// Server returns the default server URL.
func (c *Config) Server() string {
	if len(c.Servers) == 0 {
		return DefaultServer
	}
	return c.Servers[0]
}

// PrimaryIdentity returns the validated primary identity.
func (c *Config) PrimaryIdentity() (protocol.Identity, error) {
	return c.Identity.toIdentity()
}

// SecondaryIdentityValue returns the validated multibox identity, or
// the zero identity when none is configured.
func (c *Config) SecondaryIdentityValue() (protocol.Identity, error) {
	if c.SecondaryIdentity == nil {
		return protocol.Identity{}, nil
	}
	return c.SecondaryIdentity.toIdentity()
}

func (ic IdentityConfig) toIdentity() (protocol.Identity, error) {
	id := protocol.Identity{Name: ic.Name, Skin: ic.Skin, Hat: ic.Hat}
	if ic.Color != "" {
		color, err := protocol.NormalizeColor(ic.Color)
		if err != nil {
			return protocol.Identity{}, errors.New("E105").Wrap(err)
		}
		id.Color = color
	}
	if _, err := protocol.FormatIdentity(id); err != nil {
		return protocol.Identity{}, errors.New("E105").Wrap(err)
	}
	return id, nil
}

type durations struct {
	initial, max                     time.Duration
	keepalive                        time.Duration
	render, mouse, grace, interp     time.Duration
	respawn, camera                  time.Duration
	chatMin, chatPerChar, chatExtend time.Duration
}

func (c *Config) durations() (durations, error) {
	var d durations
	fields := []struct {
		name string
		src  string
		dst  *time.Duration
		zero bool
	}{
		{"reconnect.initial", c.Reconnect.Initial, &d.initial, false},
		{"reconnect.max", c.Reconnect.Max, &d.max, false},
		{"keepalive.interval", c.Keepalive.Interval, &d.keepalive, false},
		{"timing.render", c.Timing.Render, &d.render, false},
		{"timing.mouse", c.Timing.Mouse, &d.mouse, false},
		{"timing.grace", c.Timing.Grace, &d.grace, true},
		{"timing.interpolation", c.Timing.Interpolation, &d.interp, true},
		{"timing.respawnDelay", c.Timing.RespawnDelay, &d.respawn, true},
		{"timing.cameraDelay", c.Timing.CameraDelay, &d.camera, true},
		{"chat.minLifetime", c.Chat.MinLifetime, &d.chatMin, true},
		{"chat.perChar", c.Chat.PerChar, &d.chatPerChar, true},
		{"chat.extendWindow", c.Chat.ExtendWindow, &d.chatExtend, true},
	}
	for _, f := range fields {
		v, err := time.ParseDuration(f.src)
		if err != nil {
			return d, errors.New("E103").
				WithDetail(fmt.Sprintf("%s: %q is not a duration", f.name, f.src)).
				WithSuggestion(`Use Go duration syntax such as "500ms" or "1.5s"`)
		}
		if v < 0 || (v == 0 && !f.zero) {
			return d, invalid(f.name + " must be positive")
		}
		*f.dst = v
	}
	if d.max < d.initial {
		return d, invalid("reconnect.max must not be below reconnect.initial")
	}
	return d, nil
}

// Client converts the file form into a client configuration. Loggers,
// listeners, metrics, dialers and recorders are left for the caller.
func (c *Config) Client() (*client.Config, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	d, _ := c.durations()
	secondary, _ := c.SecondaryIdentityValue()

	cfg := client.DefaultConfig()
	cfg.Session.Grace = d.grace
	cfg.Session.Interpolation = d.interp
	cfg.Session.CameraDelay = d.camera
	cfg.Session.Chat = world.ChatConfig{
		Capacity:     c.Chat.Capacity,
		MinLifetime:  d.chatMin,
		PerChar:      d.chatPerChar,
		ExtendWindow: d.chatExtend,
	}
	cfg.Session.Backoff = session.BackoffConfig{
		Initial: d.initial,
		Max:     d.max,
		Factor:  c.Reconnect.Factor,
	}
	cfg.RenderInterval = d.render
	cfg.MouseInterval = d.mouse
	cfg.RespawnDelay = d.respawn
	cfg.KeepaliveInterval = d.keepalive
	cfg.KeepaliveSignatures = append([]string(nil), c.Keepalive.Signatures...)
	cfg.ActionRate = rate.Limit(c.Actions.PerSecond)
	cfg.ActionBurst = c.Actions.Burst
	cfg.SecondaryIdentity = secondary
	return cfg, nil
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// LoadOrDefault loads path, or returns defaults if it does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if errors.CodeOf(err) == "E101" {
		return New(), nil
	}
	return cfg, err
}
