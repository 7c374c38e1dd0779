package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"go-midirouter/chord"
)

// Router kinds
const (
	KindPlain      = "plain-forward"
	KindScaleChord = "scale-chord"
)

var (
	ErrUnknownKind = errors.New("unknown router kind")
	ErrInvalid     = errors.New("invalid configuration")
)

// OutputConfig is one destination of a router
type OutputConfig struct {
	Port    string `json:"port" yaml:"port" toml:"port"`
	Channel *int   `json:"channel,omitempty" yaml:"channel,omitempty" toml:"channel,omitempty"` // 1-16, forces every message onto this channel
}

// RouterConfig describes one input and where its messages go
type RouterConfig struct {
	ID      string         `json:"id,omitempty" yaml:"id,omitempty" toml:"id,omitempty"`
	Name    string         `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
	In      string         `json:"in" yaml:"in" toml:"in"` // input port name pattern
	Kind    string         `json:"kind,omitempty" yaml:"kind,omitempty" toml:"kind,omitempty"`
	Out     []OutputConfig `json:"out,omitempty" yaml:"out,omitempty" toml:"out,omitempty"`
	Root    string         `json:"root,omitempty" yaml:"root,omitempty" toml:"root,omitempty"`          // scale-chord
	Scale   string         `json:"scale,omitempty" yaml:"scale,omitempty" toml:"scale,omitempty"`       // scale-chord
	Surface string         `json:"surface,omitempty" yaml:"surface,omitempty" toml:"surface,omitempty"` // LED port pattern, defaults to In
	Display bool           `json:"display,omitempty" yaml:"display,omitempty" toml:"display,omitempty"`
}

// LoggingConfig controls the log output
type LoggingConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	File  string `json:"file,omitempty" yaml:"file,omitempty" toml:"file,omitempty"`
}

// TimingConfig holds retry and timeout durations (Go duration syntax)
type TimingConfig struct {
	PortRetry    string `json:"portRetry,omitempty" yaml:"portRetry,omitempty" toml:"portRetry,omitempty"`
	DisplayRetry string `json:"displayRetry,omitempty" yaml:"displayRetry,omitempty" toml:"displayRetry,omitempty"`
	WriteTimeout string `json:"writeTimeout,omitempty" yaml:"writeTimeout,omitempty" toml:"writeTimeout,omitempty"`
}

// Config is the main configuration structure
type Config struct {
	Routers []RouterConfig `json:"routers" yaml:"routers" toml:"routers"`
	Logging LoggingConfig  `json:"logging,omitempty" yaml:"logging,omitempty" toml:"logging,omitempty"`
	Timing  TimingConfig   `json:"timing,omitempty" yaml:"timing,omitempty" toml:"timing,omitempty"`
	Palette string         `json:"palette,omitempty" yaml:"palette,omitempty" toml:"palette,omitempty"` // GIMP .gpl file
}

// DefaultConfig returns a config with sensible defaults: a Push 2 playing
// C major into the first IAC bus
func DefaultConfig() *Config {
	return &Config{
		Routers: []RouterConfig{
			{
				Name:    "push",
				In:      "Push 2 Live Port",
				Kind:    KindScaleChord,
				Root:    "C",
				Scale:   "major",
				Display: true,
				Out:     []OutputConfig{{Port: "IAC Driver Bus 1"}},
			},
		},
		Logging: LoggingConfig{Level: "info"},
		Timing: TimingConfig{
			PortRetry:    "5s",
			DisplayRetry: "5s",
			WriteTimeout: "1s",
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-midirouter"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path. With an empty path the default location is
// used, and a missing default file yields DefaultConfig. The format follows
// the extension: .json, .yaml/.yml or .toml.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := ConfigPath()
		if err != nil {
			return finish(DefaultConfig())
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return finish(DefaultConfig())
		}
		return nil, fault.Wrap(err, fmsg.With("read config"), ftag.With(ftag.NotFound))
	}

	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With(fmt.Sprintf("load %s", path)))
	}
	return cfg, nil
}

// Parse decodes data in the format named by ext, applies defaults and validates
func Parse(data []byte, ext string) (*Config, error) {
	var cfg Config
	var err error
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		_, err = toml.NewDecoder(bytes.NewReader(data)).Decode(&cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return nil, fault.Wrap(err,
			fmsg.WithDesc("decode config", "The configuration file could not be parsed."),
			ftag.With(ftag.InvalidArgument))
	}
	return finish(&cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyDefaults fills ids, names and per-kind defaults
func (c *Config) ApplyDefaults() {
	for i := range c.Routers {
		r := &c.Routers[i]
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		if r.Name == "" {
			r.Name = r.ID[:8]
		}
		if r.Kind == "" {
			r.Kind = KindPlain
		}
		if r.Kind == KindScaleChord {
			if r.Root == "" {
				r.Root = "C"
			}
			if r.Scale == "" {
				r.Scale = "major"
			}
			if r.Surface == "" {
				r.Surface = r.In
			}
		}
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	def := DefaultConfig().Timing
	if c.Timing.PortRetry == "" {
		c.Timing.PortRetry = def.PortRetry
	}
	if c.Timing.DisplayRetry == "" {
		c.Timing.DisplayRetry = def.DisplayRetry
	}
	if c.Timing.WriteTimeout == "" {
		c.Timing.WriteTimeout = def.WriteTimeout
	}
}

// Validate checks every router and returns the first problem found
func (c *Config) Validate() error {
	if len(c.Routers) == 0 {
		return invalid("no routers configured")
	}
	names := make(map[string]bool)
	for i, r := range c.Routers {
		where := fmt.Sprintf("router %d (%s)", i, r.Name)
		if names[r.Name] {
			return invalid(where + ": duplicate name")
		}
		names[r.Name] = true

		if r.In == "" {
			return invalid(where + ": missing input port")
		}
		switch r.Kind {
		case KindPlain:
		case KindScaleChord:
			if _, err := chord.ParseRoot(r.Root); err != nil {
				return fault.Wrap(err, fmsg.With(where), ftag.With(ftag.InvalidArgument))
			}
			if _, err := chord.ParseScale(r.Scale); err != nil {
				return fault.Wrap(err, fmsg.With(where), ftag.With(ftag.InvalidArgument))
			}
		default:
			return fault.Wrap(fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind), fmsg.With(where), ftag.With(ftag.InvalidArgument))
		}
		for _, o := range r.Out {
			if o.Port == "" {
				return invalid(where + ": output without port")
			}
			if o.Channel != nil && (*o.Channel < 1 || *o.Channel > 16) {
				return invalid(fmt.Sprintf("%s: output %q channel %d outside 1-16", where, o.Port, *o.Channel))
			}
		}
	}
	for _, d := range []string{c.Timing.PortRetry, c.Timing.DisplayRetry, c.Timing.WriteTimeout} {
		if v, err := time.ParseDuration(d); err != nil || v <= 0 {
			return invalid(fmt.Sprintf("timing: bad duration %q", d))
		}
	}
	return nil
}

func invalid(msg string) error {
	return fault.Wrap(ErrInvalid, fmsg.With(msg), ftag.With(ftag.InvalidArgument))
}

// PortRetry is how often missing MIDI ports are searched for
func (c *Config) PortRetry() time.Duration { return mustDuration(c.Timing.PortRetry) }

// DisplayRetry is how often a missing display is searched for
func (c *Config) DisplayRetry() time.Duration { return mustDuration(c.Timing.DisplayRetry) }

// WriteTimeout bounds each display transfer
func (c *Config) WriteTimeout() time.Duration { return mustDuration(c.Timing.WriteTimeout) }

// mustDuration is only used on validated configs
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

// ZeroBasedChannel converts the configured 1-16 channel to 0-15
func (o OutputConfig) ZeroBasedChannel() *uint8 {
	if o.Channel == nil {
		return nil
	}
	ch := uint8(*o.Channel - 1)
	return &ch
}

// Save writes the config to path as JSON, creating directories as needed.
// An empty path writes to the default location.
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// FindRouter finds a router config by name
func (c *Config) FindRouter(name string) *RouterConfig {
	for i := range c.Routers {
		if c.Routers[i].Name == name {
			return &c.Routers[i]
		}
	}
	return nil
}
