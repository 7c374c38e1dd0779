package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-midirouter/chord"
)

const jsonConfig = `{
  "routers": [
    {"name": "push", "in": "Push 2", "kind": "scale-chord", "scale": "dorian", "root": "D",
     "out": [{"port": "IAC", "channel": 2}]},
    {"name": "keys", "in": "Keystation", "out": [{"port": "IAC"}]}
  ],
  "logging": {"level": "debug"}
}`

const yamlConfig = `
routers:
  - name: push
    in: Push 2
    kind: scale-chord
    display: true
    out:
      - port: IAC
timing:
  portRetry: 250ms
`

const tomlConfig = `
palette = "plasma.gpl"

[[routers]]
name = "keys"
in = "Keystation"
kind = "plain-forward"

[[routers.out]]
port = "IAC"
channel = 16
`

func TestParseFormats(t *testing.T) {
	cfg, err := Parse([]byte(jsonConfig), ".json")
	require.NoError(t, err)
	require.Len(t, cfg.Routers, 2)

	push := cfg.FindRouter("push")
	require.NotNil(t, push)
	assert.Equal(t, KindScaleChord, push.Kind)
	assert.Equal(t, "D", push.Root)
	assert.Equal(t, "Push 2", push.Surface)
	assert.Equal(t, uint8(1), *push.Out[0].ZeroBasedChannel())
	assert.NotEmpty(t, push.ID)

	keys := cfg.FindRouter("keys")
	require.NotNil(t, keys)
	assert.Equal(t, KindPlain, keys.Kind)
	assert.Nil(t, keys.Out[0].ZeroBasedChannel())
	assert.Equal(t, "debug", cfg.Logging.Level)

	cfg, err = Parse([]byte(yamlConfig), ".yml")
	require.NoError(t, err)
	assert.True(t, cfg.Routers[0].Display)
	assert.Equal(t, "major", cfg.Routers[0].Scale)
	assert.Equal(t, 250*time.Millisecond, cfg.PortRetry())
	assert.Equal(t, 5*time.Second, cfg.DisplayRetry())
	assert.Equal(t, time.Second, cfg.WriteTimeout())

	cfg, err = Parse([]byte(tomlConfig), ".toml")
	require.NoError(t, err)
	assert.Equal(t, "plasma.gpl", cfg.Palette)
	assert.Equal(t, uint8(15), *cfg.Routers[0].Out[0].ZeroBasedChannel())
}

func TestValidate(t *testing.T) {
	ch := func(n int) *int { return &n }

	tests := []struct {
		name   string
		mutate func(*Config)
		target error
	}{
		{"no routers", func(c *Config) { c.Routers = nil }, ErrInvalid},
		{"missing input", func(c *Config) { c.Routers[0].In = "" }, ErrInvalid},
		{"bad kind", func(c *Config) { c.Routers[0].Kind = "arpeggiator" }, ErrUnknownKind},
		{"bad scale", func(c *Config) { c.Routers[0].Scale = "phrygian" }, chord.ErrUnknownScale},
		{"bad root", func(c *Config) { c.Routers[0].Root = "H" }, chord.ErrUnknownRoot},
		{"channel zero", func(c *Config) { c.Routers[0].Out[0].Channel = ch(0) }, ErrInvalid},
		{"channel 17", func(c *Config) { c.Routers[0].Out[0].Channel = ch(17) }, ErrInvalid},
		{"empty port", func(c *Config) { c.Routers[0].Out[0].Port = "" }, ErrInvalid},
		{"duplicate name", func(c *Config) { c.Routers = append(c.Routers, c.Routers[0]) }, ErrInvalid},
		{"bad duration", func(c *Config) { c.Timing.PortRetry = "soon" }, ErrInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.ApplyDefaults()
			require.NoError(t, cfg.Validate())
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.target)
		})
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse([]byte("{routers"), ".json")
	assert.Error(t, err)
	_, err = Parse([]byte("routers: [unclosed"), ".yaml")
	assert.Error(t, err)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err, "explicit path must exist")

	path := filepath.Join(dir, "nested", "config.json")
	cfg := DefaultConfig()
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Routers[0].ID, loaded.Routers[0].ID)
	assert.Equal(t, cfg.Routers[0].Out, loaded.Routers[0].Out)

	yml := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(yml, []byte(yamlConfig), 0644))
	loaded, err = Load(yml)
	require.NoError(t, err)
	assert.Equal(t, "push", loaded.Routers[0].Name)
}

func TestDefaultNameFromID(t *testing.T) {
	cfg := &Config{Routers: []RouterConfig{{In: "x"}}}
	cfg.ApplyDefaults()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Routers[0].Name, 8)
	assert.Equal(t, cfg.Routers[0].ID[:8], cfg.Routers[0].Name)
}
