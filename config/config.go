package config

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/wippyai/enginecore/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RenderMode selects the graphics backend.
type RenderMode string

const (
	RenderVulkan RenderMode = "VULKAN"
	RenderOpenGL RenderMode = "OPENGL"
	RenderHybrid RenderMode = "HYBRID"
)

var renderModes = []string{string(RenderVulkan), string(RenderOpenGL), string(RenderHybrid)}

// Valid reports whether m is a known render mode.
func (m RenderMode) Valid() bool {
	switch m {
	case RenderVulkan, RenderOpenGL, RenderHybrid:
		return true
	}
	return false
}

// Config is the record handed to the engine at startup.
type Config struct {
	RenderMode       RenderMode `json:"renderMode" toml:"renderMode"`
	MaxOffheapMB     uint64     `json:"maxOffheapMB" toml:"maxOffheapMB"`
	MaxFPS           uint32     `json:"maxFps" toml:"maxFps"`
	MeshThreads      uint32     `json:"meshThreads" toml:"meshThreads"`
	RenderScale      float32    `json:"renderScale" toml:"renderScale"`
	MasterVolume     float32    `json:"masterVolume" toml:"masterVolume"`
	VSync            bool       `json:"vsync" toml:"vsync"`
	AsyncChunks      bool       `json:"asyncChunks" toml:"asyncChunks"`
	ValidationLayers bool       `json:"validationLayers" toml:"validationLayers"`
	ECSProfiling     bool       `json:"ecsProfiling" toml:"ecsProfiling"`
	StrictAllocator  bool       `json:"strictAllocator" toml:"strictAllocator"`
}

// Default returns the configuration used when a field is absent.
func Default() *Config {
	return &Config{
		RenderMode:   RenderHybrid,
		MaxOffheapMB: 512,
		VSync:        true,
		MaxFPS:       0,
		RenderScale:  1.0,
		AsyncChunks:  true,
		MeshThreads:  4,
		MasterVolume: 1.0,
	}
}

// Parse decodes JSON configuration on top of the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		Logger().Warn("empty configuration, using defaults")
		return cfg, nil
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.InvalidData(errors.PhaseConfig, "malformed configuration", err)
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ParseTOML decodes TOML configuration on top of the defaults.
func ParseTOML(data []byte) (*Config, error) {
	cfg := Default()
	if len(bytes.TrimSpace(data)) == 0 {
		Logger().Warn("empty configuration, using defaults")
		return cfg, nil
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.InvalidData(errors.PhaseConfig, "malformed configuration", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		Logger().Warn("unknown configuration keys ignored", zap.Stringers("keys", undecoded))
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads a configuration file. Files ending in .toml are decoded as
// TOML, anything else as JSON.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read configuration "+path, err)
	}

	Logger().Debug("loading configuration", zap.String("path", path))
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// Marshal encodes cfg as indented JSON.
func Marshal(cfg *Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}

// MarshalTOML encodes cfg as TOML.
func MarshalTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if !c.RenderMode.Valid() {
		return errors.InvalidEnum(errors.PhaseConfig, "renderMode", c.RenderMode, renderModes)
	}
	if !(c.MasterVolume >= 0 && c.MasterVolume <= 1) {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Field("masterVolume").
			Value(c.MasterVolume).
			Detail("%v is outside [0, 1]", c.MasterVolume).
			Build()
	}
	if !(c.RenderScale > 0) || math.IsInf(float64(c.RenderScale), 0) {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			Field("renderScale").
			Value(c.RenderScale).
			Detail("must be a positive finite number").
			Build()
	}
	if c.MeshThreads == 0 {
		return errors.InvalidInput(errors.PhaseConfig, "meshThreads", "at least one mesh thread is required")
	}
	return nil
}

func (c *Config) normalize() error {
	c.RenderMode = RenderMode(strings.ToUpper(strings.TrimSpace(string(c.RenderMode))))
	return c.Validate()
}

// OffheapLimit returns the off-heap ceiling in bytes. 0 means no ceiling.
func (c *Config) OffheapLimit() uint64 {
	if c.MaxOffheapMB > math.MaxUint64>>20 {
		return math.MaxUint64
	}
	return c.MaxOffheapMB << 20
}

// FrameBudget returns the per-frame time budget, or 0 when the frame rate
// is unlimited.
func (c *Config) FrameBudget() time.Duration {
	if c.MaxFPS == 0 {
		return 0
	}
	return time.Second / time.Duration(c.MaxFPS)
}
