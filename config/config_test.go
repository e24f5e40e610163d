package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/enginecore/errors"
)

func TestParse_EmptyUsesDefaults(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := Logger()
	SetLogger(zap.New(core))
	defer SetLogger(prev)

	for _, in := range []string{"", "   \n\t"} {
		cfg, err := Parse([]byte(in))
		if err != nil {
			t.Fatalf("Parse(%q): %v", in, err)
		}
		if *cfg != *Default() {
			t.Errorf("Parse(%q) = %+v, want defaults", in, cfg)
		}
	}
	if logs.FilterMessage("empty configuration, using defaults").Len() != 2 {
		t.Errorf("expected a warning per empty input, got %d", logs.Len())
	}
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if cfg.RenderMode != RenderHybrid || cfg.MaxOffheapMB != 512 || !cfg.VSync || cfg.MaxFPS != 0 ||
		cfg.RenderScale != 1.0 || !cfg.AsyncChunks || cfg.MeshThreads != 4 || cfg.ValidationLayers ||
		cfg.ECSProfiling || cfg.MasterVolume != 1.0 || cfg.StrictAllocator {
		t.Errorf("Default() = %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestParse_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{"renderMode":"vulkan","maxFps":144,"masterVolume":0.25}`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.RenderMode != RenderVulkan {
		t.Errorf("RenderMode = %q, want VULKAN", cfg.RenderMode)
	}
	if cfg.MaxFPS != 144 || cfg.MasterVolume != 0.25 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.MeshThreads != 4 || cfg.MaxOffheapMB != 512 || !cfg.VSync {
		t.Errorf("absent fields lost their defaults: %+v", cfg)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  errors.Kind
		text  string
	}{
		{"malformed", `{"vsync": tru`, errors.KindInvalidData, "malformed configuration"},
		{"wrong type", `{"meshThreads": "four"}`, errors.KindInvalidData, "meshThreads"},
		{"bad render mode", `{"renderMode": "METAL"}`, errors.KindInvalidEnum, "renderMode"},
		{"volume too loud", `{"masterVolume": 1.5}`, errors.KindInvalidInput, "masterVolume"},
		{"negative volume", `{"masterVolume": -0.1}`, errors.KindInvalidInput, "masterVolume"},
		{"zero scale", `{"renderScale": 0}`, errors.KindInvalidInput, "renderScale"},
		{"no mesh threads", `{"meshThreads": 0}`, errors.KindInvalidInput, "meshThreads"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(tt.input))
			if err == nil {
				t.Fatalf("Parse(%s) = %+v, want error", tt.input, cfg)
			}
			if cfg != nil {
				t.Error("error result must not carry a config")
			}
			var e *errors.Error
			if !errors.As(err, &e) {
				t.Fatalf("err %T is not *errors.Error", err)
			}
			if e.Phase != errors.PhaseConfig || e.Kind != tt.kind {
				t.Errorf("got %s/%s, want config/%s", e.Phase, e.Kind, tt.kind)
			}
			if !strings.Contains(strings.ToLower(err.Error()), strings.ToLower(tt.text)) {
				t.Errorf("Error() = %q, want it to mention %q", err.Error(), tt.text)
			}
		})
	}
}

func TestMarshal_RoundTrip(t *testing.T) {
	in := &Config{
		RenderMode:       RenderOpenGL,
		MaxOffheapMB:     2048,
		VSync:            false,
		MaxFPS:           60,
		RenderScale:      0.75,
		AsyncChunks:      false,
		MeshThreads:      12,
		ValidationLayers: true,
		ECSProfiling:     true,
		MasterVolume:     0.5,
		StrictAllocator:  true,
	}

	data, err := Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	out, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse(Marshal(cfg)): %v", err)
	}
	if *out != *in {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", out, in)
	}

	tdata, err := MarshalTOML(in)
	if err != nil {
		t.Fatalf("MarshalTOML: %v", err)
	}
	tout, err := ParseTOML(tdata)
	if err != nil {
		t.Fatalf("ParseTOML(MarshalTOML(cfg)): %v", err)
	}
	if *tout != *in {
		t.Errorf("TOML round trip mismatch:\n got %+v\nwant %+v", tout, in)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "engine.json")
	if err := os.WriteFile(jsonPath, []byte(`{"meshThreads": 2}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(jsonPath)
	if err != nil {
		t.Fatalf("Load json: %v", err)
	}
	if cfg.MeshThreads != 2 {
		t.Errorf("MeshThreads = %d, want 2", cfg.MeshThreads)
	}

	tomlPath := filepath.Join(dir, "engine.toml")
	if err := os.WriteFile(tomlPath, []byte("renderMode = \"VULKAN\"\nmaxOffheapMB = 64\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(tomlPath)
	if err != nil {
		t.Fatalf("Load toml: %v", err)
	}
	if cfg.RenderMode != RenderVulkan || cfg.MaxOffheapMB != 64 {
		t.Errorf("cfg = %+v", cfg)
	}

	_, err = Load(filepath.Join(dir, "missing.json"))
	if !errors.Is(err, &errors.Error{Phase: errors.PhaseLoad, Kind: errors.KindInvalidData}) {
		t.Errorf("Load(missing) err = %v", err)
	}
}

func TestDerivedValues(t *testing.T) {
	cfg := Default()
	if cfg.OffheapLimit() != 512<<20 {
		t.Errorf("OffheapLimit() = %d", cfg.OffheapLimit())
	}
	if cfg.FrameBudget() != 0 {
		t.Errorf("unlimited FrameBudget() = %v", cfg.FrameBudget())
	}
	cfg.MaxFPS = 50
	if cfg.FrameBudget() != 20*time.Millisecond {
		t.Errorf("FrameBudget() = %v, want 20ms", cfg.FrameBudget())
	}
	cfg.MaxOffheapMB = 1 << 63
	if cfg.OffheapLimit() != ^uint64(0) {
		t.Errorf("saturated OffheapLimit() = %d", cfg.OffheapLimit())
	}
}
