package gpr

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultProcessingParamsValid(t *testing.T) {
	if err := DefaultProcessingParams().Validate(); err != nil {
		t.Fatalf("default params failed validation: %v", err)
	}
}

func TestNewProcessingParamsFillsDefaults(t *testing.T) {
	p, err := NewProcessingParams(ProcessingParams{
		VelocityMpns:   0.12,
		BandpassLowHz:  400e6,
		BandpassHighHz: 500e6,
	})
	if err != nil {
		t.Fatalf("NewProcessingParams() error: %v", err)
	}
	if p.AGCWindowFrac != DefaultAGCWindowFrac {
		t.Errorf("AGCWindowFrac = %v, want default %v", p.AGCWindowFrac, DefaultAGCWindowFrac)
	}
	if p.PaddingFactor != DefaultPaddingFactor {
		t.Errorf("PaddingFactor = %v, want default %v", p.PaddingFactor, DefaultPaddingFactor)
	}
	if p.VelocityMpns != 0.12 {
		t.Errorf("VelocityMpns = %v, want 0.12", p.VelocityMpns)
	}
}

func TestProcessingParamsValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ProcessingParams)
		wantErr bool
	}{
		{"defaults", func(p *ProcessingParams) {}, false},
		{"zero velocity", func(p *ProcessingParams) { p.VelocityMpns = 0 }, true},
		{"negative velocity", func(p *ProcessingParams) { p.VelocityMpns = -0.1 }, true},
		{"inverted band", func(p *ProcessingParams) { p.BandpassLowHz, p.BandpassHighHz = 500e6, 400e6 }, true},
		{"negative band edge", func(p *ProcessingParams) { p.BandpassLowHz = -1 }, true},
		{"agc window too large", func(p *ProcessingParams) { p.AGCWindowFrac = 1.5 }, true},
		{"padding not power of two", func(p *ProcessingParams) { p.PaddingFactor = 3 }, true},
		{"padding of one", func(p *ProcessingParams) { p.PaddingFactor = 1 }, false},
		{"padding of eight", func(p *ProcessingParams) { p.PaddingFactor = 8 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultProcessingParams()
			tt.mutate(&p)
			err := p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadProcessingParams(t *testing.T) {
	dir := t.TempDir()

	t.Run("partial config keeps defaults", func(t *testing.T) {
		path := filepath.Join(dir, "partial.json")
		if err := os.WriteFile(path, []byte(`{"velocity_mpns": 0.08, "apply_agc": false}`), 0o644); err != nil {
			t.Fatal(err)
		}
		p, err := LoadProcessingParams(path)
		if err != nil {
			t.Fatalf("LoadProcessingParams() error: %v", err)
		}
		if p.VelocityMpns != 0.08 {
			t.Errorf("VelocityMpns = %v, want 0.08", p.VelocityMpns)
		}
		if p.ApplyAGC {
			t.Error("ApplyAGC = true, want false")
		}
		if p.BandpassLowHz != DefaultBandpassLowHz || p.BandpassHighHz != DefaultBandpassHighHz {
			t.Errorf("band = [%g, %g], want defaults", p.BandpassLowHz, p.BandpassHighHz)
		}
	})

	t.Run("rejects non-json extension", func(t *testing.T) {
		if _, err := LoadProcessingParams(filepath.Join(dir, "params.yaml")); err == nil {
			t.Error("expected error for non-json extension")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadProcessingParams(filepath.Join(dir, "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		if err := os.WriteFile(path, []byte(`{"velocity_mpns":`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProcessingParams(path); err == nil {
			t.Error("expected error for malformed JSON")
		}
	})

	t.Run("invalid values rejected", func(t *testing.T) {
		path := filepath.Join(dir, "invalid.json")
		if err := os.WriteFile(path, []byte(`{"velocity_mpns": -1}`), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadProcessingParams(path); err == nil {
			t.Error("expected error for negative velocity")
		}
	})
}
