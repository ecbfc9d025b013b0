package materials

import (
	"os"
	"path/filepath"
	"testing"
)

const presetsJSON = `[
  {"name": "water", "viscosity": 0.001, "surface_tension": 1.0, "rest_density": 1000},
  {"name": "honey", "viscosity": 10.0, "cohesion": 0.055, "rest_density": 1400}
]`

func writePresets(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fluids.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write presets: %v", err)
	}
	return path
}

func TestLoadPresets(t *testing.T) {
	p, err := LoadPresets(writePresets(t, presetsJSON))
	if err != nil {
		t.Fatalf("LoadPresets: %v", err)
	}
	water, ok := p.Fluid("water")
	if !ok || water.RestDensity != 1000 || water.Viscosity != 0.001 {
		t.Fatalf("water preset: %+v (ok=%v)", water, ok)
	}
	if _, ok := p.Fluid("lava"); ok {
		t.Fatalf("unknown preset found")
	}
	names := p.Names()
	if len(names) != 2 || names[0] != "honey" || names[1] != "water" {
		t.Fatalf("names: %v", names)
	}
	if len(p.Digest) != 64 {
		t.Fatalf("digest: %q", p.Digest)
	}
}

func TestLoadPresets_Rejections(t *testing.T) {
	if _, err := LoadPresets(writePresets(t, `[{"name": ""}]`)); err == nil {
		t.Fatalf("empty name accepted")
	}
	if _, err := LoadPresets(writePresets(t, `[{"name": "w"}, {"name": "w"}]`)); err == nil {
		t.Fatalf("duplicate name accepted")
	}
	if _, err := LoadPresets(writePresets(t, `{`)); err == nil {
		t.Fatalf("bad json accepted")
	}
	if _, err := LoadPresets(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatalf("missing file accepted")
	}
}
