// Package materials carries physical material presets. The records are pure
// data for callers composing host commands; no simulation happens here.
package materials

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Fluid is one fluid preset (water, honey, oil, ...), expressed in the host
// solver's parameter space.
type Fluid struct {
	Name           string  `json:"name"`
	Viscosity      float64 `json:"viscosity"`
	Adhesion       float64 `json:"adhesion"`
	Cohesion       float64 `json:"cohesion"`
	SurfaceTension float64 `json:"surface_tension"`
	Vorticity      float64 `json:"vorticity"`
	Buoyancy       float64 `json:"buoyancy"`
	Diffusion      float64 `json:"diffusion"`
	RestDensity    float64 `json:"rest_density"`
	Resolution     float64 `json:"resolution"`
	Smoothing      float64 `json:"smoothing"`
}

// Presets is a loaded fluid preset file.
type Presets struct {
	byName map[string]Fluid
	names  []string
	Digest string
}

// LoadPresets reads a JSON array of fluid presets.
func LoadPresets(path string) (*Presets, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var fluids []Fluid
	if err := json.Unmarshal(raw, &fluids); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p := &Presets{byName: map[string]Fluid{}}
	for _, f := range fluids {
		if f.Name == "" {
			return nil, fmt.Errorf("%s: preset with empty name", path)
		}
		if _, dup := p.byName[f.Name]; dup {
			return nil, fmt.Errorf("%s: duplicate preset %q", path, f.Name)
		}
		p.byName[f.Name] = f
	}
	for name := range p.byName {
		p.names = append(p.names, name)
	}
	sort.Strings(p.names)
	sum := sha256.Sum256(raw)
	p.Digest = hex.EncodeToString(sum[:])
	return p, nil
}

// Fluid looks up one preset by name.
func (p *Presets) Fluid(name string) (Fluid, bool) {
	f, ok := p.byName[name]
	return f, ok
}

// Names returns every preset name, sorted.
func (p *Presets) Names() []string {
	return append([]string(nil), p.names...)
}
