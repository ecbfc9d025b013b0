// Package scene holds read-only geometry reported by the host: the bounds of
// each navigable region ("room") of the loaded scene.
package scene

import (
	"encoding/json"
	"errors"
	"fmt"

	"roomcraft.ai/internal/protocol"
)

// ErrNotBuilt is returned when bounds are queried before the host has
// reported scene regions. That is a caller-sequencing bug, not a data
// problem: wait one step after requesting regions.
var ErrNotBuilt = errors.New("scene: bounds not built yet")

// RegionBounds is the axis-aligned rectangle of one navigable region.
// Immutable after construction.
type RegionBounds struct {
	ID     int
	Center protocol.Vec3
	XMin   float64
	XMax   float64
	ZMin   float64
	ZMax   float64
}

// IsInside reports whether (x, z) lies within the region. Boundary points
// count as inside.
func (r RegionBounds) IsInside(x, z float64) bool {
	return x >= r.XMin && x <= r.XMax && z >= r.ZMin && z <= r.ZMax
}

// Bounds is the ordered set of regions of one scene, built once per scene
// load from a response batch containing a scene-regions frame.
type Bounds struct {
	Regions []RegionBounds
}

// NewBounds scans a response batch for the scene-regions frame. Frames of
// other types are ignored. A batch with no such frame is an error: callers
// must have requested regions at least one step earlier.
func NewBounds(frames []json.RawMessage) (*Bounds, error) {
	for _, raw := range frames {
		if protocol.FrameType(raw) != protocol.FrameSceneRegions {
			continue
		}
		var f protocol.SceneRegionsFrame
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("scene: decode regions frame: %w", err)
		}
		b := &Bounds{}
		for _, reg := range f.Regions {
			if reg.XMin > reg.XMax || reg.ZMin > reg.ZMax {
				return nil, fmt.Errorf("scene: region %d has inverted bounds", reg.ID)
			}
			b.Regions = append(b.Regions, RegionBounds{
				ID:     reg.ID,
				Center: reg.Center,
				XMin:   reg.XMin,
				XMax:   reg.XMax,
				ZMin:   reg.ZMin,
				ZMax:   reg.ZMax,
			})
		}
		return b, nil
	}
	return nil, errors.New("scene: no scene-regions frame in response")
}

// Region returns the region at index i.
func (b *Bounds) Region(i int) (RegionBounds, error) {
	if b == nil {
		return RegionBounds{}, ErrNotBuilt
	}
	if i < 0 || i >= len(b.Regions) {
		return RegionBounds{}, fmt.Errorf("scene: region index %d out of range (%d regions)", i, len(b.Regions))
	}
	return b.Regions[i], nil
}

// XMin etc. aggregate over all regions, i.e. the extent of the whole scene.

func (b *Bounds) XMin() float64 { return b.fold(func(r RegionBounds) float64 { return r.XMin }, false) }
func (b *Bounds) XMax() float64 { return b.fold(func(r RegionBounds) float64 { return r.XMax }, true) }
func (b *Bounds) ZMin() float64 { return b.fold(func(r RegionBounds) float64 { return r.ZMin }, false) }
func (b *Bounds) ZMax() float64 { return b.fold(func(r RegionBounds) float64 { return r.ZMax }, true) }

func (b *Bounds) fold(get func(RegionBounds) float64, max bool) float64 {
	if b == nil || len(b.Regions) == 0 {
		return 0
	}
	v := get(b.Regions[0])
	for _, r := range b.Regions[1:] {
		rv := get(r)
		if (max && rv > v) || (!max && rv < v) {
			v = rv
		}
	}
	return v
}

// IsInside reports whether (x, z) is inside any region of the scene.
func (b *Bounds) IsInside(x, z float64) bool {
	if b == nil {
		return false
	}
	for _, r := range b.Regions {
		if r.IsInside(x, z) {
			return true
		}
	}
	return false
}
