package procgen

import (
	"fmt"

	"roomcraft.ai/internal/catalog"
	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/scene"
)

// Wall is a cardinal wall of a region.
type Wall int

const (
	North Wall = iota
	East
	South
	West
)

func (w Wall) String() string {
	switch w {
	case North:
		return "north"
	case East:
		return "east"
	case South:
		return "south"
	case West:
		return "west"
	}
	return fmt.Sprintf("Wall(%d)", int(w))
}

// ParseWall converts a wall name; unknown names are a hard error.
func ParseWall(s string) (Wall, error) {
	switch s {
	case "north":
		return North, nil
	case "east":
		return East, nil
	case "south":
		return South, nil
	case "west":
		return West, nil
	}
	return 0, fmt.Errorf("procgen: unknown wall %q", s)
}

// Arrangement is what a composed placement kind must be able to answer:
// which category it is, how much floor it spans, and where it sits given a
// chain anchor. Concrete kinds compose these capabilities instead of
// inheriting a placement hierarchy.
type Arrangement interface {
	Category() string
	// Footprint returns the extent along the chain direction and the
	// perpendicular depth, in world units.
	Footprint() (length, depth float64)
	PlacementPosition(anchor protocol.Vec3) protocol.Vec3
}

// WallArrangement is a placed root object aligned to a wall of a region.
type WallArrangement struct {
	Wall   Wall
	Region scene.RegionBounds
	Record *catalog.Record
}

func (a *WallArrangement) Category() string { return a.Record.Category }

func (a *WallArrangement) Footprint() (length, depth float64) {
	w, d := a.Record.Footprint()
	switch a.Wall {
	case North, South:
		return w, d
	default:
		return d, w
	}
}

// PlacementPosition pins the wall-perpendicular coordinate of the anchor to
// the wall line, keeping a chain flush as it advances.
func (a *WallArrangement) PlacementPosition(anchor protocol.Vec3) protocol.Vec3 {
	_, depth := a.Footprint()
	p := protocol.Vec3{X: anchor.X, Y: 0, Z: anchor.Z}
	switch a.Wall {
	case North:
		p.Z = a.Region.ZMax - depth/2
	case South:
		p.Z = a.Region.ZMin + depth/2
	case West:
		p.X = a.Region.XMin + depth/2
	case East:
		p.X = a.Region.XMax - depth/2
	}
	return p
}

// Rotation is the yaw that faces the arrangement away from its wall.
func (a *WallArrangement) Rotation() float64 {
	switch a.Wall {
	case North:
		return 0
	case South:
		return 180
	case West:
		return 90
	default: // East
		return 270
	}
}

// Freestanding is a root object placed away from any wall; the anchor is
// used as-is.
type Freestanding struct {
	Record *catalog.Record
}

func (a *Freestanding) Category() string { return a.Record.Category }

func (a *Freestanding) Footprint() (length, depth float64) {
	return a.Record.Footprint()
}

func (a *Freestanding) PlacementPosition(anchor protocol.Vec3) protocol.Vec3 {
	return anchor
}
