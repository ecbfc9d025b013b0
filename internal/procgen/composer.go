package procgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"

	"roomcraft.ai/internal/catalog"
	"roomcraft.ai/internal/ids"
	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/scene"
)

var ErrNotInitialized = errors.New("procgen: scene bounds not received yet; step the controller at least once after adding the composer")

// Composer orchestrates arrangements: it places a root object, packs
// secondary objects on top of it or on its shelves, rotates the whole group,
// and chains root objects along walls. It is an add-on: placements are
// emitted as command batches via DrainCommands.
//
// The random number generator is owned by the composer and seeded once at
// construction; reseeding or sharing it mid-arrangement would make placement
// sequences non-reproducible.
type Composer struct {
	catalog *catalog.Librarian
	rules   *Rules
	rng     *rand.Rand
	ids     ids.Source
	logger  *log.Logger
	packer  Packer

	bounds   *scene.Bounds
	commands []protocol.Command
}

// NewComposer builds a composer over an explicit catalog handle. logger may
// be nil to drop warnings.
func NewComposer(lib *catalog.Librarian, rules *Rules, src ids.Source, seed int64, logger *log.Logger) *Composer {
	c := &Composer{
		catalog: lib,
		rules:   rules,
		rng:     rand.New(rand.NewSource(seed)),
		ids:     src,
		logger:  logger,
	}
	c.packer = Packer{
		Catalog: lib,
		Rules:   rules,
		RNG:     c.rng,
		IDs:     src,
		Warnf:   c.warnf,
	}
	return c
}

func (c *Composer) warnf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf("WARN "+format, args...)
	}
}

// InitCommands requests the scene regions arrangements are constrained by.
func (c *Composer) InitCommands() []protocol.Command {
	return []protocol.Command{{Type: protocol.CmdSendSceneRegions}}
}

// OnResponse builds the scene bounds from the first response batch; later
// batches are ignored.
func (c *Composer) OnResponse(frames []json.RawMessage) error {
	if c.bounds != nil {
		return nil
	}
	b, err := scene.NewBounds(frames)
	if err != nil {
		return err
	}
	c.bounds = b
	return nil
}

// DrainCommands returns and clears the queued placement commands.
func (c *Composer) DrainCommands() []protocol.Command {
	cmds := c.commands
	c.commands = nil
	return cmds
}

// Reset discards the scene bounds and queues a fresh regions request. Call
// when the scene is reloaded.
func (c *Composer) Reset() {
	c.bounds = nil
	c.commands = append(c.commands, protocol.Command{Type: protocol.CmdSendSceneRegions})
}

// VerticalArrangement places one root object of the category at position and
// packs the configured sub-categories on top of it and on each of its shelf
// levels, then rotates the whole group to yaw. The root model is chosen by
// shuffling the category's candidates and keeping the first whose full
// footprint lies inside the region.
//
// A nil record with a nil error means no candidate fit: a normal negative
// result, the slot stays empty and no commands are emitted.
func (c *Composer) VerticalArrangement(category string, position protocol.Vec3, yaw float64, region int) (*catalog.Record, error) {
	if c.bounds == nil {
		return nil, ErrNotInitialized
	}
	if !c.catalog.HasCategory(category) {
		return nil, fmt.Errorf("procgen: unknown root category %q", category)
	}
	rb, err := c.bounds.Region(region)
	if err != nil {
		return nil, err
	}
	rec, ok := c.modelThatFits(category, position, rb)
	if !ok {
		return nil, nil
	}

	rootID := c.ids.NextID()
	pos := position
	rot := protocol.Vec3{}
	batch := []protocol.Command{{
		Type:      protocol.CmdAddObject,
		ID:        rootID,
		Name:      rec.Name,
		Category:  rec.Category,
		Position:  &pos,
		Rotation:  &rot,
		Kinematic: c.rules.IsKinematic(rec.Category),
	}}

	if subs := c.rules.OnTopOf[category]; len(subs) > 0 {
		w, d := rec.Footprint()
		top := protocol.Vec3{X: position.X, Y: position.Y + rec.Bounds.Top.Y, Z: position.Z}
		cellSize, density := c.rules.ArrangementParameters(category)
		placements, _ := c.packer.Fill([2]float64{w * 0.8, d * 0.8}, top, subs, cellSize, density)
		for _, p := range placements {
			batch = append(batch, p.Command())
		}
	}
	if subs := c.rules.OnShelf[category]; len(subs) > 0 && rec.Shelves != nil {
		cellSize, density := c.rules.ArrangementParameters(category)
		for _, y := range rec.Shelves.Ys {
			level := protocol.Vec3{X: position.X, Y: position.Y + y, Z: position.Z}
			placements, _ := c.packer.Fill(rec.Shelves.Size, level, subs, cellSize, density)
			for _, p := range placements {
				batch = append(batch, p.Command())
			}
		}
	}

	batch = append(batch, rotationCommands(rootID, yaw, batch)...)
	c.commands = append(c.commands, batch...)
	return &rec, nil
}

// rotationCommands rotates a composed group as one unit: parent every
// non-root placement to the root, rotate the root, unparent. The host's
// transform hierarchy keeps the relative offsets intact, so no per-child
// rotated offset needs to be computed here.
func rotationCommands(rootID int, yaw float64, batch []protocol.Command) []protocol.Command {
	var cmds []protocol.Command
	for _, cmd := range batch {
		if cmd.Type == protocol.CmdAddObject && cmd.ID != rootID {
			cmds = append(cmds, protocol.Command{
				Type:     protocol.CmdParentObjectToObject,
				ID:       cmd.ID,
				ParentID: rootID,
			})
		}
	}
	cmds = append(cmds, protocol.Command{
		Type:        protocol.CmdRotateObjectBy,
		ID:          rootID,
		Angle:       yaw,
		Axis:        "yaw",
		IsWorld:     true,
		UseCentroid: false,
	})
	for _, cmd := range batch {
		if cmd.Type == protocol.CmdAddObject && cmd.ID != rootID {
			cmds = append(cmds, protocol.Command{
				Type: protocol.CmdUnparentObject,
				ID:   cmd.ID,
			})
		}
	}
	return cmds
}

func (c *Composer) modelThatFits(category string, position protocol.Vec3, rb scene.RegionBounds) (catalog.Record, bool) {
	names := append([]string(nil), c.catalog.Category(category)...)
	c.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })
	for _, name := range names {
		rec, ok := c.catalog.Record(name)
		if !ok || rec.DoNotUse {
			continue
		}
		if recordFitsInRegion(rec, position, rb) {
			return rec, true
		}
	}
	return catalog.Record{}, false
}

// recordFitsInRegion checks all five footprint extent points (left, right,
// front, back, center) against the region, assuming no rotation.
func recordFitsInRegion(rec catalog.Record, position protocol.Vec3, rb scene.RegionBounds) bool {
	for _, p := range []protocol.Vec3{
		rec.Bounds.Left, rec.Bounds.Right, rec.Bounds.Front, rec.Bounds.Back, rec.Bounds.Center,
	} {
		if !rb.IsInside(position.X+p.X, position.Z+p.Z) {
			return false
		}
	}
	return true
}

// LateralArrangement chains vertical arrangements along a wall of the
// region. Starting at an anchor inset from the wall corner, it tries the
// room type's not-yet-used categories in shuffled order; each success
// advances the anchor by the placed footprint, and the chain stops when no
// category fits at the current anchor. Running out of wall or candidates is
// the normal terminal state, not an error.
func (c *Composer) LateralArrangement(wall Wall, roomType string, region int) ([]Arrangement, error) {
	if c.bounds == nil {
		return nil, ErrNotInitialized
	}
	roomCategories, ok := c.rules.RoomTypes[roomType]
	if !ok {
		return nil, fmt.Errorf("procgen: unknown room type %q", roomType)
	}
	rb, err := c.bounds.Region(region)
	if err != nil {
		return nil, err
	}

	inset := c.rules.WallDepth + c.rules.WallMargin
	var anchor protocol.Vec3
	var dir [2]float64
	switch wall {
	case North:
		anchor = protocol.Vec3{X: rb.XMin + inset, Z: rb.ZMax - inset}
		dir = [2]float64{1, 0}
	case South:
		anchor = protocol.Vec3{X: rb.XMin + inset, Z: rb.ZMin + inset}
		dir = [2]float64{1, 0}
	case West:
		anchor = protocol.Vec3{X: rb.XMax - inset, Z: rb.ZMin + inset}
		dir = [2]float64{0, 1}
	case East:
		anchor = protocol.Vec3{X: rb.XMin + inset, Z: rb.ZMin + inset}
		dir = [2]float64{0, 1}
	default:
		return nil, fmt.Errorf("procgen: unknown wall %v", wall)
	}

	var chain []Arrangement
	used := map[string]bool{}
	for {
		var candidates []string
		for _, cat := range roomCategories {
			if !used[cat] {
				candidates = append(candidates, cat)
			}
		}
		c.rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })

		placed := false
		for _, cat := range candidates {
			arr := &WallArrangement{Wall: wall, Region: rb}
			yaw := arr.Rotation()
			if !c.rules.IsRepeatable(cat) {
				yaw -= 180
			}
			rec, err := c.VerticalArrangement(cat, anchor, yaw, region)
			if err != nil {
				return chain, err
			}
			if rec == nil {
				continue
			}
			if !c.rules.IsRepeatable(cat) {
				used[cat] = true
			}
			arr.Record = rec
			length, _ := arr.Footprint()
			if length <= 0 {
				// A zero-extent record would never advance the anchor.
				return chain, fmt.Errorf("procgen: model %q has a degenerate footprint", rec.Name)
			}
			anchor.X += length * dir[0]
			anchor.Z += length * dir[1]
			chain = append(chain, arr)
			placed = true
			break
		}
		if !placed {
			return chain, nil
		}
	}
}
