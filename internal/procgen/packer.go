// Package procgen procedurally arranges catalog objects: a rectangular
// packing engine that fills bounded surfaces without overlap, and a composer
// that stacks arrangements vertically and chains them along walls.
package procgen

import (
	"math/rand"
	"sort"

	"roomcraft.ai/internal/catalog"
	"roomcraft.ai/internal/ids"
	"roomcraft.ai/internal/protocol"
)

// Placement is one packed item: the model chosen for a sub-grid cell, its
// jittered world position, and the occupancy disc it reserved.
type Placement struct {
	ID        int
	Name      string
	Category  string
	Position  protocol.Vec3
	Yaw       float64
	Kinematic bool

	// Reserved disc in sub-grid space.
	CellX       int
	CellZ       int
	RadiusCells int
}

// Command returns the add-object command for this placement.
func (p Placement) Command() protocol.Command {
	pos := p.Position
	rot := protocol.Vec3{Y: p.Yaw}
	return protocol.Command{
		Type:      protocol.CmdAddObject,
		ID:        p.ID,
		Name:      p.Name,
		Category:  p.Category,
		Position:  &pos,
		Rotation:  &rot,
		Kinematic: p.Kinematic,
	}
}

// Packer fills rectangles with non-overlapping items from the catalog.
type Packer struct {
	Catalog *catalog.Librarian
	Rules   *Rules
	RNG     *rand.Rand
	IDs     ids.Source
	// Warnf reports degraded-but-continuing conditions (e.g. a requested
	// category missing from the catalog). May be nil.
	Warnf func(format string, args ...any)
}

func (p *Packer) warnf(format string, args ...any) {
	if p.Warnf != nil {
		p.Warnf(format, args...)
	}
}

// latticeCount is the number of lattice points cellSize, 2*cellSize, ...
// strictly below span-cellSize.
func latticeCount(cellSize, span float64) int {
	n := 0
	for x := cellSize; x < span-cellSize; x += cellSize {
		n++
	}
	return n
}

// Fill packs items of the given categories into a size[0] x size[1]
// rectangle centered at center. cellSize sets the placement granularity;
// density is the probability of skipping an eligible cell (higher density
// parameter = sparser result; see ArrangementParams).
//
// Items whose larger footprint span cannot fit the rectangle's semi-minor
// axis are excluded up front. Requested categories absent from the catalog
// are reported through Warnf and skipped. Returns the placements and the
// categories actually used, deduplicated in first-use order.
func (p *Packer) Fill(size [2]float64, center protocol.Vec3, categories []string, cellSize, density float64) ([]Placement, []string) {
	if size[0] > size[1] {
		size[0], size[1] = size[1], size[0]
	}
	nx := latticeCount(cellSize, size[0])
	nz := latticeCount(cellSize, size[1])
	if nx <= 0 || nz <= 0 {
		return nil, nil
	}
	occupied := make([][]bool, nx)
	for i := range occupied {
		occupied[i] = make([]bool, nz)
	}

	var missing []string
	for _, c := range categories {
		if !p.Catalog.HasCategory(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		p.warnf("invalid model categories: %v", missing)
	}

	semiMinor := size[0] - 2*cellSize

	// Candidate models small enough to ever fit, with their reserved-disc
	// radii in cells. modelNames keeps a deterministic iteration order so a
	// fixed seed reproduces the same arrangement.
	modelSpan := map[string]float64{}
	modelCat := map[string]string{}
	var modelNames []string
	radiusSet := map[int]bool{}
	for _, cat := range categories {
		for _, name := range p.Catalog.Category(cat) {
			rec, ok := p.Catalog.Record(name)
			if !ok || rec.DoNotUse {
				continue
			}
			w, d := rec.Footprint()
			span := w
			if d > span {
				span = d
			}
			if span >= semiMinor {
				continue
			}
			if _, seen := modelSpan[name]; !seen {
				modelNames = append(modelNames, name)
			}
			modelSpan[name] = span
			modelCat[name] = cat
			radiusSet[int(span/cellSize)+1] = true
		}
	}
	if len(modelNames) == 0 {
		return nil, nil
	}
	radii := make([]int, 0, len(radiusSet))
	for r := range radiusSet {
		radii = append(radii, r)
	}
	sort.Ints(radii)

	var placements []Placement
	var used []string
	usedSet := map[string]bool{}
	for ix := 0; ix < nx; ix++ {
		for iz := 0; iz < nz; iz++ {
			// The outer ring stays empty.
			if ix == 0 || ix == nx-1 || iz == 0 || iz == nz-1 {
				continue
			}
			if occupied[ix][iz] {
				continue
			}
			if p.RNG.Float64() < density {
				continue
			}
			// Largest disc that stays in bounds and clear of occupied
			// cells: scan radii ascending and keep the last that fits.
			fit := -1
			for _, r := range radii {
				if !discFits(occupied, ix, iz, r) {
					break
				}
				fit = r
			}
			if fit < 0 {
				continue
			}
			var candidates []string
			for _, name := range modelNames {
				if int(modelSpan[name]/cellSize) <= fit {
					candidates = append(candidates, name)
				}
			}
			if len(candidates) == 0 {
				continue
			}
			name := candidates[p.RNG.Intn(len(candidates))]
			cat := modelCat[name]

			jx := p.RNG.Float64()*cellSize*0.05 - cellSize*0.025
			jz := p.RNG.Float64()*cellSize*0.05 - cellSize*0.025
			x := float64(ix)*cellSize + jx + center.X - size[0]/2 + cellSize
			z := float64(iz)*cellSize + jz + center.Z - size[1]/2 + cellSize

			kinematic := p.Rules.IsKinematic(cat)
			yaw := 0.0
			if !kinematic {
				yaw = p.RNG.Float64() * 360
			}
			placements = append(placements, Placement{
				ID:          p.IDs.NextID(),
				Name:        name,
				Category:    cat,
				Position:    protocol.Vec3{X: x, Y: center.Y, Z: z},
				Yaw:         yaw,
				Kinematic:   kinematic,
				CellX:       ix,
				CellZ:       iz,
				RadiusCells: fit,
			})
			if !usedSet[cat] {
				usedSet[cat] = true
				used = append(used, cat)
			}
			markDisc(occupied, ix, iz, fit)
		}
	}
	return placements, used
}

func discFits(occupied [][]bool, cx, cz, r int) bool {
	nx, nz := len(occupied), len(occupied[0])
	if cx-r < 0 || cx+r >= nx || cz-r < 0 || cz+r >= nz {
		return false
	}
	for a := cx - r; a <= cx+r; a++ {
		for b := cz - r; b <= cz+r; b++ {
			if (a-cx)*(a-cx)+(b-cz)*(b-cz) <= r*r && occupied[a][b] {
				return false
			}
		}
	}
	return true
}

func markDisc(occupied [][]bool, cx, cz, r int) {
	for a := cx - r; a <= cx+r; a++ {
		for b := cz - r; b <= cz+r; b++ {
			if a < 0 || a >= len(occupied) || b < 0 || b >= len(occupied[0]) {
				continue
			}
			if (a-cx)*(a-cx)+(b-cz)*(b-cz) <= r*r {
				occupied[a][b] = true
			}
		}
	}
}
