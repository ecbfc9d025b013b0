// Package occupancy builds a discretized free/occupied/out-of-bounds map of
// the scene from sparse probe results, then prunes unreachable islands so
// that only the navigable area stays free.
package occupancy

import (
	"encoding/json"
	"errors"
	"fmt"

	"roomcraft.ai/internal/protocol"
	"roomcraft.ai/internal/scene"
)

// Probe rays are cast straight down from this height.
const raycastY = 100

// Probe ids encode the cell as i + j*10000, so neither axis may reach this
// many cells. Generate fails loudly instead of letting ids collide.
const maxCellsPerAxis = 10000

var (
	ErrNotInitialized = errors.New("occupancy: scene bounds not received yet; step the controller at least once after adding the map")
	ErrNoGrid         = errors.New("occupancy: no grid; call Generate and step the controller")
)

// Cell is the classification of one grid cell.
type Cell int8

const (
	Free        Cell = 0
	Occupied    Cell = 1
	OutOfBounds Cell = -1
)

func (c Cell) String() string {
	switch c {
	case Free:
		return "free"
	case Occupied:
		return "occupied"
	case OutOfBounds:
		return "out_of_bounds"
	}
	return fmt.Sprintf("Cell(%d)", int8(c))
}

// Map is the occupancy grid engine. It is an add-on: it emits probe command
// batches through DrainCommands and consumes the host's response batches
// through OnResponse. Probe results arrive one step after Generate; the grid
// is built exactly once per generation and stays immutable until Reset.
type Map struct {
	bounds   *scene.Bounds
	cellSize float64
	nx, nz   int
	cells    [][]Cell
	pending  bool
	commands []protocol.Command
}

func NewMap() *Map {
	return &Map{}
}

// InitCommands requests the scene regions the grid lattice is derived from.
func (m *Map) InitCommands() []protocol.Command {
	return []protocol.Command{{Type: protocol.CmdSendSceneRegions}}
}

// DrainCommands returns and clears the queued probe commands.
func (m *Map) DrainCommands() []protocol.Command {
	cmds := m.commands
	m.commands = nil
	return cmds
}

// OnResponse consumes one response batch. The first batch builds the scene
// bounds; the first batch after Generate builds the grid. Later batches are
// ignored until the next Generate.
func (m *Map) OnResponse(frames []json.RawMessage) error {
	if m.bounds == nil {
		b, err := scene.NewBounds(frames)
		if err != nil {
			return err
		}
		m.bounds = b
	}
	if m.pending {
		m.build(frames)
		m.pending = false
	}
	return nil
}

// Generate discards any prior grid and queues one downward raycast and one
// overlap probe per lattice cell. Results are not available until the next
// response batch; this never blocks.
func (m *Map) Generate(cellSize float64) error {
	if m.bounds == nil {
		return ErrNotInitialized
	}
	if cellSize <= 0 {
		return fmt.Errorf("occupancy: cell size must be positive, got %v", cellSize)
	}
	nx, nz := 0, 0
	for x := m.bounds.XMin(); x < m.bounds.XMax(); x += cellSize {
		nx++
	}
	for z := m.bounds.ZMin(); z < m.bounds.ZMax(); z += cellSize {
		nz++
	}
	if nx >= maxCellsPerAxis || nz >= maxCellsPerAxis {
		return fmt.Errorf("occupancy: %dx%d cells at cell size %v exceeds the %d cells-per-axis probe id limit",
			nx, nz, cellSize, maxCellsPerAxis)
	}

	m.cells = nil
	m.cellSize = cellSize
	m.nx, m.nz = nx, nz
	m.pending = true

	i := 0
	for x := m.bounds.XMin(); x < m.bounds.XMax(); x += cellSize {
		j := 0
		for z := m.bounds.ZMin(); z < m.bounds.ZMax(); z += cellSize {
			id := i + j*10000
			half := cellSize / 2
			m.commands = append(m.commands,
				protocol.Command{
					Type:        protocol.CmdSendOverlapBox,
					ID:          id,
					Position:    &protocol.Vec3{X: x, Y: 0, Z: z},
					HalfExtents: &protocol.Vec3{X: half, Y: half, Z: half},
				},
				protocol.Command{
					Type:        protocol.CmdSendRaycast,
					ID:          id,
					Origin:      &protocol.Vec3{X: x, Y: raycastY, Z: z},
					Destination: &protocol.Vec3{X: x, Y: -1, Z: z},
				})
			j++
		}
		i++
	}
	return nil
}

func (m *Map) build(frames []json.RawMessage) {
	hitFloor := map[int]bool{}
	hitObject := map[int]bool{}
	for _, raw := range frames {
		switch protocol.FrameType(raw) {
		case protocol.FrameRaycast:
			var f protocol.RaycastFrame
			if json.Unmarshal(raw, &f) == nil {
				hitFloor[f.ID] = f.Hit
			}
		case protocol.FrameOverlap:
			var f protocol.OverlapFrame
			if json.Unmarshal(raw, &f) == nil {
				hitObject[f.ID] = len(f.ObjectIDs) > 0
			}
		}
	}

	cells := make([][]Cell, m.nx)
	for i := range cells {
		cells[i] = make([]Cell, m.nz)
	}
	// A probe that never got a response leaves its cell at the zero value
	// (Free). The edge ring and island pruning below still apply.
	for id, hit := range hitFloor {
		i := id % 10000
		j := id / 10000
		if i >= m.nx || j >= m.nz {
			continue
		}
		switch {
		case !hit:
			cells[i][j] = OutOfBounds
		case hitObject[id]:
			cells[i][j] = Occupied
		default:
			cells[i][j] = Free
		}
	}
	// Probe results at the boundary are unreliable; force the outer ring.
	for i := 0; i < m.nx; i++ {
		for j := 0; j < m.nz; j++ {
			if i == 0 || i == m.nx-1 || j == 0 || j == m.nz-1 {
				cells[i][j] = OutOfBounds
			}
		}
	}
	m.cells = cells
	m.pruneIslands()
}

type cellIndex struct{ i, j int }

// pruneIslands reclassifies every 8-connected free component except the
// largest as out of bounds. Components are discovered in row-major scan
// order; on a size tie the first-discovered island wins. The tie-break is
// arbitrary but load-bearing: repeated runs on identical input must keep
// the same island.
func (m *Map) pruneIslands() {
	visited := make([][]bool, m.nx)
	for i := range visited {
		visited[i] = make([]bool, m.nz)
	}
	var islands [][]cellIndex
	for i := 0; i < m.nx; i++ {
		for j := 0; j < m.nz; j++ {
			if visited[i][j] || m.cells[i][j] != Free {
				continue
			}
			islands = append(islands, m.floodFill(i, j, visited))
		}
	}
	largest := -1
	for k, island := range islands {
		if largest < 0 || len(island) > len(islands[largest]) {
			largest = k
		}
	}
	for k, island := range islands {
		if k == largest {
			continue
		}
		for _, c := range island {
			m.cells[c.i][c.j] = OutOfBounds
		}
	}
}

func (m *Map) floodFill(i, j int, visited [][]bool) []cellIndex {
	var island []cellIndex
	queue := []cellIndex{{i, j}}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c.i < 0 || c.i >= m.nx || c.j < 0 || c.j >= m.nz {
			continue
		}
		if visited[c.i][c.j] || m.cells[c.i][c.j] != Free {
			continue
		}
		visited[c.i][c.j] = true
		island = append(island, c)
		// 8-connectivity: orthogonal and diagonal neighbors.
		queue = append(queue,
			cellIndex{c.i, c.j + 1},
			cellIndex{c.i + 1, c.j + 1},
			cellIndex{c.i + 1, c.j},
			cellIndex{c.i + 1, c.j - 1},
			cellIndex{c.i, c.j - 1},
			cellIndex{c.i - 1, c.j - 1},
			cellIndex{c.i - 1, c.j},
			cellIndex{c.i - 1, c.j + 1})
	}
	return island
}

// Dims returns the grid dimensions. Zero until a grid has been built.
func (m *Map) Dims() (nx, nz int) {
	if m.cells == nil {
		return 0, 0
	}
	return m.nx, m.nz
}

// At returns the classification of cell (i, j).
func (m *Map) At(i, j int) (Cell, error) {
	if m.cells == nil {
		return OutOfBounds, ErrNoGrid
	}
	if i < 0 || i >= m.nx || j < 0 || j >= m.nz {
		return OutOfBounds, fmt.Errorf("occupancy: cell (%d, %d) out of range (%dx%d)", i, j, m.nx, m.nz)
	}
	return m.cells[i][j], nil
}

// WorldPosition converts grid indices to the cell's world-space (x, z).
func (m *Map) WorldPosition(i, j int) (x, z float64, err error) {
	if m.cells == nil {
		return 0, 0, ErrNoGrid
	}
	return m.bounds.XMin() + float64(i)*m.cellSize, m.bounds.ZMin() + float64(j)*m.cellSize, nil
}

// Reset discards the grid and the cached scene bounds and queues a fresh
// scene-regions request, returning the map to its pre-generation state.
func (m *Map) Reset() {
	m.bounds = nil
	m.cells = nil
	m.cellSize = 0
	m.nx, m.nz = 0, 0
	m.pending = false
	m.commands = append(m.commands, protocol.Command{Type: protocol.CmdSendSceneRegions})
}
