package occupancy

import (
	"encoding/json"
	"math"
	"testing"

	"roomcraft.ai/internal/protocol"
)

func regionsFrame(xMin, xMax, zMin, zMax float64) json.RawMessage {
	f := protocol.SceneRegionsFrame{
		Type: protocol.FrameSceneRegions,
		Regions: []protocol.RegionFrame{
			{ID: 0, XMin: xMin, XMax: xMax, ZMin: zMin, ZMax: zMax},
		},
	}
	b, _ := json.Marshal(f)
	return b
}

// probeFrames fabricates one raycast and one overlap result per cell.
func probeFrames(nx, nz int, floor, occupied func(i, j int) bool) []json.RawMessage {
	var frames []json.RawMessage
	for i := 0; i < nx; i++ {
		for j := 0; j < nz; j++ {
			id := i + j*10000
			rb, _ := json.Marshal(protocol.RaycastFrame{Type: protocol.FrameRaycast, ID: id, Hit: floor(i, j)})
			frames = append(frames, rb)
			var objs []int
			if occupied(i, j) {
				objs = []int{900 + id}
			}
			ob, _ := json.Marshal(protocol.OverlapFrame{Type: protocol.FrameOverlap, ID: id, ObjectIDs: objs})
			frames = append(frames, ob)
		}
	}
	return frames
}

// newTestMap builds a map over a 12x12 region at cell size 0.5 (24x24 cells).
func newTestMap(t *testing.T) *Map {
	t.Helper()
	m := NewMap()
	if err := m.OnResponse([]json.RawMessage{regionsFrame(-6, 6, -6, 6)}); err != nil {
		t.Fatalf("OnResponse(regions): %v", err)
	}
	if err := m.Generate(0.5); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return m
}

func TestGenerate_BeforeInit(t *testing.T) {
	m := NewMap()
	if err := m.Generate(0.5); err != ErrNotInitialized {
		t.Fatalf("got %v want ErrNotInitialized", err)
	}
}

func TestGenerate_ProbeCommands(t *testing.T) {
	m := newTestMap(t)
	cmds := m.DrainCommands()
	if len(cmds) != 24*24*2 {
		t.Fatalf("commands: got %d want %d", len(cmds), 24*24*2)
	}
	// Probe pairs share an id; spot-check the second cell of the second row.
	var found bool
	for _, c := range cmds {
		if c.Type == protocol.CmdSendRaycast && c.ID == 1+1*10000 {
			found = true
			if c.Origin.Y != raycastY || c.Destination.Y != -1 {
				t.Fatalf("raycast heights: origin %v destination %v", c.Origin, c.Destination)
			}
		}
	}
	if !found {
		t.Fatalf("no raycast command for cell (1, 1)")
	}
	if got := m.DrainCommands(); len(got) != 0 {
		t.Fatalf("drain is not clearing: %d commands left", len(got))
	}
}

func TestGrid_EndToEnd(t *testing.T) {
	m := newTestMap(t)
	m.DrainCommands()
	// Everything has a floor and nothing occupies it, except a 3x3 block at
	// the center which is occupied.
	occ := func(i, j int) bool { return i >= 11 && i <= 13 && j >= 11 && j <= 13 }
	frames := probeFrames(24, 24, func(int, int) bool { return true }, occ)
	if err := m.OnResponse(frames); err != nil {
		t.Fatalf("OnResponse(probes): %v", err)
	}

	nx, nz := m.Dims()
	if nx != 24 || nz != 24 {
		t.Fatalf("dims: got %dx%d want 24x24", nx, nz)
	}
	free := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < nz; j++ {
			c, err := m.At(i, j)
			if err != nil {
				t.Fatalf("At(%d, %d): %v", i, j, err)
			}
			onEdge := i == 0 || i == nx-1 || j == 0 || j == nz-1
			switch {
			case onEdge:
				if c != OutOfBounds {
					t.Fatalf("edge cell (%d, %d) = %v, want out_of_bounds", i, j, c)
				}
			case occ(i, j):
				if c != Occupied {
					t.Fatalf("center cell (%d, %d) = %v, want occupied", i, j, c)
				}
			default:
				if c != Free {
					t.Fatalf("cell (%d, %d) = %v, want free", i, j, c)
				}
				free++
			}
		}
	}
	if want := 22*22 - 9; free != want {
		t.Fatalf("free cells: got %d want %d", free, want)
	}
	if n := countFreeComponents(t, m); n != 1 {
		t.Fatalf("free components: got %d want 1", n)
	}
}

// countFreeComponents re-derives 8-connected free components from the public
// surface, independent of the pruning implementation.
func countFreeComponents(t *testing.T, m *Map) int {
	t.Helper()
	nx, nz := m.Dims()
	seen := make(map[[2]int]bool)
	var grow func(i, j int)
	grow = func(i, j int) {
		if i < 0 || i >= nx || j < 0 || j >= nz || seen[[2]int{i, j}] {
			return
		}
		if c, _ := m.At(i, j); c != Free {
			return
		}
		seen[[2]int{i, j}] = true
		for di := -1; di <= 1; di++ {
			for dj := -1; dj <= 1; dj++ {
				if di != 0 || dj != 0 {
					grow(i+di, j+dj)
				}
			}
		}
	}
	n := 0
	for i := 0; i < nx; i++ {
		for j := 0; j < nz; j++ {
			if c, _ := m.At(i, j); c == Free && !seen[[2]int{i, j}] {
				n++
				grow(i, j)
			}
		}
	}
	return n
}

func TestIslandPruning_KeepsLargest(t *testing.T) {
	m := newTestMap(t)
	m.DrainCommands()
	// A floorless column at i=5 splits the interior into a small west strip
	// (i 1..4) and a large east area (i 6..22). Only the east area survives.
	frames := probeFrames(24, 24,
		func(i, j int) bool { return i != 5 },
		func(int, int) bool { return false })
	if err := m.OnResponse(frames); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	if c, _ := m.At(2, 10); c != OutOfBounds {
		t.Fatalf("west strip survived pruning: got %v", c)
	}
	if c, _ := m.At(10, 10); c != Free {
		t.Fatalf("east area pruned: got %v", c)
	}
	if n := countFreeComponents(t, m); n != 1 {
		t.Fatalf("free components: got %d want 1", n)
	}
}

func TestIslandPruning_TieBreak(t *testing.T) {
	// Two islands of identical size; the one discovered first in row-major
	// order (lower i) must survive, every run.
	for run := 0; run < 5; run++ {
		m := newTestMap(t)
		m.DrainCommands()
		frames := probeFrames(24, 24,
			// Floor exists only on two symmetric strips separated by a gap.
			func(i, j int) bool { return (i >= 1 && i <= 4) || (i >= 19 && i <= 22) },
			func(int, int) bool { return false })
		if err := m.OnResponse(frames); err != nil {
			t.Fatalf("OnResponse: %v", err)
		}
		if c, _ := m.At(2, 10); c != Free {
			t.Fatalf("run %d: first-discovered island pruned", run)
		}
		if c, _ := m.At(20, 10); c != OutOfBounds {
			t.Fatalf("run %d: second island survived the tie-break", run)
		}
	}
}

func TestWorldPosition_RoundTrip(t *testing.T) {
	m := newTestMap(t)
	m.DrainCommands()
	frames := probeFrames(24, 24, func(int, int) bool { return true }, func(int, int) bool { return false })
	if err := m.OnResponse(frames); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	nx, nz := m.Dims()
	for i := 0; i < nx; i++ {
		for j := 0; j < nz; j++ {
			x, z, err := m.WorldPosition(i, j)
			if err != nil {
				t.Fatalf("WorldPosition(%d, %d): %v", i, j, err)
			}
			ri := int(math.Round((x - (-6)) / 0.5))
			rj := int(math.Round((z - (-6)) / 0.5))
			if ri != i || rj != j {
				t.Fatalf("round trip (%d, %d) -> (%v, %v) -> (%d, %d)", i, j, x, z, ri, rj)
			}
		}
	}
}

func TestWorldPosition_BeforeGrid(t *testing.T) {
	m := NewMap()
	if _, _, err := m.WorldPosition(0, 0); err != ErrNoGrid {
		t.Fatalf("got %v want ErrNoGrid", err)
	}
}

func TestGenerate_ProbeIDLimit(t *testing.T) {
	m := NewMap()
	if err := m.OnResponse([]json.RawMessage{regionsFrame(-6, 6, -6, 6)}); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	if err := m.Generate(0.001); err == nil {
		t.Fatalf("expected an error for a 12000-cells-per-axis grid")
	}
	if cmds := m.DrainCommands(); len(cmds) != 0 {
		t.Fatalf("probe commands queued despite the limit error: %d", len(cmds))
	}
}

func TestGrid_BuildIsIdempotent(t *testing.T) {
	m := newTestMap(t)
	m.DrainCommands()
	frames := probeFrames(24, 24, func(int, int) bool { return true }, func(int, int) bool { return false })
	if err := m.OnResponse(frames); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	// A later batch claiming every cell is occupied must not change the grid.
	later := probeFrames(24, 24, func(int, int) bool { return true }, func(int, int) bool { return true })
	if err := m.OnResponse(later); err != nil {
		t.Fatalf("OnResponse(later): %v", err)
	}
	if c, _ := m.At(10, 10); c != Free {
		t.Fatalf("grid mutated by a post-build response batch: got %v", c)
	}
}

func TestGrid_ZeroUsableArea(t *testing.T) {
	m := NewMap()
	if err := m.OnResponse([]json.RawMessage{regionsFrame(2, 2, -6, 6)}); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	if err := m.Generate(0.5); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	m.DrainCommands()
	if err := m.OnResponse(nil); err != nil {
		t.Fatalf("OnResponse(empty): %v", err)
	}
	nx, nz := m.Dims()
	if nx != 0 {
		t.Fatalf("dims: got %dx%d want 0 on the degenerate axis", nx, nz)
	}
}

func TestReset(t *testing.T) {
	m := newTestMap(t)
	m.DrainCommands()
	frames := probeFrames(24, 24, func(int, int) bool { return true }, func(int, int) bool { return false })
	if err := m.OnResponse(frames); err != nil {
		t.Fatalf("OnResponse: %v", err)
	}
	m.Reset()
	if _, _, err := m.WorldPosition(1, 1); err != ErrNoGrid {
		t.Fatalf("WorldPosition after reset: got %v want ErrNoGrid", err)
	}
	if err := m.Generate(0.5); err != ErrNotInitialized {
		t.Fatalf("Generate after reset: got %v want ErrNotInitialized", err)
	}
	cmds := m.DrainCommands()
	if len(cmds) != 1 || cmds[0].Type != protocol.CmdSendSceneRegions {
		t.Fatalf("reset should queue a scene-regions request, got %+v", cmds)
	}
}
