package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"roomcraft.ai/internal/protocol"
)

// testRecord builds a record whose footprint is width x depth and whose top
// sits at height.
func testRecord(name, category string, width, depth, height float64) Record {
	return Record{
		Name:     name,
		Category: category,
		Bounds: Bounds{
			Left:   protocol.Vec3{X: -width / 2},
			Right:  protocol.Vec3{X: width / 2},
			Front:  protocol.Vec3{Z: -depth / 2},
			Back:   protocol.Vec3{Z: depth / 2},
			Top:    protocol.Vec3{Y: height},
			Bottom: protocol.Vec3{},
			Center: protocol.Vec3{Y: height / 2},
		},
	}
}

func TestLibrarian_Lookup(t *testing.T) {
	l, err := New([]Record{
		testRecord("table_01", "table", 1.2, 0.8, 0.7),
		testRecord("vase_01", "vase", 0.2, 0.2, 0.3),
		testRecord("vase_02", "vase", 0.25, 0.25, 0.4),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r, ok := l.Record("table_01")
	if !ok {
		t.Fatalf("table_01 not found")
	}
	w, d := r.Footprint()
	if w != 1.2 || d != 0.8 {
		t.Fatalf("footprint: got %v x %v want 1.2 x 0.8", w, d)
	}
	if got := l.Category("vase"); len(got) != 2 || got[0] != "vase_01" || got[1] != "vase_02" {
		t.Fatalf("Category(vase): got %v", got)
	}
	if l.HasCategory("sofa") {
		t.Fatalf("HasCategory(sofa) = true")
	}
	if got := l.Categories(); len(got) != 2 || got[0] != "table" || got[1] != "vase" {
		t.Fatalf("Categories: got %v", got)
	}
}

func TestNew_Rejections(t *testing.T) {
	if _, err := New([]Record{{Name: ""}}); err == nil {
		t.Fatalf("empty name accepted")
	}
	if _, err := New([]Record{testRecord("x", "a", 1, 1, 1), testRecord("x", "b", 1, 1, 1)}); err == nil {
		t.Fatalf("duplicate name accepted")
	}
}

func TestLoad_FromJSON(t *testing.T) {
	records := []Record{
		testRecord("bookcase_01", "bookcase", 0.9, 0.3, 1.8),
	}
	records[0].Shelves = &ShelfData{Size: [2]float64{0.8, 0.25}, Ys: []float64{0.4, 0.8, 1.2}}
	b, err := json.Marshal(records)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "models.json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	l, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Digest == "" {
		t.Fatalf("digest not set")
	}
	r, ok := l.Record("bookcase_01")
	if !ok || r.Shelves == nil || len(r.Shelves.Ys) != 3 {
		t.Fatalf("shelf data lost: %+v", r)
	}
}
