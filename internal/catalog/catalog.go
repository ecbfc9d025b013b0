// Package catalog resolves model names to their physical attributes: bound
// extents, proc-gen category, shelf levels. The librarian is an explicit
// handle passed to whoever needs it; there is no process-wide cache.
package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"

	"roomcraft.ai/internal/protocol"
)

// Bounds are the extent points of a model, relative to its pivot.
type Bounds struct {
	Left   protocol.Vec3 `json:"left"`
	Right  protocol.Vec3 `json:"right"`
	Front  protocol.Vec3 `json:"front"`
	Back   protocol.Vec3 `json:"back"`
	Top    protocol.Vec3 `json:"top"`
	Bottom protocol.Vec3 `json:"bottom"`
	Center protocol.Vec3 `json:"center"`
}

// ShelfData describes the usable shelf levels of a model, for models that
// have them (bookcases and the like).
type ShelfData struct {
	Size [2]float64 `json:"size"`
	Ys   []float64  `json:"ys"`
}

// Record is one catalog entry. Read-only for this library.
type Record struct {
	Name     string     `json:"name"`
	Category string     `json:"category"`
	Bounds   Bounds     `json:"bounds"`
	DoNotUse bool       `json:"do_not_use,omitempty"`
	Shelves  *ShelfData `json:"shelves,omitempty"`
}

// Footprint returns the left-right and front-back spans of the bounds.
func (r Record) Footprint() (width, depth float64) {
	return dist(r.Bounds.Left, r.Bounds.Right), dist(r.Bounds.Front, r.Bounds.Back)
}

func dist(a, b protocol.Vec3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Librarian indexes records by name and by category.
type Librarian struct {
	byName     map[string]Record
	byCategory map[string][]string
	names      []string
	Digest     string
}

// New builds a librarian from records already in memory.
func New(records []Record) (*Librarian, error) {
	l := &Librarian{
		byName:     map[string]Record{},
		byCategory: map[string][]string{},
	}
	for _, r := range records {
		if r.Name == "" {
			return nil, fmt.Errorf("catalog: record with empty name")
		}
		if _, dup := l.byName[r.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate record %q", r.Name)
		}
		l.byName[r.Name] = r
	}
	for name := range l.byName {
		l.names = append(l.names, name)
	}
	sort.Strings(l.names)
	for _, name := range l.names {
		r := l.byName[name]
		l.byCategory[r.Category] = append(l.byCategory[r.Category], name)
	}
	return l, nil
}

// Load reads a JSON array of records.
func Load(path string) (*Librarian, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	l, err := New(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	sum := sha256.Sum256(raw)
	l.Digest = hex.EncodeToString(sum[:])
	return l, nil
}

// Record looks up one entry by model name.
func (l *Librarian) Record(name string) (Record, bool) {
	r, ok := l.byName[name]
	return r, ok
}

// Records returns all entries in name order.
func (l *Librarian) Records() []Record {
	out := make([]Record, 0, len(l.names))
	for _, name := range l.names {
		out = append(out, l.byName[name])
	}
	return out
}

// Category returns the model names of a proc-gen category, in name order.
// Unknown categories return nil.
func (l *Librarian) Category(category string) []string {
	return l.byCategory[category]
}

// HasCategory reports whether any record carries this category.
func (l *Librarian) HasCategory(category string) bool {
	return len(l.byCategory[category]) > 0
}

// Categories returns every category present, sorted.
func (l *Librarian) Categories() []string {
	cats := make([]string, 0, len(l.byCategory))
	for c := range l.byCategory {
		cats = append(cats, c)
	}
	sort.Strings(cats)
	return cats
}
