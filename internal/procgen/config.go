package procgen

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ArrangementParams tune the rectangular packing of one root category.
//
// Density is the probability that an eligible empty cell is skipped, so a
// HIGHER density value produces a SPARSER arrangement. The polarity is
// inherited from the host platform's data files and is preserved as-is;
// renaming or inverting it would silently flip every tuned value.
type ArrangementParams struct {
	CellSize float64 `yaml:"cell_size"`
	Density  float64 `yaml:"density"`
}

// Rules is the arrangement rule set: which categories go on top of or on
// the shelves of which, which chain along walls per room type, and the
// packing parameters per category.
type Rules struct {
	WallDepth  float64 `yaml:"wall_depth"`
	WallMargin float64 `yaml:"wall_margin"`

	DefaultCellSize float64 `yaml:"default_cell_size"`
	DefaultDensity  float64 `yaml:"default_density"`

	// Objects in these categories are placed kinematic and never get a
	// random yaw.
	KinematicCategories []string `yaml:"kinematic_categories"`
	// Categories a lateral chain may place more than once. Everything else
	// is one-shot per chain.
	RepeatableCategories []string `yaml:"repeatable_categories"`

	OnTopOf   map[string][]string          `yaml:"on_top_of"`
	OnShelf   map[string][]string          `yaml:"on_shelf"`
	RoomTypes map[string][]string          `yaml:"room_types"`
	Packing   map[string]ArrangementParams `yaml:"rectangular_arrangements"`

	kinematic  map[string]bool
	repeatable map[string]bool
}

// LoadRules reads a YAML rules file. An empty path yields the defaults.
func LoadRules(path string) (Rules, error) {
	r := defaultRules()
	if strings.TrimSpace(path) == "" {
		r.Normalize()
		return r, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return r, err
	}
	if err := yaml.Unmarshal(b, &r); err != nil {
		return r, fmt.Errorf("arrangements.yaml: %w", err)
	}
	r.Normalize()
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("arrangements.yaml: %w", err)
	}
	return r, nil
}

func defaultRules() Rules {
	return Rules{
		WallDepth:       0.28,
		WallMargin:      0.4,
		DefaultCellSize: 0.05,
		DefaultDensity:  0.4,
	}
}

func (r *Rules) Normalize() {
	if r.DefaultCellSize <= 0 {
		r.DefaultCellSize = 0.05
	}
	r.kinematic = map[string]bool{}
	for _, c := range r.KinematicCategories {
		r.kinematic[c] = true
	}
	r.repeatable = map[string]bool{}
	for _, c := range r.RepeatableCategories {
		r.repeatable[c] = true
	}
	for _, m := range []map[string][]string{r.OnTopOf, r.OnShelf, r.RoomTypes} {
		for k, v := range m {
			sort.Strings(v)
			m[k] = v
		}
	}
}

func (r *Rules) Validate() error {
	if r.WallDepth < 0 || r.WallMargin < 0 {
		return fmt.Errorf("wall inset must not be negative")
	}
	if r.DefaultDensity < 0 || r.DefaultDensity > 1 {
		return fmt.Errorf("default_density %v outside [0, 1]", r.DefaultDensity)
	}
	for cat, p := range r.Packing {
		if p.CellSize <= 0 {
			return fmt.Errorf("category %q: cell_size must be positive", cat)
		}
		if p.Density < 0 || p.Density > 1 {
			return fmt.Errorf("category %q: density %v outside [0, 1]", cat, p.Density)
		}
	}
	for room, cats := range r.RoomTypes {
		if len(cats) == 0 {
			return fmt.Errorf("room type %q has no categories", room)
		}
	}
	return nil
}

// ArrangementParameters returns the packing parameters for a category,
// falling back to the defaults for untuned categories.
func (r *Rules) ArrangementParameters(category string) (cellSize, density float64) {
	if p, ok := r.Packing[category]; ok {
		return p.CellSize, p.Density
	}
	return r.DefaultCellSize, r.DefaultDensity
}

func (r *Rules) IsKinematic(category string) bool  { return r.kinematic[category] }
func (r *Rules) IsRepeatable(category string) bool { return r.repeatable[category] }
