// Package labels loads the precomputed category encodings and the containment
// maps that drive the cascading form.
//
// Both artifacts are YAML documents; JSON exports are read unchanged since JSON
// is valid YAML. A Set is read-only after loading.
//
// The training notebook pickles both artifacts. Convert them once with
//
//	python -c "import json,pickle,sys; json.dump(pickle.load(open(sys.argv[1],'rb')), open(sys.argv[2],'w'), default=int)" label_mapping.pkl label_mapping.json
//
// and the same for mappings.pkl. The pickled tuple becomes the 4-element
// sequence (varieties, districts, markets, groups) read by Load.
package labels

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// Category names used as top-level keys of the label map.
const (
	State     = "state"
	District  = "district"
	Market    = "market"
	Commodity = "commodity"
	Variety   = "variety"
	Group     = "group"
	Season    = "season"
)

var requiredCategories = []string{State, District, Market, Commodity, Variety, Group, Season}

// MismatchError reports a display value with no entry in the lookup map it was
// expected in. It points at stale or inconsistent artifacts, not a user error.
type MismatchError struct {
	Category string
	Value    string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s %q has no entry in the precomputed mappings", e.Category, e.Value)
}

// Containment holds the parent to children lookups
type Containment struct {
	Varieties map[string][]string `yaml:"varieties"` // commodity -> varieties
	Districts map[string][]string `yaml:"districts"` // state -> districts
	Markets   map[string][]string `yaml:"markets"`   // district -> markets
	Groups    map[string]string   `yaml:"groups"`    // commodity -> group
}

// Set is the loaded label map plus containment maps
type Set struct {
	codes       map[string]map[string]int
	containment Containment
}

// NewSet builds a Set from in-memory maps
func NewSet(codes map[string]map[string]int, containment Containment) *Set {
	return &Set{codes: codes, containment: containment}
}

// Load reads the label map and containment map artifacts
func Load(labelPath, mappingPath string) (*Set, error) {
	codes, err := loadCodes(labelPath)
	if err != nil {
		return nil, err
	}
	containment, err := loadContainment(mappingPath)
	if err != nil {
		return nil, err
	}
	return NewSet(codes, containment), nil
}

func loadCodes(path string) (map[string]map[string]int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read label map: %w", err)
	}

	var codes map[string]map[string]int
	if err := yaml.Unmarshal(data, &codes); err != nil {
		return nil, fmt.Errorf("failed to decode label map: %w", err)
	}
	for _, category := range requiredCategories {
		if len(codes[category]) == 0 {
			return nil, fmt.Errorf("label map has no %s codes", category)
		}
	}
	return codes, nil
}

// loadContainment accepts either a mapping keyed by name or a four-element
// sequence in the order varieties, districts, markets, groups.
func loadContainment(path string) (Containment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Containment{}, fmt.Errorf("failed to read mappings: %w", err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Containment{}, fmt.Errorf("failed to decode mappings: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return Containment{}, errors.New("mappings document is empty")
	}
	root := doc.Content[0]

	var c Containment
	switch root.Kind {
	case yaml.MappingNode:
		if err := root.Decode(&c); err != nil {
			return Containment{}, fmt.Errorf("failed to decode mappings: %w", err)
		}
	case yaml.SequenceNode:
		if len(root.Content) != 4 {
			return Containment{}, fmt.Errorf("mappings sequence has %d entries, expected 4", len(root.Content))
		}
		targets := []interface{}{&c.Varieties, &c.Districts, &c.Markets, &c.Groups}
		for i, target := range targets {
			if err := root.Content[i].Decode(target); err != nil {
				return Containment{}, fmt.Errorf("failed to decode mappings entry %d: %w", i, err)
			}
		}
	default:
		return Containment{}, errors.New("mappings must be a mapping or a sequence")
	}

	if c.Districts == nil || c.Markets == nil || c.Varieties == nil || c.Groups == nil {
		return Containment{}, errors.New("mappings must define varieties, districts, markets and groups")
	}
	return c, nil
}

// Code returns the encoded integer for a display value
func (s *Set) Code(category, value string) (int, error) {
	code, ok := s.codes[category][value]
	if !ok {
		return 0, &MismatchError{Category: category, Value: value}
	}
	return code, nil
}

// States returns the state display names, sorted
func (s *Set) States() []string {
	out := make([]string, 0, len(s.codes[State]))
	for name := range s.codes[State] {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Districts returns the districts of state. An empty or unknown state has none.
func (s *Set) Districts(state string) []string {
	return children(s.containment.Districts, state)
}

// Markets returns the markets of district. An empty district has none; a
// district missing from the market map is a *MismatchError.
func (s *Set) Markets(district string) ([]string, error) {
	return lookup(s.containment.Markets, District, district)
}

// Varieties returns the varieties of commodity. An empty commodity has none; a
// commodity missing from the variety map is a *MismatchError.
func (s *Set) Varieties(commodity string) ([]string, error) {
	return lookup(s.containment.Varieties, Commodity, commodity)
}

// Group returns the commodity group of commodity
func (s *Set) Group(commodity string) (string, error) {
	group, ok := s.containment.Groups[commodity]
	if !ok {
		return "", &MismatchError{Category: Group, Value: commodity}
	}
	return group, nil
}

func children(m map[string][]string, parent string) []string {
	if parent == "" {
		return nil
	}
	list := m[parent]
	if len(list) == 0 {
		return nil
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}

func lookup(m map[string][]string, category, parent string) ([]string, error) {
	if parent == "" {
		return nil, nil
	}
	if _, ok := m[parent]; !ok {
		return nil, &MismatchError{Category: category, Value: parent}
	}
	return children(m, parent), nil
}

// Loader loads a Set exactly once per process
type Loader struct {
	once sync.Once
	set  *Set
	err  error
}

// Load reads the artifacts on the first call; later calls return the first result
func (l *Loader) Load(labelPath, mappingPath string) (*Set, error) {
	l.once.Do(func() {
		l.set, l.err = Load(labelPath, mappingPath)
	})
	return l.set, l.err
}
