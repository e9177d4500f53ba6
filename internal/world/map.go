// Package world holds the town's locations. Agents reference locations by
// LocationID; names are resolved once when the roster is loaded.
package world

import "fmt"

// LocationID is a stable index into the location table.
type LocationID uint16

// Kind categorizes a location and determines which actions it offers.
type Kind uint8

const (
	KindHome Kind = iota
	KindCafe
	KindPark
	KindOffice
	KindSchool
	KindGym
	KindNightclub
	KindLibrary
	KindStudio
)

var kindNames = [...]string{"home", "cafe", "park", "office", "school", "gym", "nightclub", "library", "studio"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// KindFromString maps a kind name to its Kind.
func KindFromString(name string) (Kind, bool) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), true
		}
	}
	return 0, false
}

// Location is one place an agent can be.
type Location struct {
	ID       LocationID `json:"id"`
	Name     string     `json:"name"`
	Kind     Kind       `json:"kind"`
	Outdoor  bool       `json:"outdoor"`
	OpenFrom float64    `json:"open_from"` // hour; OpenFrom == OpenTo means always open
	OpenTo   float64    `json:"open_to"`
}

// IsOpen reports whether the location admits visitors at the given hour.
// Windows may wrap past midnight (e.g. 20 → 3).
func (l *Location) IsOpen(hour float64) bool {
	if l.OpenFrom == l.OpenTo {
		return true
	}
	if l.OpenFrom < l.OpenTo {
		return hour >= l.OpenFrom && hour < l.OpenTo
	}
	return hour >= l.OpenFrom || hour < l.OpenTo
}

// Map holds every location, indexed by ID and name.
type Map struct {
	Locations []*Location `json:"locations"`
	byName    map[string]LocationID
}

// NewMap creates an empty location table.
func NewMap() *Map {
	return &Map{byName: make(map[string]LocationID)}
}

// Restore rebuilds a map from a saved location list. IDs must match positions.
func Restore(locs []Location) (*Map, error) {
	m := NewMap()
	for i := range locs {
		loc := locs[i]
		if int(loc.ID) != i {
			return nil, fmt.Errorf("location %q has id %d at position %d", loc.Name, loc.ID, i)
		}
		if _, dup := m.byName[loc.Name]; dup {
			return nil, fmt.Errorf("duplicate location name %q", loc.Name)
		}
		m.Locations = append(m.Locations, &loc)
		m.byName[loc.Name] = loc.ID
	}
	return m, nil
}

// Add registers a location, or returns the existing one with the same name.
func (m *Map) Add(name string, kind Kind) LocationID {
	if id, ok := m.byName[name]; ok {
		return id
	}
	id := LocationID(len(m.Locations))
	loc := &Location{ID: id, Name: name, Kind: kind}
	switch kind {
	case KindPark:
		loc.Outdoor = true
	case KindOffice, KindSchool:
		loc.OpenFrom, loc.OpenTo = 8, 18
	case KindCafe, KindLibrary:
		loc.OpenFrom, loc.OpenTo = 7, 22
	case KindNightclub:
		loc.OpenFrom, loc.OpenTo = 20, 3
	case KindGym:
		loc.OpenFrom, loc.OpenTo = 6, 23
	}
	m.Locations = append(m.Locations, loc)
	m.byName[name] = id
	return id
}

// Get returns the location with the given ID, or nil if unknown.
func (m *Map) Get(id LocationID) *Location {
	if int(id) >= len(m.Locations) {
		return nil
	}
	return m.Locations[id]
}

// Lookup resolves a location name.
func (m *Map) Lookup(name string) (LocationID, bool) {
	id, ok := m.byName[name]
	return id, ok
}

// Len returns the number of locations.
func (m *Map) Len() int {
	return len(m.Locations)
}

// Name returns the location's name, or "" for an unknown ID.
func (m *Map) Name(id LocationID) string {
	if l := m.Get(id); l != nil {
		return l.Name
	}
	return ""
}

// DefaultTown returns the shared venues every world starts with. Homes are
// added per household when the roster is loaded.
func DefaultTown() *Map {
	m := NewMap()
	m.Add("Willow Creek Park", KindPark)
	m.Add("Corner Cafe", KindCafe)
	m.Add("Main Street Offices", KindOffice)
	m.Add("Willow Creek High", KindSchool)
	m.Add("Iron Gym", KindGym)
	m.Add("The Velvet Room", KindNightclub)
	m.Add("Public Library", KindLibrary)
	m.Add("Art Studio", KindStudio)
	return m
}

func (m *Map) String() string {
	return fmt.Sprintf("Map(locations=%d)", len(m.Locations))
}
