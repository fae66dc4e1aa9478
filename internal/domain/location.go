package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"
)

// Location is a supported place with its WGS-84 coordinates.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// defaultLocations is the built-in set of Kenyan towns and counties the
// regression model was trained on.
var defaultLocations = []Location{
	{Name: "Bungoma", Lat: 0.5635, Lon: 34.5606},
	{Name: "Eldoret", Lat: 0.5143, Lon: 35.2698},
	{Name: "Garissa", Lat: -0.4569, Lon: 39.6583},
	{Name: "Homa Bay", Lat: -0.5273, Lon: 34.4571},
	{Name: "Kericho", Lat: 0.3689, Lon: 35.2863},
	{Name: "Kilifi", Lat: -3.6333, Lon: 39.8500},
	{Name: "Kisumu", Lat: -0.0917, Lon: 34.7680},
	{Name: "Machakos", Lat: -1.5177, Lon: 37.2634},
	{Name: "Meru", Lat: 0.0472, Lon: 37.6500},
	{Name: "Mombasa", Lat: -4.0435, Lon: 39.6682},
	{Name: "Nairobi", Lat: -1.2864, Lon: 36.8172},
	{Name: "Nakuru", Lat: -0.3031, Lon: 36.0800},
	{Name: "Nanyuki", Lat: 0.0167, Lon: 37.0667},
	{Name: "Narok", Lat: -1.0800, Lon: 35.8700},
	{Name: "Nyeri", Lat: -0.4167, Lon: 36.9500},
	{Name: "Voi", Lat: -3.3961, Lon: 38.5561},
}

// Registry is an immutable lookup table of supported locations keyed by
// canonical name. It is safe for concurrent use.
type Registry struct {
	byName map[string]Location
	names  []string
}

// NewRegistry validates entries and builds a Registry. Names must already be
// in canonical form and unique; coordinates must be in range.
func NewRegistry(entries []Location) (*Registry, error) {
	if len(entries) == 0 {
		return nil, errors.New("registry has no locations")
	}

	r := &Registry{
		byName: make(map[string]Location, len(entries)),
		names:  make([]string, 0, len(entries)),
	}
	for i, loc := range entries {
		if err := validateLocation(loc); err != nil {
			return nil, fmt.Errorf("location %d: %w", i, err)
		}
		if _, dup := r.byName[loc.Name]; dup {
			return nil, fmt.Errorf("location %d: duplicate name %q", i, loc.Name)
		}
		r.byName[loc.Name] = loc
		r.names = append(r.names, loc.Name)
	}
	sort.Strings(r.names)
	return r, nil
}

// DefaultRegistry returns the built-in registry.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(defaultLocations)
	if err != nil {
		panic(fmt.Sprintf("default registry: %v", err))
	}
	return r
}

// LoadRegistry decodes a JSON array of locations and builds a Registry from it.
func LoadRegistry(rd io.Reader) (*Registry, error) {
	var entries []Location
	dec := json.NewDecoder(rd)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}
	return NewRegistry(entries)
}

// OpenRegistry loads the registry file at path, or returns the default
// registry when path is empty.
func OpenRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open registry file: %w", err)
	}
	defer f.Close()
	return LoadRegistry(f)
}

// Resolve canonicalizes name and returns the matching location. Unknown names
// fail with ErrUnsupportedLocation; there is no fuzzy matching or fallback.
func (r *Registry) Resolve(name string) (Location, error) {
	canonical := Canonicalize(name)
	loc, ok := r.byName[canonical]
	if !ok {
		return Location{}, fmt.Errorf("%w: %q", ErrUnsupportedLocation, canonical)
	}
	return loc, nil
}

// Names returns the supported canonical names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Locations returns all entries sorted by name.
func (r *Registry) Locations() []Location {
	out := make([]Location, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, r.byName[name])
	}
	return out
}

// Len reports the number of supported locations.
func (r *Registry) Len() int { return len(r.names) }

// Canonicalize trims surrounding whitespace and title-cases each word: the
// first letter of every run of letters is upper-cased and the rest
// lower-cased. Internal whitespace is kept as is.
func Canonicalize(name string) string {
	name = strings.TrimSpace(name)

	var b strings.Builder
	b.Grow(len(name))
	prevLetter := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) && prevLetter:
			b.WriteRune(unicode.ToLower(r))
		case unicode.IsLetter(r):
			b.WriteRune(unicode.ToTitle(r))
			prevLetter = true
		default:
			b.WriteRune(r)
			prevLetter = false
		}
	}
	return b.String()
}

func validateLocation(loc Location) error {
	if loc.Name == "" {
		return errors.New("name is required")
	}
	if Canonicalize(loc.Name) != loc.Name {
		return fmt.Errorf("name %q is not canonical, want %q", loc.Name, Canonicalize(loc.Name))
	}
	if math.IsNaN(loc.Lat) || loc.Lat < -90 || loc.Lat > 90 {
		return fmt.Errorf("%s: latitude %v out of range [-90, 90]", loc.Name, loc.Lat)
	}
	if math.IsNaN(loc.Lon) || loc.Lon < -180 || loc.Lon > 180 {
		return fmt.Errorf("%s: longitude %v out of range [-180, 180]", loc.Name, loc.Lon)
	}
	return nil
}
