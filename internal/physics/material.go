package physics

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownMaterial is returned when a catalog lookup finds no match.
var ErrUnknownMaterial = errors.New("physics: unknown material")

// Material is a photocathode surface with a fixed work function.
type Material struct {
	Name           string  `json:"name"`
	WorkFunctionEv float64 `json:"work_function_ev"`
	Symbol         string  `json:"symbol"`
}

// Label returns the short display form, e.g. "Cs (φ = 2.1 eV)".
func (m Material) Label() string {
	return fmt.Sprintf("%s (φ = %s eV)", m.Symbol, strconv.FormatFloat(m.WorkFunctionEv, 'f', -1, 64))
}

// ThresholdWavelengthNm is the longest wavelength that can still eject an
// electron from this material.
func (m Material) ThresholdWavelengthNm() float64 {
	return HcEvM * 1e9 / m.WorkFunctionEv
}

var catalog = [...]Material{
	{Name: "Cesium (Cs)", WorkFunctionEv: 2.10, Symbol: "Cs"},
	{Name: "Sodium (Na)", WorkFunctionEv: 2.28, Symbol: "Na"},
	{Name: "Potassium (K)", WorkFunctionEv: 2.30, Symbol: "K"},
	{Name: "Aluminum (Al)", WorkFunctionEv: 4.08, Symbol: "Al"},
	{Name: "Copper (Cu)", WorkFunctionEv: 4.70, Symbol: "Cu"},
	{Name: "Silver (Ag)", WorkFunctionEv: 4.73, Symbol: "Ag"},
	{Name: "Gold (Au)", WorkFunctionEv: 5.10, Symbol: "Au"},
}

// Catalog returns a copy of the material catalog in its fixed order.
func Catalog() []Material {
	out := make([]Material, len(catalog))
	copy(out, catalog[:])
	return out
}

// CatalogSize returns the number of catalog entries.
func CatalogSize() int {
	return len(catalog)
}

// MaterialAt returns the catalog entry at index.
func MaterialAt(index int) (Material, error) {
	if index < 0 || index >= len(catalog) {
		return Material{}, fmt.Errorf("%w: index %d (catalog has %d entries)", ErrUnknownMaterial, index, len(catalog))
	}
	return catalog[index], nil
}

// LookupMaterial resolves a material by symbol ("Cs"), full name
// ("Cesium (Cs)") or bare element name ("cesium"), case-insensitively.
// It returns the catalog index alongside the material.
func LookupMaterial(query string) (int, Material, error) {
	q := strings.TrimSpace(query)
	for i, m := range catalog {
		if strings.EqualFold(m.Symbol, q) || strings.EqualFold(m.Name, q) {
			return i, m, nil
		}
		if bare, _, ok := strings.Cut(m.Name, " ("); ok && strings.EqualFold(bare, q) {
			return i, m, nil
		}
	}
	return -1, Material{}, fmt.Errorf("%w: %q", ErrUnknownMaterial, query)
}
