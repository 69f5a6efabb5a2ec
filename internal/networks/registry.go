// Package networks provides small built-in reaction networks used by
// the CLI and the tests. Real networks are built externally; these
// exist so the evolution pipeline can be exercised end to end without
// any input files.
package networks

import (
	"fmt"
	"sort"

	"github.com/san-kum/chemevol/internal/chem"
)

// Model bundles a compiled network with the run inputs the driver
// needs: rate constants, initial densities, and the density-to-
// abundance normalization.
type Model struct {
	Name        string
	Description string
	Net         *chem.Network
	Rates       []float64
	Initial     chem.State
	AbnDen      float64
}

// SpeciesNames returns the species names in state-vector order.
func (m *Model) SpeciesNames() []string {
	names := make([]string, m.Net.Len())
	for i, sp := range m.Net.Species {
		names[i] = sp.Name
	}
	return names
}

var builders = map[string]func() (*Model, error){
	"decay":      Decay,
	"ionization": Ionization,
	"grain":      Grain,
}

// Get builds the named network model.
func Get(name string) (*Model, error) {
	fn, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", name)
	}
	return fn()
}

// List returns the available network names, sorted.
func List() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
