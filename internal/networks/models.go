package networks

import "github.com/san-kum/chemevol/internal/chem"

// Reference gas density for the built-in models, cm^-3. Abundances are
// normalized against it: abundance = density / nRef.
const nRef = 1e4

// Decay is the simplest possible network: a single first-order channel
// A -> B with both species carrying the same element, so the element
// total is conserved exactly. Density of A follows exp(-k t).
func Decay() (*Model, error) {
	b := chem.NewBuilder(1, 0, 0)
	b.AddElement("X", 1e-4)

	b.AddSpecies("e-", -1, nil)
	a := b.AddSpecies("A", 0, []float64{1})
	bb := b.AddSpecies("B", 0, []float64{1})

	b.AddReaction(0, []int{a}, []int{bb})

	net, err := b.Build()
	if err != nil {
		return nil, err
	}

	init := make(chem.State, net.Len())
	init[a] = 1.0

	return &Model{
		Name:        "decay",
		Description: "first-order decay A -> B",
		Net:         net,
		Rates:       []float64{1e-9}, // s^-1, ~30 yr timescale
		Initial:     init,
		AbnDen:      1 / nRef,
	}, nil
}

// Ionization is a three-species network (e-, M, M+) with cosmic-ray
// style ionization and radiative recombination. It relaxes to a steady
// state where the two rates balance and the electron density equals
// the ion density.
func Ionization() (*Model, error) {
	b := chem.NewBuilder(1, 0, 0)
	b.AddElement("M", 1e-4)

	e := b.AddSpecies("e-", -1, nil)
	m := b.AddSpecies("M", 0, []float64{1})
	mp := b.AddSpecies("M+", 1, []float64{1})

	b.AddReaction(0, []int{m}, []int{mp, e}) // M -> M+ + e-
	b.AddReaction(1, []int{mp, e}, []int{m}) // M+ + e- -> M

	net, err := b.Build()
	if err != nil {
		return nil, err
	}

	init := make(chem.State, net.Len())
	init[m] = 1.0

	return &Model{
		Name:        "ionization",
		Description: "ionization/recombination balance (e-, M, M+)",
		Net:         net,
		Rates: []float64{
			1e-8, // ionization, s^-1
			1e-6, // recombination, cm^3 s^-1
		},
		Initial: init,
		AbnDen:  1 / nRef,
	}, nil
}

// Grain adds a single grain type with a -1/0/+1 charge ladder to the
// ionization network. Electron and ion capture on grains move charge
// along the ladder; the grain total is conserved separately from the
// gas-phase metal.
func Grain() (*Model, error) {
	b := chem.NewBuilder(1, 1, 1)
	b.AddElement("M", 1e-4)
	b.AddElement("gr", 1e-10)

	e := b.AddSpecies("e-", -1, nil)
	m := b.AddSpecies("M", 0, []float64{1, 0})
	mp := b.AddSpecies("M+", 1, []float64{1, 0})
	grm := b.AddSpecies("gr-", -1, []float64{0, 1})
	gr0 := b.AddSpecies("gr", 0, []float64{0, 1})
	grp := b.AddSpecies("gr+", 1, []float64{0, 1})

	b.AddReaction(0, []int{m}, []int{mp, e})        // ionization
	b.AddReaction(1, []int{mp, e}, []int{m})        // gas-phase recombination
	b.AddReaction(2, []int{e, gr0}, []int{grm})     // e- capture on neutral grain
	b.AddReaction(3, []int{e, grp}, []int{gr0})     // e- capture on charged grain
	b.AddReaction(4, []int{mp, grm}, []int{m, gr0}) // ion recombination on gr-
	b.AddReaction(5, []int{mp, gr0}, []int{m, grp}) // ion capture on neutral grain

	net, err := b.Build()
	if err != nil {
		return nil, err
	}

	init := make(chem.State, net.Len())
	init[m] = 1.0
	init[gr0] = 1e-6

	return &Model{
		Name:        "grain",
		Description: "ionization balance with one grain charge ladder",
		Net:         net,
		Rates: []float64{
			1e-8, // ionization, s^-1
			1e-6, // gas recombination, cm^3 s^-1
			1e-4, // e- on gr
			2e-4, // e- on gr+
			1e-4, // M+ on gr-
			5e-5, // M+ on gr
		},
		Initial: init,
		AbnDen:  1 / nRef,
	}, nil
}
