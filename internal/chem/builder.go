package chem

import "fmt"

// Reaction is one reaction channel given to the builder: reactant and
// product species by index, plus the slot in the rate-constant table
// that holds its rate.
type Reaction struct {
	Reactants []int
	Products  []int
	RateIndex int
}

// Builder assembles a Network programmatically and compiles the
// per-species equation term lists. The electron must be the first
// species added.
type Builder struct {
	numElements int
	numGrains   int
	grainCharge int

	species   []Species
	elements  []Element
	reactions []Reaction
}

func NewBuilder(numElements, numGrains, grainCharge int) *Builder {
	return &Builder{
		numElements: numElements,
		numGrains:   numGrains,
		grainCharge: grainCharge,
	}
}

// AddElement appends a conserved element (or grain type, after the gas
// elements) and returns its index in the composition vectors.
func (b *Builder) AddElement(name string, abundance float64) int {
	b.elements = append(b.elements, Element{Name: name, Abundance: abundance})
	return len(b.elements) - 1
}

// AddSpecies appends a species and returns its index. comp may be nil
// for species with no elemental content (the electron).
func (b *Builder) AddSpecies(name string, charge int, comp []float64) int {
	c := make([]float64, b.numElements+b.numGrains)
	copy(c, comp)
	b.species = append(b.species, Species{Name: name, Charge: charge, Composition: c})
	return len(b.species) - 1
}

// AddReaction records one reaction channel. Duplicate reactants or
// products are listed once per occurrence.
func (b *Builder) AddReaction(rateIndex int, reactants, products []int) {
	b.reactions = append(b.reactions, Reaction{
		Reactants: append([]int(nil), reactants...),
		Products:  append([]int(nil), products...),
		RateIndex: rateIndex,
	})
}

// NumRates returns the required length of the rate-constant table.
func (b *Builder) NumRates() int {
	max := 0
	for _, r := range b.reactions {
		if r.RateIndex+1 > max {
			max = r.RateIndex + 1
		}
	}
	return max
}

// Build compiles the reactions into per-species equations, derives the
// single-element species lists, and validates the result.
func (b *Builder) Build() (*Network, error) {
	if len(b.elements) != b.numElements+b.numGrains {
		return nil, fmt.Errorf("%w: %d elements declared, %d added",
			ErrInvalidNetwork, b.numElements+b.numGrains, len(b.elements))
	}

	net := &Network{
		Species:     b.species,
		Elements:    b.elements,
		Equations:   make([]Equation, len(b.species)),
		NumElements: b.numElements,
		NumGrains:   b.numGrains,
		GrainIndex:  len(b.species),
		GrainCharge: b.grainCharge,
	}

	// Grain species sit at the tail of the table, after every
	// gas-phase species.
	for i, sp := range b.species {
		if b.grainContent(sp) {
			net.GrainIndex = i
			break
		}
	}
	for i := net.GrainIndex; i < len(b.species); i++ {
		if !b.grainContent(b.species[i]) {
			return nil, fmt.Errorf("%w: gas species %q after first grain species",
				ErrInvalidNetwork, b.species[i].Name)
		}
	}

	for _, r := range b.reactions {
		term := ReactionTerm{Reactants: r.Reactants, RateIndex: r.RateIndex}
		for _, i := range r.Reactants {
			t := term
			t.Dir = -1
			net.Equations[i].Terms = append(net.Equations[i].Terms, t)
		}
		for _, i := range r.Products {
			t := term
			t.Dir = +1
			net.Equations[i].Terms = append(net.Equations[i].Terms, t)
		}
	}

	// Single-element species: neutral, and composed of exactly one
	// element. These are the preferred donors for makeup.
	for q := range net.Elements {
		for i, sp := range net.Species {
			if sp.Charge != 0 || sp.Composition[q] <= 0 {
				continue
			}
			pure := true
			for j, c := range sp.Composition {
				if j != q && c > 0 {
					pure = false
					break
				}
			}
			if pure {
				net.Elements[q].Single = append(net.Elements[q].Single, i)
			}
		}
	}

	if err := net.Validate(); err != nil {
		return nil, err
	}
	return net, nil
}

func (b *Builder) grainContent(sp Species) bool {
	for j := b.numElements; j < b.numElements+b.numGrains; j++ {
		if sp.Composition[j] > 0 {
			return true
		}
	}
	return false
}
