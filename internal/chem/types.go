package chem

import "math"

// ElectronIndex is the fixed position of the electron in every state
// vector and species table.
const ElectronIndex = 0

// OneYear is one year in seconds, used for progress reporting.
const OneYear = 3.1536e7

// Species is one tracked chemical or charge state. Composition counts
// how many of each element (and grain type) the species carries; it is
// indexed by element table position.
type Species struct {
	Name        string
	Charge      int
	Composition []float64
}

// Element is one conserved quantity: a gas-phase element or a grain
// type. Abundance is the fixed target total, in normalized abundance
// units. Single lists the species made of this element alone, used
// preferentially when densities have to be topped up.
type Element struct {
	Name      string
	Abundance float64
	Single    []int
}

// ReactionTerm is one additive contribution to a species' time
// derivative: Dir * k[RateIndex] * product of reactant densities.
// A reactant appearing twice is listed twice.
type ReactionTerm struct {
	Reactants []int
	RateIndex int
	Dir       float64
}

// Equation collects every reaction term affecting one species.
type Equation struct {
	Terms []ReactionTerm
}

// Network is the compiled reaction network: species table, element
// table and the per-species equations. It is immutable once built.
//
// The element table holds the NumElements gas-phase elements first,
// followed by NumGrains grain types. Grain species occupy the tail of
// the species table starting at GrainIndex, grouped per grain type in
// ladders of 2*GrainCharge+1 charge states ordered from -GrainCharge
// to +GrainCharge.
type Network struct {
	Species   []Species
	Elements  []Element
	Equations []Equation

	NumElements int
	NumGrains   int
	GrainIndex  int
	GrainCharge int
}

// Len returns the number of species.
func (n *Network) Len() int { return len(n.Species) }

// NumComp returns the width of every composition vector.
func (n *Network) NumComp() int { return n.NumElements + n.NumGrains }

// GrainType returns the grain-type index (offset into the grain part
// of the element table) that species i belongs to.
func (n *Network) GrainType(i int) int {
	return (i - n.GrainIndex) / (2*n.GrainCharge + 1)
}

// Validate checks the structural invariants the evaluators rely on.
func (n *Network) Validate() error {
	if len(n.Species) == 0 {
		return ErrInvalidNetwork
	}
	if n.Species[ElectronIndex].Charge != -1 {
		return ErrInvalidNetwork
	}
	if len(n.Equations) != len(n.Species) {
		return ErrInvalidNetwork
	}
	if n.NumGrains > 0 {
		if n.GrainCharge < 0 || n.GrainIndex <= ElectronIndex || n.GrainIndex >= len(n.Species) {
			return ErrInvalidNetwork
		}
		ladder := 2*n.GrainCharge + 1
		if (len(n.Species)-n.GrainIndex)%ladder != 0 {
			return ErrInvalidNetwork
		}
	}
	for _, sp := range n.Species {
		if len(sp.Composition) != n.NumComp() {
			return ErrInvalidNetwork
		}
	}
	for _, eq := range n.Equations {
		for _, term := range eq.Terms {
			for _, r := range term.Reactants {
				if r < 0 || r >= len(n.Species) {
					return ErrInvalidNetwork
				}
			}
		}
	}
	return nil
}

// State is a number-density vector, one entry per species.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 {
	sum := 0.0
	for _, v := range s {
		sum += v * v
	}
	return math.Sqrt(sum)
}

// Matrix is a dense square scratch matrix used for Jacobians and the
// implicit-solver linear systems.
type Matrix [][]float64

func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

func (m Matrix) Zero() {
	for i := range m {
		for j := range m[i] {
			m[i][j] = 0
		}
	}
}
