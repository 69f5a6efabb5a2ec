package chem

import (
	"math"
	"math/rand"
	"testing"
)

// TestJacobianMatchesFiniteDifference checks the analytic Jacobian
// against central differences of Derivs. The rate laws are polynomial
// in the densities, so central differences are exact up to roundoff.
func TestJacobianMatchesFiniteDifference(t *testing.T) {
	b := NewBuilder(2, 0, 0)
	b.AddElement("A", 1e-4)
	b.AddElement("B", 2e-5)
	e := b.AddSpecies("e-", -1, nil)
	a := b.AddSpecies("A", 0, []float64{1, 0})
	ap := b.AddSpecies("A+", 1, []float64{1, 0})
	bn := b.AddSpecies("B", 0, []float64{0, 1})
	ab := b.AddSpecies("AB", 0, []float64{1, 1})
	b.AddReaction(0, []int{a}, []int{ap, e})
	b.AddReaction(1, []int{ap, e}, []int{a})
	b.AddReaction(2, []int{a, bn}, []int{ab})
	b.AddReaction(3, []int{ab}, []int{a, bn})
	b.AddReaction(4, []int{ap, bn}, []int{ab})

	net, err := b.Build()
	if err != nil {
		t.Fatalf("build network: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	k := make([]float64, b.NumRates())
	for i := range k {
		k[i] = 0.1 + rng.Float64()
	}

	n := net.Len()
	y := make(State, n)
	for i := range y {
		y[i] = 0.1 + rng.Float64()
	}

	jac := NewMatrix(n)
	net.Jacobian(k, y, jac)

	plus := make(State, n)
	minus := make(State, n)
	for p := 0; p < n; p++ {
		h := 1e-5 * math.Max(1, math.Abs(y[p]))

		yp := y.Clone()
		yp[p] += h
		net.Derivs(k, yp, plus)

		ym := y.Clone()
		ym[p] -= h
		net.Derivs(k, ym, minus)

		for i := 0; i < n; i++ {
			fd := (plus[i] - minus[i]) / (2 * h)
			if math.Abs(jac[i][p]-fd) > 1e-7*(1+math.Abs(fd)) {
				t.Errorf("jac[%d][%d]: analytic %g, finite difference %g", i, p, jac[i][p], fd)
			}
		}
	}
}

func TestJacobianDuplicateReactant(t *testing.T) {
	// A + A -> B: d(dA/dt)/dA = -4 k A, d(dB/dt)/dA = 2 k A.
	b := NewBuilder(1, 0, 0)
	b.AddElement("X", 1e-4)
	b.AddSpecies("e-", -1, nil)
	a := b.AddSpecies("A", 0, []float64{1})
	bb := b.AddSpecies("B", 0, []float64{2})
	b.AddReaction(0, []int{a, a}, []int{bb})

	net, err := b.Build()
	if err != nil {
		t.Fatalf("build network: %v", err)
	}

	k := []float64{0.5}
	y := State{0, 3.0, 0}
	jac := NewMatrix(net.Len())
	net.Jacobian(k, y, jac)

	if want := -4 * k[0] * y[a]; math.Abs(jac[a][a]-want) > 1e-12 {
		t.Errorf("jac[A][A]: expected %g, got %g", want, jac[a][a])
	}
	if want := 2 * k[0] * y[a]; math.Abs(jac[bb][a]-want) > 1e-12 {
		t.Errorf("jac[B][A]: expected %g, got %g", want, jac[bb][a])
	}
}
