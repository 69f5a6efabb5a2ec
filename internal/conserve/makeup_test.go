package conserve_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/chemevol/internal/chem"
	"github.com/san-kum/chemevol/internal/conserve"
	"github.com/san-kum/chemevol/internal/logging"
)

// gasNetwork: elements A (abundance 1.0) and B (0.5); species
// e-, A, A+, B, AB. Index order matches the variables below.
func gasNetwork() *chem.Network {
	b := chem.NewBuilder(2, 0, 0)
	b.AddElement("A", 1.0)
	b.AddElement("B", 0.5)
	b.AddSpecies("e-", -1, nil)
	a := b.AddSpecies("A", 0, []float64{1, 0})
	b.AddSpecies("A+", 1, []float64{1, 0})
	b.AddSpecies("B", 0, []float64{0, 1})
	b.AddSpecies("AB", 0, []float64{1, 1})
	b.AddReaction(0, []int{a}, []int{a})

	net, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return net
}

// grainNetwork: element M (1.0) plus one grain type (0.1) with a
// singly-charged ladder; species e-, M, M+, M-, gr-, gr, gr+.
func grainNetwork() *chem.Network {
	b := chem.NewBuilder(1, 1, 1)
	b.AddElement("M", 1.0)
	b.AddElement("gr", 0.1)
	b.AddSpecies("e-", -1, nil)
	m := b.AddSpecies("M", 0, []float64{1, 0})
	b.AddSpecies("M+", 1, []float64{1, 0})
	b.AddSpecies("M-", -1, []float64{1, 0})
	b.AddSpecies("gr-", -1, []float64{0, 1})
	b.AddSpecies("gr", 0, []float64{0, 1})
	b.AddSpecies("gr+", 1, []float64{0, 1})
	b.AddReaction(0, []int{m}, []int{m})

	net, err := b.Build()
	Expect(err).NotTo(HaveOccurred())
	return net
}

func elementTotal(net *chem.Network, y chem.State, q int) float64 {
	total := 0.0
	for i, sp := range net.Species {
		total += y[i] * sp.Composition[q]
	}
	return total
}

var _ = Describe("Enforce", func() {
	const (
		iE  = 0
		iA  = 1
		iAp = 2
		iB  = 3
		iAB = 4
	)

	var log logging.Logger

	BeforeEach(func() {
		log = logging.Noop()
	})

	It("clamps negative densities and counts them", func() {
		net := gasNetwork()
		y := chem.State{-0.3, 1.0, 0, 0.5, 0}

		clamped, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(clamped).To(Equal(1))
		Expect(y[iE]).To(Equal(0.0))
	})

	It("tops up a deficit from the single-element species", func() {
		net := gasNetwork()
		y := chem.State{0, 0.5, 0.2, 0.5, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(y[iA]).To(BeNumerically("~", 0.8, 1e-12))
		Expect(elementTotal(net, y, 0)).To(BeNumerically("~", 1.0, 1e-10))
	})

	It("honors the density-to-abundance conversion", func() {
		net := gasNetwork()
		// abnDen 2 halves every target density.
		y := chem.State{0, 0.3, 0.1, 0.25, 0}

		_, err := conserve.Enforce(net, y, 2.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(elementTotal(net, y, 0)).To(BeNumerically("~", 0.5, 1e-10))
		Expect(elementTotal(net, y, 1)).To(BeNumerically("~", 0.25, 1e-10))
	})

	It("redistributes an excess through neutral carriers without losing the other elements", func() {
		net := gasNetwork()
		y := chem.State{0, 0.8, 0, 0.1, 0.4}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())

		// A and AB scale by 5/6; the B content removed from AB moves
		// into the free B species.
		Expect(y[iA]).To(BeNumerically("~", 0.8*5/6.0, 1e-12))
		Expect(y[iAB]).To(BeNumerically("~", 0.4*5/6.0, 1e-12))
		Expect(y[iB]).To(BeNumerically("~", 0.1+0.4/6.0, 1e-12))

		Expect(elementTotal(net, y, 0)).To(BeNumerically("~", 1.0, 1e-10))
		Expect(elementTotal(net, y, 1)).To(BeNumerically("~", 0.5, 1e-10))
	})

	It("fails when a deficit has no donor density", func() {
		net := gasNetwork()
		y := chem.State{0, 0, 0.2, 0.5, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).To(MatchError(chem.ErrMakeupInfeasible))
	})

	It("fails when an excess exceeds the neutral carriers", func() {
		net := gasNetwork()
		y := chem.State{0, 0, 1.4, 0.5, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).To(MatchError(chem.ErrMakeupInfeasible))
	})

	It("sets the electron density to the net positive charge", func() {
		net := gasNetwork()
		y := chem.State{0, 0.6, 0.4, 0.5, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(y[iE]).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("fails on net negative charge without grain carriers", func() {
		b := chem.NewBuilder(1, 0, 0)
		b.AddElement("A", 1.0)
		b.AddSpecies("e-", -1, nil)
		a := b.AddSpecies("A", 0, []float64{1})
		b.AddSpecies("A-", -1, []float64{1})
		b.AddReaction(0, []int{a}, []int{a})
		net, err := b.Build()
		Expect(err).NotTo(HaveOccurred())

		y := chem.State{0, 0.9, 0.1}
		_, err = conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).To(MatchError(chem.ErrChargeInfeasible))
	})
})

var _ = Describe("Enforce with grains", func() {
	const (
		iE   = 0
		iM   = 1
		iMp  = 2
		iMm  = 3
		iGrm = 4
		iGr  = 5
		iGrp = 6
	)

	var (
		net *chem.Network
		log logging.Logger
	)

	BeforeEach(func() {
		net = grainNetwork()
		log = logging.Noop()
	})

	It("rescales a grain type to its target total", func() {
		y := chem.State{0, 1.0, 0, 0, 0.02, 0.05, 0.05}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(elementTotal(net, y, 1)).To(BeNumerically("~", 0.1, 1e-10))
		// common factor 5/6 on every charge state
		Expect(y[iGrm]).To(BeNumerically("~", 0.02*5/6.0, 1e-12))
		Expect(y[iGr]).To(BeNumerically("~", 0.05*5/6.0, 1e-12))
		Expect(y[iGrp]).To(BeNumerically("~", 0.05*5/6.0, 1e-12))
	})

	It("absorbs net negative charge into the grain ladder", func() {
		y := chem.State{0.5, 1.0, 0, 0, 0.06, 0.02, 0.02}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())

		Expect(y[iE]).To(Equal(0.0))
		Expect(y[iGrm]).To(BeNumerically("~", 0.02, 1e-12))
		Expect(y[iGr]).To(BeNumerically("~", 0.06, 1e-12))
		Expect(y[iGrp]).To(BeNumerically("~", 0.02, 1e-12))

		// grain total and charge neutrality both restored
		Expect(elementTotal(net, y, 1)).To(BeNumerically("~", 0.1, 1e-10))
		charge := -y[iE] - y[iMm] - y[iGrm] + y[iMp] + y[iGrp]
		Expect(charge).To(BeNumerically("~", 0, 1e-12))
	})

	It("skips a grain type whose total has vanished", func() {
		// ladder at zero with a positive target: the multiplicative
		// repair has no lever, so the pass warns and moves on
		y := chem.State{0, 1.0, 0, 0, 0, 0, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).NotTo(HaveOccurred())
		Expect(y[iGrm]).To(Equal(0.0))
		Expect(y[iGr]).To(Equal(0.0))
		Expect(y[iGrp]).To(Equal(0.0))
	})

	It("fails when the charge deficit exceeds the negative grain charge", func() {
		y := chem.State{0, 0.95, 0, 0.05, 0.01, 0.09, 0}

		_, err := conserve.Enforce(net, y, 1.0, 0, log, false)
		Expect(err).To(MatchError(chem.ErrChargeInfeasible))
	})
})
