package integrators

import (
	"math"

	"github.com/san-kum/chemevol/internal/chem"
)

// Kaps-Rentrop stage coefficients (Shampine's parameter set), for a
// 4th-order Rosenbrock step with embedded 3rd-order error estimate.
const (
	krGam = 1.0 / 2.0

	krA21 = 2.0
	krA31 = 48.0 / 25.0
	krA32 = 6.0 / 25.0

	krC21 = -8.0
	krC31 = 372.0 / 25.0
	krC32 = 12.0 / 5.0
	krC41 = -112.0 / 125.0
	krC42 = -54.0 / 125.0
	krC43 = -2.0 / 5.0

	krB1 = 19.0 / 9.0
	krB2 = 1.0 / 2.0
	krB3 = 25.0 / 108.0
	krB4 = 125.0 / 108.0

	krE1 = 17.0 / 54.0
	krE2 = 7.0 / 36.0
	krE3 = 0.0
	krE4 = 125.0 / 108.0
)

// step-size controller
const (
	krSafety  = 0.9
	krGrow    = 1.5
	krPGrow   = -0.25
	krShrink  = 0.5
	krPShrink = -1.0 / 3.0
	krErrCon  = 0.1296
	krMaxTry  = 40
)

// KapsRentrop is a generalized Runge-Kutta (Rosenbrock) stepper for
// stiff systems. It is algorithmically independent of [BulirschStoer]
// and serves as the fallback when the extrapolation method gives up.
//
// Not safe for concurrent use; scratch buffers persist between calls.
type KapsRentrop struct {
	n    int
	dfdy chem.Matrix
	amat chem.Matrix
	indx []int
	vv   []float64

	g1, g2, g3, g4   chem.State
	ysav, dysav, esv chem.State
}

func NewKapsRentrop() *KapsRentrop {
	return &KapsRentrop{}
}

func (s *KapsRentrop) Name() string { return "kaps-rentrop" }

func (s *KapsRentrop) ensureScratch(n int) {
	if s.n == n {
		return
	}
	s.n = n
	s.dfdy = chem.NewMatrix(n)
	s.amat = chem.NewMatrix(n)
	s.indx = make([]int, n)
	s.vv = make([]float64, n)
	s.g1 = make(chem.State, n)
	s.g2 = make(chem.State, n)
	s.g3 = make(chem.State, n)
	s.g4 = make(chem.State, n)
	s.ysav = make(chem.State, n)
	s.dysav = make(chem.State, n)
	s.esv = make(chem.State, n)
}

func (s *KapsRentrop) Step(sys System, y, dydt chem.State, t, htry, eps float64, yscale chem.State) (float64, float64, error) {
	n := len(y)
	s.ensureScratch(n)

	copy(s.ysav, y)
	copy(s.dysav, dydt)
	sys.Jacobian(s.ysav, s.dfdy)

	h := htry
	for try := 0; try < krMaxTry; try++ {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				s.amat[i][j] = -s.dfdy[i][j]
			}
			s.amat[i][i] += 1 / (krGam * h)
		}
		if err := luDecompose(s.amat, s.indx, s.vv); err != nil {
			return 0, 0, err
		}

		copy(s.g1, s.dysav)
		luBackSub(s.amat, s.indx, s.g1)

		for i := 0; i < n; i++ {
			y[i] = s.ysav[i] + krA21*s.g1[i]
		}
		sys.Derivs(y, dydt)
		for i := 0; i < n; i++ {
			s.g2[i] = dydt[i] + krC21*s.g1[i]/h
		}
		luBackSub(s.amat, s.indx, s.g2)

		for i := 0; i < n; i++ {
			y[i] = s.ysav[i] + krA31*s.g1[i] + krA32*s.g2[i]
		}
		sys.Derivs(y, dydt)
		for i := 0; i < n; i++ {
			s.g3[i] = dydt[i] + (krC31*s.g1[i]+krC32*s.g2[i])/h
		}
		luBackSub(s.amat, s.indx, s.g3)

		// fourth stage reuses the third-stage derivatives
		for i := 0; i < n; i++ {
			s.g4[i] = dydt[i] + (krC41*s.g1[i]+krC42*s.g2[i]+krC43*s.g3[i])/h
		}
		luBackSub(s.amat, s.indx, s.g4)

		for i := 0; i < n; i++ {
			y[i] = s.ysav[i] + krB1*s.g1[i] + krB2*s.g2[i] + krB3*s.g3[i] + krB4*s.g4[i]
			s.esv[i] = krE1*s.g1[i] + krE2*s.g2[i] + krE3*s.g3[i] + krE4*s.g4[i]
		}
		if t+h == t {
			return 0, 0, chem.ErrStepTooSmall
		}

		errmax := 0.0
		for i := 0; i < n; i++ {
			if e := math.Abs(s.esv[i] / yscale[i]); e > errmax {
				errmax = e
			}
		}
		errmax /= eps

		if errmax <= 1 {
			hnext := krGrow * h
			if errmax > krErrCon {
				hnext = krSafety * h * math.Pow(errmax, krPGrow)
			}
			return h, hnext, nil
		}

		hnext := krSafety * h * math.Pow(errmax, krPShrink)
		if h >= 0 {
			h = math.Max(hnext, krShrink*h)
		} else {
			h = math.Min(hnext, krShrink*h)
		}
	}

	return 0, 0, chem.ErrTooManyRetries
}
