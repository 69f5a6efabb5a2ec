package integrators

import (
	"math"

	"github.com/san-kum/chemevol/internal/chem"
)

const (
	bsKMax = 7 // highest extrapolation column
	bsIMax = bsKMax + 1

	bsSafe1   = 0.25
	bsSafe2   = 0.7
	bsRedMax  = 1e-5
	bsRedMin  = 0.7
	bsTiny    = 1e-30
	bsScalMax = 0.1

	// bound on step-shrink cycles within one Step call
	bsMaxReductions = 64
)

// sub-step sequence for the semi-implicit midpoint rule (1-based)
var bsSeq = [bsIMax + 1]int{0, 2, 6, 10, 14, 22, 34, 50, 70}

// BulirschStoer is a semi-implicit extrapolation stepper for stiff
// systems: it integrates each trial interval with the semi-implicit
// midpoint rule at an increasing number of sub-steps and extrapolates
// the results to zero step size, adapting both the step and the
// extrapolation order to the work per unit step.
//
// A stepper carries its scratch buffers and order bookkeeping between
// calls, so it is not safe for concurrent use.
type BulirschStoer struct {
	n      int
	epsOld float64
	first  bool
	kMax   int
	kOpt   int

	xLast     float64
	hNextLast float64

	// work coefficients and convergence limits (1-based, as is the
	// extrapolation literature's convention)
	a    [bsIMax + 1]float64
	alf  [bsKMax + 1][bsKMax + 1]float64
	errv [bsKMax + 1]float64
	xEst [bsIMax + 1]float64

	dfdy chem.Matrix
	amat chem.Matrix
	qcol chem.Matrix
	indx []int
	vv   []float64

	ysav, yseq, yerr, del, ytemp, dscr chem.State
}

func NewBulirschStoer() *BulirschStoer {
	return &BulirschStoer{epsOld: -1, first: true}
}

func (s *BulirschStoer) Name() string { return "bulirsch-stoer" }

func (s *BulirschStoer) ensureScratch(n int) {
	if s.n == n {
		return
	}
	s.n = n
	s.epsOld = -1
	s.dfdy = chem.NewMatrix(n)
	s.amat = chem.NewMatrix(n)
	s.qcol = make(chem.Matrix, n)
	for j := range s.qcol {
		s.qcol[j] = make([]float64, bsKMax+1)
	}
	s.indx = make([]int, n)
	s.vv = make([]float64, n)
	s.ysav = make(chem.State, n)
	s.yseq = make(chem.State, n)
	s.yerr = make(chem.State, n)
	s.del = make(chem.State, n)
	s.ytemp = make(chem.State, n)
	s.dscr = make(chem.State, n)
}

// prepare recomputes the work-per-column table and the order limits
// whenever the tolerance or the system size changes.
func (s *BulirschStoer) prepare(eps float64) {
	if eps == s.epsOld {
		return
	}
	s.hNextLast = -1e29
	s.xLast = -1e29

	eps1 := bsSafe1 * eps
	s.a[1] = float64(bsSeq[1]) + 1
	for k := 1; k <= bsKMax; k++ {
		s.a[k+1] = s.a[k] + float64(bsSeq[k+1])
	}
	for iq := 2; iq <= bsKMax; iq++ {
		for k := 1; k < iq; k++ {
			s.alf[k][iq] = math.Pow(eps1,
				(s.a[k+1]-s.a[iq+1])/((s.a[iq+1]-s.a[1]+1)*float64(2*k+1)))
		}
	}
	s.epsOld = eps

	s.a[1] += float64(s.n)
	for k := 1; k <= bsKMax; k++ {
		s.a[k+1] = s.a[k] + float64(bsSeq[k+1])
	}
	for s.kOpt = 2; s.kOpt < bsKMax; s.kOpt++ {
		if s.a[s.kOpt+1] > s.a[s.kOpt]*s.alf[s.kOpt-1][s.kOpt] {
			break
		}
	}
	s.kMax = s.kOpt
}

func (s *BulirschStoer) Step(sys System, y, dydt chem.State, t, htry, eps float64, yscale chem.State) (float64, float64, error) {
	n := len(y)
	s.ensureScratch(n)
	s.prepare(eps)

	h := htry
	copy(s.ysav, y)
	sys.Jacobian(y, s.dfdy)

	if t != s.xLast || h != s.hNextLast {
		s.first = true
		s.kOpt = s.kMax
	}

	var (
		errmax, red float64
		k, km       int
		reduct      bool
	)

	reductions := 0
	for {
		exit := false
		for k = 1; k <= s.kMax; k++ {
			xnew := t + h
			if xnew == t {
				return 0, 0, chem.ErrStepTooSmall
			}
			s.xLast = xnew

			if err := s.midpoint(sys, dydt, h, bsSeq[k]); err != nil {
				return 0, 0, err
			}
			xest := h / float64(bsSeq[k])
			xest *= xest
			s.extrapolate(k, xest, s.yseq, y, s.yerr)

			if k != 1 {
				errmax = bsTiny
				for i := 0; i < n; i++ {
					if e := math.Abs(s.yerr[i] / yscale[i]); e > errmax {
						errmax = e
					}
				}
				errmax /= eps
				km = k - 1
				s.errv[km] = math.Pow(errmax/bsSafe1, 1/float64(2*km+1))
			}

			if k != 1 && (k >= s.kOpt-1 || s.first) {
				if errmax < 1 {
					exit = true
					break
				}
				switch {
				case k == s.kMax || k == s.kOpt+1:
					red = bsSafe2 / s.errv[km]
				case k == s.kOpt && s.alf[s.kOpt-1][s.kOpt] < s.errv[km]:
					red = 1 / s.errv[km]
				case s.kOpt == s.kMax && s.alf[km][s.kMax-1] < s.errv[km]:
					red = s.alf[km][s.kMax-1] * bsSafe2 / s.errv[km]
				case s.alf[km][s.kOpt] < s.errv[km]:
					red = s.alf[km][s.kOpt-1] / s.errv[km]
				default:
					continue
				}
				break
			}
		}
		if exit {
			break
		}

		red = math.Min(red, bsRedMin)
		red = math.Max(red, bsRedMax)
		h *= red
		reduct = true
		reductions++
		if reductions > bsMaxReductions {
			return 0, 0, chem.ErrTooManyRetries
		}
	}

	hdid := h
	s.first = false

	// pick the column with the lowest work per unit step for next time
	wrkmin := 1e35
	scale := 1.0
	for kk := 1; kk <= km; kk++ {
		fact := math.Max(s.errv[kk], bsScalMax)
		work := fact * s.a[kk+1]
		if work < wrkmin {
			scale = fact
			wrkmin = work
			s.kOpt = kk + 1
		}
	}
	hnext := h / scale

	// consider order increase when the step was not reduced
	if s.kOpt >= k && s.kOpt != s.kMax && !reduct {
		fact := math.Max(scale/s.alf[s.kOpt-1][s.kOpt], bsScalMax)
		if s.a[s.kOpt+1]*fact <= wrkmin {
			hnext = h / fact
			s.kOpt++
		}
	}
	s.hNextLast = hnext

	return hdid, hnext, nil
}

// midpoint advances ysav over htot with nstep semi-implicit midpoint
// sub-steps, leaving the result in yseq. The Jacobian at the step start
// (dfdy) is frozen for the whole interval.
func (s *BulirschStoer) midpoint(sys System, dydt chem.State, htot float64, nstep int) error {
	n := s.n
	h := htot / float64(nstep)

	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s.amat[i][j] = -h * s.dfdy[i][j]
		}
		s.amat[i][i] += 1
	}
	if err := luDecompose(s.amat, s.indx, s.vv); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		s.yseq[i] = h * dydt[i]
	}
	luBackSub(s.amat, s.indx, s.yseq)
	for i := 0; i < n; i++ {
		s.del[i] = s.yseq[i]
		s.ytemp[i] = s.ysav[i] + s.del[i]
	}
	sys.Derivs(s.ytemp, s.yseq)

	for nn := 2; nn <= nstep; nn++ {
		for i := 0; i < n; i++ {
			s.yseq[i] = h*s.yseq[i] - s.del[i]
		}
		luBackSub(s.amat, s.indx, s.yseq)
		for i := 0; i < n; i++ {
			s.del[i] += 2 * s.yseq[i]
			s.ytemp[i] += s.del[i]
		}
		sys.Derivs(s.ytemp, s.yseq)
	}

	for i := 0; i < n; i++ {
		s.yseq[i] = h*s.yseq[i] - s.del[i]
	}
	luBackSub(s.amat, s.indx, s.yseq)
	for i := 0; i < n; i++ {
		s.yseq[i] += s.ytemp[i]
	}

	return nil
}

// extrapolate adds estimate number iest (computed with squared sub-step
// xest) to the polynomial extrapolation tableau, refining yz and the
// error estimate dy.
func (s *BulirschStoer) extrapolate(iest int, xest float64, yest, yz, dy chem.State) {
	n := s.n
	s.xEst[iest] = xest

	for j := 0; j < n; j++ {
		dy[j] = yest[j]
		yz[j] = yest[j]
	}
	if iest == 1 {
		for j := 0; j < n; j++ {
			s.qcol[j][1] = yest[j]
		}
		return
	}

	copy(s.dscr, yest)
	for k1 := 1; k1 < iest; k1++ {
		delta := 1 / (s.xEst[iest-k1] - xest)
		f1 := xest * delta
		f2 := s.xEst[iest-k1] * delta
		for j := 0; j < n; j++ {
			q := s.qcol[j][k1]
			s.qcol[j][k1] = dy[j]
			d := s.dscr[j] - q
			dy[j] = f1 * d
			s.dscr[j] = f2 * d
			yz[j] += dy[j]
		}
	}
	for j := 0; j < n; j++ {
		s.qcol[j][iest] = dy[j]
	}
}
