package integrators

import (
	"math"

	"github.com/san-kum/chemevol/internal/chem"
)

// luDecompose factorizes a in place into its LU form with partial
// pivoting (Crout's method with implicit scaling). The row permutation
// is recorded in indx and scratch vv must have length n.
func luDecompose(a chem.Matrix, indx []int, vv []float64) error {
	n := len(a)

	for i := 0; i < n; i++ {
		big := 0.0
		for j := 0; j < n; j++ {
			if v := math.Abs(a[i][j]); v > big {
				big = v
			}
		}
		if big == 0 {
			return chem.ErrSingularMatrix
		}
		vv[i] = 1.0 / big
	}

	for j := 0; j < n; j++ {
		for i := 0; i < j; i++ {
			sum := a[i][j]
			for k := 0; k < i; k++ {
				sum -= a[i][k] * a[k][j]
			}
			a[i][j] = sum
		}

		big := 0.0
		imax := j
		for i := j; i < n; i++ {
			sum := a[i][j]
			for k := 0; k < j; k++ {
				sum -= a[i][k] * a[k][j]
			}
			a[i][j] = sum
			if v := vv[i] * math.Abs(sum); v >= big {
				big = v
				imax = i
			}
		}

		if j != imax {
			a[imax], a[j] = a[j], a[imax]
			vv[imax] = vv[j]
		}
		indx[j] = imax

		if a[j][j] == 0 {
			// Singular to working precision; a tiny pivot keeps the
			// substitution finite and the step-error test rejects the
			// result.
			a[j][j] = 1e-300
		}

		if j != n-1 {
			pivinv := 1.0 / a[j][j]
			for i := j + 1; i < n; i++ {
				a[i][j] *= pivinv
			}
		}
	}

	return nil
}

// luBackSub solves the factorized system for one right-hand side,
// overwriting b with the solution.
func luBackSub(a chem.Matrix, indx []int, b []float64) {
	n := len(a)

	ii := -1
	for i := 0; i < n; i++ {
		ip := indx[i]
		sum := b[ip]
		b[ip] = b[i]
		if ii >= 0 {
			for j := ii; j < i; j++ {
				sum -= a[i][j] * b[j]
			}
		} else if sum != 0 {
			ii = i
		}
		b[i] = sum
	}

	for i := n - 1; i >= 0; i-- {
		sum := b[i]
		for j := i + 1; j < n; j++ {
			sum -= a[i][j] * b[j]
		}
		b[i] = sum / a[i][i]
	}
}
