package forecast

import (
	"errors"
	"math"
)

var (
	// ErrSingular is returned when the normal equations have no unique solution.
	ErrSingular = errors.New("forecast: singular design matrix")
	// ErrNonFinite is returned when the fit produced NaN or Inf.
	ErrNonFinite = errors.New("forecast: non-finite model output")
	// ErrShape is returned for empty or ragged training data.
	ErrShape = errors.New("forecast: malformed training data")
)

const (
	// Features whose spread is below this are treated as constant.
	constantTolerance = 1e-12
	// Relative pivot size below which the system is considered singular.
	pivotTolerance = 1e-10
)

// LinearModel is an ordinary least-squares fit y = Intercept + Σ Coef[i]·x[i].
type LinearModel struct {
	Intercept float64
	Coef      []float64
}

// Predict evaluates the model at x.
func (m LinearModel) Predict(x []float64) float64 {
	y := m.Intercept
	for i, c := range m.Coef {
		y += c * x[i]
	}
	return y
}

// FitOLS fits an intercept model on rows x and targets y.
//
// Features are centered and scaled before solving the normal equations so the
// pivots are comparable. A feature with no spread gets a zero coefficient,
// which matches the minimum-norm least-squares solution. Exact collinearity
// between non-constant features yields ErrSingular.
func FitOLS(x [][]float64, y []float64) (LinearModel, error) {
	n := len(x)
	if n == 0 || n != len(y) {
		return LinearModel{}, ErrShape
	}
	p := len(x[0])
	for _, row := range x {
		if len(row) != p {
			return LinearModel{}, ErrShape
		}
	}

	mean := make([]float64, p)
	for _, row := range x {
		for j, v := range row {
			mean[j] += v
		}
	}
	var yMean float64
	for _, v := range y {
		yMean += v
	}
	for j := range mean {
		mean[j] /= float64(n)
	}
	yMean /= float64(n)

	scale := make([]float64, p)
	for _, row := range x {
		for j, v := range row {
			d := v - mean[j]
			scale[j] += d * d
		}
	}
	active := make([]int, 0, p)
	for j := range scale {
		scale[j] = math.Sqrt(scale[j] / float64(n))
		if scale[j] > constantTolerance {
			active = append(active, j)
		}
	}

	coef := make([]float64, p)
	if len(active) > 0 {
		k := len(active)
		a := make([][]float64, k)
		b := make([]float64, k)
		for r := range a {
			a[r] = make([]float64, k)
		}
		for i, row := range x {
			dy := y[i] - yMean
			for r, jr := range active {
				zr := (row[jr] - mean[jr]) / scale[jr]
				b[r] += zr * dy
				for c, jc := range active {
					a[r][c] += zr * (row[jc] - mean[jc]) / scale[jc]
				}
			}
		}
		sol, err := solve(a, b, float64(n))
		if err != nil {
			return LinearModel{}, err
		}
		for r, j := range active {
			coef[j] = sol[r] / scale[j]
		}
	}

	intercept := yMean
	for j, c := range coef {
		intercept -= c * mean[j]
	}

	m := LinearModel{Intercept: intercept, Coef: coef}
	if !finite(m.Intercept) {
		return LinearModel{}, ErrNonFinite
	}
	for _, c := range m.Coef {
		if !finite(c) {
			return LinearModel{}, ErrNonFinite
		}
	}
	return m, nil
}

// solve runs Gaussian elimination with partial pivoting on a·x = b. The
// matrix is standardized so its diagonal is n; pivots are compared to that.
func solve(a [][]float64, b []float64, n float64) ([]float64, error) {
	k := len(b)
	for col := 0; col < k; col++ {
		pivot := col
		for r := col + 1; r < k; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) < pivotTolerance*n {
			return nil, ErrSingular
		}
		a[col], a[pivot] = a[pivot], a[col]
		b[col], b[pivot] = b[pivot], b[col]

		for r := col + 1; r < k; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < k; c++ {
				a[r][c] -= f * a[col][c]
			}
			b[r] -= f * b[col]
		}
	}

	out := make([]float64, k)
	for r := k - 1; r >= 0; r-- {
		s := b[r]
		for c := r + 1; c < k; c++ {
			s -= a[r][c] * out[c]
		}
		out[r] = s / a[r][r]
	}
	return out, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
