package alignment

import (
	"context"
	"fmt"
	"math"
)

// DTWAligner finds the minimum-cost monotonic alignment between two contours.
//
// Algorithm outline:
//  1. Let n = len(ref), m = len(user). Allocate an (n+1)x(m+1) matrix D.
//  2. D[0][0] = 0; every other cell starts at +∞.
//  3. For i = 1..n, for j inside the band of row i:
//     D[i][j] = cost(ref[i-1], user[j-1]) + min(D[i-1][j], D[i][j-1], D[i-1][j-1])
//  4. Backtrack from (n, m) to (1, 1), stepping to the cheapest predecessor
//     (ties: diagonal, then vertical, then horizontal), and reverse.
//
// The band keeps |i·m/n − j| ≤ w. It is widened to at least
// ceil(max(n,m)/min(n,m)) so the end cell stays reachable whatever the
// length ratio.
//
// Complexity: time O(n·w) with a band, O(n·m) without; memory O(n·m).
type DTWAligner struct {
	Metric DistanceMetric

	// BandFraction is the band half-width as a fraction of max(n, m).
	// Zero or negative disables the band.
	BandFraction float64
}

// NewDTWAligner wires the default metric and band from cfg.
func NewDTWAligner(cfg Config) DTWAligner {
	return DTWAligner{
		Metric:       NewCentsDistance(cfg),
		BandFraction: cfg.SakoeChibaBandFraction,
	}
}

// Warp is the raw output of the aligner.
type Warp struct {
	Path []AlignmentPoint
	// TotalCost is D[n][m].
	TotalCost float64
	// NormalizedDistance is TotalCost / (n + m).
	NormalizedDistance float64
}

// costMatrix is a row-major (rows x cols) matrix of cumulative costs.
type costMatrix struct {
	cols int
	data []float64
}

func newCostMatrix(rows, cols int) *costMatrix {
	data := make([]float64, rows*cols)
	inf := math.Inf(1)
	for k := range data {
		data[k] = inf
	}
	data[0] = 0
	return &costMatrix{cols: cols, data: data}
}

func (c *costMatrix) at(i, j int) float64 {
	return c.data[i*c.cols+j]
}

func (c *costMatrix) set(i, j int, v float64) {
	c.data[i*c.cols+j] = v
}

// Align runs DTW over ref and user. The context is checked once per row;
// when it ends the call returns ErrCancelled wrapping the context error.
func (a DTWAligner) Align(ctx context.Context, ref, user PitchContour) (*Warp, error) {
	n, m := len(ref), len(user)
	if n == 0 || m == 0 {
		return nil, fmt.Errorf("%w: empty contour (reference=%d, user=%d frames)", ErrInsufficientData, n, m)
	}
	if ref.VoicedCount() == 0 {
		return nil, fmt.Errorf("%w: reference contour has no voiced frames", ErrInsufficientData)
	}
	if user.VoicedCount() == 0 {
		return nil, fmt.Errorf("%w: user contour has no voiced frames", ErrInsufficientData)
	}

	metric := a.Metric
	if metric == nil {
		metric = NewCentsDistance(DefaultConfig())
	}
	w := bandWidth(n, m, a.BandFraction)

	d := newCostMatrix(n+1, m+1)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		lo, hi := bandRange(i, n, m, w)
		r := ref[i-1]
		for j := lo; j <= hi; j++ {
			best := min3(d.at(i-1, j-1), d.at(i-1, j), d.at(i, j-1))
			d.set(i, j, metric.Cost(r, user[j-1])+best)
		}
	}

	total := d.at(n, m)
	if math.IsInf(total, 1) {
		// Unreachable given the widened band; retry unbounded rather than
		// return an infinite distance.
		if w >= 0 {
			return DTWAligner{Metric: metric}.Align(ctx, ref, user)
		}
		return nil, fmt.Errorf("%w: no finite alignment path", ErrInsufficientData)
	}

	return &Warp{
		Path:               backtrack(d, n, m),
		TotalCost:          total,
		NormalizedDistance: total / float64(n+m),
	}, nil
}

// bandWidth returns the band half-width in user frames, or -1 when unbounded.
func bandWidth(n, m int, fraction float64) int {
	if fraction <= 0 {
		return -1
	}
	longer, shorter := n, m
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	w := int(math.Ceil(fraction * float64(longer)))
	if minW := (longer + shorter - 1) / shorter; w < minW {
		w = minW
	}
	return w
}

// bandRange returns the inclusive column range of row i, using the exact
// integer form |i·m − j·n| ≤ w·n of the band condition.
func bandRange(i, n, m, w int) (lo, hi int) {
	if w < 0 {
		return 1, m
	}
	lo, hi = 1, m
	if low := i*m - w*n; low > n {
		lo = (low + n - 1) / n
	}
	if high := (i*m + w*n) / n; high < m {
		hi = high
	}
	return lo, hi
}

func backtrack(d *costMatrix, n, m int) []AlignmentPoint {
	path := make([]AlignmentPoint, 0, n+m)
	i, j := n, m
	for {
		path = append(path, AlignmentPoint{ReferenceIndex: i - 1, UserIndex: j - 1})
		if i == 1 && j == 1 {
			break
		}
		diag, up, left := d.at(i-1, j-1), d.at(i-1, j), d.at(i, j-1)
		switch {
		case diag <= up && diag <= left:
			i--
			j--
		case up <= left:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(path)-1; l < r; l, r = l+1, r-1 {
		path[l], path[r] = path[r], path[l]
	}
	return path
}

func min3(a, b, c float64) float64 {
	if a < b {
		if a < c {
			return a
		}
		return c
	}
	if b < c {
		return b
	}
	return c
}
