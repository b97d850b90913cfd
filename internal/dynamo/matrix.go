package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix. Zero rows or columns are allowed so
// that models without controls can expose empty Fu blocks; gonum refuses
// zero-sized matrices, so arithmetic goes through [Matrix.Dense] only once
// the shape is known to be non-empty.
type Matrix struct {
	Rows int
	Cols int
	Data []float64
}

func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float64, rows*cols)}
}

func Identity(n int) *Matrix {
	m := NewMatrix(n, n)
	for i := 0; i < n; i++ {
		m.Data[i*n+i] = 1
	}
	return m
}

// ColVector wraps v as an len(v) x 1 matrix sharing its storage.
func ColVector(v []float64) *Matrix {
	return &Matrix{Rows: len(v), Cols: 1, Data: v}
}

func (m *Matrix) At(i, j int) float64     { return m.Data[i*m.Cols+j] }
func (m *Matrix) Set(i, j int, v float64) { m.Data[i*m.Cols+j] = v }
func (m *Matrix) AddAt(i, j int, v float64) {
	m.Data[i*m.Cols+j] += v
}

func (m *Matrix) Zero() { clear(m.Data) }

// Empty reports whether m has no rows or no columns.
func (m *Matrix) Empty() bool { return m.Rows == 0 || m.Cols == 0 }

// Dense returns a gonum view sharing m's storage. It panics on an empty
// matrix.
func (m *Matrix) Dense() *mat.Dense {
	return mat.NewDense(m.Rows, m.Cols, m.Data)
}

func (m *Matrix) SameShape(o *Matrix) bool {
	return m.Rows == o.Rows && m.Cols == o.Cols
}

func (m *Matrix) CopyFrom(o *Matrix) {
	if !m.SameShape(o) {
		panic(fmt.Sprintf("dynamo: copy %dx%d into %dx%d", o.Rows, o.Cols, m.Rows, m.Cols))
	}
	copy(m.Data, o.Data)
}

func (m *Matrix) Clone() *Matrix {
	c := NewMatrix(m.Rows, m.Cols)
	copy(c.Data, m.Data)
	return c
}

func (m *Matrix) SetCol(j int, v []float64) {
	for i := 0; i < m.Rows; i++ {
		m.Data[i*m.Cols+j] = v[i]
	}
}

func (m *Matrix) Col(j int) []float64 {
	c := make([]float64, m.Rows)
	for i := range c {
		c[i] = m.Data[i*m.Cols+j]
	}
	return c
}

// Row returns a view of row i.
func (m *Matrix) Row(i int) []float64 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// RowSlice returns a view of n rows starting at row start.
func (m *Matrix) RowSlice(start, n int) *Matrix {
	return &Matrix{Rows: n, Cols: m.Cols, Data: m.Data[start*m.Cols : (start+n)*m.Cols]}
}

func (m *Matrix) Transpose() *Matrix {
	t := NewMatrix(m.Cols, m.Rows)
	if !m.Empty() {
		t.Dense().Copy(m.Dense().T())
	}
	return t
}

// Scale multiplies every entry by f in place.
func (m *Matrix) Scale(f float64) {
	for i := range m.Data {
		m.Data[i] *= f
	}
}

// MulVec writes m*v into out. out must not alias v.
func (m *Matrix) MulVec(v, out []float64) {
	if m.Rows == 0 {
		return
	}
	if m.Cols == 0 {
		clear(out[:m.Rows])
		return
	}
	mat.NewVecDense(m.Rows, out[:m.Rows]).MulVec(m.Dense(), mat.NewVecDense(m.Cols, v[:m.Cols]))
}

// MulTVec writes m^T*v into out. out must not alias v.
func (m *Matrix) MulTVec(v, out []float64) {
	if m.Cols == 0 {
		return
	}
	if m.Rows == 0 {
		clear(out[:m.Cols])
		return
	}
	mat.NewVecDense(m.Cols, out[:m.Cols]).MulVec(m.Dense().T(), mat.NewVecDense(m.Rows, v[:m.Rows]))
}

// Mul writes a*b into out. out must not alias a or b.
func Mul(a, b, out *Matrix) {
	if a.Cols != b.Rows || out.Rows != a.Rows || out.Cols != b.Cols {
		panic(fmt.Sprintf("dynamo: mul %dx%d by %dx%d into %dx%d", a.Rows, a.Cols, b.Rows, b.Cols, out.Rows, out.Cols))
	}
	if out.Empty() {
		return
	}
	if a.Cols == 0 {
		out.Zero()
		return
	}
	out.Dense().Mul(a.Dense(), b.Dense())
}

// MulTransB writes a*b^T into out.
func MulTransB(a, b, out *Matrix) {
	if a.Cols != b.Cols || out.Rows != a.Rows || out.Cols != b.Rows {
		panic(fmt.Sprintf("dynamo: mulT %dx%d by (%dx%d)^T into %dx%d", a.Rows, a.Cols, b.Rows, b.Cols, out.Rows, out.Cols))
	}
	if out.Empty() {
		return
	}
	if a.Cols == 0 {
		out.Zero()
		return
	}
	out.Dense().Mul(a.Dense(), b.Dense().T())
}

// MaxAbs returns the largest absolute entry, 0 for an empty matrix.
func (m *Matrix) MaxAbs() float64 {
	best := 0.0
	for _, v := range m.Data {
		if a := math.Abs(v); a > best {
			best = a
		}
	}
	return best
}

// Cholesky factorises a symmetric positive definite matrix once and then
// solves against it repeatedly.
type Cholesky struct {
	n    int
	chol mat.Cholesky
}

// FactorizeSPD computes the Cholesky decomposition of m. Only the upper
// triangle of m is read.
func FactorizeSPD(m *Matrix) (*Cholesky, error) {
	if m.Rows != m.Cols {
		return nil, &DimensionError{What: "cholesky columns", Got: m.Cols, Want: m.Rows}
	}
	if m.Rows == 0 {
		return nil, &DimensionError{What: "cholesky rows", Got: 0, Want: 1}
	}
	f := &Cholesky{n: m.Rows}
	if ok := f.chol.Factorize(mat.NewSymDense(m.Rows, m.Data)); !ok {
		return nil, fmt.Errorf("%w: not positive definite", ErrSingularMatrix)
	}
	return f, nil
}

// Size returns the dimension of the factorised matrix.
func (f *Cholesky) Size() int { return f.n }

// Solve writes the solution of A x = b into x. x must not alias b.
func (f *Cholesky) Solve(b, x []float64) error {
	dst := mat.NewVecDense(f.n, x[:f.n])
	return f.chol.SolveVecTo(dst, mat.NewVecDense(f.n, b[:f.n]))
}

// SolveMatrix solves A X = B. X must not alias B.
func (f *Cholesky) SolveMatrix(b, x *Matrix) error {
	if b.Rows != f.n || !x.SameShape(b) {
		return &DimensionError{What: "cholesky rhs rows", Got: b.Rows, Want: f.n}
	}
	if b.Cols == 0 {
		return nil
	}
	return f.chol.SolveTo(x.Dense(), b.Dense())
}
