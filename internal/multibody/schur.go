package multibody

import (
	"github.com/san-kum/shootbench/internal/costs"
	"github.com/san-kum/shootbench/internal/dynamo"
)

// schur holds the constant pieces of the contact KKT system. With a
// constant Jacobian and a diagonal mass matrix the Schur complement
// K = J M^-1 J^T + damping I never changes, so it is factorised once.
// K is symmetric positive definite whenever J has full row rank or the
// damping is positive.
type schur struct {
	j, jt, jminv *dynamo.Matrix
	k            *dynamo.Matrix
	chol         *dynamo.Cholesky
}

func newSchur(body *Body, j *dynamo.Matrix, damping float64) (*schur, error) {
	s := &schur{
		j:     j,
		jt:    j.Transpose(),
		jminv: dynamo.NewMatrix(j.Rows, j.Cols),
		k:     dynamo.NewMatrix(j.Rows, j.Rows),
	}
	for r := 0; r < j.Rows; r++ {
		body.MinvMul(j.Row(r), s.jminv.Row(r))
	}
	dynamo.MulTransB(s.jminv, j, s.k)
	for i := 0; i < j.Rows; i++ {
		s.k.AddAt(i, i, damping)
	}
	chol, err := dynamo.FactorizeSPD(s.k)
	if err != nil {
		return nil, err
	}
	s.chol = chol
	return s, nil
}

// bindForces registers one force per contact on ctx. Wrenches and
// derivatives are views into the stacked buffers, so later writes to
// lambda, dx and du show through.
func bindForces(ctx *costs.Context, set *ContactSet, lambda []float64, dx, du *dynamo.Matrix) {
	for k, c := range set.contacts {
		ctx.SetForce(c.Name, &costs.Force{
			Wrench: lambda[6*k : 6*k+6],
			Dx:     dx.RowSlice(6*k, 6),
			Du:     du.RowSlice(6*k, 6),
		})
	}
}
