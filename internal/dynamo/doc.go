// Package dynamo provides the core primitives shared by every model,
// wrapper and solver in shootbench.
//
// The package defines the vocabulary of a shooting problem:
//
//   - [State], [Control]: plain vectors
//   - [Manifold]: where states live and how they are perturbed
//   - [Matrix]: dense row-major matrices backed by gonum, with a [Cholesky] solver
//   - [ActionModel]: discrete-time dynamics and cost (x, u) -> (x', l)
//   - [DifferentialModel]: continuous-time dynamics and cost
//   - [Derivatives]: Fx, Fu, Lx, Lu produced by CalcDiff
//
// # Example
//
//	model := models.NewUnicycle()
//	data := model.CreateData()
//	_ = model.Calc(data, x, u)
//	_ = model.CalcDiff(data, x, u)
//
// # Thread Safety
//
// Models are stateless and may be shared. Data buffers are not: use one
// buffer per goroutine and per shooting node.
package dynamo
