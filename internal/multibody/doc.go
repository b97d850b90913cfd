// Package multibody implements a reduced rigid-body model with 6D contacts.
//
// The body has n generalized coordinates with state x = (q, v), a diagonal
// mass matrix and a smooth bias term
//
//	b(q, v) = g sin(q) + d v + kappa v^2
//
// Contacts are rigid 6D constraints with a constant Jacobian stabilised by
// Baumgarte gains. The constrained forward dynamics solve the KKT system
//
//	[M  J^T] [ a     ]   [S u - b]
//	[J  0  ] [-lambda] = [-gamma ]
//
// through its Schur complement, and impulses resolve a velocity jump with a
// restitution coefficient. Everything is analytically differentiable, so the
// models serve as targets for derivative verification.
package multibody
