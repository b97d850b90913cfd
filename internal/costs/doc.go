// Package costs provides residuals, activations and weighted cost sums.
//
// A residual r(x, u) is evaluated against a Context that carries the state,
// the control and whatever the dynamics computed on the way (contact forces,
// actuated gravity) together with their derivatives. An activation a(r) turns
// the residual into a scalar, and a Sum adds weighted activations up:
//
//	l(x, u) = sum_i w_i a_i(r_i(x, u))
//	Lx      = sum_i w_i Rx_i^T grad a_i
//	Lu      = sum_i w_i Ru_i^T grad a_i
package costs
