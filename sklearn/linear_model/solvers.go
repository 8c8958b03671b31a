package linear_model

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// problem holds a binary logistic objective scaled by 1/(C*S), S being the
// total sample weight:
//
//	F(w, b) = Σ sw_i * logloss_i + lambda * R(w),  sw_i = s_i / S,  lambda = 1/(C*S)
//
// Scaling leaves the minimizer unchanged and keeps gradient tolerances
// independent of the sample count.
type problem struct {
	x            *mat.Dense
	t            []float64 // 1 for the positive class, 0 otherwise
	sw           []float64 // normalized sample weights, sum to 1
	lambda       float64
	l1           bool
	fitIntercept bool
	n, d         int
}

func newProblem(X, y mat.Matrix, positive int, classWeight, penalty string, C float64, fitIntercept bool) *problem {
	n, d := X.Dims()
	p := &problem{
		x:            mat.DenseCopyOf(X),
		t:            make([]float64, n),
		sw:           make([]float64, n),
		l1:           penalty == PenaltyL1,
		fitIntercept: fitIntercept,
		n:            n,
		d:            d,
	}

	nPos := 0
	for i := 0; i < n; i++ {
		if int(y.At(i, 0)) == positive {
			p.t[i] = 1
			nPos++
		}
	}

	total := 0.0
	for i := 0; i < n; i++ {
		s := 1.0
		if classWeight == ClassWeightBalanced {
			if p.t[i] == 1 {
				s = float64(n) / (2 * float64(nPos))
			} else {
				s = float64(n) / (2 * float64(n-nPos))
			}
		}
		p.sw[i] = s
		total += s
	}
	floats.Scale(1/total, p.sw)
	p.lambda = 1 / (C * total)
	return p
}

// margin returns w·x_i + b for params laid out as [w..., b].
func (p *problem) margin(params []float64, i int) float64 {
	return floats.Dot(p.x.RawRowView(i), params[:p.d]) + params[p.d]
}

// objective evaluates F for the smooth (l2) penalty.
func (p *problem) objective(params []float64) float64 {
	loss := 0.0
	for i := 0; i < p.n; i++ {
		z := p.margin(params, i)
		loss += p.sw[i] * (log1pExp(z) - p.t[i]*z)
	}
	w := params[:p.d]
	return loss + 0.5*p.lambda*floats.Dot(w, w)
}

// gradient writes ∇F for the l2 penalty into grad.
func (p *problem) gradient(grad, params []float64) {
	for j := range grad {
		grad[j] = 0
	}
	for i := 0; i < p.n; i++ {
		r := p.sw[i] * (sigmoid(p.margin(params, i)) - p.t[i])
		floats.AddScaled(grad[:p.d], r, p.x.RawRowView(i))
		grad[p.d] += r
	}
	floats.AddScaled(grad[:p.d], p.lambda, params[:p.d])
	if !p.fitIntercept {
		grad[p.d] = 0
	}
}

// hessian writes ∇²F for the l2 penalty into hess.
func (p *problem) hessian(hess *mat.SymDense, params []float64) {
	dim := p.d + 1
	for a := 0; a < dim; a++ {
		for b := a; b < dim; b++ {
			hess.SetSym(a, b, 0)
		}
	}
	xt := make([]float64, dim)
	for i := 0; i < p.n; i++ {
		pr := sigmoid(p.margin(params, i))
		v := p.sw[i] * pr * (1 - pr)
		copy(xt, p.x.RawRowView(i))
		xt[p.d] = 1
		for a := 0; a < dim; a++ {
			for b := a; b < dim; b++ {
				hess.SetSym(a, b, hess.At(a, b)+v*xt[a]*xt[b])
			}
		}
	}
	for j := 0; j < p.d; j++ {
		hess.SetSym(j, j, hess.At(j, j)+p.lambda)
	}
	if !p.fitIntercept {
		for a := 0; a < p.d; a++ {
			hess.SetSym(a, p.d, 0)
		}
		hess.SetSym(p.d, p.d, 1)
	}
}

// solveLBFGS minimizes the l2 objective with gonum's L-BFGS.
func solveLBFGS(p *problem, maxIter int, tol float64) ([]float64, int, error) {
	return minimize(p, SolverLBFGS, &optimize.LBFGS{}, maxIter, tol)
}

// solveNewton minimizes the l2 objective with gonum's modified Newton method.
func solveNewton(p *problem, maxIter int, tol float64) ([]float64, int, error) {
	return minimize(p, SolverNewtonCG, &optimize.Newton{}, maxIter, tol)
}

func minimize(p *problem, name string, method optimize.Method, maxIter int, tol float64) ([]float64, int, error) {
	prob := optimize.Problem{
		Func: p.objective,
		Grad: p.gradient,
	}
	if name == SolverNewtonCG {
		prob.Hess = p.hessian
	}
	settings := &optimize.Settings{
		GradientThreshold: tol,
		MajorIterations:   maxIter,
	}

	result, err := optimize.Minimize(prob, make([]float64, p.d+1), settings, method)
	if result == nil {
		return nil, 0, err
	}
	params := result.X
	iters := result.Stats.MajorIterations
	if result.Status == optimize.IterationLimit {
		iters = maxIter
	}
	if err != nil {
		// Line search failures near the optimum still leave a usable point.
		if errors.CheckNumericalStability(name, params, iters) != nil {
			return nil, iters, err
		}
		errors.Warn(errors.NewConvergenceWarning(name, iters, err.Error()))
	}
	if !p.fitIntercept {
		params[p.d] = 0
	}
	return params, iters, nil
}

// softThreshold is the proximal operator of t*|x|.
func softThreshold(x, t float64) float64 {
	switch {
	case x > t:
		return x - t
	case x < -t:
		return x + t
	default:
		return 0
	}
}

// solveCoordinateDescent runs cyclic coordinate descent in a seeded random
// coordinate order. Each coordinate step minimizes the quadratic upper bound
// with curvature 0.25*Σ sw_i x_ij², so the objective never increases.
// l1 steps apply soft-thresholding.
func solveCoordinateDescent(p *problem, maxIter int, tol float64, seed int64) ([]float64, int, error) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	params := make([]float64, p.d+1)
	z := make([]float64, p.n)
	r := make([]float64, p.n)

	curv := make([]float64, p.d)
	for i := 0; i < p.n; i++ {
		row := p.x.RawRowView(i)
		for j, v := range row {
			curv[j] += 0.25 * p.sw[i] * v * v
		}
	}

	coords := make([]int, p.d)
	for j := range coords {
		coords[j] = j
	}

	iter := 0
	for iter < maxIter {
		iter++
		rng.Shuffle(len(coords), func(a, b int) { coords[a], coords[b] = coords[b], coords[a] })

		maxDelta, maxParam := 0.0, 0.0
		for _, j := range coords {
			for i := 0; i < p.n; i++ {
				r[i] = p.sw[i] * (sigmoid(z[i]) - p.t[i])
			}
			g := 0.0
			for i := 0; i < p.n; i++ {
				g += r[i] * p.x.At(i, j)
			}

			old := params[j]
			var next float64
			switch {
			case curv[j] == 0:
				next = 0
			case p.l1:
				next = softThreshold(old-g/curv[j], p.lambda/curv[j])
			default:
				next = old - (g+p.lambda*old)/(curv[j]+p.lambda)
			}
			delta := next - old
			if delta != 0 {
				params[j] = next
				for i := 0; i < p.n; i++ {
					z[i] += delta * p.x.At(i, j)
				}
			}
			maxDelta = math.Max(maxDelta, math.Abs(delta))
			maxParam = math.Max(maxParam, math.Abs(next))
		}

		if p.fitIntercept {
			g := 0.0
			for i := 0; i < p.n; i++ {
				g += p.sw[i] * (sigmoid(z[i]) - p.t[i])
			}
			// Σ sw_i = 1, so the intercept curvature bound is 0.25.
			delta := -4 * g
			params[p.d] += delta
			for i := range z {
				z[i] += delta
			}
			maxDelta = math.Max(maxDelta, math.Abs(delta))
			maxParam = math.Max(maxParam, math.Abs(params[p.d]))
		}

		if err := errors.CheckNumericalStability("coordinate_descent", params, iter); err != nil {
			return nil, iter, err
		}
		if maxDelta <= tol*math.Max(1, maxParam) {
			return params, iter, nil
		}
	}
	return params, iter, nil
}

// solveSaga runs the SAGA incremental gradient method over a seeded random
// sample order, one epoch per iteration. Step size is 1/(3L) with L the
// largest per-sample Lipschitz constant.
func solveSaga(p *problem, maxIter int, tol float64, seed int64) ([]float64, int, error) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	n, d := p.n, p.d
	nf := float64(n)
	params := make([]float64, d+1)
	w := params[:d]

	// Per-sample loss f_i = n*sw_i*logloss_i so that F = mean(f_i) + reg.
	lips := 0.0
	for i := 0; i < n; i++ {
		row := p.x.RawRowView(i)
		li := 0.25 * nf * p.sw[i] * (floats.Dot(row, row) + 1)
		lips = math.Max(lips, li)
	}
	if !p.l1 {
		lips += p.lambda
	}
	step := 1 / (3 * lips)

	// Gradient table at the zero start.
	table := make([]float64, n)
	avg := make([]float64, d+1)
	for i := 0; i < n; i++ {
		g := nf * p.sw[i] * (0.5 - p.t[i])
		table[i] = g
		floats.AddScaled(avg[:d], g/nf, p.x.RawRowView(i))
		avg[d] += g / nf
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	prev := make([]float64, d+1)
	grad := make([]float64, d+1)

	iter := 0
	for iter < maxIter {
		iter++
		copy(prev, params)
		rng.Shuffle(n, func(a, b int) { order[a], order[b] = order[b], order[a] })

		for _, i := range order {
			row := p.x.RawRowView(i)
			g := nf * p.sw[i] * (sigmoid(p.margin(params, i)) - p.t[i])
			diff := g - table[i]

			copy(grad, avg)
			floats.AddScaled(grad[:d], diff, row)
			grad[d] += diff

			if p.l1 {
				for j := 0; j < d; j++ {
					w[j] = softThreshold(w[j]-step*grad[j], step*p.lambda)
				}
			} else {
				for j := 0; j < d; j++ {
					w[j] -= step * (grad[j] + p.lambda*w[j])
				}
			}
			if p.fitIntercept {
				params[d] -= step * grad[d]
			}

			table[i] = g
			floats.AddScaled(avg[:d], diff/nf, row)
			avg[d] += diff / nf
		}

		if err := errors.CheckNumericalStability("saga", params, iter); err != nil {
			return nil, iter, err
		}
		maxChange, maxParam := 0.0, 0.0
		for j := range params {
			maxChange = math.Max(maxChange, math.Abs(params[j]-prev[j]))
			maxParam = math.Max(maxParam, math.Abs(params[j]))
		}
		if maxChange <= tol*math.Max(1, maxParam) {
			return params, iter, nil
		}
	}
	return params, iter, nil
}
