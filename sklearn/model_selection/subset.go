package model_selection

import (
	"gonum.org/v1/gonum/mat"
)

// Rows copies the given rows of X into a new matrix.
func Rows(X mat.Matrix, indices []int) *mat.Dense {
	if len(indices) == 0 {
		return &mat.Dense{}
	}
	_, cols := X.Dims()
	out := mat.NewDense(len(indices), cols, nil)
	row := make([]float64, cols)
	for i, idx := range indices {
		mat.Row(row, idx, X)
		out.SetRow(i, row)
	}
	return out
}

// Elements copies the given entries of y into a new vector.
func Elements(y mat.Vector, indices []int) *mat.VecDense {
	out := make([]float64, len(indices))
	for i, idx := range indices {
		out[i] = y.AtVec(idx)
	}
	if len(out) == 0 {
		return &mat.VecDense{}
	}
	return mat.NewVecDense(len(out), out)
}
