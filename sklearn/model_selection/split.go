// Package model_selection provides stratified cross-validation splitters,
// the stratified train/test split and the hyperparameter grid.
package model_selection

import (
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// Fold is one train/test partition of row indices. Both slices are sorted
// ascending and disjoint.
type Fold struct {
	TrainIndices []int
	TestIndices  []int
}

// StratifiedKFold implements stratified k-fold cross-validation
type StratifiedKFold struct {
	NSplits    int
	Shuffle    bool
	RandomSeed int64
}

// NewStratifiedKFold creates a new stratified k-fold splitter
func NewStratifiedKFold(nSplits int, shuffle bool, randomSeed int64) *StratifiedKFold {
	return &StratifiedKFold{
		NSplits:    nSplits,
		Shuffle:    shuffle,
		RandomSeed: randomSeed,
	}
}

// GetNSplits returns the number of splits
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates stratified train/test indices for each fold.
//
// Each class is distributed round-robin by block: a class of n_c members puts
// n_c/k or n_c/k+1 of them into every test fold, so each fold's class ratio is
// within one record of the overall ratio. Remainders rotate across classes to
// keep fold sizes even.
func (skf *StratifiedKFold) Split(y mat.Vector) ([]Fold, error) {
	if skf.NSplits < 2 {
		return nil, errors.NewValidationError("n_splits", "must be at least 2", skf.NSplits)
	}

	labels, classIndices := groupByClass(y)
	for _, label := range labels {
		if n := len(classIndices[label]); n < skf.NSplits {
			return nil, errors.NewInsufficientDataError("StratifiedKFold.Split", label, n, skf.NSplits)
		}
	}

	// Shuffle indices within each class if requested
	if skf.Shuffle {
		r := newRand(skf.RandomSeed)
		for _, label := range labels {
			indices := classIndices[label]
			r.Shuffle(len(indices), func(i, j int) {
				indices[i], indices[j] = indices[j], indices[i]
			})
		}
	}

	folds := make([]Fold, skf.NSplits)
	offset := 0
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		foldSize := nClass / skf.NSplits
		remainder := nClass % skf.NSplits

		currentIdx := 0
		for k := 0; k < skf.NSplits; k++ {
			fold := (k + offset) % skf.NSplits
			testSize := foldSize
			if k < remainder {
				testSize++
			}
			folds[fold].TestIndices = append(folds[fold].TestIndices, indices[currentIdx:currentIdx+testSize]...)
			currentIdx += testSize
		}
		offset = (offset + remainder) % skf.NSplits
	}

	n := y.Len()
	for i := range folds {
		slices.Sort(folds[i].TestIndices)
		folds[i].TrainIndices = complement(n, folds[i].TestIndices)
	}
	return folds, nil
}

// TrainTestSplit performs one stratified split. Every class contributes
// round(n_c * testFraction) members to the test side, clamped so both sides
// keep at least one member of every class.
func TrainTestSplit(y mat.Vector, testFraction float64, seed int64) (Fold, error) {
	if !(testFraction > 0 && testFraction < 1) {
		return Fold{}, errors.NewValidationError("test_fraction", "must be in the open interval (0, 1)", testFraction)
	}

	labels, classIndices := groupByClass(y)
	r := newRand(seed)

	var test []int
	for _, label := range labels {
		indices := classIndices[label]
		nClass := len(indices)
		if nClass < 2 {
			return Fold{}, errors.NewInsufficientDataError("TrainTestSplit", label, nClass, 2)
		}
		r.Shuffle(nClass, func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})

		nTest := int(math.Round(float64(nClass) * testFraction))
		nTest = max(1, min(nTest, nClass-1))
		test = append(test, indices[:nTest]...)
	}

	slices.Sort(test)
	return Fold{TrainIndices: complement(y.Len(), test), TestIndices: test}, nil
}

// groupByClass returns the sorted class labels and the row indices of each.
func groupByClass(y mat.Vector) ([]int, map[int][]int) {
	classIndices := make(map[int][]int)
	for i := 0; i < y.Len(); i++ {
		label := int(y.AtVec(i))
		classIndices[label] = append(classIndices[label], i)
	}
	labels := make([]int, 0, len(classIndices))
	for label := range classIndices {
		labels = append(labels, label)
	}
	slices.Sort(labels)
	return labels, classIndices
}

// complement returns the indices in [0, n) not in sorted.
func complement(n int, sorted []int) []int {
	out := make([]int, 0, n-len(sorted))
	j := 0
	for i := 0; i < n; i++ {
		if j < len(sorted) && sorted[j] == i {
			j++
			continue
		}
		out = append(out, i)
	}
	return out
}

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
}
