package metrics

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// ClassMetrics は1クラス分の適合率・再現率・F1・サポート数
type ClassMetrics struct {
	Label     int
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Average はクラス間で集約した指標（macro avg / weighted avg）
type Average struct {
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// EvaluationReport は分類結果の評価レポート
type EvaluationReport struct {
	Accuracy         float64
	BalancedAccuracy float64
	// Classes はラベル昇順
	Classes     []ClassMetrics
	MacroAvg    Average
	WeightedAvg Average
	// Confusion[i][j] は真のラベル Labels[i] を Labels[j] と予測した件数
	Confusion *mat.Dense
	Labels    []int
}

// Support は評価に使ったサンプル数
func (r *EvaluationReport) Support() int {
	return r.WeightedAvg.Support
}

// checkPair は入力ベクトルの検証を行う
func checkPair(op string, yTrue, yPred mat.Vector) (int, error) {
	if yTrue == nil || yPred == nil || yTrue.Len() == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred mat.Vector) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// BalancedAccuracy はクラスごとの再現率の平均を計算する。
// y_true に存在しないクラスは平均から除外する（scikit-learn と同じ）。
func BalancedAccuracy(yTrue, yPred mat.Vector) (float64, error) {
	if _, err := checkPair("BalancedAccuracy", yTrue, yPred); err != nil {
		return 0, err
	}
	labels := uniqueLabels(yTrue)
	cm := confusion(yTrue, yPred, labels)

	recalls := make([]float64, len(labels))
	for i := range labels {
		support := 0.0
		for j := range labels {
			support += cm.At(i, j)
		}
		recalls[i] = cm.At(i, i) / support
	}
	return stat.Mean(recalls, nil), nil
}

// ConfusionMatrix は混同行列を計算する。行は真のラベル、列は予測ラベル。
// labels が nil の場合、y_true と y_pred に現れるラベルの昇順を使う。
func ConfusionMatrix(yTrue, yPred mat.Vector, labels []int) (*mat.Dense, error) {
	if _, err := checkPair("ConfusionMatrix", yTrue, yPred); err != nil {
		return nil, err
	}
	if labels == nil {
		labels = uniqueLabels(yTrue, yPred)
	}
	return confusion(yTrue, yPred, labels), nil
}

// PrecisionRecallFscoreSupport はクラスごとの指標を計算する。
// 分母が0の指標は0とし、UndefinedMetricWarning を発行する（zero_division=0）。
func PrecisionRecallFscoreSupport(yTrue, yPred mat.Vector, labels []int) ([]ClassMetrics, error) {
	if _, err := checkPair("PrecisionRecallFscoreSupport", yTrue, yPred); err != nil {
		return nil, err
	}
	if labels == nil {
		labels = uniqueLabels(yTrue, yPred)
	}
	return perClass(confusion(yTrue, yPred, labels), labels), nil
}

func perClass(cm *mat.Dense, labels []int) []ClassMetrics {
	k := len(labels)
	out := make([]ClassMetrics, k)
	for i, label := range labels {
		tp := cm.At(i, i)
		predicted, actual := 0.0, 0.0
		for j := 0; j < k; j++ {
			predicted += cm.At(j, i)
			actual += cm.At(i, j)
		}

		if predicted == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision",
				fmt.Sprintf("no predicted samples for label %d", label), 0))
		}
		if actual == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("recall",
				fmt.Sprintf("no true samples for label %d", label), 0))
		}
		precision := errors.SafeDivide(tp, predicted)
		recall := errors.SafeDivide(tp, actual)

		out[i] = ClassMetrics{
			Label:     label,
			Precision: precision,
			Recall:    recall,
			F1:        errors.SafeDivide(2*precision*recall, precision+recall),
			Support:   int(actual),
		}
	}
	return out
}

// Evaluate は正解率、バランス正解率、クラス別指標、平均、混同行列をまとめて計算する
func Evaluate(yTrue, yPred mat.Vector) (*EvaluationReport, error) {
	n, err := checkPair("Evaluate", yTrue, yPred)
	if err != nil {
		return nil, err
	}

	labels := uniqueLabels(yTrue, yPred)
	cm := confusion(yTrue, yPred, labels)
	classes := perClass(cm, labels)

	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}
	balanced, err := BalancedAccuracy(yTrue, yPred)
	if err != nil {
		return nil, err
	}

	k := len(classes)
	precision := make([]float64, k)
	recall := make([]float64, k)
	f1 := make([]float64, k)
	support := make([]float64, k)
	for i, c := range classes {
		precision[i], recall[i], f1[i] = c.Precision, c.Recall, c.F1
		support[i] = float64(c.Support)
	}

	return &EvaluationReport{
		Accuracy:         accuracy,
		BalancedAccuracy: balanced,
		Classes:          classes,
		MacroAvg: Average{
			Precision: stat.Mean(precision, nil),
			Recall:    stat.Mean(recall, nil),
			F1:        stat.Mean(f1, nil),
			Support:   n,
		},
		WeightedAvg: Average{
			Precision: stat.Mean(precision, support),
			Recall:    stat.Mean(recall, support),
			F1:        stat.Mean(f1, support),
			Support:   n,
		},
		Confusion: cm,
		Labels:    labels,
	}, nil
}

// confusion は labels の順で混同行列を作る。labels にない値は数えない。
func confusion(yTrue, yPred mat.Vector, labels []int) *mat.Dense {
	index := make(map[int]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < yTrue.Len(); i++ {
		t, okT := index[int(yTrue.AtVec(i))]
		p, okP := index[int(yPred.AtVec(i))]
		if okT && okP {
			cm.Set(t, p, cm.At(t, p)+1)
		}
	}
	return cm
}

// uniqueLabels は与えられたベクトルに現れるラベルを昇順で返す
func uniqueLabels(vs ...mat.Vector) []int {
	var labels []int
	for _, v := range vs {
		for i := 0; i < v.Len(); i++ {
			label := int(v.AtVec(i))
			if !slices.Contains(labels, label) {
				labels = append(labels, label)
			}
		}
	}
	slices.Sort(labels)
	return labels
}
