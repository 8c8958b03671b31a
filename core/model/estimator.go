package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う（n×1の列ベクトル）
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// ParameterGetter はハイパーパラメータを公開するモデルのインターフェース
type ParameterGetter interface {
	// GetParams はscikit-learnと同じキー名でハイパーパラメータを返す
	GetParams() map[string]interface{}
}

// Classifier は二値・多値分類器のインターフェース
type Classifier interface {
	Fitter
	Predictor
	ParameterGetter

	// PredictProba は各クラスの確率を返す（n×クラス数）
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に観測したクラスラベルを昇順で返す
	Classes() []int
}
