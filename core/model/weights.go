package model

import (
	"encoding/json"
	"fmt"
)

// WeightsVersion is the format version written into exported weights.
const WeightsVersion = "1"

// ModelWeights is the serializable form of a fitted scaler → classifier
// pipeline. Coefficients are expressed in the scaled feature space; ScalerMean
// and ScalerScale undo the standardization.
type ModelWeights struct {
	// ModelType は分類器の種類（LogisticRegression）
	ModelType string `json:"model_type"`

	// Version はフォーマットのバージョン（互換性チェック用）
	Version string `json:"version"`

	// Coefficients は重み係数
	Coefficients []float64 `json:"coefficients"`

	// Intercept は切片
	Intercept float64 `json:"intercept"`

	// Classes は学習時のクラスラベル
	Classes []int `json:"classes"`

	// Features は特徴量の名前
	Features []string `json:"features,omitempty"`

	// ScalerMean と ScalerScale は標準化のパラメータ
	ScalerMean  []float64 `json:"scaler_mean"`
	ScalerScale []float64 `json:"scaler_scale"`

	// Hyperparameters はモデルのハイパーパラメータ
	Hyperparameters map[string]interface{} `json:"hyperparameters"`
}

// ToJSON はModelWeightsをJSON形式にシリアライズ
func (mw *ModelWeights) ToJSON() ([]byte, error) {
	return json.MarshalIndent(mw, "", "  ")
}

// FromJSON はJSON形式からModelWeightsをデシリアライズ
func (mw *ModelWeights) FromJSON(data []byte) error {
	return json.Unmarshal(data, mw)
}

// Validate はModelWeightsの妥当性を検証
func (mw *ModelWeights) Validate() error {
	if mw.ModelType == "" {
		return fmt.Errorf("model_type is required")
	}
	if mw.Version == "" {
		return fmt.Errorf("version is required")
	}
	if len(mw.Coefficients) == 0 {
		return fmt.Errorf("fitted model must have coefficients")
	}
	if len(mw.ScalerMean) != len(mw.Coefficients) || len(mw.ScalerScale) != len(mw.Coefficients) {
		return fmt.Errorf("scaler has %d/%d values for %d coefficients",
			len(mw.ScalerMean), len(mw.ScalerScale), len(mw.Coefficients))
	}
	if len(mw.Features) > 0 && len(mw.Features) != len(mw.Coefficients) {
		return fmt.Errorf("%d feature names for %d coefficients", len(mw.Features), len(mw.Coefficients))
	}
	return nil
}
