// Package artifacttest writes small, fully known artifact sets for tests.
//
// The logistic fixture scores family k by feature k for the first four
// features. spore_size_um is standardized with mean 100 and scale 50, the
// others pass through unchanged, so a record with spore_size_um=250 and every
// other feature 0 scores [3, 0, 0, 0].
package artifacttest

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/angeloszaimis/family-classifier/internal/artifact"
	"github.com/angeloszaimis/family-classifier/internal/schema"
)

// Families are the fixture classes in encoder order.
var Families = []string{"Acaulosporaceae", "Gigasporaceae", "Glomeraceae", "Paraglomeraceae"}

func Scaler() map[string]any {
	mean := make([]float64, schema.Width)
	scale := make([]float64, schema.Width)
	for i := range scale {
		scale[i] = 1
	}
	mean[0], scale[0] = 100, 50

	return map[string]any{
		"kind":       artifact.ScalerStandard,
		"n_features": schema.Width,
		"mean":       mean,
		"scale":      scale,
	}
}

func Encoder() map[string]any {
	return map[string]any{"classes": Families}
}

func Logistic() map[string]any {
	coef := make([][]float64, len(Families))
	for k := range coef {
		coef[k] = make([]float64, schema.Width)
		coef[k][k] = 1
	}

	return map[string]any{
		"kind":       artifact.KindLogisticRegression,
		"n_features": schema.Width,
		"n_classes":  len(Families),
		"coef":       coef,
		"intercept":  make([]float64, len(Families)),
	}
}

// Forest is a one-tree forest splitting on pH at 0.5.
func Forest() map[string]any {
	pH := 10
	return map[string]any{
		"kind":       artifact.KindRandomForest,
		"n_features": schema.Width,
		"n_classes":  len(Families),
		"estimators": []map[string]any{{
			"children_left":  []int{1, -1, -1},
			"children_right": []int{2, -1, -1},
			"feature":        []int{pH, -2, -2},
			"threshold":      []float64{0.5, -2, -2},
			"value":          [][]float64{{8, 1, 3, 6}, {8, 1, 1, 0}, {0, 0, 2, 6}},
		}},
	}
}

// Write stores the three documents under their artifact file names.
func Write(dir string, model, scaler, encoder any) error {
	docs := map[string]any{
		artifact.ClassifierFile: model,
		artifact.ScalerFile:     scaler,
		artifact.EncoderFile:    encoder,
	}

	for name, doc := range docs {
		if doc == nil {
			continue
		}
		data, err := json.Marshal(doc)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o600); err != nil {
			return err
		}
	}

	return nil
}

// NewBundle loads the given model with the fixture scaler and encoder.
func NewBundle(model map[string]any) (*artifact.Bundle, error) {
	dir, err := os.MkdirTemp("", "artifacts-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if err := Write(dir, model, Scaler(), Encoder()); err != nil {
		return nil, err
	}

	return artifact.Load(context.Background(), dir)
}

// Record returns a complete record with every feature set to 0, then applies
// overrides.
func Record(overrides map[string]any) schema.Record {
	rec := schema.Record{}
	for _, name := range schema.Features {
		rec[name] = json.Number("0")
	}
	for k, v := range overrides {
		rec[k] = v
	}
	return rec
}
