package artifact

import (
	"errors"
	"fmt"
)

const (
	ScalerStandard = "standard"
	ScalerMinMax   = "minmax"
)

// Scaler applies a fitted per-feature affine transform.
type Scaler struct {
	Kind      string    `json:"kind"`
	NFeatures int       `json:"n_features"`
	Mean      []float64 `json:"mean,omitempty"`
	Scale     []float64 `json:"scale,omitempty"`
	Min       []float64 `json:"min,omitempty"`
}

func (s *Scaler) validate() error {
	switch s.Kind {
	case ScalerStandard, ScalerMinMax:
	default:
		return fmt.Errorf("unsupported scaler kind %q", s.Kind)
	}

	if s.NFeatures <= 0 {
		return errors.New("scaler n_features must be positive")
	}

	for name, params := range map[string][]float64{"mean": s.Mean, "scale": s.Scale, "min": s.Min} {
		if params != nil && len(params) != s.NFeatures {
			return fmt.Errorf("scaler %s has %d values, expected %d", name, len(params), s.NFeatures)
		}
	}

	if s.Kind == ScalerMinMax && (s.Min == nil || s.Scale == nil) {
		return errors.New("minmax scaler requires min and scale")
	}

	return nil
}

// Transform returns a scaled copy of x.
func (s *Scaler) Transform(x []float64) ([]float64, error) {
	if len(x) != s.NFeatures {
		return nil, fmt.Errorf("scaler expects %d features, got %d", s.NFeatures, len(x))
	}

	out := make([]float64, len(x))
	for i, v := range x {
		switch s.Kind {
		case ScalerMinMax:
			out[i] = v*s.Scale[i] + s.Min[i]
		default:
			if s.Mean != nil {
				v -= s.Mean[i]
			}
			if s.Scale != nil && s.Scale[i] != 0 {
				v /= s.Scale[i]
			}
			out[i] = v
		}
	}

	return out, nil
}
