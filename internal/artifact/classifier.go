package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	KindLogisticRegression = "logistic_regression"
	KindDecisionTree       = "decision_tree"
	KindRandomForest       = "random_forest"
)

// Classifier scores a scaled feature vector against every known class.
type Classifier interface {
	Kind() string
	NumFeatures() int
	NumClasses() int
	// Predict returns the index of the most probable class.
	Predict(x []float64) (int, error)
	// PredictProba returns one probability per class, summing to 1.
	PredictProba(x []float64) ([]float64, error)
}

type modelFile struct {
	Kind       string      `json:"kind"`
	NFeatures  int         `json:"n_features"`
	NClasses   int         `json:"n_classes"`
	MultiClass string      `json:"multi_class,omitempty"`
	Coef       [][]float64 `json:"coef,omitempty"`
	Intercept  []float64   `json:"intercept,omitempty"`
	Estimators []Tree      `json:"estimators,omitempty"`
}

func decodeClassifier(data []byte) (Classifier, error) {
	var mf modelFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, err
	}

	if mf.NFeatures <= 0 {
		return nil, errors.New("classifier n_features must be positive")
	}
	if mf.NClasses < 2 {
		return nil, errors.New("classifier needs at least two classes")
	}

	switch mf.Kind {
	case KindLogisticRegression:
		return newLogistic(mf)
	case KindDecisionTree:
		if len(mf.Estimators) != 1 {
			return nil, fmt.Errorf("decision_tree needs exactly one estimator, got %d", len(mf.Estimators))
		}
		return newForest(mf)
	case KindRandomForest:
		return newForest(mf)
	default:
		return nil, fmt.Errorf("unsupported classifier kind %q", mf.Kind)
	}
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func checkWidth(x []float64, want int) error {
	if len(x) != want {
		return fmt.Errorf("classifier expects %d features, got %d", want, len(x))
	}
	return nil
}

// Logistic is a linear model with softmax (multinomial) or normalized
// one-vs-rest sigmoid outputs.
type Logistic struct {
	nFeatures int
	nClasses  int
	ovr       bool
	coef      [][]float64
	intercept []float64
}

func newLogistic(mf modelFile) (*Logistic, error) {
	rows := mf.NClasses
	if mf.NClasses == 2 && len(mf.Coef) == 1 {
		rows = 1
	}

	if len(mf.Coef) != rows {
		return nil, fmt.Errorf("logistic coef has %d rows, expected %d", len(mf.Coef), rows)
	}
	for i, row := range mf.Coef {
		if len(row) != mf.NFeatures {
			return nil, fmt.Errorf("logistic coef row %d has %d values, expected %d", i, len(row), mf.NFeatures)
		}
	}

	intercept := mf.Intercept
	if intercept == nil {
		intercept = make([]float64, rows)
	}
	if len(intercept) != rows {
		return nil, fmt.Errorf("logistic intercept has %d values, expected %d", len(intercept), rows)
	}

	switch mf.MultiClass {
	case "", "multinomial", "ovr":
	default:
		return nil, fmt.Errorf("unsupported multi_class %q", mf.MultiClass)
	}

	return &Logistic{
		nFeatures: mf.NFeatures,
		nClasses:  mf.NClasses,
		ovr:       mf.MultiClass == "ovr",
		coef:      mf.Coef,
		intercept: intercept,
	}, nil
}

func (l *Logistic) Kind() string     { return KindLogisticRegression }
func (l *Logistic) NumFeatures() int { return l.nFeatures }
func (l *Logistic) NumClasses() int  { return l.nClasses }

func (l *Logistic) Predict(x []float64) (int, error) {
	proba, err := l.PredictProba(x)
	if err != nil {
		return 0, err
	}
	return argmax(proba), nil
}

func (l *Logistic) PredictProba(x []float64) ([]float64, error) {
	if err := checkWidth(x, l.nFeatures); err != nil {
		return nil, err
	}

	scores := make([]float64, len(l.coef))
	for k, row := range l.coef {
		s := l.intercept[k]
		for i, w := range row {
			s += w * x[i]
		}
		scores[k] = s
	}

	if len(scores) == 1 {
		p := sigmoid(scores[0])
		return []float64{1 - p, p}, nil
	}

	if l.ovr {
		return normalizedSigmoids(scores), nil
	}

	return softmax(scores), nil
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}

func softmax(scores []float64) []float64 {
	hi := scores[argmax(scores)]

	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - hi)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func normalizedSigmoids(scores []float64) []float64 {
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = sigmoid(s)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
