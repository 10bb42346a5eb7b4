package inference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/angeloszaimis/family-classifier/internal/artifact"
	"github.com/angeloszaimis/family-classifier/internal/schema"
)

const (
	StatusOK = "ok"

	// TopN is how many ranked families a result carries.
	TopN = 3
)

const (
	FailureValidation = "validation"
	FailureInternal   = "internal"
)

// Observer receives prediction outcomes. Implementations must be safe for
// concurrent use.
type Observer interface {
	PredictionServed(family string, confidence float64, elapsed time.Duration)
	PredictionFailed(kind string)
	CacheLookup(hit bool)
}

type Ranked struct {
	Family      string
	Probability float64
}

type Result struct {
	Family        string
	Confidence    float64
	ConfidencePct string
	Top           []Ranked
	Status        string
}

func (r Result) clone() *Result {
	out := r
	out.Top = append([]Ranked(nil), r.Top...)
	return &out
}

type Service struct {
	bundle   *artifact.Bundle
	families []string
	cache    *lru.Cache[string, Result]
	observer Observer
}

// NewService wraps a loaded bundle. A cacheSize of 0 disables result caching
// and observer may be nil.
func NewService(bundle *artifact.Bundle, cacheSize int, observer Observer) (*Service, error) {
	if bundle == nil || bundle.Classifier == nil || bundle.Scaler == nil || bundle.Encoder == nil {
		return nil, errors.New("incomplete artifact bundle")
	}

	s := &Service{
		bundle:   bundle,
		families: bundle.Encoder.Classes(),
		observer: observer,
	}

	if cacheSize > 0 {
		cache, err := lru.New[string, Result](cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create prediction cache: %w", err)
		}
		s.cache = cache
	}

	return s, nil
}

// Predict validates rec, runs the scaler and classifier and ranks the
// result. A record missing schema keys yields a *schema.ValidationError and
// never reaches the classifier; every other failure is returned as is.
func (s *Service) Predict(rec schema.Record) (*Result, error) {
	start := time.Now()

	if err := schema.Validate(rec); err != nil {
		s.failed(FailureValidation)
		return nil, err
	}

	x, err := schema.Vector(rec)
	if err != nil {
		s.failed(FailureInternal)
		return nil, err
	}

	key := cacheKey(x)
	if s.cache != nil {
		cached, hit := s.cache.Get(key)
		if s.observer != nil {
			s.observer.CacheLookup(hit)
		}
		if hit {
			s.served(&cached, start)
			return cached.clone(), nil
		}
	}

	res, err := s.infer(x)
	if err != nil {
		s.failed(FailureInternal)
		return nil, err
	}

	if s.cache != nil {
		s.cache.Add(key, *res.clone())
	}
	s.served(res, start)

	return res, nil
}

func (s *Service) infer(x []float64) (*Result, error) {
	scaled, err := s.bundle.Scaler.Transform(x)
	if err != nil {
		return nil, err
	}

	clf := s.bundle.Classifier
	idx, err := clf.Predict(scaled)
	if err != nil {
		return nil, err
	}
	proba, err := clf.PredictProba(scaled)
	if err != nil {
		return nil, err
	}
	if idx < 0 || idx >= len(proba) {
		return nil, fmt.Errorf("predicted class %d outside of %d probabilities", idx, len(proba))
	}

	family, err := s.bundle.Encoder.InverseTransform(idx)
	if err != nil {
		return nil, err
	}
	confidence := proba[idx]

	top := make([]Ranked, 0, TopN)
	for _, i := range rank(proba, TopN) {
		name, err := s.bundle.Encoder.InverseTransform(i)
		if err != nil {
			return nil, err
		}
		top = append(top, Ranked{Family: name, Probability: Round4(proba[i])})
	}

	return &Result{
		Family:        family,
		Confidence:    Round4(confidence),
		ConfidencePct: Percent(confidence),
		Top:           top,
		Status:        StatusOK,
	}, nil
}

// Families returns the known family names in encoder order.
func (s *Service) Families() []string {
	return append([]string(nil), s.families...)
}

func (s *Service) FamilyCount() int {
	return len(s.families)
}

func (s *Service) ModelKind() string {
	return s.bundle.Classifier.Kind()
}

func (s *Service) served(res *Result, start time.Time) {
	if s.observer != nil {
		s.observer.PredictionServed(res.Family, res.Confidence, time.Since(start))
	}
}

func (s *Service) failed(kind string) {
	if s.observer != nil {
		s.observer.PredictionFailed(kind)
	}
}

func cacheKey(x []float64) string {
	var sb strings.Builder
	for i, v := range x {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return sb.String()
}
