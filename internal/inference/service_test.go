package inference_test

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/family-classifier/internal/artifact"
	"github.com/angeloszaimis/family-classifier/internal/artifact/artifacttest"
	"github.com/angeloszaimis/family-classifier/internal/inference"
	"github.com/angeloszaimis/family-classifier/internal/schema"
)

type spyClassifier struct {
	artifact.Classifier
	mu    sync.Mutex
	calls int
	err   error
}

func (s *spyClassifier) Predict(x []float64) (int, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	return s.Classifier.Predict(x)
}

func (s *spyClassifier) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingObserver struct {
	mu       sync.Mutex
	served   []string
	failures []string
	hits     int
	misses   int
}

func (o *recordingObserver) PredictionServed(family string, confidence float64, elapsed time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.served = append(o.served, family)
}

func (o *recordingObserver) PredictionFailed(kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, kind)
}

func (o *recordingObserver) CacheLookup(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

var _ = Describe("Service", func() {
	var (
		bundle   *artifact.Bundle
		spy      *spyClassifier
		observer *recordingObserver
		svc      *inference.Service
	)

	newService := func(cacheSize int) *inference.Service {
		s, err := inference.NewService(bundle, cacheSize, observer)
		Expect(err).NotTo(HaveOccurred())
		return s
	}

	BeforeEach(func() {
		loaded, err := artifacttest.NewBundle(artifacttest.Logistic())
		Expect(err).NotTo(HaveOccurred())

		spy = &spyClassifier{Classifier: loaded.Classifier}
		bundle = &artifact.Bundle{Classifier: spy, Scaler: loaded.Scaler, Encoder: loaded.Encoder}
		observer = &recordingObserver{}
		svc = newService(0)
	})

	Describe("NewService", func() {
		It("should reject an incomplete bundle", func() {
			s, err := inference.NewService(&artifact.Bundle{}, 0, nil)
			Expect(err).To(HaveOccurred())
			Expect(s).To(BeNil())
		})
	})

	Describe("Predict", func() {
		It("should scale, classify and rank a complete record", func() {
			res, err := svc.Predict(artifacttest.Record(map[string]any{"spore_size_um": json.Number("250")}))
			Expect(err).NotTo(HaveOccurred())

			Expect(res.Family).To(Equal("Acaulosporaceae"))
			Expect(res.Confidence).To(Equal(0.87))
			Expect(res.ConfidencePct).To(Equal("87.0%"))
			Expect(res.Status).To(Equal(inference.StatusOK))
			Expect(res.Top).To(Equal([]inference.Ranked{
				{Family: "Acaulosporaceae", Probability: 0.87},
				{Family: "Gigasporaceae", Probability: 0.0433},
				{Family: "Glomeraceae", Probability: 0.0433},
			}))
		})

		It("should keep the predicted family first in the ranking", func() {
			res, err := svc.Predict(artifacttest.Record(map[string]any{"ornamentation": json.Number("2")}))
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Family).To(Equal("Paraglomeraceae"))
			Expect(res.Top[0].Family).To(Equal(res.Family))
			Expect(res.Top[0].Probability).To(BeNumerically(">", res.Top[1].Probability))
			Expect(res.Top[1].Probability).To(BeNumerically(">=", res.Top[2].Probability))
		})

		It("should report missing keys without calling the classifier", func() {
			rec := artifacttest.Record(nil)
			delete(rec, "pH")
			delete(rec, "elevation_m")

			res, err := svc.Predict(rec)
			Expect(res).To(BeNil())

			var verr *schema.ValidationError
			Expect(errors.As(err, &verr)).To(BeTrue())
			Expect(err.Error()).To(Equal("Faltan variables: ['elevation_m', 'pH']"))
			Expect(spy.Calls()).To(BeZero())
			Expect(observer.failures).To(Equal([]string{inference.FailureValidation}))
		})

		It("should surface coercion failures as ordinary errors", func() {
			res, err := svc.Predict(artifacttest.Record(map[string]any{"gc_content": "alto"}))
			Expect(res).To(BeNil())
			Expect(err).To(MatchError(ContainSubstring(`feature "gc_content"`)))

			var verr *schema.ValidationError
			Expect(errors.As(err, &verr)).To(BeFalse())
			Expect(spy.Calls()).To(BeZero())
			Expect(observer.failures).To(Equal([]string{inference.FailureInternal}))
		})

		It("should surface classifier failures", func() {
			spy.err = errors.New("model exploded")

			res, err := svc.Predict(artifacttest.Record(nil))
			Expect(res).To(BeNil())
			Expect(err).To(MatchError("model exploded"))
			Expect(observer.failures).To(Equal([]string{inference.FailureInternal}))
		})

		It("should be idempotent", func() {
			rec := artifacttest.Record(map[string]any{"wall_type": json.Number("1.25"), "pH": "6.1"})

			first, err := svc.Predict(rec)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Predict(rec)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
		})

		It("should keep confidence within [0, 1] and format the percentage", func() {
			for _, v := range []string{"-40", "0", "0.3", "7", "900"} {
				res, err := svc.Predict(artifacttest.Record(map[string]any{"spore_shape": json.Number(v)}))
				Expect(err).NotTo(HaveOccurred())
				Expect(res.Confidence).To(BeNumerically(">=", 0))
				Expect(res.Confidence).To(BeNumerically("<=", 1))
				Expect(res.ConfidencePct).To(MatchRegexp(`^\d{1,3}\.\d%$`))
				Expect(res.Top).To(HaveLen(inference.TopN))
			}
		})

		It("should notify the observer of served predictions", func() {
			_, err := svc.Predict(artifacttest.Record(map[string]any{"wall_type": json.Number("4")}))
			Expect(err).NotTo(HaveOccurred())
			Expect(observer.served).To(Equal([]string{"Glomeraceae"}))
		})
	})

	Describe("caching", func() {
		BeforeEach(func() {
			svc = newService(8)
		})

		It("should serve a repeated vector from the cache", func() {
			rec := artifacttest.Record(map[string]any{"spore_size_um": json.Number("250")})

			first, err := svc.Predict(rec)
			Expect(err).NotTo(HaveOccurred())
			second, err := svc.Predict(artifacttest.Record(map[string]any{"spore_size_um": "250.0"}))
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(Equal(first))
			Expect(spy.Calls()).To(Equal(1))
			Expect(observer.hits).To(Equal(1))
			Expect(observer.misses).To(Equal(1))
			Expect(observer.served).To(HaveLen(2))
		})

		It("should hand out results callers cannot use to corrupt the cache", func() {
			rec := artifacttest.Record(nil)

			first, err := svc.Predict(rec)
			Expect(err).NotTo(HaveOccurred())
			first.Top[0].Family = "mutated"

			second, err := svc.Predict(rec)
			Expect(err).NotTo(HaveOccurred())
			Expect(second.Top[0].Family).To(Equal("Gigasporaceae"))
		})
	})

	Describe("Families", func() {
		It("should list the encoder classes in order", func() {
			Expect(svc.Families()).To(Equal(artifacttest.Families))
			Expect(svc.FamilyCount()).To(Equal(4))
		})

		It("should not change across calls", func() {
			families := svc.Families()
			families[0] = "mutated"
			Expect(svc.Families()).To(Equal(artifacttest.Families))
		})

		It("should report the model kind", func() {
			Expect(svc.ModelKind()).To(Equal(artifact.KindLogisticRegression))
		})
	})
})
