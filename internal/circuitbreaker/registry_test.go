package circuitbreaker_test

import (
	"fmt"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/family-classifier/internal/circuitbreaker"
)

var _ = Describe("Registry", func() {
	var registry *circuitbreaker.Registry

	BeforeEach(func() {
		registry = circuitbreaker.NewRegistry(2, 50*time.Millisecond)
	})

	Describe("GetBreaker", func() {
		It("should return the same breaker for the same server", func() {
			cb1 := registry.GetBreaker("http://localhost:5000")
			cb2 := registry.GetBreaker("http://localhost:5000")
			Expect(cb1).To(BeIdenticalTo(cb2))
		})

		It("should keep servers apart", func() {
			cb1 := registry.GetBreaker("http://localhost:5000")
			cb2 := registry.GetBreaker("http://10.0.0.2:5000")
			Expect(cb1).NotTo(BeIdenticalTo(cb2))
		})

		It("should configure breakers with the registry settings", func() {
			cb := registry.GetBreaker("http://localhost:5000")
			cb.RecordFailure()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))

			time.Sleep(60 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
		})
	})

	Describe("States", func() {
		It("should report every breaker", func() {
			registry.GetBreaker("http://a:5000")
			down := registry.GetBreaker("http://b:5000")
			down.RecordFailure()
			down.RecordFailure()

			Expect(registry.States()).To(Equal(map[string]circuitbreaker.State{
				"http://a:5000": circuitbreaker.StateClosed,
				"http://b:5000": circuitbreaker.StateOpen,
			}))
		})
	})

	It("should handle concurrent GetBreaker calls safely", func() {
		const goroutines = 50

		var wg sync.WaitGroup
		seen := make([]*circuitbreaker.CircuitBreaker, goroutines)

		for i := 0; i < goroutines; i++ {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				seen[id] = registry.GetBreaker(fmt.Sprintf("http://server-%d:5000", id%5))
			}(i)
		}
		wg.Wait()

		Expect(registry.States()).To(HaveLen(5))
		for i := 5; i < goroutines; i++ {
			Expect(seen[i]).To(BeIdenticalTo(seen[i%5]))
		}
	})
})
