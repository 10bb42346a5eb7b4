package healthcheck_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/family-classifier/internal/healthcheck"
)

type fakePinger struct {
	mu    sync.Mutex
	err   error
	calls int
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.err
}

func (p *fakePinger) set(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *fakePinger) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

var _ = Describe("Watcher", func() {
	var (
		pinger  *fakePinger
		watcher *healthcheck.Watcher
		log     *slog.Logger
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
		pinger = &fakePinger{}
		watcher = healthcheck.NewWatcher(pinger, "http://localhost:5000", 20*time.Millisecond, log)
	})

	Describe("Check", func() {
		It("should start unknown", func() {
			Expect(watcher.Status().Known).To(BeFalse())
		})

		It("should mark a reachable server as up", func() {
			status := watcher.Check(context.Background())
			Expect(status.Up).To(BeTrue())
			Expect(status.Known).To(BeTrue())
			Expect(status.Checks).To(Equal(1))
			Expect(status.LastError).To(BeEmpty())
		})

		It("should record the failure reason", func() {
			pinger.set(errors.New("connection refused"))

			status := watcher.Check(context.Background())
			Expect(status.Up).To(BeFalse())
			Expect(status.LastError).To(Equal("connection refused"))
		})

		It("should only report transitions", func() {
			var transitions []bool
			watcher.OnChange(func(s healthcheck.Status) {
				transitions = append(transitions, s.Up)
			})

			ctx := context.Background()
			watcher.Check(ctx)
			watcher.Check(ctx)
			pinger.set(errors.New("down"))
			watcher.Check(ctx)
			watcher.Check(ctx)
			pinger.set(nil)
			watcher.Check(ctx)

			Expect(transitions).To(Equal([]bool{true, false, true}))
			Expect(watcher.Status().Checks).To(Equal(5))
		})

		It("should keep Since at the last transition", func() {
			ctx := context.Background()
			first := watcher.Check(ctx)
			time.Sleep(5 * time.Millisecond)
			second := watcher.Check(ctx)

			Expect(second.Since).To(Equal(first.Since))
			Expect(second.LastCheck).To(BeTemporally(">", first.LastCheck))
		})
	})

	Describe("Run", func() {
		It("should poll until the context is cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan struct{})
			go func() {
				defer close(done)
				watcher.Run(ctx)
			}()

			Eventually(pinger.Calls).Should(BeNumerically(">=", 3))
			cancel()
			Eventually(done).Should(BeClosed())
		})

		It("should notice a server going down", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go watcher.Run(ctx)

			Eventually(func() bool { return watcher.Status().Up }).Should(BeTrue())
			pinger.set(errors.New("503"))
			Eventually(func() bool { return watcher.Status().Up }).Should(BeFalse())
		})
	})
})
