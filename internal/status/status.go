package status

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/sourcebrief/internal/llm"
)

// Component states
const (
	Operational = "operational"
	Error       = "error"
	Unknown     = "unknown"
)

// Pinger is satisfied by brief stores
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionTester is satisfied by *llm.Generator
type ConnectionTester interface {
	TestConnection(ctx context.Context) llm.ConnectionStatus
}

// BackendStatus describes the running process itself
type BackendStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// ComponentStatus describes a dependency
type ComponentStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Report is the health surface
type Report struct {
	Backend    BackendStatus   `json:"backend"`
	Database   ComponentStatus `json:"database"`
	Generation ComponentStatus `json:"generation"`
}

// Checker probes the store and the generation backend
type Checker struct {
	store     Pinger
	generator ConnectionTester
	timeout   time.Duration
	now       func() time.Time
}

// NewChecker creates a checker. timeout bounds each probe; zero means none.
func NewChecker(store Pinger, generator ConnectionTester, timeout time.Duration) *Checker {
	return &Checker{
		store:     store,
		generator: generator,
		timeout:   timeout,
		now:       time.Now,
	}
}

// Check runs both probes concurrently. Probe failures are reported, not returned.
func (c *Checker) Check(ctx context.Context) Report {
	r := Report{
		Backend: BackendStatus{
			Status:    Operational,
			Timestamp: c.now().UTC().Format(time.RFC3339Nano),
		},
		Database:   ComponentStatus{Status: Unknown},
		Generation: ComponentStatus{Status: Unknown},
	}

	g, gctx := errgroup.WithContext(ctx)

	if c.store != nil {
		g.Go(func() error {
			pctx, cancel := c.probeContext(gctx)
			defer cancel()
			if err := c.store.Ping(pctx); err != nil {
				r.Database = ComponentStatus{Status: Error, Message: err.Error()}
				return nil
			}
			r.Database = ComponentStatus{Status: Operational, Message: "Connected successfully"}
			return nil
		})
	}

	if c.generator != nil {
		g.Go(func() error {
			pctx, cancel := c.probeContext(gctx)
			defer cancel()
			res := c.generator.TestConnection(pctx)
			st := Error
			if res.Success {
				st = Operational
			}
			r.Generation = ComponentStatus{Status: st, Message: res.Message}
			return nil
		})
	}

	_ = g.Wait()
	return r
}

func (c *Checker) probeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}
