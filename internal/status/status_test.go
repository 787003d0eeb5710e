package status

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ppiankov/sourcebrief/internal/llm"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeTester struct{ res llm.ConnectionStatus }

func (f fakeTester) TestConnection(context.Context) llm.ConnectionStatus { return f.res }

func TestChecker_AllOperational(t *testing.T) {
	c := NewChecker(fakePinger{}, fakeTester{llm.ConnectionStatus{Success: true, Model: "m", Message: "connected using m"}}, time.Second)
	fixed := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }

	r := c.Check(context.Background())
	if r.Backend.Status != Operational || r.Backend.Timestamp != "2025-05-01T10:00:00Z" {
		t.Errorf("backend = %+v", r.Backend)
	}
	if r.Database.Status != Operational || r.Database.Message != "Connected successfully" {
		t.Errorf("database = %+v", r.Database)
	}
	if r.Generation.Status != Operational || r.Generation.Message != "connected using m" {
		t.Errorf("generation = %+v", r.Generation)
	}
}

func TestChecker_Failures(t *testing.T) {
	c := NewChecker(fakePinger{err: errors.New("connection refused")}, fakeTester{llm.ConnectionStatus{Message: "No available model"}}, 0)

	r := c.Check(context.Background())
	if r.Backend.Status != Operational {
		t.Errorf("backend must stay operational, got %+v", r.Backend)
	}
	if r.Database.Status != Error || r.Database.Message != "connection refused" {
		t.Errorf("database = %+v", r.Database)
	}
	if r.Generation.Status != Error {
		t.Errorf("generation = %+v", r.Generation)
	}
}

func TestChecker_MissingComponentsStayUnknown(t *testing.T) {
	r := NewChecker(nil, nil, 0).Check(context.Background())
	if r.Database.Status != Unknown || r.Generation.Status != Unknown {
		t.Errorf("unexpected report: %+v", r)
	}
}
