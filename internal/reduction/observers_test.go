package reduction

import (
	"bytes"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

func TestProgressSubject(t *testing.T) {
	t.Parallel()
	s := NewProgressSubject()
	ch := make(chan ProgressUpdate, 1)
	id := s.Register(NewChannelObserver(ch))
	if zero := s.Register(nil); zero != 0 {
		t.Errorf("Register(nil) = %d, want the zero Registration", zero)
	}
	s.Register(NewNoOpObserver())
	if s.ObserverCount() != 2 {
		t.Fatalf("ObserverCount() = %d, want 2", s.ObserverCount())
	}

	s.Reporter(2)(1.5)
	if u := <-ch; u.ReducerIndex != 2 || u.Value != 1.0 {
		t.Errorf("unexpected update %+v", u)
	}

	// A full channel drops updates instead of blocking.
	s.Notify(0, 0.1)
	s.Notify(0, 0.2)

	s.Unregister(id)
	if s.ObserverCount() != 1 {
		t.Errorf("ObserverCount() after Unregister = %d, want 1", s.ObserverCount())
	}
	s.Unregister(id)
	s.Unregister(0)
	if s.ObserverCount() != 1 {
		t.Errorf("ObserverCount() after repeated Unregister = %d, want 1", s.ObserverCount())
	}
}

// updateFunc is an observer type that does not support ==.
type updateFunc func(reducerIndex int, progress float64)

func (f updateFunc) Update(reducerIndex int, progress float64) { f(reducerIndex, progress) }

func TestProgressSubjectUncomparableObservers(t *testing.T) {
	t.Parallel()
	s := NewProgressSubject()
	var first, second []float64
	a := s.Register(updateFunc(func(_ int, p float64) { first = append(first, p) }))
	b := s.Register(updateFunc(func(_ int, p float64) { second = append(second, p) }))
	if a == b {
		t.Fatalf("Register returned the same handle %d twice", a)
	}

	s.Notify(0, 0.5)
	s.Unregister(a)
	s.Notify(0, 1)

	if len(first) != 1 || len(second) != 2 {
		t.Errorf("first got %v, second got %v; want 1 and 2 updates", first, second)
	}
	if s.ObserverCount() != 1 {
		t.Errorf("ObserverCount() = %d, want 1", s.ObserverCount())
	}
}

func TestLoggingObserverThrottles(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	o := NewLoggingObserver(zerolog.New(&buf).Level(zerolog.DebugLevel), 0.5)
	for _, p := range []float64{0, 0.25, 0.5, 0.75, 1} {
		o.Update(1, p)
	}
	if n := strings.Count(buf.String(), "reduction progress"); n != 3 {
		t.Errorf("logged %d lines, want 3 (0, 0.5, 1):\n%s", n, buf.String())
	}
}

func TestMetricsObserver(t *testing.T) {
	o := NewMetricsObserver()
	o.ResetMetrics()
	o.Update(7, 0.75)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() != "fxtree_reduction_progress" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "reducer_index" && l.GetValue() == "7" {
					found = m.GetGauge().GetValue() == 0.75
				}
			}
		}
	}
	if !found {
		t.Error("fxtree_reduction_progress{reducer_index=\"7\"} != 0.75")
	}
	o.ResetMetrics()
}
