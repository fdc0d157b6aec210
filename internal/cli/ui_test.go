package cli

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/briandowns/spinner"

	"github.com/agbru/fxtree/internal/fixed"
	"github.com/agbru/fxtree/internal/reduction"
	"github.com/agbru/fxtree/internal/testutil"
	"github.com/agbru/fxtree/internal/tree"
	"github.com/agbru/fxtree/internal/ui"
)

// MockSpinner for testing
type MockSpinner struct {
	mu      sync.Mutex
	started bool
	stopped bool
	suffix  string
}

func (m *MockSpinner) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = true
}

func (m *MockSpinner) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
}

func (m *MockSpinner) UpdateSuffix(suffix string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suffix = suffix
}

func sampleResult() reduction.Result {
	return reduction.Result{
		Value:    fixed.MustNew(71, 40482624000, -3942432000),
		Format:   fixed.Format{Width: 71},
		Backend:  "emulator",
		Duration: 3 * time.Millisecond,
	}
}

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{500 * time.Nanosecond, "0µs"}, // Truncates
		{1500 * time.Nanosecond, "1µs"},
		{999 * time.Microsecond, "999µs"},
		{1001 * time.Microsecond, "1ms"},
		{2 * time.Second, "2s"},
	}

	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.expected {
			t.Errorf("FormatExecutionDuration(%v) = %s; want %s", tt.d, got, tt.expected)
		}
	}
}

func TestProgressBar(t *testing.T) {
	t.Parallel()
	tests := []struct {
		progress float64
		length   int
		want     string
	}{
		{0.0, 10, "░░░░░░░░░░"},
		{0.5, 10, "█████░░░░░"},
		{1.0, 10, "██████████"},
		{1.2, 10, "██████████"},  // Cap at 1.0
		{-0.1, 10, "░░░░░░░░░░"}, // Floor at 0.0
	}

	for _, tt := range tests {
		if got := progressBar(tt.progress, tt.length); got != tt.want {
			t.Errorf("progressBar(%f, %d) = %s; want %s", tt.progress, tt.length, got, tt.want)
		}
	}
}

func TestDisplayResult(t *testing.T) {
	ui.InitTheme(false)

	var buf bytes.Buffer
	DisplayResult(sampleResult(), true, &buf)
	output := testutil.StripANSI(buf.String())
	for _, s := range []string{
		"Result: (40482624000,-3942432000)  FixedComplex(71)",
		"Detailed result analysis",
		"Reduction time   : 3ms on emulator",
		"Real part        : 40,482,624,000",
		"Imaginary part   : -3,942,432,000",
		"Significant bits : 37 of 71",
	} {
		if !strings.Contains(output, s) {
			t.Errorf("Expected output to contain %q, but got:\n%s", s, output)
		}
	}
}

func TestDisplayGraph(t *testing.T) {
	ui.InitTheme(true)
	var buf bytes.Buffer
	DisplayGraph(testutil.Graph(8, 8), &buf)
	output := buf.String()
	for _, s := range []string{"--- Reduction plan ---", "tree N=8 K=3", "7 multiplications over 3 layers."} {
		if !strings.Contains(output, s) {
			t.Errorf("Expected output to contain %q, got:\n%s", s, output)
		}
	}
}

func TestDisplayLayers(t *testing.T) {
	ui.InitTheme(true)
	g := testutil.Graph(8, 8)
	trace, err := tree.Trace(g, testutil.SampleInputs())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	DisplayLayers(trace, &buf)
	output := buf.String()
	for _, s := range []string{
		"layer 1 FixedComplex(17): (-150,200) (-480,320) (87,84) (1856,1412)",
		"layer 2 FixedComplex(35): (8000,-144000) (42864,278748)",
		"layer 3 FixedComplex(71): (40482624000,-3942432000)",
	} {
		if !strings.Contains(output, s) {
			t.Errorf("Expected output to contain %q, got:\n%s", s, output)
		}
	}

	wide := testutil.Graph(2, 16)
	inputs := make([]fixed.Complex, 16)
	for i := range inputs {
		inputs[i] = fixed.MustNew(2, 1, 0)
	}
	trace, err = tree.Trace(wide, inputs)
	if err != nil {
		t.Fatal(err)
	}
	buf.Reset()
	DisplayLayers(trace, &buf)
	if !strings.Contains(buf.String(), "... (8 more)") {
		t.Errorf("Expected layer 0 to be elided, got:\n%s", buf.String())
	}
}

func TestRealSpinner(t *testing.T) {
	t.Parallel()
	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(io.Discard))
	rs := &realSpinner{s}

	// Just verify these methods don't panic
	rs.Start()
	rs.UpdateSuffix(" test")
	rs.Stop()
}

func TestDisplayProgress(t *testing.T) {
	originalNewSpinner := newSpinner
	defer func() { newSpinner = originalNewSpinner }()

	mockS := &MockSpinner{}
	newSpinner = func(options ...spinner.Option) Spinner {
		return mockS
	}

	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan reduction.ProgressUpdate)
	var out bytes.Buffer

	go func() {
		for i := 0; i <= 3; i++ {
			progressChan <- reduction.ProgressUpdate{ReducerIndex: 0, Value: float64(i) / 3}
			time.Sleep(80 * time.Millisecond)
		}
		close(progressChan)
	}()

	DisplayProgress(&wg, progressChan, 1, &out)
	wg.Wait()

	mockS.mu.Lock()
	defer mockS.mu.Unlock()
	if !mockS.started {
		t.Error("Spinner should have started")
	}
	if !mockS.stopped {
		t.Error("Spinner should have stopped")
	}
	if !strings.Contains(out.String(), "Progress: 100.00%") {
		t.Errorf("Expected final progress line, got %q", out.String())
	}
}

func TestDisplayProgress_ZeroReducers(t *testing.T) {
	var wg sync.WaitGroup
	wg.Add(1)
	progressChan := make(chan reduction.ProgressUpdate, 1)
	progressChan <- reduction.ProgressUpdate{}
	close(progressChan)

	DisplayProgress(&wg, progressChan, 0, io.Discard)
	wg.Wait()
}

func TestPrintExecutionMode(t *testing.T) {
	ui.InitTheme(true)
	tests := []struct {
		names []string
		want  string
	}{
		{nil, "No backend"},
		{[]string{"emulator"}, "Single reduction on the emulator backend"},
		{[]string{"emulator", "parallel"}, "Parallel comparison of 2 backends"},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		PrintExecutionMode(tt.names, &buf)
		if !strings.Contains(buf.String(), tt.want) {
			t.Errorf("PrintExecutionMode(%v) = %q, want %q", tt.names, buf.String(), tt.want)
		}
	}
}

func TestDisplayCheck(t *testing.T) {
	ui.InitTheme(true)
	want := fixed.MustNew(64, 40482624000, -3942432000)

	var buf bytes.Buffer
	if !DisplayCheck(want, sampleResult().Value, &buf) {
		t.Error("Expected equal values to pass regardless of width")
	}
	if !strings.HasSuffix(buf.String(), "PASSED\n") {
		t.Errorf("Expected PASSED, got %q", buf.String())
	}

	buf.Reset()
	if DisplayCheck(fixed.MustNew(12, 1313, 2016), sampleResult().Value, &buf) {
		t.Error("Expected different values to fail")
	}
	if !strings.Contains(buf.String(), "Expected: (1313,2016)") || !strings.HasSuffix(buf.String(), "FAILED\n") {
		t.Errorf("Unexpected check output %q", buf.String())
	}
}
