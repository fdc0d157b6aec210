package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agbru/fxtree/internal/testutil"
	"github.com/agbru/fxtree/internal/ui"
)

// Golden tests for CLI output.
// We store expected output string literals here to verify exact formatting.

func TestDisplayResult_Golden(t *testing.T) {
	ui.InitTheme(true) // Disable colors for deterministic output

	res := sampleResult()
	tests := []struct {
		name     string
		details  bool
		zero     bool
		expected string
	}{
		{
			name:     "Simple Result",
			expected: "Result: (40482624000,-3942432000)  FixedComplex(71)\n",
		},
		{
			name:    "Detailed Result",
			details: true,
			zero:    true,
			expected: "Result: (40482624000,-3942432000)  FixedComplex(71)\n" +
				"\n--- Detailed result analysis ---\n" +
				"Reduction time   : < 1µs on emulator\n" +
				"Real part        : 40,482,624,000\n" +
				"Imaginary part   : -3,942,432,000\n" +
				"Significant bits : 37 of 71\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := res
			if tt.zero {
				r.Duration = 0
			}
			var buf bytes.Buffer
			DisplayResult(r, tt.details, &buf)
			if got := buf.String(); got != tt.expected {
				t.Errorf("Golden mismatch for %s.\nWant:\n%q\nGot:\n%q", tt.name, tt.expected, got)
			}
		})
	}
}

func TestDisplayQuietResult_Golden(t *testing.T) {
	var buf bytes.Buffer
	DisplayQuietResult(&buf, sampleResult())
	if expected := testutil.SampleProduct + "\n"; buf.String() != expected {
		t.Errorf("Golden mismatch quiet. Want %q, Got %q", expected, buf.String())
	}
}

func TestReportJSON_Golden(t *testing.T) {
	report := NewReport(sampleResult(), testutil.Graph(8, 8)).WithCheck(testutil.SampleProduct, true)
	var buf bytes.Buffer
	if err := report.WriteJSON(&buf); err != nil {
		t.Fatal(err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON %q: %v", buf.String(), err)
	}
	result := decoded["result"].(map[string]any)
	value := result["value"].(map[string]any)
	if value["re"] != "40482624000" || value["im"] != "-3942432000" {
		t.Errorf("Unexpected value %v", value)
	}
	if decoded["width"].(float64) != 71 || decoded["growth"] != "exact" || decoded["passed"] != true {
		t.Errorf("Unexpected report %v", decoded)
	}
	layers := decoded["layers"].([]any)
	if len(layers) != 4 || layers[3].(float64) != 71 {
		t.Errorf("Unexpected layer widths %v", layers)
	}
}

func TestDisplayResultWithConfig(t *testing.T) {
	ui.InitTheme(true)
	report := NewReport(sampleResult(), testutil.Graph(8, 8))
	dir := t.TempDir()

	t.Run("Quiet", func(t *testing.T) {
		var buf bytes.Buffer
		if err := DisplayResultWithConfig(&buf, report, OutputConfig{Quiet: true}); err != nil {
			t.Fatal(err)
		}
		if buf.String() != testutil.SampleProduct+"\n" {
			t.Errorf("Unexpected quiet output %q", buf.String())
		}
	})

	t.Run("JSON", func(t *testing.T) {
		var buf bytes.Buffer
		if err := DisplayResultWithConfig(&buf, report, OutputConfig{JSON: true}); err != nil {
			t.Fatal(err)
		}
		if !json.Valid(buf.Bytes()) {
			t.Errorf("Expected JSON, got %q", buf.String())
		}
	})

	t.Run("TextFile", func(t *testing.T) {
		path := filepath.Join(dir, "nested", "result.txt")
		var buf bytes.Buffer
		if err := DisplayResultWithConfig(&buf, report, OutputConfig{OutputFile: path}); err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(buf.String(), "Result saved to: "+path) {
			t.Errorf("Expected save notice, got %q", buf.String())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		content := string(data)
		if !strings.Contains(content, "# Backend: emulator") || !strings.HasSuffix(content, testutil.SampleProduct+"\n") {
			t.Errorf("Unexpected file content:\n%s", content)
		}
	})

	t.Run("JSONFile", func(t *testing.T) {
		path := filepath.Join(dir, "result.json")
		if err := WriteResultToFile(report, OutputConfig{OutputFile: path}); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if !json.Valid(data) {
			t.Errorf("Expected JSON file, got %q", data)
		}
	})

	t.Run("NoFile", func(t *testing.T) {
		if err := WriteResultToFile(report, OutputConfig{}); err != nil {
			t.Errorf("Expected no-op, got %v", err)
		}
	})
}
