package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

const (
	// CurrentProfileVersion is the current version of the profile format.
	// Increment this when making breaking changes to the profile structure.
	CurrentProfileVersion = 1

	// DefaultProfileFileName is the default name for the calibration profile file.
	DefaultProfileFileName = ".fxtree_calibration.json"
)

// Profile stores the result of a calibration run together with the hardware
// it was measured on, so that a profile copied to another machine is ignored.
type Profile struct {
	// Hardware identification
	NumCPU    int    `json:"num_cpu"`
	GOARCH    string `json:"goarch"`
	GOOS      string `json:"goos"`
	GoVersion string `json:"go_version"`

	// Threshold is the fastest parallel threshold, in pairs per layer.
	Threshold int `json:"threshold"`

	// Shape of the batch that was timed.
	InputWidth int `json:"input_width"`
	BatchSize  int `json:"batch_size"`

	CalibratedAt    time.Time `json:"calibrated_at"`
	CalibrationTime string    `json:"calibration_time"`

	ProfileVersion int `json:"profile_version"`
}

// DefaultProfilePath returns the default path for the calibration profile.
// It uses the user's home directory if available, otherwise the current directory.
func DefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// NewProfile creates a Profile with the current hardware info.
func NewProfile() *Profile {
	return &Profile{
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		CalibratedAt:   time.Now(),
		ProfileVersion: CurrentProfileVersion,
	}
}

// LoadProfile loads a calibration profile from path, or from the default path
// when path is empty.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		path = DefaultProfilePath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	return &profile, nil
}

// Save writes the profile to path, or to the default path when path is empty.
func (p *Profile) Save(path string) error {
	if path == "" {
		path = DefaultProfilePath()
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// IsValid reports whether the profile was measured with the current format
// on hardware like this one, and holds a usable threshold.
func (p *Profile) IsValid() bool {
	if p == nil {
		return false
	}
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == runtime.NumCPU() &&
		p.GOARCH == runtime.GOARCH &&
		p.Threshold == ClampThreshold(p.Threshold)
}

// IsStale checks if the profile is older than maxAge.
func (p *Profile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

// String returns a human-readable summary of the profile.
func (p *Profile) String() string {
	if p == nil {
		return "<nil profile>"
	}
	return fmt.Sprintf("Profile{CPU: %s-%d-cores, Threshold: %d pairs, Batch: %d x FixedComplex(%d), Calibrated: %s}",
		p.GOARCH, p.NumCPU, p.Threshold, p.BatchSize, p.InputWidth, p.CalibratedAt.Format(time.RFC3339))
}
