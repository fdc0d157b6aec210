// Package ui selects the color theme of the CLI report from the -no-color
// flag, the NO_COLOR and FXTREE_THEME variables and whether the output is a
// terminal.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"
)

// ThemeEnvVar selects the theme ("dark", "light" or "none") when colors are enabled.
const ThemeEnvVar = "FXTREE_THEME"

// Theme maps the roles of the CLI report to ANSI escape codes.
type Theme struct {
	Name string
	// Primary colors backend names.
	Primary string
	// Secondary colors values, widths and the device.
	Secondary string
	// Success colors PASSED and successful backends.
	Success string
	// Warning colors durations and hints.
	Warning string
	// Error colors FAILED, mismatches and failed backends.
	Error string
	// Info colors batch sizes and layer formats.
	Info      string
	Bold      string
	Underline string
	Reset     string
}

// ansi256 returns the escape code of a 256-color foreground.
func ansi256(code int) string { return fmt.Sprintf("\033[38;5;%dm", code) }

var (
	// DarkTheme suits dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   ansi256(39),
		Secondary: ansi256(245),
		Success:   ansi256(82),
		Warning:   ansi256(220),
		Error:     ansi256(196),
		Info:      ansi256(141),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// LightTheme suits light terminal backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   ansi256(27),
		Secondary: ansi256(240),
		Success:   ansi256(28),
		Warning:   ansi256(130),
		Error:     ansi256(124),
		Info:      ansi256(54),
		Bold:      "\033[1m",
		Underline: "\033[4m",
		Reset:     "\033[0m",
	}

	// NoColorTheme emits no escape codes. It is selected by -no-color,
	// NO_COLOR, or output that is not a terminal.
	NoColorTheme = Theme{Name: "none"}

	// currentTheme is the active theme used throughout the application.
	// Defaults to DarkTheme but can be changed via SetTheme or InitTheme.
	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the currently active theme in a thread-safe manner.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme sets the currently active theme in a thread-safe manner.
// This is primarily used for testing purposes to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme changes the active theme by name.
// Valid names are: "dark", "light", "none".
// Unknown names default to dark theme.
//
// Parameters:
//   - name: The name of the theme to activate.
func SetTheme(name string) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = themeByName(name)
}

// InitTheme initializes the theme based on the noColor flag and environment.
// It respects the NO_COLOR environment variable (https://no-color.org/) for
// accessibility. If noColor is true or NO_COLOR is set, colors are disabled.
//
// Parameters:
//   - noColor: If true, disables all color output regardless of environment.
func InitTheme(noColor bool) {
	themeMutex.Lock()
	defer themeMutex.Unlock()

	// Check --no-color flag first
	if noColor {
		currentTheme = NoColorTheme
		return
	}

	// Check NO_COLOR environment variable
	// Any non-empty value disables colors (per no-color.org spec)
	if _, exists := os.LookupEnv("NO_COLOR"); exists {
		currentTheme = NoColorTheme
		return
	}

	currentTheme = themeByName(os.Getenv(ThemeEnvVar))
}

// InitThemeFor initializes the theme for output written to f. Colors are
// disabled when f is not a terminal, in addition to the rules of InitTheme.
//
// Parameters:
//   - noColor: If true, disables all color output regardless of environment.
//   - f: The file the application writes its report to (typically os.Stdout).
func InitThemeFor(noColor bool, f *os.File) {
	InitTheme(noColor || !IsTerminal(f))
}

// IsTerminal reports whether f is attached to a terminal, including Cygwin
// and MSYS pseudo-terminals.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func themeByName(name string) Theme {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "light":
		return LightTheme
	case "none":
		return NoColorTheme
	default:
		return DarkTheme
	}
}
