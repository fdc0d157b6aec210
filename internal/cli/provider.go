// Package cli provides command-line interface components for the reduction tool.
// This file provides a color provider implementation for use with the errors package.
package cli

import apperrors "github.com/agbru/fxtree/internal/errors"

// Ensure CLIColorProvider implements apperrors.ColorProvider at compile time.
var _ apperrors.ColorProvider = CLIColorProvider{}

// CLIColorProvider implements apperrors.ColorProvider using CLI theme functions.
// It is exported so that orchestration and the application entry point share
// one implementation.
type CLIColorProvider struct{}

// Yellow returns the warning color code from the current CLI theme.
func (c CLIColorProvider) Yellow() string { return ColorYellow() }

// Red returns the error color code from the current CLI theme.
func (c CLIColorProvider) Red() string { return ColorRed() }

// Reset returns the reset color code from the current CLI theme.
func (c CLIColorProvider) Reset() string { return ColorReset() }
