//go:build !gmp

package gmp

import (
	"errors"
	"testing"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
)

func TestUnavailableWithoutBuildTag(t *testing.T) {
	t.Parallel()
	_, err := backend.New(Name)
	if !apperrors.IsBackendUnavailable(err) {
		t.Fatalf("expected BackendUnavailableError, got %v", err)
	}
	if !errors.Is(err, ErrNotBuilt) {
		t.Errorf("expected the cause to be ErrNotBuilt, got %v", err)
	}
}
