//go:build !gmp

package gmp

import (
	"errors"

	"github.com/agbru/fxtree/internal/backend"
	apperrors "github.com/agbru/fxtree/internal/errors"
)

// ErrNotBuilt is the cause reported when the binary was built without GMP.
var ErrNotBuilt = errors.New("binary built without the gmp build tag")

func init() {
	backend.Register(Name, description, func(string) (backend.Backend, error) {
		return nil, apperrors.NewBackendUnavailableError(Name, ErrNotBuilt)
	})
}
