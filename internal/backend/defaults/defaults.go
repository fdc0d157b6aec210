// Package defaults registers every backend shipped with fxtree. Import it for
// its side effects:
//
//	import _ "github.com/agbru/fxtree/internal/backend/defaults"
package defaults

import (
	_ "github.com/agbru/fxtree/internal/backend/compiled"
	_ "github.com/agbru/fxtree/internal/backend/emulator"
	_ "github.com/agbru/fxtree/internal/backend/gmp"
	_ "github.com/agbru/fxtree/internal/backend/parallel"
)
