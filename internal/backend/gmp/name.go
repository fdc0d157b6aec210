package gmp

// Name is the registry name of the backend.
const Name = "gmp"

const description = "GMP arbitrary-precision integers (requires -tags=gmp and libgmp)"
