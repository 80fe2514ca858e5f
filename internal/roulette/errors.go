package roulette

import "errors"

// ErrInvalidArgument marks configuration errors: out-of-range indices,
// invalid street starts, duplicate dozens, negative amounts and the like.
var ErrInvalidArgument = errors.New("invalid argument")
