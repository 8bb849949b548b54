package common

import "errors"

// Sentinel errors shared by the repositories. Services translate them into
// the stable application error codes at the coordinator boundary.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrVersionConflict = errors.New("stale version, concurrent update detected")
)
