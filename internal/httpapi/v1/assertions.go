package v1

import "github.com/tinoosan/wealth/internal/storage/memory"

// Compile-time assertion for the in-memory Store against the readiness probe.
var _ ReadyChecker = (*memory.Store)(nil)
