//go:build !ecsdebug

package ecs

// debugChecks enables slot bounds checks on chunk access. Build with
// -tags ecsdebug to turn them on.
const debugChecks = false
