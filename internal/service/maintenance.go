package service

import "sync"

// MaintenanceGate serializes destructive maintenance against rating writes.
// Comparisons hold the shared side; reconciliation holds the exclusive side
// for a whole pass, so no comparison observes a half-merged album.
type MaintenanceGate struct {
	mu sync.RWMutex
}

// NewMaintenanceGate creates an open gate.
func NewMaintenanceGate() *MaintenanceGate {
	return &MaintenanceGate{}
}

// Shared blocks until no maintenance is running and returns the release func.
func (g *MaintenanceGate) Shared() func() {
	g.mu.RLock()
	return g.mu.RUnlock
}

// Exclusive blocks until all in-flight writes finish and returns the
// release func.
func (g *MaintenanceGate) Exclusive() func() {
	g.mu.Lock()
	return g.mu.Unlock
}
