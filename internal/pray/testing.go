package pray

// WriteCount reports how many mutating operations an in-memory repository has
// committed. Other repositories report -1.
func WriteCount(r Repository) int {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.RLock()
		defer mem.mu.RUnlock()
		return mem.writes
	}
	return -1
}

// DropPrayOnly removes a pray from an in-memory repository while leaving its
// payment record behind, producing an orphaned payment.
func DropPrayOnly(r Repository, id int64) {
	if mem, ok := r.(*memoryRepository); ok {
		mem.mu.Lock()
		defer mem.mu.Unlock()
		delete(mem.prays, id)
	}
}
