package dashboard

import "sync"

// Host signals when the dashboard view has mounted. Hooks registered after
// the signal run immediately.
type Host struct {
	mu      sync.Mutex
	mounted bool
	hooks   []func()
}

// NewHost returns an unmounted host.
func NewHost() *Host {
	return &Host{}
}

// OnMounted registers fn to run once the host has mounted.
func (h *Host) OnMounted(fn func()) {
	h.mu.Lock()
	if !h.mounted {
		h.hooks = append(h.hooks, fn)
		h.mu.Unlock()
		return
	}
	h.mu.Unlock()
	fn()
}

// Mounted fires every registered hook once. Later calls are no-ops.
func (h *Host) Mounted() {
	h.mu.Lock()
	if h.mounted {
		h.mu.Unlock()
		return
	}
	h.mounted = true
	hooks := h.hooks
	h.hooks = nil
	h.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
