package compute

import (
	"fmt"
	"sort"
)

// Backend runs row-partitioned lattice work.
type Backend interface {
	Name() string
	// Rows calls fn over disjoint [lo, hi) ranges that together cover
	// [0, n). fn must only write data owned by its rows.
	Rows(n int, fn func(lo, hi int))
}

// activeBackend is what new coupling engines pick up. Stepping is
// single-threaded unless a caller opts into the CPU backend.
var activeBackend Backend = Serial{}

var backends = map[string]func() Backend{
	"serial": func() Backend { return Serial{} },
	"cpu":    func() Backend { return NewCPUBackend() },
}

// ParseBackend returns a fresh backend by name.
func ParseBackend(name string) (Backend, error) {
	build, ok := backends[name]
	if !ok {
		return nil, fmt.Errorf("unknown compute backend: %s", name)
	}
	return build(), nil
}

func BackendNames() []string {
	names := make([]string, 0, len(backends))
	for n := range backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func SetBackend(b Backend) {
	if b == nil {
		b = Serial{}
	}
	activeBackend = b
}

func GetBackend() Backend {
	return activeBackend
}

// Serial runs every range on the calling goroutine.
type Serial struct{}

func (Serial) Name() string { return "serial" }

func (Serial) Rows(n int, fn func(lo, hi int)) {
	if n > 0 {
		fn(0, n)
	}
}
