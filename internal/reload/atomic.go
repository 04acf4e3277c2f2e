package reload

import (
	"sync/atomic"

	"filemock/internal/mockfs"
)

// atomicTable is a thin wrapper over atomic.Pointer[mockfs.RouteTable]
// so Coordinator's field declaration stays readable.
type atomicTable struct {
	ptr atomic.Pointer[mockfs.RouteTable]
}

func (a *atomicTable) Load() *mockfs.RouteTable { return a.ptr.Load() }
func (a *atomicTable) Store(t *mockfs.RouteTable) { a.ptr.Store(t) }
