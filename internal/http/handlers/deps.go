package handlers

import (
	"sync"

	"cargobooking/internal/cache"
	intdb "cargobooking/internal/db"
	"cargobooking/internal/events"
	"cargobooking/internal/http/middleware"
	"cargobooking/internal/services"
	"cargobooking/internal/storage"

	"github.com/gin-gonic/gin"
)

// Deps holds the shared collaborators booking handlers build their services from.
type Deps struct {
	Caps          *intdb.CapabilityStore
	Cache         *cache.BookingCache
	Events        events.Publisher
	Receipts      storage.ReceiptStore
	ElevatedRoles []string
}

var (
	depsMu sync.RWMutex
	deps   Deps
)

// SetDeps installs the collaborators used by every booking handler.
func SetDeps(d Deps) {
	depsMu.Lock()
	defer depsMu.Unlock()
	if d.Caps == nil {
		d.Caps = intdb.NewCapabilityStore(intdb.Capabilities{})
	}
	if d.Events == nil {
		d.Events = events.NopPublisher{}
	}
	deps = d
}

func currentDeps() Deps {
	depsMu.RLock()
	defer depsMu.RUnlock()
	return deps
}

func bookingService(c *gin.Context) services.BookingService {
	d := currentDeps()
	return services.BookingService{
		Caps:          d.Caps,
		Cache:         d.Cache,
		Events:        d.Events,
		Receipts:      d.Receipts,
		ElevatedRoles: d.ElevatedRoles,
		RequestID:     middleware.GetRequestID(c),
	}
}

func queryService(c *gin.Context) services.QueryService {
	d := currentDeps()
	return services.QueryService{
		Caps:      d.Caps,
		Cache:     d.Cache,
		RequestID: middleware.GetRequestID(c),
	}
}
