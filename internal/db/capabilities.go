package db

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	BookingsTable   = "bookings"
	ContainersTable = "booking_containers"
)

// Capabilities describes which optional structures of the booking schema are present.
// It is plain data: resolve it once, then pass copies around.
type Capabilities struct {
	HasContainerTable        bool `json:"has_container_table"`
	HasPerContainerLocations bool `json:"has_per_container_locations"`
	ContainerTypeNullable    bool `json:"container_type_nullable"`
	HasLegacyColumns         bool `json:"has_legacy_columns"`
}

// capability flag names accepted by ParseCapabilities.
const (
	FlagContainerTable        = "container_table"
	FlagPerContainerLocations = "per_container_locations"
	FlagNullableType          = "nullable_type"
	FlagLegacyColumns         = "legacy_columns"
)

// DetectCapabilities probes information_schema for the optional booking structures.
// Per-container location columns and type nullability are only probed when the
// container table exists. Any failed lookup aborts detection with an error.
func DetectCapabilities(ctx context.Context, q QueryRower) (Capabilities, error) {
	var caps Capabilities
	var err error

	if caps.HasContainerTable, err = HasTable(ctx, q, ContainersTable); err != nil {
		return Capabilities{}, err
	}
	if caps.HasContainerTable {
		if caps.HasPerContainerLocations, err = hasColumns(ctx, q, ContainersTable, "from_location_id", "to_location_id"); err != nil {
			return Capabilities{}, err
		}
		if caps.ContainerTypeNullable, err = ColumnNullable(ctx, q, ContainersTable, "type"); err != nil {
			return Capabilities{}, err
		}
	}
	if caps.HasLegacyColumns, err = hasColumns(ctx, q, BookingsTable, "container_type", "container_number"); err != nil {
		return Capabilities{}, err
	}
	return caps, nil
}

// hasColumns reports whether every column exists, stopping at the first missing one.
func hasColumns(ctx context.Context, q QueryRower, table string, columns ...string) (bool, error) {
	for _, col := range columns {
		ok, err := HasColumn(ctx, q, table, col)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ParseCapabilities reads a static declaration such as
// "container_table,per_container_locations". An empty string declares nothing.
func ParseCapabilities(raw string) (Capabilities, error) {
	var caps Capabilities
	for _, part := range strings.Split(raw, ",") {
		flag := strings.ToLower(strings.TrimSpace(part))
		switch flag {
		case "":
			continue
		case FlagContainerTable:
			caps.HasContainerTable = true
		case FlagPerContainerLocations:
			caps.HasPerContainerLocations = true
		case FlagNullableType:
			caps.ContainerTypeNullable = true
		case FlagLegacyColumns:
			caps.HasLegacyColumns = true
		default:
			return Capabilities{}, fmt.Errorf("capability tidak dikenal: %q", flag)
		}
	}
	if !caps.HasContainerTable && (caps.HasPerContainerLocations || caps.ContainerTypeNullable) {
		return Capabilities{}, fmt.Errorf("%s dan %s butuh %s", FlagPerContainerLocations, FlagNullableType, FlagContainerTable)
	}
	return caps, nil
}

// String renders the capabilities in the ParseCapabilities format.
func (c Capabilities) String() string {
	flags := []string{}
	if c.HasContainerTable {
		flags = append(flags, FlagContainerTable)
	}
	if c.HasPerContainerLocations {
		flags = append(flags, FlagPerContainerLocations)
	}
	if c.ContainerTypeNullable {
		flags = append(flags, FlagNullableType)
	}
	if c.HasLegacyColumns {
		flags = append(flags, FlagLegacyColumns)
	}
	sort.Strings(flags)
	return strings.Join(flags, ",")
}

// CapabilityStore holds the capabilities resolved at startup. Readers take a
// copy with Load and keep it for the whole operation.
type CapabilityStore struct {
	mu   sync.RWMutex
	caps Capabilities
}

func NewCapabilityStore(caps Capabilities) *CapabilityStore {
	return &CapabilityStore{caps: caps}
}

// Load returns a copy of the current capabilities. A nil store reports none.
func (s *CapabilityStore) Load() Capabilities {
	if s == nil {
		return Capabilities{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.caps
}

func (s *CapabilityStore) Store(caps Capabilities) {
	s.mu.Lock()
	s.caps = caps
	s.mu.Unlock()
}

// Refresh re-probes the live schema and stores the result. On a failed lookup
// the previous capabilities stay in effect and the error is returned.
func (s *CapabilityStore) Refresh(ctx context.Context, q QueryRower) (Capabilities, error) {
	caps, err := DetectCapabilities(ctx, q)
	if err != nil {
		return s.Load(), err
	}
	s.Store(caps)
	return caps, nil
}

// ResolveCapabilities turns the SCHEMA_CAPABILITIES setting into capabilities:
// "detect" (or empty) probes q, anything else is parsed as a static flag list.
func ResolveCapabilities(ctx context.Context, q QueryRower, setting string) (Capabilities, error) {
	setting = strings.TrimSpace(setting)
	if setting == "" || strings.EqualFold(setting, "detect") {
		return DetectCapabilities(ctx, q)
	}
	if strings.EqualFold(setting, "none") {
		return Capabilities{}, nil
	}
	return ParseCapabilities(setting)
}
