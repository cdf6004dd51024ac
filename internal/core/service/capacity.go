package service

import (
	"sort"
	"strings"

	"github.com/corollary/warehouse/internal/core/domain"
)

// CapacityLedger tracks used vs. maximum capacity per storage location.
// Reserve is the admission check: a stock increase commits only after the
// reservation succeeds. Like StockIndex, it relies on the engine's lock.
type CapacityLedger struct {
	byID   map[int64]*domain.StorageLocation
	byName map[string]int64
}

func NewCapacityLedger() *CapacityLedger {
	return &CapacityLedger{
		byID:   make(map[int64]*domain.StorageLocation),
		byName: make(map[string]int64),
	}
}

func (cl *CapacityLedger) Load(locations []domain.StorageLocation) {
	for _, loc := range locations {
		cl.Add(loc)
	}
}

func (cl *CapacityLedger) Add(loc domain.StorageLocation) {
	cp := loc
	cl.byID[cp.ID] = &cp
	cl.byName[strings.ToLower(cp.Name)] = cp.ID
}

func (cl *CapacityLedger) Get(id int64) (domain.StorageLocation, bool) {
	if loc, ok := cl.byID[id]; ok {
		return *loc, true
	}
	return domain.StorageLocation{}, false
}

func (cl *CapacityLedger) GetByName(name string) (domain.StorageLocation, bool) {
	if id, ok := cl.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return *cl.byID[id], true
	}
	return domain.StorageLocation{}, false
}

// Reserve admits amount into the location, failing with ErrCapacityExceeded
// when used + amount would overflow the maximum. On failure nothing changes.
func (cl *CapacityLedger) Reserve(id int64, amount int) error {
	loc, ok := cl.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	if loc.UsedCapacity+amount > loc.MaxCapacity {
		return domain.ErrCapacityExceeded
	}
	loc.UsedCapacity += amount
	return nil
}

// Release returns amount to the location, floored at zero.
func (cl *CapacityLedger) Release(id int64, amount int) {
	loc, ok := cl.byID[id]
	if !ok {
		return
	}
	loc.UsedCapacity -= amount
	if loc.UsedCapacity < 0 {
		loc.UsedCapacity = 0
	}
}

// Locations returns the current entries ordered by id.
func (cl *CapacityLedger) Locations() []domain.StorageLocation {
	out := make([]domain.StorageLocation, 0, len(cl.byID))
	for _, loc := range cl.byID {
		out = append(out, *loc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
