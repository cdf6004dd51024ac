package service

import (
	"sort"
	"strings"

	"github.com/corollary/warehouse/internal/core/domain"
)

// NormalizeName maps case variants of a product name to one logical key.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// StockIndex is the in-memory product index: name to quantity and durable
// product id. Source of truth is the Store; the engine keeps the two in sync
// under its own lock, so StockIndex itself is not safe for concurrent use.
type StockIndex struct {
	byName map[string]*domain.Product
	nextID int64
}

func NewStockIndex() *StockIndex {
	return &StockIndex{byName: make(map[string]*domain.Product), nextID: 1}
}

// Load seeds the index from durable rows and advances the id counter to
// max(existing ids) + 1.
func (ix *StockIndex) Load(products []domain.Product) {
	for _, p := range products {
		p.Name = NormalizeName(p.Name)
		cp := p
		ix.byName[cp.Name] = &cp
		if cp.ID >= ix.nextID {
			ix.nextID = cp.ID + 1
		}
	}
}

// NextID returns the identifier the next created product will receive.
func (ix *StockIndex) NextID() int64 { return ix.nextID }

func (ix *StockIndex) Get(name string) int {
	if p, ok := ix.byName[NormalizeName(name)]; ok {
		return p.Quantity
	}
	return 0
}

func (ix *StockIndex) Lookup(name string) (domain.Product, bool) {
	if p, ok := ix.byName[NormalizeName(name)]; ok {
		return *p, true
	}
	return domain.Product{}, false
}

// Set overrides the quantity, creating the product if unknown.
func (ix *StockIndex) Set(name string, quantity int, locationID int64) domain.Product {
	key := NormalizeName(name)
	p, ok := ix.byName[key]
	if !ok {
		p = &domain.Product{ID: ix.nextID, Name: key, LocationID: locationID}
		ix.nextID++
		ix.byName[key] = p
	}
	p.Quantity = quantity
	return *p
}

// Upsert adds amount to the product's quantity, creating it if unknown.
// The returned bool reports whether the product was created.
func (ix *StockIndex) Upsert(name string, amount int, locationID int64) (domain.Product, bool) {
	key := NormalizeName(name)
	p, ok := ix.byName[key]
	if !ok {
		p = &domain.Product{ID: ix.nextID, Name: key, Quantity: amount, LocationID: locationID}
		ix.nextID++
		ix.byName[key] = p
		return *p, true
	}
	p.Quantity += amount
	return *p, false
}

// Increment adds amount to the product's quantity, creating the product if
// unknown. Unlike Upsert it does not report the creation.
func (ix *StockIndex) Increment(name string, amount int, locationID int64) domain.Product {
	p, _ := ix.Upsert(name, amount, locationID)
	return p
}

// Decrement removes amount from the product's quantity. The check and the
// mutation are one step: on ErrInsufficientStock nothing changes.
func (ix *StockIndex) Decrement(name string, amount int) (domain.Product, error) {
	p, ok := ix.byName[NormalizeName(name)]
	if !ok {
		return domain.Product{}, domain.ErrNotFound
	}
	if p.Quantity < amount {
		return domain.Product{}, domain.ErrInsufficientStock
	}
	p.Quantity -= amount
	return *p, nil
}

// Remove destroys the product entry, returning the last observed row.
func (ix *StockIndex) Remove(name string) (domain.Product, bool) {
	key := NormalizeName(name)
	p, ok := ix.byName[key]
	if !ok {
		return domain.Product{}, false
	}
	delete(ix.byName, key)
	return *p, true
}

// Products returns the current entries ordered by id.
func (ix *StockIndex) Products() []domain.Product {
	out := make([]domain.Product, 0, len(ix.byName))
	for _, p := range ix.byName {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
