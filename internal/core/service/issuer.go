package service

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const digits = "0123456789"

// IdentifierIssuer mints fixed-length decimal order identifiers, retrying
// until the candidate is unique against every identifier seen this session
// and every identifier already in the ledger (seeded via MarkUsed at
// startup). A requester keeps the same identifier for retried requests until
// the order reaches its terminal status.
//
// With the default length of 8 the decimal space holds 10^8 identifiers, so
// the retry bound of 100 attempts is effectively never hit below millions of
// orders; both knobs are configurable for other volumes.
type IdentifierIssuer struct {
	length      int
	maxAttempts int
	issued      map[string]struct{}
	byRequester map[string]string
	requesterOf map[string]string
}

func NewIdentifierIssuer(length, maxAttempts int) *IdentifierIssuer {
	if length <= 0 {
		length = 8
	}
	if maxAttempts <= 0 {
		maxAttempts = 100
	}
	return &IdentifierIssuer{
		length:      length,
		maxAttempts: maxAttempts,
		issued:      make(map[string]struct{}),
		byRequester: make(map[string]string),
		requesterOf: make(map[string]string),
	}
}

// MarkUsed records an identifier that must never be minted again.
func (iss *IdentifierIssuer) MarkUsed(id string) {
	iss.issued[id] = struct{}{}
}

// Issue returns the identifier for requester, minting one on first use.
func (iss *IdentifierIssuer) Issue(requester string) (string, error) {
	if id, ok := iss.byRequester[requester]; ok {
		return id, nil
	}

	for attempt := 0; attempt < iss.maxAttempts; attempt++ {
		id := iss.randomID()
		if _, taken := iss.issued[id]; taken {
			continue
		}
		iss.issued[id] = struct{}{}
		iss.byRequester[requester] = id
		iss.requesterOf[id] = requester
		return id, nil
	}
	return "", fmt.Errorf("identifier space exhausted after %d attempts", iss.maxAttempts)
}

// Consume marks an identifier's order terminal: the requester gets a fresh
// identifier next time. The id itself stays burned for the session.
func (iss *IdentifierIssuer) Consume(id string) {
	if requester, ok := iss.requesterOf[id]; ok {
		delete(iss.requesterOf, id)
		if iss.byRequester[requester] == id {
			delete(iss.byRequester, requester)
		}
	}
}

func (iss *IdentifierIssuer) randomID() string {
	var b strings.Builder
	b.Grow(iss.length)
	for i := 0; i < iss.length; i++ {
		b.WriteByte(digits[rand.IntN(len(digits))])
	}
	return b.String()
}
