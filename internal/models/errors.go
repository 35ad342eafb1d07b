package models

import "errors"

// Custom errors
var (
	// ErrUnresolvedIdentity means a name could not be mapped to a canonical team.
	// Callers skip or flag the record.
	ErrUnresolvedIdentity = errors.New("unresolved team identity")
	// ErrRegistryIntegrity is fatal: nothing downstream may run on the registry.
	ErrRegistryIntegrity = errors.New("registry integrity violation")
	// ErrInsufficientData marks a lookup that fell back to a documented default.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrEvidenceExhausted marks a starter pick produced by the terminal tier.
	ErrEvidenceExhausted = errors.New("starter evidence exhausted")
	// ErrInvalidMarketInput marks a market probability that is missing or outside (0,1).
	ErrInvalidMarketInput = errors.New("invalid market input")
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateKey       = errors.New("duplicate key violation")
)
