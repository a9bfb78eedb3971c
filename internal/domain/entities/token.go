package entities

import "math/big"

// TokenInfo describes the rewards token contract.
type TokenInfo struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
}

// MintResult is returned after a confirmed mint.
type MintResult struct {
	TransactionHash  string
	RecipientAddress string
	Amount           *big.Int
	// NewBalance is nil when the post-mint balance read failed.
	NewBalance *big.Int
}
