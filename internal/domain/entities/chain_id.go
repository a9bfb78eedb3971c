package entities

import (
	"math/big"
	"strings"
)

// SepoliaChainID is the default target network for the rewards token.
const SepoliaChainID ChainID = "11155111"

// ChainID is the canonical decimal-string form of an EVM chain id.
// The zero value means the id was absent or malformed.
type ChainID string

// IsZero reports whether the chain id is absent.
func (c ChainID) IsZero() bool {
	return c == ""
}

func (c ChainID) String() string {
	return string(c)
}

// CAIP2 returns the "eip155:<id>" form used by the identity provider.
func (c ChainID) CAIP2() string {
	if c.IsZero() {
		return ""
	}
	return "eip155:" + string(c)
}

// BigInt returns the chain id as a big integer, or nil when absent.
func (c ChainID) BigInt() *big.Int {
	if c.IsZero() {
		return nil
	}
	v, ok := new(big.Int).SetString(string(c), 10)
	if !ok {
		return nil
	}
	return v
}

// ParseChainID normalizes the textual chain id representations seen on
// account records: "11155111", "eip155:11155111" and " 11155111 ".
// Anything else yields the zero ChainID and false.
func ParseChainID(raw string) (ChainID, bool) {
	value := strings.TrimSpace(raw)
	if idx := strings.LastIndex(value, ":"); idx >= 0 {
		if idx == 0 {
			return "", false
		}
		value = strings.TrimSpace(value[idx+1:])
	}
	if value == "" {
		return "", false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	n, ok := new(big.Int).SetString(value, 10)
	if !ok || n.Sign() <= 0 {
		return "", false
	}
	return ChainID(n.String()), true
}

// ChainIDFromUint64 converts a numeric chain id.
func ChainIDFromUint64(v uint64) ChainID {
	if v == 0 {
		return ""
	}
	return ChainID(new(big.Int).SetUint64(v).String())
}

// ChainIDFromBig converts a chain id reported by an RPC endpoint.
func ChainIDFromBig(v *big.Int) ChainID {
	if v == nil || v.Sign() <= 0 {
		return ""
	}
	return ChainID(v.String())
}
