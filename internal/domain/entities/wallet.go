package entities

// ResolvedWallet is the embedded wallet picked for the current request.
type ResolvedWallet struct {
	Address    string  `json:"address"`
	ChainID    ChainID `json:"chainId"`
	WalletType string  `json:"walletType,omitempty"`
}
