package entities

import "time"

// Linked account types as reported by the identity provider.
const (
	AccountTypeWallet = "wallet"
	AccountTypeEmail  = "email"
	AccountTypePhone  = "phone"

	ChainTypeEthereum = "ethereum"

	// WalletClientTypeEmbedded marks a wallet created and custodied by the
	// identity provider, as opposed to one the user brought along.
	WalletClientTypeEmbedded = "privy"
)

// Identity is a verified user record from the identity provider.
type Identity struct {
	DID            string
	CreatedAt      time.Time
	Wallet         *WalletAccount
	LinkedAccounts []LinkedAccount
}

// LinkedAccount is a closed sum type over the login methods attached to an
// Identity. Only types in this package implement it.
type LinkedAccount interface {
	AccountType() string
	linkedAccount()
}

// WalletAccount is a wallet linked to an identity.
type WalletAccount struct {
	Address          string
	ChainType        string
	ChainID          ChainID
	WalletClientType string
	ConnectorType    string
}

// EmailAccount is a verified email login.
type EmailAccount struct {
	Address string
}

// PhoneAccount is a verified phone login.
type PhoneAccount struct {
	Number string
}

// OAuthAccount covers every "<provider>_oauth" login.
type OAuthAccount struct {
	Provider string
	Subject  string
	Name     string
	Email    string
}

// OtherAccount preserves account types this service does not interpret.
type OtherAccount struct {
	Type string
}

func (WalletAccount) AccountType() string  { return AccountTypeWallet }
func (EmailAccount) AccountType() string   { return AccountTypeEmail }
func (PhoneAccount) AccountType() string   { return AccountTypePhone }
func (a OAuthAccount) AccountType() string { return a.Provider + "_oauth" }
func (a OtherAccount) AccountType() string { return a.Type }

func (WalletAccount) linkedAccount() {}
func (EmailAccount) linkedAccount()  {}
func (PhoneAccount) linkedAccount()  {}
func (OAuthAccount) linkedAccount()  {}
func (OtherAccount) linkedAccount()  {}

// IsEmbeddedOn reports whether the wallet is a provider-embedded Ethereum
// wallet on the given chain.
func (w WalletAccount) IsEmbeddedOn(chainID ChainID) bool {
	if chainID.IsZero() || w.ChainID.IsZero() {
		return false
	}
	return w.Address != "" &&
		w.ChainType == ChainTypeEthereum &&
		w.WalletClientType == WalletClientTypeEmbedded &&
		w.ChainID == chainID
}
