package usecases

import (
	"coffee-rewards.backend/internal/domain/entities"
)

// ResolveWallet picks the embedded Ethereum wallet on target from an
// identity. The primary wallet field wins; otherwise the first matching
// linked account is used. ok is false when nothing matches, which callers
// treat as a valid "no rewards wallet yet" state.
func ResolveWallet(identity *entities.Identity, target entities.ChainID) (*entities.ResolvedWallet, bool) {
	if identity == nil || target.IsZero() {
		return nil, false
	}

	if identity.Wallet != nil && identity.Wallet.IsEmbeddedOn(target) {
		return toResolved(*identity.Wallet), true
	}

	for _, account := range identity.LinkedAccounts {
		switch a := account.(type) {
		case entities.WalletAccount:
			if a.IsEmbeddedOn(target) {
				return toResolved(a), true
			}
		case entities.EmailAccount, entities.PhoneAccount, entities.OAuthAccount, entities.OtherAccount:
			continue
		}
	}
	return nil, false
}

func toResolved(w entities.WalletAccount) *entities.ResolvedWallet {
	return &entities.ResolvedWallet{
		Address:    w.Address,
		ChainID:    w.ChainID,
		WalletType: w.WalletClientType,
	}
}
