package privy

import (
	"fmt"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"coffee-rewards.backend/internal/domain/entities"
)

// DecodeUser converts a provider user document into an Identity.
func DecodeUser(body []byte) (*entities.Identity, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: malformed user document", ErrUnexpectedResponse)
	}
	doc := gjson.ParseBytes(body)

	did := doc.Get("id").String()
	if did == "" {
		return nil, fmt.Errorf("%w: user document has no id", ErrUnexpectedResponse)
	}

	identity := &entities.Identity{
		DID:       did,
		CreatedAt: decodeTimestamp(doc.Get("created_at")),
	}

	if w := doc.Get("wallet"); w.IsObject() {
		wallet := decodeWallet(w)
		identity.Wallet = &wallet
	}

	doc.Get("linked_accounts").ForEach(func(_, account gjson.Result) bool {
		identity.LinkedAccounts = append(identity.LinkedAccounts, decodeLinkedAccount(account))
		return true
	})

	return identity, nil
}

func decodeLinkedAccount(account gjson.Result) entities.LinkedAccount {
	accountType := account.Get("type").String()
	switch {
	case accountType == entities.AccountTypeWallet:
		return decodeWallet(account)
	case accountType == entities.AccountTypeEmail:
		return entities.EmailAccount{Address: account.Get("address").String()}
	case accountType == entities.AccountTypePhone:
		number := account.Get("number").String()
		if number == "" {
			number = account.Get("phoneNumber").String()
		}
		return entities.PhoneAccount{Number: number}
	case strings.HasSuffix(accountType, "_oauth"):
		return entities.OAuthAccount{
			Provider: strings.TrimSuffix(accountType, "_oauth"),
			Subject:  account.Get("subject").String(),
			Name:     firstString(account, "name", "username"),
			Email:    account.Get("email").String(),
		}
	default:
		return entities.OtherAccount{Type: accountType}
	}
}

func decodeWallet(w gjson.Result) entities.WalletAccount {
	return entities.WalletAccount{
		Address:          w.Get("address").String(),
		ChainType:        w.Get("chain_type").String(),
		ChainID:          decodeChainID(w.Get("chain_id")),
		WalletClientType: firstString(w, "wallet_client_type", "walletClientType"),
		ConnectorType:    firstString(w, "connector_type", "connectorType"),
	}
}

// decodeChainID accepts the numeric, decimal string and CAIP-2 forms the
// provider has used. Anything else is treated as absent.
func decodeChainID(v gjson.Result) entities.ChainID {
	var raw string
	switch v.Type {
	case gjson.Number:
		raw = v.Raw
	case gjson.String:
		raw = v.Str
	default:
		return ""
	}
	id, ok := entities.ParseChainID(raw)
	if !ok {
		return ""
	}
	return id
}

func decodeTimestamp(v gjson.Result) time.Time {
	switch v.Type {
	case gjson.Number:
		return time.Unix(v.Int(), 0).UTC()
	case gjson.String:
		if t, err := time.Parse(time.RFC3339, v.Str); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func firstString(v gjson.Result, paths ...string) string {
	for _, p := range paths {
		if s := v.Get(p).String(); s != "" {
			return s
		}
	}
	return ""
}
