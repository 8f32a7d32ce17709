package types

// Account tracks the fungible balances held by a single address. Collateral
// assets are keyed by symbol; the synthetic debt asset has its own field
// because it is minted and burned rather than transferred out of custody.
type Account struct {
	Nonce    uint64            `json:"nonce"`
	Balances map[string]uint64 `json:"balances"`
	// BalanceDSC is the account's holding of the synthetic debt asset.
	BalanceDSC uint64 `json:"balanceDSC"`
}

// EnsureDefaults initialises nil maps so callers can index freely.
func (a *Account) EnsureDefaults() {
	if a.Balances == nil {
		a.Balances = make(map[string]uint64)
	}
}
