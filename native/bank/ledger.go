package bank

import (
	"errors"
	"math"

	"dsclend/core/types"
	"dsclend/crypto"
)

var (
	ErrNilStore          = errors.New("bank: account store not configured")
	ErrInsufficientFunds = errors.New("bank: insufficient funds")
	ErrBalanceOverflow   = errors.New("bank: balance overflow")
	ErrUnknownAsset      = errors.New("bank: asset cannot be minted or burned")
)

// Store abstracts the account persistence the ledger runs against.
type Store interface {
	GetAccount(addr crypto.Address) (*types.Account, error)
	PutAccount(addr crypto.Address, account *types.Account) error
}

// Ledger moves fungible balances between holding accounts. Collateral assets
// are transferred between users and vaults; the synthetic debt asset is
// additionally minted and burned under the engine's authority.
type Ledger struct {
	store     Store
	debtAsset string
}

// NewLedger constructs a ledger for the given debt asset symbol.
func NewLedger(store Store, debtAsset string) *Ledger {
	return &Ledger{store: store, debtAsset: debtAsset}
}

// Transfer moves amount of asset between two accounts. The debit is checked
// before any account is written, so a failed transfer has no effect.
func (l *Ledger) Transfer(asset string, from, to crypto.Address, amount uint64) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if amount == 0 {
		return nil
	}

	fromAcc, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if l.balance(fromAcc, asset) < amount {
		return ErrInsufficientFunds
	}
	// A self-transfer would otherwise decode two copies of the same account
	// and let the second write clobber the first.
	if from.Equal(to) {
		return nil
	}
	toAcc, err := l.loadAccount(to)
	if err != nil {
		return err
	}

	if l.balance(toAcc, asset) > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}

	l.setBalance(fromAcc, asset, l.balance(fromAcc, asset)-amount)
	l.setBalance(toAcc, asset, l.balance(toAcc, asset)+amount)

	if err := l.store.PutAccount(from, fromAcc); err != nil {
		return err
	}
	return l.store.PutAccount(to, toAcc)
}

// Mint credits freshly issued debt asset to an account. Only the configured
// debt asset can be minted.
func (l *Ledger) Mint(asset string, to crypto.Address, amount uint64) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if asset != l.debtAsset {
		return ErrUnknownAsset
	}
	if amount == 0 {
		return nil
	}

	acc, err := l.loadAccount(to)
	if err != nil {
		return err
	}
	if acc.BalanceDSC > math.MaxUint64-amount {
		return ErrBalanceOverflow
	}
	acc.BalanceDSC += amount
	return l.store.PutAccount(to, acc)
}

// Burn destroys debt asset held by an account.
func (l *Ledger) Burn(asset string, from crypto.Address, amount uint64) error {
	if l == nil || l.store == nil {
		return ErrNilStore
	}
	if asset != l.debtAsset {
		return ErrUnknownAsset
	}
	if amount == 0 {
		return nil
	}

	acc, err := l.loadAccount(from)
	if err != nil {
		return err
	}
	if acc.BalanceDSC < amount {
		return ErrInsufficientFunds
	}
	acc.BalanceDSC -= amount
	return l.store.PutAccount(from, acc)
}

// BalanceOf reports an account's holding of the given asset.
func (l *Ledger) BalanceOf(addr crypto.Address, asset string) (uint64, error) {
	if l == nil || l.store == nil {
		return 0, ErrNilStore
	}
	acc, err := l.loadAccount(addr)
	if err != nil {
		return 0, err
	}
	return l.balance(acc, asset), nil
}

func (l *Ledger) loadAccount(addr crypto.Address) (*types.Account, error) {
	acc, err := l.store.GetAccount(addr)
	if err != nil {
		return nil, err
	}
	if acc == nil {
		acc = &types.Account{}
	}
	acc.EnsureDefaults()
	return acc, nil
}

func (l *Ledger) balance(acc *types.Account, asset string) uint64 {
	if asset == l.debtAsset {
		return acc.BalanceDSC
	}
	return acc.Balances[asset]
}

func (l *Ledger) setBalance(acc *types.Account, asset string, amount uint64) {
	if asset == l.debtAsset {
		acc.BalanceDSC = amount
		return
	}
	acc.Balances[asset] = amount
}
