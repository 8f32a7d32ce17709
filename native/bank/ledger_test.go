package bank

import (
	"errors"
	"testing"

	"dsclend/core/types"
	"dsclend/crypto"
)

type mockStore struct {
	accounts map[string]*types.Account
}

func newMockStore() *mockStore {
	return &mockStore{accounts: make(map[string]*types.Account)}
}

func (m *mockStore) key(addr crypto.Address) string {
	return string(addr.Bytes())
}

func (m *mockStore) GetAccount(addr crypto.Address) (*types.Account, error) {
	return m.accounts[m.key(addr)], nil
}

func (m *mockStore) PutAccount(addr crypto.Address, account *types.Account) error {
	m.accounts[m.key(addr)] = account
	return nil
}

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.UserPrefix, raw)
}

func TestTransferMovesCollateral(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	from := makeAddress(0x01)
	to := makeAddress(0x02)
	store.accounts[store.key(from)] = &types.Account{Balances: map[string]uint64{"atom": 500}}

	if err := ledger.Transfer("atom", from, to, 200); err != nil {
		t.Fatalf("transfer: %v", err)
	}

	if got, _ := ledger.BalanceOf(from, "atom"); got != 300 {
		t.Fatalf("unexpected sender balance: %d", got)
	}
	if got, _ := ledger.BalanceOf(to, "atom"); got != 200 {
		t.Fatalf("unexpected receiver balance: %d", got)
	}
}

func TestTransferInsufficientFunds(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	from := makeAddress(0x03)
	to := makeAddress(0x04)
	store.accounts[store.key(from)] = &types.Account{Balances: map[string]uint64{"atom": 100}}

	if err := ledger.Transfer("atom", from, to, 200); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if got, _ := ledger.BalanceOf(from, "atom"); got != 100 {
		t.Fatalf("expected sender balance unchanged, got %d", got)
	}
	if got, _ := ledger.BalanceOf(to, "atom"); got != 0 {
		t.Fatalf("expected receiver balance unchanged, got %d", got)
	}
}

func TestMintAndBurnDebtAsset(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	holder := makeAddress(0x05)

	if err := ledger.Mint("dsc", holder, 1_000); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if got, _ := ledger.BalanceOf(holder, "dsc"); got != 1_000 {
		t.Fatalf("unexpected balance after mint: %d", got)
	}

	if err := ledger.Burn("dsc", holder, 400); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if got, _ := ledger.BalanceOf(holder, "dsc"); got != 600 {
		t.Fatalf("unexpected balance after burn: %d", got)
	}

	if err := ledger.Burn("dsc", holder, 10_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestMintRejectsCollateralAsset(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	holder := makeAddress(0x06)

	if err := ledger.Mint("atom", holder, 100); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
	if err := ledger.Burn("atom", holder, 100); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestTransferDebtAssetUsesDedicatedBalance(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	from := makeAddress(0x07)
	to := makeAddress(0x08)
	store.accounts[store.key(from)] = &types.Account{BalanceDSC: 500}

	if err := ledger.Transfer("dsc", from, to, 200); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if acc := store.accounts[store.key(to)]; acc.BalanceDSC != 200 {
		t.Fatalf("unexpected receiver debt balance: %d", acc.BalanceDSC)
	}
	if acc := store.accounts[store.key(from)]; acc.BalanceDSC != 300 {
		t.Fatalf("unexpected sender debt balance: %d", acc.BalanceDSC)
	}
}

func TestSelfTransferIsNoop(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	holder := makeAddress(0x0B)
	store.accounts[store.key(holder)] = &types.Account{Balances: map[string]uint64{"atom": 100}}

	if err := ledger.Transfer("atom", holder, holder, 60); err != nil {
		t.Fatalf("self transfer: %v", err)
	}
	if got, _ := ledger.BalanceOf(holder, "atom"); got != 100 {
		t.Fatalf("expected balance unchanged, got %d", got)
	}

	// Still checked against the held balance.
	if err := ledger.Transfer("atom", holder, holder, 200); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
}

func TestZeroAmountIsNoop(t *testing.T) {
	store := newMockStore()
	ledger := NewLedger(store, "dsc")
	from := makeAddress(0x09)
	to := makeAddress(0x0A)

	if err := ledger.Transfer("atom", from, to, 0); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if err := ledger.Mint("dsc", to, 0); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := ledger.Burn("dsc", to, 0); err != nil {
		t.Fatalf("burn: %v", err)
	}
	if len(store.accounts) != 0 {
		t.Fatalf("expected no accounts written, got %d", len(store.accounts))
	}
}
