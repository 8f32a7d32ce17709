package state

import (
	"testing"

	"dsclend/core/types"
	"dsclend/crypto"
	"dsclend/native/lending"
	"dsclend/storage"
)

func makeAddress(suffix byte) crypto.Address {
	raw := make([]byte, 20)
	raw[len(raw)-1] = suffix
	return crypto.NewAddress(crypto.UserPrefix, raw)
}

func TestMissingRecordsReadAsNil(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	user := makeAddress(0x01)

	if pool, err := store.GetPool("atom"); err != nil || pool != nil {
		t.Fatalf("expected nil pool, got %+v (err %v)", pool, err)
	}
	if feed, err := store.GetPrice("atom"); err != nil || feed != nil {
		t.Fatalf("expected nil price, got %+v (err %v)", feed, err)
	}
	if position, err := store.GetCollateral(user, "atom"); err != nil || position != nil {
		t.Fatalf("expected nil collateral, got %+v (err %v)", position, err)
	}
	if debt, err := store.GetDebt(user, "atom"); err != nil || debt != nil {
		t.Fatalf("expected nil debt, got %+v (err %v)", debt, err)
	}
	if acc, err := store.GetAccount(user); err != nil || acc != nil {
		t.Fatalf("expected nil account, got %+v (err %v)", acc, err)
	}
}

func TestPoolRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	vault := crypto.NewAddress(crypto.VaultPrefix, make([]byte, 20))

	in := &lending.PoolConfig{
		Asset:              "atom",
		Vault:              vault,
		TotalLiquidity:     1_000,
		TotalCollectedFees: 30,
		ProtocolReserve:    10,
	}
	if err := store.PutPool(in); err != nil {
		t.Fatalf("put pool: %v", err)
	}

	out, err := store.GetPool("atom")
	if err != nil {
		t.Fatalf("get pool: %v", err)
	}
	if out == nil || out.TotalLiquidity != 1_000 || out.TotalCollectedFees != 30 || out.ProtocolReserve != 10 {
		t.Fatalf("unexpected pool: %+v", out)
	}
	if !out.Vault.Equal(vault) {
		t.Fatalf("vault address did not survive the round trip: %s", out.Vault)
	}
}

func TestPositionRoundTrips(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	user := makeAddress(0x02)

	if err := store.PutCollateral(&lending.CollateralPosition{User: user, Asset: "atom", DepositedAmount: 500}); err != nil {
		t.Fatalf("put collateral: %v", err)
	}
	position, err := store.GetCollateral(user, "atom")
	if err != nil {
		t.Fatalf("get collateral: %v", err)
	}
	if position == nil || position.DepositedAmount != 500 || !position.User.Equal(user) {
		t.Fatalf("unexpected collateral: %+v", position)
	}

	if err := store.PutDebt(&lending.DebtPosition{User: user, PrimaryAsset: "atom", BorrowedAmount: 100, CollateralBalance: 500, HealthFactor: 5}); err != nil {
		t.Fatalf("put debt: %v", err)
	}
	debt, err := store.GetDebt(user, "atom")
	if err != nil {
		t.Fatalf("get debt: %v", err)
	}
	if debt == nil || debt.BorrowedAmount != 100 || debt.HealthFactor != 5 {
		t.Fatalf("unexpected debt: %+v", debt)
	}
	if other, err := store.GetDebt(user, "osmo"); err != nil || other != nil {
		t.Fatalf("expected no debt record under another asset, got %+v (err %v)", other, err)
	}
}

func TestLiquidityDepositDelete(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	user := makeAddress(0x03)

	if err := store.PutLiquidityDeposit(&lending.LiquidityDeposit{User: user, Asset: "atom", Amount: 100}); err != nil {
		t.Fatalf("put deposit: %v", err)
	}
	deposit, err := store.GetLiquidityDeposit(user, "atom")
	if err != nil || deposit == nil || deposit.Amount != 100 {
		t.Fatalf("unexpected deposit: %+v (err %v)", deposit, err)
	}

	if err := store.DeleteLiquidityDeposit(user, "atom"); err != nil {
		t.Fatalf("delete deposit: %v", err)
	}
	deposit, err = store.GetLiquidityDeposit(user, "atom")
	if err != nil || deposit != nil {
		t.Fatalf("expected deposit removed, got %+v (err %v)", deposit, err)
	}
}

func TestAccountRoundTrip(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	user := makeAddress(0x04)

	in := &types.Account{Balances: map[string]uint64{"atom": 500}, BalanceDSC: 200}
	if err := store.PutAccount(user, in); err != nil {
		t.Fatalf("put account: %v", err)
	}
	out, err := store.GetAccount(user)
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if out == nil || out.Balances["atom"] != 500 || out.BalanceDSC != 200 {
		t.Fatalf("unexpected account: %+v", out)
	}
}

func TestRecordsIsolatedByUserAndAsset(t *testing.T) {
	store := NewStore(storage.NewMemDB())
	first := makeAddress(0x05)
	second := makeAddress(0x06)

	if err := store.PutCollateral(&lending.CollateralPosition{User: first, Asset: "atom", DepositedAmount: 100}); err != nil {
		t.Fatalf("put collateral: %v", err)
	}
	if err := store.PutCollateral(&lending.CollateralPosition{User: first, Asset: "osmo", DepositedAmount: 200}); err != nil {
		t.Fatalf("put collateral: %v", err)
	}

	if position, _ := store.GetCollateral(second, "atom"); position != nil {
		t.Fatalf("expected no record for other user, got %+v", position)
	}
	position, err := store.GetCollateral(first, "osmo")
	if err != nil || position == nil || position.DepositedAmount != 200 {
		t.Fatalf("unexpected per-asset record: %+v (err %v)", position, err)
	}
}
