package lending

import (
	"errors"
	"testing"

	"dsclend/crypto"
	nativecommon "dsclend/native/common"
)

func newTestLiquidityEngine(t *testing.T) (*LiquidityEngine, *mockEngineState, *mockBridge) {
	t.Helper()
	engine := NewLiquidityEngine()
	state := newMockEngineState()
	bridge := &mockBridge{}
	engine.SetState(state)
	engine.SetBridge(bridge)

	vault := makeAddress(crypto.VaultPrefix, 0xFE)
	state.pools[testAsset] = &PoolConfig{Asset: testAsset, Vault: vault}
	return engine, state, bridge
}

func TestSupplyAccumulates(t *testing.T) {
	engine, state, bridge := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x50)

	if err := engine.Supply(provider, testAsset, 100); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if err := engine.Supply(provider, testAsset, 50); err != nil {
		t.Fatalf("second supply: %v", err)
	}

	lp := state.lps[state.key(provider, testAsset)]
	if lp == nil || lp.ContributedAmount != 150 {
		t.Fatalf("unexpected liquidity position: %+v", lp)
	}
	deposit := state.lpDeposits[state.key(provider, testAsset)]
	if deposit == nil || deposit.Amount != 150 {
		t.Fatalf("unexpected deposit record: %+v", deposit)
	}
	if total := state.pools[testAsset].TotalLiquidity; total != 150 {
		t.Fatalf("unexpected total liquidity: %d", total)
	}
	if len(bridge.calls) != 2 {
		t.Fatalf("expected two bridge calls, got %d", len(bridge.calls))
	}
}

func TestSupplyRejectsZeroAmount(t *testing.T) {
	engine, _, _ := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x51)

	if err := engine.Supply(provider, testAsset, 0); !errors.Is(err, ErrAmountZero) {
		t.Fatalf("expected ErrAmountZero, got %v", err)
	}
}

func TestSupplyGuardBlocksMutation(t *testing.T) {
	engine, state, bridge := newTestLiquidityEngine(t)
	engine.SetPauses(stubPauseView{modules: map[string]bool{"liquidity": true}})
	provider := makeAddress(crypto.UserPrefix, 0x52)

	if err := engine.Supply(provider, testAsset, 100); !errors.Is(err, nativecommon.ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if len(bridge.calls) != 0 {
		t.Fatalf("expected no bridge calls, got %d", len(bridge.calls))
	}
	if state.pools[testAsset].TotalLiquidity != 0 {
		t.Fatal("expected total liquidity unchanged while paused")
	}
}

func TestRedeemSharesFeesBetweenProviders(t *testing.T) {
	engine, state, bridge := newTestLiquidityEngine(t)
	first := makeAddress(crypto.UserPrefix, 0x53)
	second := makeAddress(crypto.UserPrefix, 0x54)

	if err := engine.Supply(first, testAsset, 100); err != nil {
		t.Fatalf("supply first: %v", err)
	}
	if err := engine.Supply(second, testAsset, 100); err != nil {
		t.Fatalf("supply second: %v", err)
	}
	state.pools[testAsset].TotalCollectedFees = 30

	payout, interest, err := engine.Redeem(first, testAsset)
	if err != nil {
		t.Fatalf("redeem first: %v", err)
	}
	if payout != 115 || interest != 15 {
		t.Fatalf("unexpected first payout: %d (interest %d)", payout, interest)
	}
	pool := state.pools[testAsset]
	if pool.TotalLiquidity != 100 || pool.TotalCollectedFees != 15 {
		t.Fatalf("unexpected pool after first redeem: %+v", pool)
	}

	payout, interest, err = engine.Redeem(second, testAsset)
	if err != nil {
		t.Fatalf("redeem second: %v", err)
	}
	if payout != 115 || interest != 15 {
		t.Fatalf("unexpected second payout: %d (interest %d)", payout, interest)
	}
	pool = state.pools[testAsset]
	if pool.TotalLiquidity != 0 || pool.TotalCollectedFees != 0 {
		t.Fatalf("unexpected pool after second redeem: %+v", pool)
	}

	last := bridge.calls[len(bridge.calls)-1]
	if last.op != "transfer" || !last.to.Equal(second) || last.amount != 115 {
		t.Fatalf("unexpected payout transfer: %+v", last)
	}
}

func TestRedeemClosesDepositRecord(t *testing.T) {
	engine, state, _ := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x55)

	if err := engine.Supply(provider, testAsset, 100); err != nil {
		t.Fatalf("supply: %v", err)
	}
	if _, _, err := engine.Redeem(provider, testAsset); err != nil {
		t.Fatalf("redeem: %v", err)
	}

	if _, ok := state.lpDeposits[state.key(provider, testAsset)]; ok {
		t.Fatal("expected deposit record closed")
	}
	if lp := state.lps[state.key(provider, testAsset)]; lp.ContributedAmount != 0 {
		t.Fatalf("expected zeroed contribution, got %d", lp.ContributedAmount)
	}

	// A second redemption has no deposit record to draw on.
	if _, _, err := engine.Redeem(provider, testAsset); !errors.Is(err, ErrUnauthorizedUser) {
		t.Fatalf("expected ErrUnauthorizedUser, got %v", err)
	}
}

func TestRedeemWithoutDeposit(t *testing.T) {
	engine, _, _ := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x56)

	if _, _, err := engine.Redeem(provider, testAsset); !errors.Is(err, ErrUnauthorizedUser) {
		t.Fatalf("expected ErrUnauthorizedUser, got %v", err)
	}
}

func TestRedeemZeroTotalLiquidity(t *testing.T) {
	engine, state, _ := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x57)

	// A deposit record without pool backing indicates drifted accounting;
	// redemption refuses to divide by the empty pool.
	state.lps[state.key(provider, testAsset)] = &LiquidityPosition{User: provider, Asset: testAsset, ContributedAmount: 100}
	state.lpDeposits[state.key(provider, testAsset)] = &LiquidityDeposit{User: provider, Asset: testAsset, Amount: 100}

	if _, _, err := engine.Redeem(provider, testAsset); !errors.Is(err, ErrZeroTotalLiquidity) {
		t.Fatalf("expected ErrZeroTotalLiquidity, got %v", err)
	}
}

func TestRedeemBridgeFailureLeavesPool(t *testing.T) {
	engine, state, bridge := newTestLiquidityEngine(t)
	provider := makeAddress(crypto.UserPrefix, 0x58)

	if err := engine.Supply(provider, testAsset, 100); err != nil {
		t.Fatalf("supply: %v", err)
	}
	bridge.failOn = "transfer"

	if _, _, err := engine.Redeem(provider, testAsset); !errors.Is(err, errBridgeDown) {
		t.Fatalf("expected bridge error, got %v", err)
	}
	if state.pools[testAsset].TotalLiquidity != 100 {
		t.Fatal("expected pool unchanged after bridge failure")
	}
	if _, ok := state.lpDeposits[state.key(provider, testAsset)]; !ok {
		t.Fatal("expected deposit record retained after bridge failure")
	}
}
