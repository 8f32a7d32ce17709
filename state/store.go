package state

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"dsclend/core/types"
	"dsclend/crypto"
	"dsclend/native/lending"
	"dsclend/storage"
)

// Key prefixes for every record family. Addresses are hex encoded so keys
// stay printable in debugging tools.
var (
	poolPrefix       = "lending/pool/"
	pricePrefix      = "lending/price/"
	collateralPrefix = "lending/collateral/"
	debtPrefix       = "lending/debt/"
	liquidityPrefix  = "lending/lp/"
	lpDepositPrefix  = "lending/lpdeposit/"
	accountPrefix    = "bank/account/"
)

// Store persists ledger records as JSON documents in a key-value database.
// It backs both the lending engines and the bank ledger.
type Store struct {
	db storage.Database
}

// NewStore wraps a key-value database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func (s *Store) get(key string, out interface{}) (bool, error) {
	raw, err := s.db.Get([]byte(key))
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) put(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return s.db.Put([]byte(key), raw)
}

func addrKey(addr crypto.Address) string {
	return hex.EncodeToString(addr.Bytes())
}

// --- lending engine state ---

func (s *Store) GetPool(asset string) (*lending.PoolConfig, error) {
	pool := new(lending.PoolConfig)
	ok, err := s.get(poolPrefix+asset, pool)
	if err != nil || !ok {
		return nil, err
	}
	return pool, nil
}

func (s *Store) PutPool(pool *lending.PoolConfig) error {
	if pool == nil {
		return nil
	}
	return s.put(poolPrefix+pool.Asset, pool)
}

func (s *Store) GetPrice(asset string) (*lending.PriceFeed, error) {
	feed := new(lending.PriceFeed)
	ok, err := s.get(pricePrefix+asset, feed)
	if err != nil || !ok {
		return nil, err
	}
	return feed, nil
}

func (s *Store) PutPrice(feed *lending.PriceFeed) error {
	if feed == nil {
		return nil
	}
	return s.put(pricePrefix+feed.Asset, feed)
}

func (s *Store) GetCollateral(user crypto.Address, asset string) (*lending.CollateralPosition, error) {
	position := new(lending.CollateralPosition)
	ok, err := s.get(collateralPrefix+addrKey(user)+"/"+asset, position)
	if err != nil || !ok {
		return nil, err
	}
	return position, nil
}

func (s *Store) PutCollateral(position *lending.CollateralPosition) error {
	if position == nil {
		return nil
	}
	return s.put(collateralPrefix+addrKey(position.User)+"/"+position.Asset, position)
}

func (s *Store) GetDebt(user crypto.Address, asset string) (*lending.DebtPosition, error) {
	debt := new(lending.DebtPosition)
	ok, err := s.get(debtPrefix+addrKey(user)+"/"+asset, debt)
	if err != nil || !ok {
		return nil, err
	}
	return debt, nil
}

func (s *Store) PutDebt(position *lending.DebtPosition) error {
	if position == nil {
		return nil
	}
	return s.put(debtPrefix+addrKey(position.User)+"/"+position.PrimaryAsset, position)
}

func (s *Store) GetLiquidity(user crypto.Address, asset string) (*lending.LiquidityPosition, error) {
	lp := new(lending.LiquidityPosition)
	ok, err := s.get(liquidityPrefix+addrKey(user)+"/"+asset, lp)
	if err != nil || !ok {
		return nil, err
	}
	return lp, nil
}

func (s *Store) PutLiquidity(position *lending.LiquidityPosition) error {
	if position == nil {
		return nil
	}
	return s.put(liquidityPrefix+addrKey(position.User)+"/"+position.Asset, position)
}

func (s *Store) GetLiquidityDeposit(user crypto.Address, asset string) (*lending.LiquidityDeposit, error) {
	deposit := new(lending.LiquidityDeposit)
	ok, err := s.get(lpDepositPrefix+addrKey(user)+"/"+asset, deposit)
	if err != nil || !ok {
		return nil, err
	}
	return deposit, nil
}

func (s *Store) PutLiquidityDeposit(deposit *lending.LiquidityDeposit) error {
	if deposit == nil {
		return nil
	}
	return s.put(lpDepositPrefix+addrKey(deposit.User)+"/"+deposit.Asset, deposit)
}

func (s *Store) DeleteLiquidityDeposit(user crypto.Address, asset string) error {
	return s.db.Delete([]byte(lpDepositPrefix + addrKey(user) + "/" + asset))
}

// --- bank ledger state ---

func (s *Store) GetAccount(addr crypto.Address) (*types.Account, error) {
	account := new(types.Account)
	ok, err := s.get(accountPrefix+addrKey(addr), account)
	if err != nil || !ok {
		return nil, err
	}
	return account, nil
}

func (s *Store) PutAccount(addr crypto.Address, account *types.Account) error {
	if account == nil {
		return nil
	}
	return s.put(accountPrefix+addrKey(addr), account)
}
