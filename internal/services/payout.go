package services

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/logger"
)

// PayoutExecutor transfers the pool balance to a winner. An error means the
// transfer was rejected and nothing was credited.
type PayoutExecutor interface {
	Payout(recipient common.Address, amount *big.Int) error
}

// Bank is an in-memory PayoutExecutor crediting wei balances per address.
type Bank struct {
	mu       sync.Mutex
	accounts map[common.Address]*big.Int
}

// NewBank creates an empty Bank.
func NewBank() *Bank {
	return &Bank{accounts: make(map[common.Address]*big.Int)}
}

// Payout credits amount to the recipient's account.
func (b *Bank) Payout(recipient common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return errors.New("payout amount must be positive")
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	balance, ok := b.accounts[recipient]
	if !ok {
		balance = new(big.Int)
		b.accounts[recipient] = balance
	}
	balance.Add(balance, amount)
	logger.Infof("bank: credited %s wei to %s (balance now %s)", amount, recipient.Hex(), balance)
	return nil
}

// BalanceOf returns the recipient's credited balance, zero if none.
func (b *Bank) BalanceOf(recipient common.Address) *big.Int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if balance, ok := b.accounts[recipient]; ok {
		return new(big.Int).Set(balance)
	}
	return new(big.Int)
}
