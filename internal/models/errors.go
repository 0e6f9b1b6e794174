package models

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrInsufficientFee is returned when an entrant pays less than the
	// entrance fee.
	ErrInsufficientFee = errors.New("payment below entrance fee")
	// ErrRaffleNotOpen is returned when an entrant tries to join while a
	// winner is being calculated.
	ErrRaffleNotOpen = errors.New("raffle is not open")
	// ErrNoPendingRequest is returned for a fulfillment that matches no
	// outstanding randomness request.
	ErrNoPendingRequest = errors.New("no matching randomness request outstanding")
)

// UpkeepNotNeededError reports that the upkeep conditions do not hold,
// carrying the ledger values the decision was made on.
type UpkeepNotNeededError struct {
	Balance     *big.Int
	PlayerCount int
	State       RaffleState
}

func (e *UpkeepNotNeededError) Error() string {
	return fmt.Sprintf("upkeep not needed: balance=%s players=%d state=%s",
		e.Balance, e.PlayerCount, e.State)
}

// TransferFailedError reports a rejected payout. The finalization that
// triggered the payout is rolled back as a unit when this is returned.
type TransferFailedError struct {
	Recipient common.Address
	Amount    *big.Int
	Cause     error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("transfer of %s to %s failed: %v", e.Amount, e.Recipient.Hex(), e.Cause)
}

func (e *TransferFailedError) Unwrap() error { return e.Cause }
