package models

import (
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RaffleState is the lifecycle state of a raffle instance.
type RaffleState int

const (
	// StateOpen accepts entrants and is eligible for upkeep evaluation.
	StateOpen RaffleState = iota
	// StateCalculating means a randomness request is outstanding; entrants
	// are barred and upkeep is trivially ineligible.
	StateCalculating
)

func (s RaffleState) String() string {
	switch s {
	case StateOpen:
		return "OPEN"
	case StateCalculating:
		return "CALCULATING"
	default:
		return "UNKNOWN"
	}
}

// Config holds the immutable parameters of a raffle instance, fixed at
// construction time by the deployment layer.
type Config struct {
	EntranceFee      *big.Int      // wei, must be positive
	Interval         time.Duration // minimum elapsed time between rounds
	KeyHash          common.Hash   // provider lane/key identifier
	SubscriptionID   uint64        // prepaid provider subscription
	CallbackGasLimit uint32        // resource budget for the fulfillment callback
}
