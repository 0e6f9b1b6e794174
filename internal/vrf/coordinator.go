// Package vrf defines the narrow contract between the raffle and its
// randomness provider: a request issued by the raffle and an asynchronous,
// at-most-once fulfillment callback keyed by request id.
package vrf

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// RandomWordsRequest carries the provider parameters for one randomness
// request.
type RandomWordsRequest struct {
	KeyHash              common.Hash // lane/key selecting service tier
	SubID                uint64      // prepaid subscription paying for the request
	RequestConfirmations uint16
	CallbackGasLimit     uint32
	NumWords             uint32
	NativePayment        bool // false: pay via subscription credit
}

// Coordinator is the provider-side entry point. Implementations assign a
// unique request id per request and later deliver random words to the
// registered consumer.
type Coordinator interface {
	RequestRandomWords(req RandomWordsRequest) (uint64, error)
}

// Consumer receives fulfillments. Only the coordinator may invoke it; the
// method must never be reachable through a public transport.
type Consumer interface {
	RawFulfillRandomWords(requestID uint64, randomWords []*big.Int) error
}
