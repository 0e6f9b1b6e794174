package vrf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/logger"
)

// ErrUnknownRequest is returned when fulfilling a request id that was never
// issued or was already consumed.
var ErrUnknownRequest = errors.New("vrf: unknown or already fulfilled request id")

// MockCoordinator is an in-process Coordinator for tests and local runs.
// Request ids are sequential starting at 1. Each request is delivered to the
// consumer at most once: fulfilling consumes the pending entry, so a replay
// of the same id fails without reaching the consumer.
type MockCoordinator struct {
	mu       sync.Mutex
	consumer Consumer
	nextID   uint64
	pending  map[uint64]RandomWordsRequest
}

// NewMockCoordinator creates a MockCoordinator with no consumer attached.
func NewMockCoordinator() *MockCoordinator {
	return &MockCoordinator{
		nextID:  1,
		pending: make(map[uint64]RandomWordsRequest),
	}
}

// SetConsumer registers the single consumer fulfillments are delivered to.
// Holding the only reference to the consumer is what authenticates the
// callback path.
func (c *MockCoordinator) SetConsumer(consumer Consumer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consumer = consumer
}

// RequestRandomWords records a pending request and returns its id.
func (c *MockCoordinator) RequestRandomWords(req RandomWordsRequest) (uint64, error) {
	if req.NumWords == 0 {
		return 0, errors.New("vrf: word count must be positive")
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextID
	c.nextID++
	c.pending[id] = req
	logger.Infof("vrf: request %d registered (keyHash=%s subID=%d words=%d)",
		id, req.KeyHash.Hex(), req.SubID, req.NumWords)
	return id, nil
}

// FulfillRandomWords delivers pseudo-random words for a pending request,
// derived by hashing the request id. Fails if the id is unknown or consumed.
func (c *MockCoordinator) FulfillRandomWords(requestID uint64) error {
	c.mu.Lock()
	req, ok := c.pending[requestID]
	c.mu.Unlock()
	if !ok {
		return ErrUnknownRequest
	}

	words := make([]*big.Int, req.NumWords)
	var seed [8]byte
	binary.BigEndian.PutUint64(seed[:], requestID)
	for i := range words {
		digest := crypto.Keccak256(seed[:], []byte{byte(i)})
		words[i] = new(big.Int).SetBytes(digest)
	}
	return c.FulfillRandomWordsWithValues(requestID, words)
}

// FulfillRandomWordsWithValues delivers caller-chosen words for a pending
// request. Tests use this for deterministic winner selection. A rejected
// delivery leaves the request pending, mirroring an aborted transaction.
func (c *MockCoordinator) FulfillRandomWordsWithValues(requestID uint64, words []*big.Int) error {
	c.mu.Lock()
	req, ok := c.pending[requestID]
	if !ok {
		c.mu.Unlock()
		return ErrUnknownRequest
	}
	consumer := c.consumer
	if consumer == nil {
		c.mu.Unlock()
		return errors.New("vrf: no consumer registered")
	}
	delete(c.pending, requestID)
	c.mu.Unlock()

	if err := consumer.RawFulfillRandomWords(requestID, words); err != nil {
		c.mu.Lock()
		c.pending[requestID] = req
		c.mu.Unlock()
		return fmt.Errorf("vrf: consumer rejected fulfillment of request %d: %w", requestID, err)
	}
	logger.Infof("vrf: request %d fulfilled", requestID)
	return nil
}

// PendingRequests returns the number of issued, not yet fulfilled requests.
func (c *MockCoordinator) PendingRequests() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
