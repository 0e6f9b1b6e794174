package vrf

import (
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureConsumer records deliveries and optionally rejects them.
type captureConsumer struct {
	requestIDs []uint64
	words      [][]*big.Int
	rejectWith error
}

func (c *captureConsumer) RawFulfillRandomWords(requestID uint64, randomWords []*big.Int) error {
	if c.rejectWith != nil {
		return c.rejectWith
	}
	c.requestIDs = append(c.requestIDs, requestID)
	c.words = append(c.words, randomWords)
	return nil
}

func testRequest() RandomWordsRequest {
	return RandomWordsRequest{
		KeyHash:              common.HexToHash("0x02"),
		SubID:                1,
		RequestConfirmations: 3,
		CallbackGasLimit:     500_000,
		NumWords:             1,
	}
}

func TestMockCoordinatorAssignsSequentialIDs(t *testing.T) {
	c := NewMockCoordinator()
	c.SetConsumer(&captureConsumer{})

	first, err := c.RequestRandomWords(testRequest())
	require.NoError(t, err)
	second, err := c.RequestRandomWords(testRequest())
	require.NoError(t, err)

	assert.Equal(t, uint64(1), first)
	assert.Equal(t, uint64(2), second)
	assert.Equal(t, 2, c.PendingRequests())
}

func TestMockCoordinatorRejectsZeroWordRequest(t *testing.T) {
	c := NewMockCoordinator()
	req := testRequest()
	req.NumWords = 0

	_, err := c.RequestRandomWords(req)
	require.Error(t, err)
	assert.Equal(t, 0, c.PendingRequests())
}

func TestMockCoordinatorDeliversRequestedWordCount(t *testing.T) {
	c := NewMockCoordinator()
	consumer := &captureConsumer{}
	c.SetConsumer(consumer)

	req := testRequest()
	req.NumWords = 3
	id, err := c.RequestRandomWords(req)
	require.NoError(t, err)

	require.NoError(t, c.FulfillRandomWords(id))
	require.Len(t, consumer.words, 1)
	assert.Len(t, consumer.words[0], 3)
	for _, w := range consumer.words[0] {
		assert.NotNil(t, w)
	}
}

func TestMockCoordinatorDeliversAtMostOnce(t *testing.T) {
	c := NewMockCoordinator()
	consumer := &captureConsumer{}
	c.SetConsumer(consumer)

	id, err := c.RequestRandomWords(testRequest())
	require.NoError(t, err)

	require.NoError(t, c.FulfillRandomWordsWithValues(id, []*big.Int{big.NewInt(42)}))
	assert.Equal(t, 0, c.PendingRequests())

	err = c.FulfillRandomWordsWithValues(id, []*big.Int{big.NewInt(42)})
	assert.ErrorIs(t, err, ErrUnknownRequest)
	assert.Len(t, consumer.requestIDs, 1)
}

func TestMockCoordinatorUnknownRequest(t *testing.T) {
	c := NewMockCoordinator()
	c.SetConsumer(&captureConsumer{})

	assert.ErrorIs(t, c.FulfillRandomWords(99), ErrUnknownRequest)
}

func TestMockCoordinatorKeepsRequestOnRejectedDelivery(t *testing.T) {
	c := NewMockCoordinator()
	consumer := &captureConsumer{rejectWith: errors.New("finalization aborted")}
	c.SetConsumer(consumer)

	id, err := c.RequestRandomWords(testRequest())
	require.NoError(t, err)

	err = c.FulfillRandomWordsWithValues(id, []*big.Int{big.NewInt(7)})
	require.Error(t, err)
	assert.Equal(t, 1, c.PendingRequests(), "rejected delivery should leave the request pending")

	// Once the consumer stops rejecting, the same request can be fulfilled.
	consumer.rejectWith = nil
	require.NoError(t, c.FulfillRandomWordsWithValues(id, []*big.Int{big.NewInt(7)}))
	assert.Equal(t, 0, c.PendingRequests())
}

func TestMockCoordinatorRequiresConsumer(t *testing.T) {
	c := NewMockCoordinator()

	id, err := c.RequestRandomWords(testRequest())
	require.NoError(t, err)

	err = c.FulfillRandomWords(id)
	require.Error(t, err)
	assert.Equal(t, 1, c.PendingRequests(), "request should stay pending until a consumer exists")
}
