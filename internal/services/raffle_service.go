package services

import (
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"raffle/internal/models"
	"raffle/internal/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/logger"
)

// requestConfirmations is the fixed confirmation depth for every randomness
// request.
const requestConfirmations uint16 = 3

// numWords is the number of random words requested per round.
const numWords uint32 = 1

// RaffleService is the raffle instance: ledger, state machine and the
// two-phase randomness protocol. Every public operation takes the one mutex,
// so operations are serialized and atomic; the only asynchrony is the gap
// between PerformUpkeep and the provider's fulfillment callback.
type RaffleService struct {
	mu  sync.RWMutex
	cfg models.Config

	state        models.RaffleState
	players      []common.Address
	balance      *big.Int
	lastReset    time.Time
	recentWinner common.Address
	hasWinner    bool

	// pendingRequestID is nonzero exactly while state is CALCULATING.
	pendingRequestID uint64

	coordinator vrf.Coordinator
	payout      PayoutExecutor
	events      EventSink
	now         func() time.Time
}

// NewRaffleService creates an open raffle with an empty ledger. The round
// clock starts at construction time.
func NewRaffleService(cfg models.Config, coordinator vrf.Coordinator, payout PayoutExecutor) *RaffleService {
	s := &RaffleService{
		cfg:         cfg,
		state:       models.StateOpen,
		balance:     new(big.Int),
		coordinator: coordinator,
		payout:      payout,
		events:      logSink{},
		now:         time.Now,
	}
	s.lastReset = s.now()
	return s
}

// SetEventSink replaces the default logging sink.
func (s *RaffleService) SetEventSink(sink EventSink) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = sink
}

// Enter joins the raffle. The payment must cover the entrance fee and the
// raffle must be open; the full paid amount goes into the pool. An address
// may enter any number of times, each entry counted separately in winner
// selection.
func (s *RaffleService) Enter(player common.Address, paid *big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if paid == nil || paid.Cmp(s.cfg.EntranceFee) < 0 {
		return models.ErrInsufficientFee
	}
	if s.state != models.StateOpen {
		return models.ErrRaffleNotOpen
	}

	s.players = append(s.players, player)
	s.balance.Add(s.balance, paid)
	s.events.RaffleEntered(player)
	return nil
}

// CheckUpkeep reports whether a winner-selection round should be triggered:
// the interval has elapsed, the raffle is open, the pool holds funds and at
// least one player entered. Read-only. The byte payload is reserved and
// always nil.
func (s *RaffleService) CheckUpkeep() (bool, []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.upkeepNeeded(s.now()), nil
}

// upkeepNeeded is the eligibility predicate. Caller holds the lock.
func (s *RaffleService) upkeepNeeded(now time.Time) bool {
	timeHasPassed := now.Sub(s.lastReset) >= s.cfg.Interval
	isOpen := s.state == models.StateOpen
	hasBalance := s.balance.Sign() > 0
	hasPlayers := len(s.players) > 0
	return timeHasPassed && isOpen && hasBalance && hasPlayers
}

// PerformUpkeep starts a round. Eligibility is recomputed here rather than
// trusted from the caller, so a stale CheckUpkeep result cannot trigger a
// round. On success the raffle locks (OPEN to CALCULATING) and exactly one
// randomness request is issued; the returned id correlates the eventual
// fulfillment.
func (s *RaffleService) PerformUpkeep() (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.upkeepNeeded(s.now()) {
		return 0, &models.UpkeepNotNeededError{
			Balance:     new(big.Int).Set(s.balance),
			PlayerCount: len(s.players),
			State:       s.state,
		}
	}

	s.state = models.StateCalculating
	requestID, err := s.coordinator.RequestRandomWords(vrf.RandomWordsRequest{
		KeyHash:              s.cfg.KeyHash,
		SubID:                s.cfg.SubscriptionID,
		RequestConfirmations: requestConfirmations,
		CallbackGasLimit:     s.cfg.CallbackGasLimit,
		NumWords:             numWords,
		NativePayment:        false,
	})
	if err != nil {
		s.state = models.StateOpen
		return 0, fmt.Errorf("randomness request failed: %w", err)
	}

	s.pendingRequestID = requestID
	logger.Infof("raffle: upkeep performed, request %d outstanding", requestID)
	s.events.UpkeepRequested(requestID)
	return requestID, nil
}

// RawFulfillRandomWords is the provider callback finishing a round. It must
// only ever be invoked by the coordinator holding this service as its
// consumer; it is not part of the public surface.
//
// The winner is players[words[0] mod len(players)]. The modulo carries a
// small selection bias when the word range is not a multiple of the player
// count; with a 256-bit word and realistic pools the bias is negligible and
// accepted. All ledger mutations happen before the payout; a rejected payout
// restores the pre-fulfillment ledger so the round either completes in full
// or not at all.
func (s *RaffleService) RawFulfillRandomWords(requestID uint64, randomWords []*big.Int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != models.StateCalculating || requestID != s.pendingRequestID {
		return models.ErrNoPendingRequest
	}
	if len(randomWords) == 0 || randomWords[0] == nil {
		return errors.New("fulfillment carried no random words")
	}

	players := s.players
	pool := s.balance
	winnerIndex := new(big.Int).Mod(randomWords[0], big.NewInt(int64(len(players)))).Int64()
	winner := players[winnerIndex]

	prev := raffleSnapshot{
		state:            s.state,
		players:          s.players,
		balance:          s.balance,
		lastReset:        s.lastReset,
		recentWinner:     s.recentWinner,
		hasWinner:        s.hasWinner,
		pendingRequestID: s.pendingRequestID,
	}

	s.recentWinner = winner
	s.hasWinner = true
	s.players = nil
	s.balance = new(big.Int)
	s.lastReset = s.now()
	s.state = models.StateOpen
	s.pendingRequestID = 0

	if err := s.payout.Payout(winner, pool); err != nil {
		prev.restore(s)
		return &models.TransferFailedError{Recipient: winner, Amount: pool, Cause: err}
	}

	logger.Infof("raffle: round finished, winner %s takes %s wei (request %d)",
		winner.Hex(), pool, requestID)
	s.events.WinnerPicked(winner)
	return nil
}

// raffleSnapshot captures the ledger for rollback of a failed finalization.
type raffleSnapshot struct {
	state            models.RaffleState
	players          []common.Address
	balance          *big.Int
	lastReset        time.Time
	recentWinner     common.Address
	hasWinner        bool
	pendingRequestID uint64
}

func (p raffleSnapshot) restore(s *RaffleService) {
	s.state = p.state
	s.players = p.players
	s.balance = p.balance
	s.lastReset = p.lastReset
	s.recentWinner = p.recentWinner
	s.hasWinner = p.hasWinner
	s.pendingRequestID = p.pendingRequestID
}

// State returns the current raffle state.
func (s *RaffleService) State() models.RaffleState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// EntranceFee returns the configured entrance fee in wei.
func (s *RaffleService) EntranceFee() *big.Int {
	return new(big.Int).Set(s.cfg.EntranceFee)
}

// Balance returns the current pool balance in wei.
func (s *RaffleService) Balance() *big.Int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return new(big.Int).Set(s.balance)
}

// PlayerCount returns the number of entries in the current round.
func (s *RaffleService) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}

// Player returns the entry at index, in entry order.
func (s *RaffleService) Player(index int) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.players) {
		return common.Address{}, fmt.Errorf("no player at index %d", index)
	}
	return s.players[index], nil
}

// LastResetTime returns when the current round started.
func (s *RaffleService) LastResetTime() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastReset
}

// RecentWinner returns the winner of the last finished round, false before
// any round has finished.
func (s *RaffleService) RecentWinner() (common.Address, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.recentWinner, s.hasWinner
}
