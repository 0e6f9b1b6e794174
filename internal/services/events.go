package services

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/logger"
)

// EventSink receives the raffle's observable events. Sinks are for external
// monitoring only; nothing in the raffle reads them back.
type EventSink interface {
	RaffleEntered(player common.Address)
	UpkeepRequested(requestID uint64)
	WinnerPicked(winner common.Address)
}

// logSink is the default sink: every event becomes a log line.
type logSink struct{}

func (logSink) RaffleEntered(player common.Address) {
	logger.Infof("event RaffleEntered player=%s", player.Hex())
}

func (logSink) UpkeepRequested(requestID uint64) {
	logger.Infof("event UpkeepRequested requestID=%d", requestID)
}

func (logSink) WinnerPicked(winner common.Address) {
	logger.Infof("event WinnerPicked winner=%s", winner.Hex())
}
