package main

import (
	"io"
	"log"
	"math/big"
	"os"
	"strconv"
	"time"

	"raffle/internal/handlers"
	"raffle/internal/models"
	"raffle/internal/services"
	"raffle/internal/vrf"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/joho/godotenv"
)

func main() {
	// 1. Load configuration from .env / environment.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}
	defer logger.Init("raffle", true, false, io.Discard).Close()

	cfg, err := configFromEnv()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// 2. Wire the raffle: in-memory bank, mock randomness coordinator,
	// raffle service registered as the coordinator's consumer.
	bank := services.NewBank()
	coordinator := vrf.NewMockCoordinator()
	raffleService := services.NewRaffleService(cfg, coordinator, bank)
	coordinator.SetConsumer(raffleService)

	// 3. Set up the Gin router and routes.
	r := gin.Default()
	httpHandler := handlers.NewHTTPHandler(raffleService)
	httpHandler.RegisterRoutes(r)

	// 4. Background upkeep poller: checks eligibility, triggers rounds and
	// lets the mock coordinator answer after a short provider-style delay.
	go func() {
		for {
			time.Sleep(5 * time.Second)
			if needed, _ := raffleService.CheckUpkeep(); !needed {
				continue
			}
			requestID, err := raffleService.PerformUpkeep()
			if err != nil {
				logger.Errorf("Upkeep failed: %v", err)
				continue
			}
			go func() {
				time.Sleep(2 * time.Second)
				if err := coordinator.FulfillRandomWords(requestID); err != nil {
					logger.Errorf("Fulfillment of request %d failed: %v", requestID, err)
				}
			}()
		}
	}()

	// 5. Run the server.
	addr := envOr("LISTEN_ADDR", ":8080")
	log.Printf("Server starting on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// configFromEnv builds the immutable raffle configuration from environment
// variables.
func configFromEnv() (models.Config, error) {
	fee, ok := new(big.Int).SetString(envOr("ENTRANCE_FEE_WEI", "10000000000000000"), 10)
	if !ok || fee.Sign() <= 0 {
		return models.Config{}, errInvalid("ENTRANCE_FEE_WEI")
	}
	intervalSec, err := strconv.Atoi(envOr("INTERVAL_SECONDS", "30"))
	if err != nil || intervalSec <= 0 {
		return models.Config{}, errInvalid("INTERVAL_SECONDS")
	}
	subID, err := strconv.ParseUint(envOr("VRF_SUBSCRIPTION_ID", "1"), 10, 64)
	if err != nil {
		return models.Config{}, errInvalid("VRF_SUBSCRIPTION_ID")
	}
	gasLimit, err := strconv.ParseUint(envOr("VRF_CALLBACK_GAS_LIMIT", "500000"), 10, 32)
	if err != nil {
		return models.Config{}, errInvalid("VRF_CALLBACK_GAS_LIMIT")
	}

	return models.Config{
		EntranceFee:      fee,
		Interval:         time.Duration(intervalSec) * time.Second,
		KeyHash:          common.HexToHash(envOr("VRF_KEY_HASH", "0x474e34a077df58807dbe9c96d3c009b23b3c6d0cce433e59bbf5b34f823bc56c")),
		SubscriptionID:   subID,
		CallbackGasLimit: uint32(gasLimit),
	}, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type errInvalid string

func (e errInvalid) Error() string { return "invalid value for " + string(e) }
