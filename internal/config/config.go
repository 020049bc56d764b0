package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	JWT      JWTConfig
	Raffle   RaffleConfig
	Oracle   OracleConfig
	Paygate  PaygateConfig
	LogLevel string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int
}

// RaffleConfig holds the round configuration. These values are fixed at
// startup and exposed read-only through the API.
type RaffleConfig struct {
	// EntryFee is the minimum contribution per entry, in minor units.
	EntryFee int64
	// Interval is the minimum duration between finalizations.
	Interval time.Duration
	// MinParticipants is the participant count required for automatic finalization.
	MinParticipants int
	// RequestConfirmations is the confirmation depth for randomness requests.
	RequestConfirmations uint16
	// CallbackGasLimit is the compute budget for the oracle callback.
	CallbackGasLimit uint32
	// NumWords is the number of random values requested per draw.
	NumWords uint32
	// UpkeepInterval is how often the background loop re-evaluates eligibility.
	UpkeepInterval time.Duration
}

// OracleConfig holds randomness-coordinator configuration
type OracleConfig struct {
	BaseURL    string
	APIKey     string
	MockOracle bool
	// MockFulfillmentDelay is how long the mock coordinator waits before
	// delivering random words.
	MockFulfillmentDelay time.Duration
}

// PaygateConfig holds payment-gateway configuration
type PaygateConfig struct {
	BaseURL       string
	APIKey        string
	APISecret     string
	MockTransfers bool
	// MockOpeningBalance seeds the mock pool, in minor units.
	MockOpeningBalance int64
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "raffle")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("Raffle.EntryFee", 100)
	viper.SetDefault("Raffle.Interval", "30s")
	viper.SetDefault("Raffle.MinParticipants", 3)
	viper.SetDefault("Raffle.RequestConfirmations", 3)
	viper.SetDefault("Raffle.CallbackGasLimit", 500000)
	viper.SetDefault("Raffle.NumWords", 1)
	viper.SetDefault("Raffle.UpkeepInterval", "10s")
	viper.SetDefault("Oracle.MockOracle", true)
	viper.SetDefault("Oracle.MockFulfillmentDelay", "2s")
	viper.SetDefault("Paygate.MockTransfers", true)
	viper.SetDefault("Paygate.MockOpeningBalance", 0)
	viper.SetDefault("LogLevel", "info")
}
