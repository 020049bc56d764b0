package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Server.Port)
	assert.Equal(t, int64(100), cfg.Raffle.EntryFee)
	assert.Equal(t, 30*time.Second, cfg.Raffle.Interval)
	assert.Equal(t, 3, cfg.Raffle.MinParticipants)
	assert.Equal(t, uint16(3), cfg.Raffle.RequestConfirmations)
	assert.Equal(t, uint32(500000), cfg.Raffle.CallbackGasLimit)
	assert.Equal(t, uint32(1), cfg.Raffle.NumWords)
	assert.True(t, cfg.Oracle.MockOracle)
	assert.True(t, cfg.Paygate.MockTransfers)
}
