package task

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfigFile(t, `{
		"license": "TEST-LICENSE",
		"rpc_list": ["https://api.devnet.solana.com"],
		"loan_fee_bps": 30,
		"remote_simulation": true,
		"remote_tolerance": 1000,
		"simulate_timeout": 2000,
		"execute_timeout": 15000,
		"retries": 5,
		"retry_delay": 250,
		"workers": 4
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "TEST-LICENSE", cfg.License)
	assert.Equal(t, []string{"https://api.devnet.solana.com"}, cfg.RPCList)
	assert.Equal(t, uint16(30), cfg.LoanFeeBps)
	assert.True(t, cfg.RemoteSimulation)
	assert.Equal(t, uint64(1000), cfg.RemoteTolerance)
	assert.Equal(t, 2*time.Second, cfg.SimulateTimeout)
	assert.Equal(t, 15*time.Second, cfg.ExecuteTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 5, cfg.Retries)
	assert.Equal(t, 4, cfg.Workers)
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, `{
		"license": "TEST-LICENSE",
		"rpc_list": ["https://api.devnet.solana.com"]
	}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, uint16(30), cfg.LoanFeeBps)
	assert.False(t, cfg.RemoteSimulation)
	assert.Equal(t, 5*time.Second, cfg.SimulateTimeout)
	assert.Equal(t, 30*time.Second, cfg.ExecuteTimeout)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryDelay)
	assert.Equal(t, 3, cfg.Retries)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, "configs/wallets.csv", cfg.WalletsPath)
	assert.Equal(t, "configs/attempts.csv", cfg.AttemptsPath)
	assert.True(t, cfg.DebugLogging)
}

func TestLoadConfig_Validation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "missing rpc list",
			content: `{"license": "X"}`,
			wantErr: "rpc_list",
		},
		{
			name:    "missing license",
			content: `{"rpc_list": ["https://api.devnet.solana.com"]}`,
			wantErr: "license is required",
		},
		{
			name:    "fee too high",
			content: `{"license": "X", "rpc_list": ["https://api.devnet.solana.com"], "loan_fee_bps": 10001}`,
			wantErr: "loan_fee_bps",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			_, err := LoadConfig(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadConfig_MaxFeeAccepted(t *testing.T) {
	path := writeConfigFile(t, `{"license": "X", "rpc_list": ["https://api.devnet.solana.com"], "loan_fee_bps": 10000}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(10_000), cfg.LoanFeeBps)
}

func TestValidateLicense(t *testing.T) {
	assert.True(t, ValidateLicense("KEY"))
	assert.False(t, ValidateLicense(""))
}
