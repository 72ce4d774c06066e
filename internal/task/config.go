// =============================================
// File: internal/task/config.go
// =============================================
package task

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds application settings loaded from config.json.
type Config struct {
	License string   `mapstructure:"license"`
	RPCList []string `mapstructure:"rpc_list"`

	// Параметры арбитража
	LoanFeeBps        uint16        `mapstructure:"loan_fee_bps"`
	RemoteTolerance   uint64        `mapstructure:"remote_tolerance"`
	RemoteSimulation  bool          `mapstructure:"remote_simulation"`
	SimulateTimeout   time.Duration `mapstructure:"-"`
	SimulateTimeoutMS int           `mapstructure:"simulate_timeout"`
	ExecuteTimeout    time.Duration `mapstructure:"-"`
	ExecuteTimeoutMS  int           `mapstructure:"execute_timeout"`

	Retries      int           `mapstructure:"retries"`
	RetryDelay   time.Duration `mapstructure:"-"`
	RetryDelayMS int           `mapstructure:"retry_delay"`
	Workers      int           `mapstructure:"workers"`
	DebugLogging bool          `mapstructure:"debug_logging"`

	WalletsPath  string `mapstructure:"wallets_path"`
	AttemptsPath string `mapstructure:"attempts_path"`

	// Keygen.sh configuration
	KeygenAccountID    string `mapstructure:"keygen_account_id"`
	KeygenProductToken string `mapstructure:"keygen_product_token"`
	KeygenProductID    string `mapstructure:"keygen_product_id"`
}

// LoadConfig reads configuration from the specified file path and performs validation.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Defaults
	v.SetDefault("debug_logging", true)
	v.SetDefault("loan_fee_bps", 30)
	v.SetDefault("remote_simulation", false)
	v.SetDefault("remote_tolerance", 0)
	v.SetDefault("simulate_timeout", 5000)
	v.SetDefault("execute_timeout", 30000)
	v.SetDefault("retries", 3)
	v.SetDefault("retry_delay", 500)
	v.SetDefault("workers", 1)
	v.SetDefault("wallets_path", "configs/wallets.csv")
	v.SetDefault("attempts_path", "configs/attempts.csv")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config error: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal error: %w", err)
	}

	// Convert ms to Duration
	cfg.SimulateTimeout = time.Duration(cfg.SimulateTimeoutMS) * time.Millisecond
	cfg.ExecuteTimeout = time.Duration(cfg.ExecuteTimeoutMS) * time.Millisecond
	cfg.RetryDelay = time.Duration(cfg.RetryDelayMS) * time.Millisecond

	// Validate
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// validate checks required fields and applies defaults if necessary.
func (c *Config) validate() error {
	if len(c.RPCList) == 0 {
		return fmt.Errorf("rpc_list must contain at least one RPC endpoint")
	}
	if c.License == "" {
		return fmt.Errorf("license is required")
	}
	if c.LoanFeeBps > 10_000 {
		return fmt.Errorf("loan_fee_bps must not exceed 10000")
	}

	// Keygen validation is optional - hardcoded fallbacks available

	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	return nil
}

// ValidateLicense returns true if the provided license string meets basic criteria.
func ValidateLicense(license string) bool {
	return license != ""
}
