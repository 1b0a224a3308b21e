package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultTxTimeoutMs       = 120_000
	DefaultTxCheckIntervalMs = 5_000
	DefaultGasLimit          = 250_000
)

// Chain describes the single EVM ledger this relay talks to.
type Chain struct {
	Chain   string `toml:"chain"`
	ChainId int64  `toml:"chain_id"`
	RpcUrl  string `toml:"rpc_url"`
}

// AllowedCall names a contract (resolved through the on-chain registry) and
// the method signatures callers may relay to it.
type AllowedCall struct {
	Contract string   `toml:"contract"`
	Methods  []string `toml:"methods"`
}

type Relayer struct {
	Chain Chain `toml:"chain"`

	ServerPort int    `toml:"server_port"`
	MonitorUrl string `toml:"monitor_url"`

	// Relay account. The private key comes from the environment, never from
	// the config file.
	Account    string `toml:"account"`
	PrivateKey string `toml:"-"`

	TxTimeoutMs       int    `toml:"transaction_timeout_ms"`
	TxCheckIntervalMs int    `toml:"transaction_check_interval_ms"`
	GasLimit          uint64 `toml:"gas_limit"`

	// RegistryContract is the address of the on-chain name registry used to
	// resolve allowed contracts and the stable token for balance reporting.
	RegistryContract string        `toml:"registry_contract"`
	StableToken      string        `toml:"stable_token"`
	AllowedCalls     []AllowedCall `toml:"allowed_calls"`
}

func (r *Relayer) TxTimeout() time.Duration {
	return time.Duration(r.TxTimeoutMs) * time.Millisecond
}

func (r *Relayer) TxCheckInterval() time.Duration {
	return time.Duration(r.TxCheckIntervalMs) * time.Millisecond
}

// Load reads the relayer config from a TOML file and fills in defaults and
// environment-provided secrets.
func Load(path string) (Relayer, error) {
	cfg := Relayer{}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("cannot decode config file %s, err = %v", path, err)
	}

	if cfg.TxTimeoutMs == 0 {
		cfg.TxTimeoutMs = DefaultTxTimeoutMs
	}
	if cfg.TxCheckIntervalMs == 0 {
		cfg.TxCheckIntervalMs = DefaultTxCheckIntervalMs
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}

	cfg.PrivateKey = os.Getenv("RELAYER_PRIVATE_KEY")

	return cfg, nil
}
