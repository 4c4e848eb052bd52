package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnosisguild/crisp-go/types/xerrors"
)

const (
	ModeDevnet = "devnet"
	ModeEVM    = "evm"

	DefaultConfigDir  = "config"
	DefaultDataDir    = "data"
	DefaultConfigFile = "config.yaml"
	DefaultGenesis    = "genesis.json"
	DefaultLogLevel   = "info"
)

type Config struct {
	Home               string     `yaml:"-"`
	ChainID            string     `yaml:"chain_id"`
	Moniker            string     `yaml:"moniker"`
	Mode               string     `yaml:"mode"` // devnet | evm
	RPCListenAddr      string     `yaml:"rpc_laddr"`
	MaxOpenConnections int        `yaml:"max_open_connections"`
	LogLevel           string     `yaml:"log_level"`
	EVM                *EVMConfig `yaml:"evm,omitempty"`
}

// EVMConfig wires the controllers to deployed contracts when Mode is "evm".
type EVMConfig struct {
	Endpoint   string `yaml:"endpoint"`
	PrivKey    string `yaml:"priv_key"` // hex, no 0x prefix
	VotesToken string `yaml:"votes_token"`
	FeeToken   string `yaml:"fee_token"`
	Enclave    string `yaml:"enclave"`
	Executor   string `yaml:"executor"`
}

func DefaultConfig() *Config {
	return &Config{
		ChainID:            "crisp-devnet",
		Moniker:            "my-crisp-node",
		Mode:               ModeDevnet,
		RPCListenAddr:      "tcp://127.0.0.1:26657",
		MaxOpenConnections: 900,
		LogLevel:           "info",
	}
}

func (c *Config) SetRoot(home string) *Config {
	c.Home = home
	return c
}

func (c *Config) ConfigDir() string {
	return filepath.Join(c.Home, DefaultConfigDir)
}

func (c *Config) DBDir() string {
	return filepath.Join(c.Home, DefaultDataDir)
}

func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.ConfigDir(), DefaultConfigFile)
}

func (c *Config) GenesisFilePath() string {
	return filepath.Join(c.ConfigDir(), DefaultGenesis)
}

func (c *Config) SaveAs(path string) xerrors.XError {
	bz, err := yaml.Marshal(c)
	if err != nil {
		return xerrors.From(err)
	}
	if err := os.WriteFile(path, bz, 0o644); err != nil {
		return xerrors.From(err)
	}
	return nil
}

// LoadConfig reads <home>/config/config.yaml.
func LoadConfig(home string) (*Config, xerrors.XError) {
	c := DefaultConfig().SetRoot(home)

	bz, err := os.ReadFile(c.ConfigFilePath())
	if err != nil {
		return nil, xerrors.From(err)
	}
	if err := yaml.Unmarshal(bz, c); err != nil {
		return nil, xerrors.From(err)
	}
	return c, nil
}
