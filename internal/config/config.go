// Package config builds the single Config value that main constructs at
// start-up and passes to every component. Nothing in this module reads the
// environment after Load returns.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	LLM       LLMConfig       `yaml:"llm"`
	Alchemy   AlchemyConfig   `yaml:"alchemy"`
	Pinata    PinataConfig    `yaml:"pinata"`
	Story     StoryConfig     `yaml:"story"`
	NFTCache  CacheConfig     `yaml:"nft_cache"`
}

type ServerConfig struct {
	Addr           string        `yaml:"addr"`
	WebDir         string        `yaml:"web_dir"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxUploadBytes int64         `yaml:"max_upload_bytes"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Format      string `yaml:"format"`
	Environment string `yaml:"environment"`
}

type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

type LLMConfig struct {
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	Model       string  `yaml:"model"`
	MaxTokens   int64   `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type AlchemyConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	ContractAddress string `yaml:"contract_address"`
	PageSize        int    `yaml:"page_size"`
}

type PinataConfig struct {
	JWT        string `yaml:"jwt"`
	APIKey     string `yaml:"api_key"`
	SecretKey  string `yaml:"secret_key"`
	BaseURL    string `yaml:"base_url"`
	GatewayURL string `yaml:"gateway_url"`
}

type StoryConfig struct {
	Network        string `yaml:"network"`
	RPCURL         string `yaml:"rpc_url"`
	SPGNFTContract string `yaml:"spg_nft_contract"`
}

type CacheConfig struct {
	Size int           `yaml:"size"`
	TTL  time.Duration `yaml:"ttl"`
}

const (
	DefaultAnthropicModel  = "claude-sonnet-4-20250514"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultAlchemyBaseURL  = "https://story-aeneid.g.alchemy.com"
	DefaultNFTContract     = "0xa199Ee444d36674a0c7e27b79bc44ED546D50EbF"
	DefaultPinataBaseURL   = "https://api.pinata.cloud"
	DefaultPinataGateway   = "https://gateway.pinata.cloud/ipfs/"
	DefaultMaxUploadBytes  = 32 << 20
	DefaultRequestTimeout  = 60 * time.Second
	DefaultNFTCacheSize    = 256
	DefaultNFTCacheTTL     = 2 * time.Minute
	DefaultLLMMaxTokens    = 1000
	DefaultLLMTemperature  = 0.7
	DefaultAlchemyPageSize = 100
)

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:           ":8090",
			RequestTimeout: DefaultRequestTimeout,
			MaxUploadBytes: DefaultMaxUploadBytes,
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "json",
			Environment: "development",
		},
		Telemetry: TelemetryConfig{ServiceName: "mark3"},
		LLM: LLMConfig{
			Provider:    ProviderAnthropic,
			MaxTokens:   DefaultLLMMaxTokens,
			Temperature: DefaultLLMTemperature,
		},
		Alchemy: AlchemyConfig{
			BaseURL:         DefaultAlchemyBaseURL,
			ContractAddress: DefaultNFTContract,
			PageSize:        DefaultAlchemyPageSize,
		},
		Pinata: PinataConfig{
			BaseURL:    DefaultPinataBaseURL,
			GatewayURL: DefaultPinataGateway,
		},
		Story:    StoryConfig{Network: NetworkAeneid},
		NFTCache: CacheConfig{Size: DefaultNFTCacheSize, TTL: DefaultNFTCacheTTL},
	}
}

// Load layers defaults, the optional YAML file named by MARK3_CONFIG, a
// .env file and the process environment, then validates the result.
func Load() (Config, error) {
	// A missing .env is normal in deployed environments.
	_ = godotenv.Load()

	cfg := Default()
	if path := strings.TrimSpace(os.Getenv("MARK3_CONFIG")); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	blob, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(blob, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	envString(&c.Server.Addr, "MARK3_ADDR")
	envString(&c.Server.WebDir, "MARK3_WEB_DIR")
	envString(&c.Log.Level, "LOG_LEVEL")
	envString(&c.Log.Format, "LOG_FORMAT")
	envString(&c.Log.Environment, "MARK3_ENV")
	envString(&c.Telemetry.OTLPEndpoint, "OTEL_EXPORTER_OTLP_ENDPOINT")
	envString(&c.LLM.Provider, "LLM_PROVIDER")
	envString(&c.LLM.Model, "LLM_MODEL")
	envString(&c.Alchemy.APIKey, "ALCHEMY_API_KEY")
	envString(&c.Alchemy.BaseURL, "ALCHEMY_BASE_URL")
	envString(&c.Alchemy.ContractAddress, "NFT_CONTRACT_ADDRESS")
	envString(&c.Pinata.JWT, "PINATA_JWT")
	envString(&c.Pinata.APIKey, "PINATA_API_KEY")
	envString(&c.Pinata.SecretKey, "PINATA_SECRET_KEY")
	envString(&c.Pinata.BaseURL, "PINATA_BASE_URL")
	envString(&c.Pinata.GatewayURL, "PINATA_GATEWAY_URL")
	envString(&c.Story.Network, "STORY_NETWORK")
	envString(&c.Story.RPCURL, "RPC_PROVIDER_URL")
	envString(&c.Story.SPGNFTContract, "SPG_NFT_CONTRACT_ADDRESS")

	c.LLM.Provider = strings.ToLower(c.LLM.Provider)
	switch c.LLM.Provider {
	case ProviderGemini:
		envString(&c.LLM.APIKey, "GEMINI_API_KEY")
	default:
		envString(&c.LLM.APIKey, "ANTHROPIC_API_KEY")
	}
	envString(&c.LLM.APIKey, "LLM_API_KEY")

	var errs []error
	errs = append(errs,
		envDuration(&c.Server.RequestTimeout, "MARK3_REQUEST_TIMEOUT"),
		envInt64(&c.Server.MaxUploadBytes, "MARK3_MAX_UPLOAD_BYTES"),
		envInt64(&c.LLM.MaxTokens, "LLM_MAX_TOKENS"),
		envFloat(&c.LLM.Temperature, "LLM_TEMPERATURE"),
		envInt(&c.Alchemy.PageSize, "ALCHEMY_PAGE_SIZE"),
		envInt(&c.NFTCache.Size, "NFT_CACHE_SIZE"),
		envDuration(&c.NFTCache.TTL, "NFT_CACHE_TTL"),
	)
	return errors.Join(errs...)
}

// Validate reports every problem at once.
func (c Config) Validate() error {
	var errs []error
	switch c.LLM.Provider {
	case ProviderAnthropic, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("unknown llm provider %q", c.LLM.Provider))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, errors.New("llm max_tokens must be positive"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, errors.New("llm temperature must be within [0, 2]"))
	}
	if c.Server.RequestTimeout <= 0 {
		errs = append(errs, errors.New("server request_timeout must be positive"))
	}
	if c.Server.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("server max_upload_bytes must be positive"))
	}
	if c.Alchemy.PageSize <= 0 || c.Alchemy.PageSize > 100 {
		errs = append(errs, errors.New("alchemy page_size must be within [1, 100]"))
	}
	if c.NFTCache.Size <= 0 {
		errs = append(errs, errors.New("nft_cache size must be positive"))
	}
	if !common.IsHexAddress(c.Alchemy.ContractAddress) {
		errs = append(errs, fmt.Errorf("alchemy contract_address %q is not a hex address", c.Alchemy.ContractAddress))
	}
	if c.Story.SPGNFTContract != "" && !common.IsHexAddress(c.Story.SPGNFTContract) {
		errs = append(errs, fmt.Errorf("story spg_nft_contract %q is not a hex address", c.Story.SPGNFTContract))
	}
	if _, err := LookupNetwork(c.Story.Network); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Network resolves the configured Story network. Validate guarantees the
// name is known.
func (c Config) Network() Network {
	n, err := LookupNetwork(c.Story.Network)
	if err != nil {
		n, _ = LookupNetwork(NetworkAeneid)
	}
	return n
}

func (c Config) RPCURL() string {
	if strings.TrimSpace(c.Story.RPCURL) != "" {
		return c.Story.RPCURL
	}
	return c.Network().RPCProviderURL
}

func (c Config) SPGNFTContract() string {
	if strings.TrimSpace(c.Story.SPGNFTContract) != "" {
		return c.Story.SPGNFTContract
	}
	return c.Network().DefaultSPGNFTContract
}

func (c Config) LLMModel() string {
	if strings.TrimSpace(c.LLM.Model) != "" {
		return c.LLM.Model
	}
	if c.LLM.Provider == ProviderGemini {
		return DefaultGeminiModel
	}
	return DefaultAnthropicModel
}

func (c Config) PinataConfigured() bool {
	return c.Pinata.JWT != "" || (c.Pinata.APIKey != "" && c.Pinata.SecretKey != "")
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Log.Environment, "production") || strings.EqualFold(c.Log.Environment, "prod")
}

func envString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func envInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = n
	return nil
}

func envInt64(dst *int64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = n
	return nil
}

func envFloat(dst *float64, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = f
	return nil
}

func envDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s value: %w", key, err)
	}
	*dst = d
	return nil
}
