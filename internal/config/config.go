package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Leg is one directed swap between two token mints.
type Leg struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Triangle is a named 3-leg cycle that starts and ends at the same mint.
type Triangle struct {
	Name string `yaml:"name"`
	Legs []Leg  `yaml:"legs"`
}

type Config struct {
	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
	Server struct {
		Addr                string   `yaml:"addr"`
		Pprof               bool     `yaml:"pprof"`
		ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int      `yaml:"write_timeout_seconds"`
		IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds"`
		AdminAllowCIDRs     []string `yaml:"admin_allow_cidrs"`
	} `yaml:"server"`
	Solana struct {
		RPCURL     string `yaml:"rpc_url"`
		PrivateKey string `yaml:"-"` // env only, never from file
	} `yaml:"solana"`
	Jupiter struct {
		QuoteURL        string  `yaml:"quote_url"`
		SwapURL         string  `yaml:"swap_url"`
		APIKey          string  `yaml:"-"` // env only
		QuoteRatePerSec float64 `yaml:"quote_rate_per_sec"`
		QuoteBurst      int     `yaml:"quote_burst"`
	} `yaml:"jupiter"`
	Arbitrage struct {
		TradeSizeLamports    uint64     `yaml:"trade_size_lamports"`
		MinProfitBps         int        `yaml:"min_profit_bps"`
		SafetyBufferBps      int        `yaml:"safety_buffer_bps"`
		MaxPriceImpactPct    float64    `yaml:"max_price_impact_pct"`
		EstimatedFeePerLeg   uint64     `yaml:"estimated_fee_per_leg"`
		SlippageBps          int        `yaml:"slippage_bps"`
		ReQuoteBeforeExecute bool       `yaml:"requote_before_execute"`
		PollIntervalMs       int        `yaml:"poll_interval_ms"`
		InterLegDelayMs      int        `yaml:"inter_leg_delay_ms"`
		HeartbeatEveryCycles int        `yaml:"heartbeat_every_cycles"`
		Triangles            []Triangle `yaml:"triangles"`
	} `yaml:"arbitrage"`
	Ledger struct {
		Path string `yaml:"path"` // sqlite file; empty disables recording
	} `yaml:"ledger"`
	Telegram struct {
		BotToken string `yaml:"-"` // env only
		ChatID   string `yaml:"-"` // env only
	} `yaml:"telegram"`
}

func defaultConfig() Config {
	var c Config
	c.Logging.Level = "info"
	c.Logging.Pretty = false
	c.Server.Addr = ":9090"
	c.Server.Pprof = false
	c.Server.ReadTimeoutSeconds = 5
	c.Server.WriteTimeoutSeconds = 10
	c.Server.IdleTimeoutSeconds = 60
	c.Server.AdminAllowCIDRs = []string{"127.0.0.0/8", "::1/128"}
	c.Solana.RPCURL = "https://api.mainnet-beta.solana.com"
	c.Jupiter.QuoteURL = "https://api.jup.ag/swap/v1/quote"
	c.Jupiter.SwapURL = "https://api.jup.ag/swap/v1/swap"
	c.Jupiter.QuoteRatePerSec = 8.0
	c.Jupiter.QuoteBurst = 4
	c.Arbitrage.TradeSizeLamports = 10_000_000 // 0.01 SOL
	c.Arbitrage.MinProfitBps = 25
	c.Arbitrage.SafetyBufferBps = 8
	c.Arbitrage.MaxPriceImpactPct = 0.8
	c.Arbitrage.EstimatedFeePerLeg = 50_000
	c.Arbitrage.SlippageBps = 60
	c.Arbitrage.ReQuoteBeforeExecute = true
	c.Arbitrage.PollIntervalMs = 3000
	c.Arbitrage.InterLegDelayMs = 2000
	c.Arbitrage.HeartbeatEveryCycles = 12
	return c
}

// Load builds the configuration: defaults, then the optional YAML file named
// by VERTEX_CONFIG, then environment overrides. Secrets come from env only.
func Load() Config {
	c := defaultConfig()
	if path := os.Getenv("VERTEX_CONFIG"); path != "" {
		if b, err := os.ReadFile(path); err == nil {
			_ = yaml.Unmarshal(b, &c)
		}
	}
	if v := os.Getenv("VERTEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("VERTEX_LOG_PRETTY"); v == "1" || v == "true" {
		c.Logging.Pretty = true
	}
	if v := os.Getenv("VERTEX_HTTP_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("VERTEX_PPROF"); v == "1" || v == "true" {
		c.Server.Pprof = true
	}
	if v := os.Getenv("VERTEX_ADMIN_ALLOW_CIDRS"); v != "" {
		c.Server.AdminAllowCIDRs = splitCSV(v)
	}
	if v := os.Getenv("VERTEX_LEDGER_PATH"); v != "" {
		c.Ledger.Path = v
	}
	if v := os.Getenv("SOLANA_RPC_URL"); v != "" {
		c.Solana.RPCURL = v
	}
	if v := os.Getenv("JUPITER_QUOTE_URL"); v != "" {
		c.Jupiter.QuoteURL = v
	}
	if v := os.Getenv("JUPITER_SWAP_URL"); v != "" {
		c.Jupiter.SwapURL = v
	}
	if v, ok := envUint("TRADE_SIZE_LAMPORTS"); ok {
		c.Arbitrage.TradeSizeLamports = v
	}
	if v, ok := envInt("MIN_PROFIT_BPS"); ok {
		c.Arbitrage.MinProfitBps = v
	}
	if v, ok := envInt("SAFETY_BUFFER_BPS"); ok {
		c.Arbitrage.SafetyBufferBps = v
	}
	if v, ok := envFloat("MAX_PRICE_IMPACT_PCT"); ok {
		c.Arbitrage.MaxPriceImpactPct = v
	}
	if v, ok := envUint("ESTIMATED_FEE_PER_LEG"); ok {
		c.Arbitrage.EstimatedFeePerLeg = v
	}
	if v, ok := envInt("ARB_SLIPPAGE_BPS"); ok {
		c.Arbitrage.SlippageBps = v
	}
	// Re-quoting is on unless explicitly switched off.
	if v := os.Getenv("REQUOTE_BEFORE_EXECUTE"); v == "false" || v == "0" {
		c.Arbitrage.ReQuoteBeforeExecute = false
	}
	if v, ok := envInt("POLL_INTERVAL_MS"); ok {
		c.Arbitrage.PollIntervalMs = v
	}
	if v, ok := envInt("INTER_LEG_DELAY_MS"); ok {
		c.Arbitrage.InterLegDelayMs = v
	}
	if v, ok := envInt("HEARTBEAT_EVERY_CYCLES"); ok {
		c.Arbitrage.HeartbeatEveryCycles = v
	}
	// Secrets are only ever read from the environment.
	c.Solana.PrivateKey = os.Getenv("SOLANA_PRIVATE_KEY")
	c.Jupiter.APIKey = os.Getenv("JUPITER_API_KEY")
	c.Telegram.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	c.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	return c
}

// Validate checks the fields the trading process cannot run without.
func (c Config) Validate() error {
	if c.Solana.PrivateKey == "" {
		return fmt.Errorf("SOLANA_PRIVATE_KEY is required")
	}
	if c.Jupiter.APIKey == "" {
		return fmt.Errorf("JUPITER_API_KEY is required for swap quotes")
	}
	if c.Arbitrage.TradeSizeLamports == 0 {
		return fmt.Errorf("trade size must be positive")
	}
	return nil
}

func (c Config) PollInterval() time.Duration {
	return time.Duration(c.Arbitrage.PollIntervalMs) * time.Millisecond
}

func (c Config) InterLegDelay() time.Duration {
	return time.Duration(c.Arbitrage.InterLegDelayMs) * time.Millisecond
}

func envInt(key string) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envUint(key string) (uint64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	n, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func envFloat(key string) (float64, bool) {
	v := os.Getenv(key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
