package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
)

const (
	PlatformMexc    = "mexc"
	PlatformBinance = "binance"
	PlatformBybit   = "bybit"

	DefaultQuote             = "USDT"
	DefaultRequestTimeout    = 30 * time.Second
	DefaultRequestsPerSecond = 10
	DefaultLogFile           = "portfolio.log"
	DefaultGeneratedConfig   = "config.gen.yaml"
)

// Config is built once at startup and passed by value to every component.
type Config struct {
	Platform          string
	Assets            []string
	Quote             string
	BaseValue         decimal.Decimal
	AlertThreshold    decimal.Decimal
	AlertWhen         domain.AlertDirection
	AutoTrim          bool
	DryRun            bool
	BaseURL           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	LogFile           string
	Redact            []string
	Credentials       Credentials
}

// Credentials come only from the environment.
type Credentials struct {
	APIKey           string
	APISecret        string
	TelegramToken    string
	TelegramChatID   int64
	PrivateNetworkID string
}

// TelegramEnabled reports whether both bot token and chat id are set.
func (c Credentials) TelegramEnabled() bool {
	return c.TelegramToken != "" && c.TelegramChatID != 0
}

// ConfigTmp is the YAML shape of Config. Decimals are strings.
type ConfigTmp struct {
	Platform          string        `yaml:"platform,omitempty"`
	Assets            []string      `yaml:"assets"`
	Quote             string        `yaml:"quote,omitempty"`
	BaseValue         string        `yaml:"base_value"`
	AlertThreshold    string        `yaml:"alert_threshold"`
	AlertWhen         string        `yaml:"alert_when,omitempty"`
	AutoTrim          bool          `yaml:"auto_trim"`
	DryRun            bool          `yaml:"dry_run,omitempty"`
	BaseURL           string        `yaml:"base_url,omitempty"`
	RequestTimeout    time.Duration `yaml:"request_timeout,omitempty"`
	RequestsPerSecond float64       `yaml:"requests_per_second,omitempty"`
	LogFile           string        `yaml:"log_file,omitempty"`
	Redact            []string      `yaml:"redact,omitempty"`
}

// Flags are the command line options.
type Flags struct {
	ConfigPath string
	DryRun     bool
	Setup      bool

	// used when ConfigPath is empty
	Platform  string
	Assets    string
	Quote     string
	BaseValue string
	Threshold string
	AlertWhen string
	AutoTrim  bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("portfolio-tracker", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "path to yaml config")
	fs.BoolVar(&f.DryRun, "dry-run", false, "log trim orders without submitting them")
	fs.BoolVar(&f.Setup, "setup", false, "run the interactive config wizard")
	fs.StringVar(&f.Platform, "platform", PlatformMexc, "exchange: mexc, binance or bybit")
	fs.StringVar(&f.Assets, "assets", "", "comma separated assets, example: BTC,ETH,AVAX")
	fs.StringVar(&f.Quote, "quote", DefaultQuote, "quote currency")
	fs.StringVar(&f.BaseValue, "base-value", "", "target value per asset in quote currency, example: 500")
	fs.StringVar(&f.Threshold, "threshold", "", "portfolio alert threshold in quote currency")
	fs.StringVar(&f.AlertWhen, "alert-when", string(domain.AlertAbove), "alert when total is above or below the threshold")
	fs.BoolVar(&f.AutoTrim, "auto-trim", false, "sell each asset's excess over the base value when the alert triggers")

	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// Load builds the Config from the YAML file named by f (or the CLI flags
// when there is none) and credentials from getenv.
func Load(f Flags, getenv func(string) string) (Config, error) {
	var (
		tmp ConfigTmp
		err error
	)
	if f.ConfigPath != "" {
		tmp, err = readYaml(f.ConfigPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		tmp = fromFlags(f)
	}
	if f.DryRun {
		tmp.DryRun = true
	}

	conf, err := tmp.toConfig()
	if err != nil {
		return Config{}, err
	}

	conf.Credentials, err = credentialsFromEnv(conf.Platform, getenv)
	if err != nil {
		return Config{}, err
	}
	return conf, nil
}

func readYaml(path string) (ConfigTmp, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfigTmp{}, errors.Wrap(err, "failed to read config")
	}
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return ConfigTmp{}, errors.Wrapf(err, "failed to parse yaml config %s", path)
	}
	return tmp, nil
}

func fromFlags(f Flags) ConfigTmp {
	var assets []string
	if f.Assets != "" {
		assets = strings.Split(f.Assets, ",")
	}
	return ConfigTmp{
		Platform:       f.Platform,
		Assets:         assets,
		Quote:          f.Quote,
		BaseValue:      f.BaseValue,
		AlertThreshold: f.Threshold,
		AlertWhen:      f.AlertWhen,
		AutoTrim:       f.AutoTrim,
		DryRun:         f.DryRun,
	}
}

func (c ConfigTmp) toConfig() (Config, error) {
	conf := Config{
		Platform:          strings.ToLower(strings.TrimSpace(c.Platform)),
		Quote:             strings.ToUpper(strings.TrimSpace(c.Quote)),
		AutoTrim:          c.AutoTrim,
		DryRun:            c.DryRun,
		BaseURL:           strings.TrimSpace(c.BaseURL),
		RequestTimeout:    c.RequestTimeout,
		RequestsPerSecond: c.RequestsPerSecond,
		LogFile:           c.LogFile,
		Redact:            c.Redact,
	}
	if conf.Platform == "" {
		conf.Platform = PlatformMexc
	}
	if conf.Quote == "" {
		conf.Quote = DefaultQuote
	}
	if conf.RequestTimeout == 0 {
		conf.RequestTimeout = DefaultRequestTimeout
	}
	if conf.RequestsPerSecond == 0 {
		conf.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if conf.LogFile == "" {
		conf.LogFile = DefaultLogFile
	}

	switch conf.Platform {
	case PlatformMexc, PlatformBinance, PlatformBybit:
	default:
		return Config{}, fmt.Errorf("incorrect 'platform' param: %q (want mexc, binance or bybit)", c.Platform)
	}

	conf.Assets = normalizeAssets(c.Assets)
	if len(conf.Assets) == 0 {
		return Config{}, errors.New("'assets' must list at least one asset")
	}

	var err error
	conf.BaseValue, err = decimal.NewFromString(strings.TrimSpace(c.BaseValue))
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'base_value' param: %q, error: %w", c.BaseValue, err)
	}
	if !conf.BaseValue.IsPositive() {
		return Config{}, fmt.Errorf("'base_value' must be positive, got %s", conf.BaseValue.String())
	}

	conf.AlertThreshold, err = decimal.NewFromString(strings.TrimSpace(c.AlertThreshold))
	if err != nil {
		return Config{}, fmt.Errorf("incorrect 'alert_threshold' param: %q, error: %w", c.AlertThreshold, err)
	}
	if conf.AlertThreshold.IsNegative() {
		return Config{}, fmt.Errorf("'alert_threshold' must not be negative, got %s", conf.AlertThreshold.String())
	}

	conf.AlertWhen, err = domain.ParseAlertDirection(c.AlertWhen)
	if err != nil {
		return Config{}, errors.Wrap(err, "incorrect 'alert_when' param")
	}

	if conf.RequestTimeout < 0 {
		return Config{}, fmt.Errorf("'request_timeout' must not be negative, got %s", conf.RequestTimeout)
	}
	if conf.RequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("'requests_per_second' must not be negative, got %v", conf.RequestsPerSecond)
	}
	return conf, nil
}

// normalizeAssets upper-cases, trims and de-duplicates, keeping first-seen order.
func normalizeAssets(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, a := range raw {
		a = strings.ToUpper(strings.TrimSpace(a))
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}
	return out
}

func credentialsFromEnv(platform string, getenv func(string) string) (Credentials, error) {
	prefix := strings.ToUpper(platform)
	creds := Credentials{
		APIKey:           strings.TrimSpace(getenv(prefix + "_API_KEY")),
		APISecret:        strings.TrimSpace(getenv(prefix + "_API_SECRET")),
		TelegramToken:    strings.TrimSpace(getenv("TELEGRAM_BOT_TOKEN")),
		PrivateNetworkID: strings.TrimSpace(getenv("PRIVATE_NETWORK_ID")),
	}
	if creds.APIKey == "" || creds.APISecret == "" {
		return Credentials{}, fmt.Errorf("%s_API_KEY and %s_API_SECRET environment variables must be set", prefix, prefix)
	}

	if chat := strings.TrimSpace(getenv("TELEGRAM_CHAT_ID")); chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil {
			return Credentials{}, fmt.Errorf("incorrect TELEGRAM_CHAT_ID %q, error: %w", chat, err)
		}
		creds.TelegramChatID = id
	}
	if (creds.TelegramToken == "") != (creds.TelegramChatID == 0) {
		return Credentials{}, errors.New("TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	return creds, nil
}

// Secrets lists every value that must never leave the process unredacted.
func (c Config) Secrets() []redact.Secret {
	secrets := []redact.Secret{
		{Value: c.Credentials.APIKey, Placeholder: "<API_KEY>"},
		{Value: c.Credentials.APISecret, Placeholder: "<API_SECRET>"},
		{Value: c.Credentials.TelegramToken, Placeholder: "<TELEGRAM_BOT_TOKEN>"},
		{Value: c.Credentials.PrivateNetworkID, Placeholder: "<PRIVATE_NETWORK_ID>"},
	}
	for _, v := range c.Redact {
		secrets = append(secrets, redact.Secret{Value: v, Placeholder: "<PRIVATE_NETWORK_ID>"})
	}
	return secrets
}
