// Command portfolio-tracker values a crypto exchange portfolio once, reports
// it, and when the alert threshold triggers with auto-trim enabled sells
// each asset's value above the base back down to the base.
// It is meant to be run periodically by an external scheduler.
//
// Usage:
//
//	portfolio-tracker --config config.yaml
//	portfolio-tracker --assets BTC,ETH --base-value 500 --threshold 2000 --auto-trim
//	portfolio-tracker --setup
//
// Required environment variables (a .env file is read if present):
//
//	MEXC_API_KEY, MEXC_API_SECRET (or BINANCE_*, BYBIT_* for those platforms)
//
// Optional:
//
//	TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID, PRIVATE_NETWORK_ID
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dkent600/mexc-portfolio-tracker/config"
	"github.com/dkent600/mexc-portfolio-tracker/internal"
	"github.com/dkent600/mexc-portfolio-tracker/internal/clients"
	"github.com/dkent600/mexc-portfolio-tracker/internal/logging"
	"github.com/dkent600/mexc-portfolio-tracker/internal/redact"
	"github.com/dkent600/mexc-portfolio-tracker/internal/services/notifier"
	"github.com/dkent600/mexc-portfolio-tracker/internal/setup"
)

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	flags, err := config.ParseFlags(os.Args[1:])
	if err != nil {
		return 2
	}

	if flags.Setup {
		path := flags.ConfigPath
		if path == "" {
			path = config.DefaultGeneratedConfig
		}
		if err := setup.RunTUI(path); err != nil {
			fmt.Fprintln(os.Stderr, "setup failed:", err)
			return 1
		}
		flags.ConfigPath = path
	}

	conf, err := config.Load(flags, os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		return 1
	}

	r := redact.New(conf.Secrets()...)

	logger, closeLog, err := logging.New(logging.Options{File: conf.LogFile}, r)
	if err != nil {
		fmt.Fprintln(os.Stderr, r.String("failed to create logger: "+err.Error()))
		return 1
	}
	defer closeLog()

	n := newNotifier(conf, r, logger)
	ctx := context.Background()

	tracker, err := internal.NewTracker(conf, newClient(conf), n, logger)
	if err != nil {
		internal.ReportFailure(ctx, time.Now(), err, r, logger, n, os.Stderr)
		return 1
	}

	logger.Info("Starting portfolio run",
		zap.String("platform", conf.Platform),
		zap.Strings("assets", conf.Assets),
		zap.Bool("autoTrim", conf.AutoTrim),
		zap.Bool("dryRun", conf.DryRun))

	if _, err := tracker.Run(ctx); err != nil {
		internal.ReportFailure(ctx, time.Now(), err, r, logger, n, os.Stderr)
		return 1
	}

	logger.Info("Portfolio run finished")
	return 0
}

func newClient(conf config.Config) any {
	creds := conf.Credentials
	switch conf.Platform {
	case config.PlatformBinance:
		return clients.NewBinanceClient(creds.APIKey, creds.APISecret, conf.BaseURL, conf.RequestTimeout)
	case config.PlatformBybit:
		return clients.NewBybitClient(creds.APIKey, creds.APISecret, conf.BaseURL, conf.RequestTimeout)
	default:
		opts := []clients.MexcOption{
			clients.WithMexcTimeout(conf.RequestTimeout),
			clients.WithMexcRateLimit(conf.RequestsPerSecond),
		}
		if conf.BaseURL != "" {
			opts = append(opts, clients.WithMexcBaseURL(conf.BaseURL))
		}
		return clients.NewMexcClient(creds.APIKey, creds.APISecret, opts...)
	}
}

// newNotifier falls back to Nop when Telegram is not configured or the bot
// token is rejected; the run itself does not depend on notifications.
func newNotifier(conf config.Config, r *redact.Redactor, logger *zap.Logger) notifier.Notifier {
	if !conf.Credentials.TelegramEnabled() {
		logger.Info("Telegram not configured, notifications disabled")
		return notifier.Nop{}
	}
	tg, err := notifier.NewTelegram(conf.Credentials.TelegramToken, conf.Credentials.TelegramChatID, r)
	if err != nil {
		logger.Warn("Telegram unavailable, notifications disabled", zap.Error(err))
		return notifier.Nop{}
	}
	return tg
}
