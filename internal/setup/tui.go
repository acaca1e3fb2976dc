package setup

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/dkent600/mexc-portfolio-tracker/config"
	"github.com/dkent600/mexc-portfolio-tracker/internal/domain"
)

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	warning   = lipgloss.AdaptiveColor{Light: "#C2410C", Dark: "#FDBA74"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Background(highlight).
			Padding(1, 2).
			Bold(true).
			MarginBottom(1)

	stepStyle = lipgloss.NewStyle().
			Foreground(special).
			Bold(true).
			MarginTop(1).
			MarginBottom(0)
)

const title = "PORTFOLIO TRACKER SETUP"

// answers collected by the wizard.
type answers struct {
	platform  string
	assets    string
	quote     string
	baseValue string
	threshold string
	alertWhen string
	autoTrim  bool
	dryRun    bool
}

func header(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(title))
	fmt.Println(stepStyle.Render(step))
}

// RunTUI walks through the settings and writes them to path as YAML.
// Credentials are not asked for; they stay in the environment.
func RunTUI(path string) error {
	a := answers{
		platform:  config.PlatformMexc,
		quote:     config.DefaultQuote,
		baseValue: "500",
		alertWhen: string(domain.AlertAbove),
		dryRun:    true,
	}
	var confirm bool

	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render(title))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Values the configured assets and trims anything above the base value.\n"))

	fmt.Println(stepStyle.Render("STEP 1: EXCHANGE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select Exchange Platform").
				Options(
					huh.NewOption("MEXC", config.PlatformMexc),
					huh.NewOption("Binance", config.PlatformBinance),
					huh.NewOption("Bybit", config.PlatformBybit),
				).
				Value(&a.platform),
		),
	).Run()
	if err != nil {
		return err
	}

	header("STEP 2: ASSETS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Assets").
				Description("Comma separated (e.g. BTC,ETH,AVAX)").
				Value(&a.assets).
				Validate(validateAssets),
			huh.NewInput().
				Title("Quote currency").
				Value(&a.quote).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("quote cannot be empty")
					}
					return nil
				}),
		),
	).Run()
	if err != nil {
		return err
	}

	header("STEP 3: THRESHOLDS")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Base value per asset").
				Description("Target value in quote currency; excess above it is sold").
				Value(&a.baseValue).
				Validate(validatePositive),
			huh.NewInput().
				Title("Portfolio alert threshold").
				Value(&a.threshold).
				Validate(validateNonNegative),
			huh.NewSelect[string]().
				Title("Alert when the total is").
				Options(
					huh.NewOption("At or above the threshold", string(domain.AlertAbove)),
					huh.NewOption("Below the threshold", string(domain.AlertBelow)),
				).
				Value(&a.alertWhen),
		),
	).Run()
	if err != nil {
		return err
	}

	header("STEP 4: AUTO-TRIM")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Sell excess automatically when the alert triggers?").
				Description(lipgloss.NewStyle().Foreground(warning).Render("Places real market orders")).
				Value(&a.autoTrim),
			huh.NewConfirm().
				Title("Dry run?").
				Description("Log the orders instead of submitting them").
				Value(&a.dryRun),
		),
	).Run()
	if err != nil {
		return err
	}

	header("FINAL CONFIRMATION")
	cfgTmp := a.configTmp()
	summary := fmt.Sprintf(
		"Platform: %s\nAssets: %s\nBase value: %s %s\nThreshold: %s (alert when %s)\nAuto-trim: %t (dry run: %t)\n",
		cfgTmp.Platform, strings.Join(cfgTmp.Assets, ", "), cfgTmp.BaseValue, cfgTmp.Quote,
		cfgTmp.AlertThreshold, cfgTmp.AlertWhen, cfgTmp.AutoTrim, cfgTmp.DryRun,
	)
	fmt.Println(lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(1).Render(summary))

	err = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Save Configuration?").
				Affirmative("Yes, save").
				Negative("No, exit").
				Value(&confirm),
		),
	).Run()
	if err != nil {
		return err
	}
	if !confirm {
		return fmt.Errorf("setup cancelled by user")
	}

	if err := writeConfig(path, cfgTmp); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", path)))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render(
		fmt.Sprintf("Set %s_API_KEY and %s_API_SECRET (and optionally TELEGRAM_BOT_TOKEN, TELEGRAM_CHAT_ID) in .env",
			strings.ToUpper(cfgTmp.Platform), strings.ToUpper(cfgTmp.Platform))))
	return nil
}

func (a answers) configTmp() config.ConfigTmp {
	var assets []string
	for _, s := range strings.Split(a.assets, ",") {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			assets = append(assets, s)
		}
	}
	return config.ConfigTmp{
		Platform:       a.platform,
		Assets:         assets,
		Quote:          strings.ToUpper(strings.TrimSpace(a.quote)),
		BaseValue:      strings.TrimSpace(a.baseValue),
		AlertThreshold: strings.TrimSpace(a.threshold),
		AlertWhen:      a.alertWhen,
		AutoTrim:       a.autoTrim,
		DryRun:         a.dryRun,
	}
}

func writeConfig(path string, cfgTmp config.ConfigTmp) error {
	data, err := yaml.Marshal(cfgTmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func validateAssets(s string) error {
	for _, a := range strings.Split(s, ",") {
		if strings.TrimSpace(a) != "" {
			return nil
		}
	}
	return fmt.Errorf("list at least one asset")
}

func validatePositive(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if !d.IsPositive() {
		return fmt.Errorf("must be greater than 0")
	}
	return nil
}

func validateNonNegative(s string) error {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("must be a valid number")
	}
	if d.IsNegative() {
		return fmt.Errorf("must not be negative")
	}
	return nil
}
