package setup

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/easysteem/config"
	"github.com/vadiminshakov/easysteem/internal/chainprops"
	"github.com/vadiminshakov/easysteem/internal/services/pricer"
)

// DefaultFilename is where the wizard writes the config.
const DefaultFilename = "easysteem.yaml"

var (
	subtle    = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#383838"}
	highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"}
	special   = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}

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

// Answers are the values collected by the wizard.
type Answers struct {
	NodeURL       string
	Account       string
	AppID         string
	AccessToken   string
	SteemSource   string
	SBDSource     string
	RefreshPolicy string
	MaxAge        string
	StaleOnError  bool
	WALDir        string
	ListenAddr    string
}

// DefaultAnswers pre-fills the wizard from conf.
func DefaultAnswers(conf config.Config) Answers {
	return Answers{
		NodeURL:       conf.NodeURL,
		Account:       conf.Account,
		AppID:         conf.AppID,
		SteemSource:   string(sourceOrDefault(conf.PriceSources[conf.NativeSymbol])),
		SBDSource:     string(sourceOrDefault(conf.PriceSources[conf.StableSymbol])),
		RefreshPolicy: conf.RefreshPolicy.Mode.String(),
		MaxAge:        conf.RefreshPolicy.MaxAge.String(),
		StaleOnError:  conf.StaleOnError,
		WALDir:        conf.WALDir,
		ListenAddr:    conf.ListenAddr,
	}
}

func sourceOrDefault(s pricer.Source) pricer.Source {
	if s == "" {
		return pricer.SourceCryptoCompare
	}
	return s
}

// ConfigTmp turns the answers into the on-disk config.
func (a Answers) ConfigTmp() (config.ConfigTmp, error) {
	maxAge, err := time.ParseDuration(a.MaxAge)
	if err != nil {
		return config.ConfigTmp{}, fmt.Errorf("invalid max age: %w", err)
	}

	conf := config.Default()
	tmp := conf.Tmp()
	tmp.NodeURL = a.NodeURL
	tmp.Account = a.Account
	tmp.AppID = a.AppID
	tmp.AccessToken = a.AccessToken
	tmp.PriceSources = map[string]string{
		conf.NativeSymbol: a.SteemSource,
		conf.StableSymbol: a.SBDSource,
	}
	tmp.RefreshPolicy = a.RefreshPolicy
	tmp.MaxAge = maxAge
	tmp.StaleOnErrorStr = strconv.FormatBool(a.StaleOnError)
	tmp.WALDir = a.WALDir
	tmp.ListenAddr = a.ListenAddr

	if _, err := tmp.Config(); err != nil {
		return config.ConfigTmp{}, err
	}
	return tmp, nil
}

// Save writes the answers as yaml to filename.
func (a Answers) Save(filename string) error {
	tmp, err := a.ConfigTmp()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(tmp)
	if err != nil {
		return fmt.Errorf("failed to generate yaml: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

func clearAndTitle(step string) {
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("EASYSTEEM CONFIG WIZARD"))
	fmt.Println(stepStyle.Render(step))
}

func sourceSelect(title string, value *string) *huh.Select[string] {
	return huh.NewSelect[string]().
		Title(title).
		Options(
			huh.NewOption("CryptoCompare", string(pricer.SourceCryptoCompare)),
			huh.NewOption("Binance", string(pricer.SourceBinance)),
			huh.NewOption("Bybit", string(pricer.SourceBybit)),
		).
		Value(value)
}

// RunTUI launches the terminal configuration wizard and writes filename.
func RunTUI(filename string) error {
	if filename == "" {
		filename = DefaultFilename
	}
	a := DefaultAnswers(config.Default())
	var confirm bool

	// step 1: node
	fmt.Print("\033[H\033[2J")
	fmt.Println(headerStyle.Render("EASYSTEEM CONFIG WIZARD"))
	fmt.Println(lipgloss.NewStyle().Foreground(subtle).Render("Point easysteem at a node and an account.\n"))
	fmt.Println(stepStyle.Render("STEP 1: NODE"))
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Steem node URL").
				Value(&a.NodeURL).
				Validate(validateURL),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 2: account
	clearAndTitle("STEP 2: ACCOUNT")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Account").
				Description("Leave empty for read-only use").
				Value(&a.Account),
			huh.NewInput().
				Title("SteemConnect app id").
				Value(&a.AppID),
			huh.NewInput().
				Title("SteemConnect access token").
				Description("Can also be set with " + config.TokenEnv).
				Value(&a.AccessToken).
				EchoMode(huh.EchoModePassword),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 3: prices
	clearAndTitle("STEP 3: PRICES")
	err = huh.NewForm(
		huh.NewGroup(
			sourceSelect("STEEM price source", &a.SteemSource),
			sourceSelect("SBD price source", &a.SBDSource),
		),
	).Run()
	if err != nil {
		return err
	}

	// step 4: refresh
	clearAndTitle("STEP 4: CHAIN PROPERTIES")
	err = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Refresh policy").
				Options(
					huh.NewOption("When older than max age", chainprops.RefreshIfStale.String()),
					huh.NewOption("On every call", chainprops.RefreshAlways.String()),
					huh.NewOption("Once", chainprops.RefreshIfEmpty.String()),
					huh.NewOption("Never", chainprops.RefreshNever.String()),
				).
				Value(&a.RefreshPolicy),
			huh.NewInput().
				Title("Max age").
				Description("Duration string (e.g. 30s, 1m, 5m)").
				Value(&a.MaxAge).
				Validate(func(s string) error {
					_, err := time.ParseDuration(s)
					return err
				}),
			huh.NewConfirm().
				Title("Use the last known values when a refresh fails?").
				Value(&a.StaleOnError),
			huh.NewInput().
				Title("Snapshot directory").
				Description("Leave empty to keep snapshots in memory only").
				Value(&a.WALDir),
		),
	).Run()
	if err != nil {
		return err
	}

	// confirmation
	clearAndTitle("FINAL CONFIRMATION")

	account := a.Account
	if account == "" {
		account = "(read-only)"
	}
	summary := fmt.Sprintf(
		"Node: %s\nAccount: %s\nSTEEM: %s\nSBD: %s\nRefresh: %s (%s)\n",
		a.NodeURL, account, a.SteemSource, a.SBDSource, a.RefreshPolicy, a.MaxAge,
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

	if err := a.Save(filename); err != nil {
		return err
	}

	fmt.Println(lipgloss.NewStyle().Foreground(special).Render(fmt.Sprintf("\n✓ Configuration saved to %s", filename)))
	return nil
}

func validateURL(s string) error {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("must be an http(s) URL")
	}
	return nil
}
