package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. TRANSLATOR_TARGET_URL.
const EnvPrefix = "TRANSLATOR"

// Config represents the suite configuration
type Config struct {
	Target   TargetConfig  `mapstructure:"target"`
	Timeouts TimeoutConfig `mapstructure:"timeouts"`
	Browser  BrowserConfig `mapstructure:"browser"`
	Run      RunConfig     `mapstructure:"run"`
	Report   ReportConfig  `mapstructure:"report"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// TargetConfig describes the site under test and the DOM contracts it exposes.
type TargetConfig struct {
	URL           string `mapstructure:"url"`
	InputLabel    string `mapstructure:"input_label"`
	OutputClasses string `mapstructure:"output_classes"`
}

// TimeoutConfig holds the settle delays and deadlines used while driving the page.
type TimeoutConfig struct {
	PageLoad     time.Duration `mapstructure:"page_load"`
	AfterClear   time.Duration `mapstructure:"after_clear"`
	Translation  time.Duration `mapstructure:"translation"`
	BetweenTests time.Duration `mapstructure:"between_tests"`
	OutputPoll   time.Duration `mapstructure:"output_poll"`
	Navigation   time.Duration `mapstructure:"navigation"`
	Action       time.Duration `mapstructure:"action"`
	Scenario     time.Duration `mapstructure:"scenario"`
}

type BrowserConfig struct {
	Engine         string        `mapstructure:"engine"`
	Headless       bool          `mapstructure:"headless"`
	SlowMo         time.Duration `mapstructure:"slow_mo"`
	ViewportWidth  int           `mapstructure:"viewport_width"`
	ViewportHeight int           `mapstructure:"viewport_height"`
	Screenshots    bool          `mapstructure:"screenshots"`
	SkipInstall    bool          `mapstructure:"skip_install"`
}

type RunConfig struct {
	Workers int    `mapstructure:"workers"`
	Grep    string `mapstructure:"grep"`
	Pace    bool   `mapstructure:"pace"`
}

type ReportConfig struct {
	Reporters   []string `mapstructure:"reporters"`
	OutputDir   string   `mapstructure:"output_dir"`
	MetricsFile string   `mapstructure:"metrics_file"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"target.url":            "https://www.swifttranslator.com/",
	"target.input_label":    "Input Your Singlish Text Here.",
	"target.output_classes": "w-full h-80 p-3 rounded-lg ring-1 ring-slate-300 whitespace-pre-wrap",

	"timeouts.page_load":     2 * time.Second,
	"timeouts.after_clear":   1 * time.Second,
	"timeouts.translation":   3 * time.Second,
	"timeouts.between_tests": 2 * time.Second,
	"timeouts.output_poll":   8 * time.Second,
	"timeouts.navigation":    30 * time.Second,
	"timeouts.action":        30 * time.Second,
	"timeouts.scenario":      60 * time.Second,

	"browser.engine":          EnginePlaywright,
	"browser.headless":        true,
	"browser.slow_mo":         time.Duration(0),
	"browser.viewport_width":  1280,
	"browser.viewport_height": 720,
	"browser.screenshots":     true,
	"browser.skip_install":    false,

	"run.workers": 1,
	"run.grep":    "",
	"run.pace":    false,

	"report.reporters":    []string{ReporterList, ReporterHTML},
	"report.output_dir":   "test-results",
	"report.metrics_file": "",

	"logging.level":  "info",
	"logging.format": "console",
}

// legacyEnv maps keys to the unprefixed variables the older e2e harness read.
var legacyEnv = map[string]string{
	"target.url":           "BASE_URL",
	"browser.headless":     "HEADLESS",
	"browser.screenshots":  "SCREENSHOTS",
	"browser.skip_install": "PLAYWRIGHT_PREINSTALLED",
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}

// Default returns the built-in configuration without consulting files or the environment.
func Default() *Config {
	cfg := &Config{}
	if err := newViper().Unmarshal(cfg); err != nil {
		panic(fmt.Sprintf("config: built-in defaults do not decode: %v", err))
	}
	return cfg
}

// Load builds the configuration from defaults, an optional YAML file, .env and
// the environment, in increasing order of precedence. An empty path skips the file.
func Load(path string) (*Config, error) {
	// .env is optional; variables already exported win over it.
	_ = godotenv.Load()

	v := newViper()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, name := range legacyEnv {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, name); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", name, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := NewValidator(cfg).Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads configuration and panics on error
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}
	return cfg
}

// ClassSelector turns the output class list into a CSS class chain, e.g. ".w-full.h-80".
func (t *TargetConfig) ClassSelector() string {
	fields := strings.Fields(t.OutputClasses)
	if len(fields) == 0 {
		return ""
	}
	return "." + strings.Join(fields, ".")
}

// HasReporter reports whether name is among the enabled reporters.
func (r *ReportConfig) HasReporter(name string) bool {
	for _, rep := range r.Reporters {
		if strings.EqualFold(strings.TrimSpace(rep), name) {
			return true
		}
	}
	return false
}
