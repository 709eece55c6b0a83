package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

// FilterConfig selects which result sources are shown initially.
type FilterConfig struct {
	AUR      bool `mapstructure:"aur" toml:"aur"`
	Core     bool `mapstructure:"core" toml:"core"`
	Extra    bool `mapstructure:"extra" toml:"extra"`
	Multilib bool `mapstructure:"multilib" toml:"multilib"`
	EOS      bool `mapstructure:"eos" toml:"eos"`
	CachyOS  bool `mapstructure:"cachyos" toml:"cachyos"`
	Artix    bool `mapstructure:"artix" toml:"artix"`
	Manjaro  bool `mapstructure:"manjaro" toml:"manjaro"`
}

// AURConfig holds settings for the AUR web endpoints.
type AURConfig struct {
	BaseURL   string `mapstructure:"base_url" toml:"base_url"`
	TimeoutMS int    `mapstructure:"timeout_ms" toml:"timeout_ms"`
}

// SearchConfig tunes query debouncing.
type SearchConfig struct {
	DebounceMS    int `mapstructure:"debounce_ms" toml:"debounce_ms"`
	MinIntervalMS int `mapstructure:"min_interval_ms" toml:"min_interval_ms"`
}

// PreflightConfig tunes the preflight resolvers.
type PreflightConfig struct {
	FileDBMaxAgeDays int `mapstructure:"file_db_max_age_days" toml:"file_db_max_age_days"`
}

// ExecutorConfig sizes the pseudoterminal used for package operations.
type ExecutorConfig struct {
	Rows int `mapstructure:"rows" toml:"rows"`
	Cols int `mapstructure:"cols" toml:"cols"`
}

// Config holds all runtime configuration for a pacsea session.
// Values are populated from pacsea.toml, PACSEA_* env vars, and CLI flags.
type Config struct {
	SortMode       string          `mapstructure:"sort_mode" toml:"sort_mode"`
	RecentCapacity int             `mapstructure:"recent_capacity" toml:"recent_capacity"`
	InstalledOnly  bool            `mapstructure:"installed_only" toml:"installed_only"`
	DryRun         bool            `mapstructure:"dry_run" toml:"dry_run"`
	Verbose        bool            `mapstructure:"verbose" toml:"verbose"`
	LogFile        string          `mapstructure:"log_file" toml:"log_file"`
	Filters        FilterConfig    `mapstructure:"filters" toml:"filters"`
	AUR            AURConfig       `mapstructure:"aur" toml:"aur"`
	Search         SearchConfig    `mapstructure:"search" toml:"search"`
	Preflight      PreflightConfig `mapstructure:"preflight" toml:"preflight"`
	Executor       ExecutorConfig  `mapstructure:"executor" toml:"executor"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		SortMode:       "best_matches",
		RecentCapacity: 20,
		Filters: FilterConfig{
			AUR: true, Core: true, Extra: true, Multilib: true,
			EOS: true, CachyOS: true, Artix: true, Manjaro: true,
		},
		AUR:       AURConfig{BaseURL: "https://aur.archlinux.org", TimeoutMS: 10000},
		Search:    SearchConfig{DebounceMS: 250, MinIntervalMS: 300},
		Preflight: PreflightConfig{FileDBMaxAgeDays: 7},
		Executor:  ExecutorConfig{Rows: 24, Cols: 80},
	}
}

// setDefaults registers every field of Default with viper so env overrides
// work for keys that are absent from the config file.
func setDefaults() {
	d := Default()
	viper.SetDefault("sort_mode", d.SortMode)
	viper.SetDefault("recent_capacity", d.RecentCapacity)
	viper.SetDefault("installed_only", d.InstalledOnly)
	viper.SetDefault("dry_run", d.DryRun)
	viper.SetDefault("verbose", d.Verbose)
	viper.SetDefault("log_file", d.LogFile)
	viper.SetDefault("filters.aur", d.Filters.AUR)
	viper.SetDefault("filters.core", d.Filters.Core)
	viper.SetDefault("filters.extra", d.Filters.Extra)
	viper.SetDefault("filters.multilib", d.Filters.Multilib)
	viper.SetDefault("filters.eos", d.Filters.EOS)
	viper.SetDefault("filters.cachyos", d.Filters.CachyOS)
	viper.SetDefault("filters.artix", d.Filters.Artix)
	viper.SetDefault("filters.manjaro", d.Filters.Manjaro)
	viper.SetDefault("aur.base_url", d.AUR.BaseURL)
	viper.SetDefault("aur.timeout_ms", d.AUR.TimeoutMS)
	viper.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	viper.SetDefault("search.min_interval_ms", d.Search.MinIntervalMS)
	viper.SetDefault("preflight.file_db_max_age_days", d.Preflight.FileDBMaxAgeDays)
	viper.SetDefault("executor.rows", d.Executor.Rows)
	viper.SetDefault("executor.cols", d.Executor.Cols)
}

// Load reads configuration from viper, applying built-in defaults for any
// values not set by config file, environment, or flags.
func Load() (Config, error) {
	setDefaults()
	viper.SetEnvPrefix("PACSEA")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = Default().RecentCapacity
	}
	if cfg.Executor.Rows <= 0 || cfg.Executor.Cols <= 0 {
		cfg.Executor = Default().Executor
	}
	return cfg, nil
}

// Dir returns the pacsea configuration directory:
// $XDG_CONFIG_HOME/pacsea, falling back to $HOME/.config/pacsea.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "pacsea"), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("config: resolve home directory: %w", err)
		}
	}
	return filepath.Join(home, ".config", "pacsea"), nil
}

// Paths lists every file pacsea persists under the configuration directory.
type Paths struct {
	Dir           string
	ConfigFile    string
	RecentSearch  string
	DetailsCache  string
	InstallList   string
	OfficialIndex string
	PreflightDir  string
	History       string
	Log           string
}

// ResolvePaths builds Paths rooted at dir and creates the directories.
func ResolvePaths(dir string) (Paths, error) {
	p := Paths{
		Dir:           dir,
		ConfigFile:    filepath.Join(dir, "pacsea.toml"),
		RecentSearch:  filepath.Join(dir, "recent_searches.json"),
		DetailsCache:  filepath.Join(dir, "details_cache.json"),
		InstallList:   filepath.Join(dir, "install_list.json"),
		OfficialIndex: filepath.Join(dir, "official_index.json"),
		PreflightDir:  filepath.Join(dir, "preflight"),
		History:       filepath.Join(dir, "history.db"),
		Log:           filepath.Join(dir, "pacsea.log"),
	}
	if err := os.MkdirAll(p.PreflightDir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("config: create %s: %w", p.PreflightDir, err)
	}
	return p, nil
}

// WriteDefault writes the default configuration as TOML to path. It refuses
// to overwrite an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config: %s already exists", path)
		}
	}
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("config: encode defaults: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}
