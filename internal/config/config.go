package config

import (
	"os"
	"strings"

	"github.com/NelisKaars/DigitalTwinAnalyzer/internal/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultLogLevel = "info"

	defaultBackendURL      = "http://localhost:8080"
	defaultThingID         = "org.eclipse.ditto:Mixer"
	defaultUsername        = "ditto"
	defaultPassword        = "ditto"
	defaultPollInterval    = 2000
	defaultQuiescenceDelay = 500
	defaultWriteDebounce   = 100
	defaultWindowSize      = 60
	defaultMemoryInterval  = 1000
	defaultListenAddr      = ":8090"
	defaultFramework       = "console"
	defaultMixerCount      = 6
)

type Config struct {
	// Remote twin backend
	BackendURL string `mapstructure:"backend_url"`
	ThingID    string `mapstructure:"thing_id"`
	Username   string `mapstructure:"username"`
	Password   string `mapstructure:"password"`

	// Coordinator timing (milliseconds)
	PollInterval    int `mapstructure:"poll_interval"`
	QuiescenceDelay int `mapstructure:"quiescence_delay"`
	WriteDebounce   int `mapstructure:"write_debounce"`

	// Metrics
	WindowSize     int    `mapstructure:"window_size"`
	MemoryInterval int    `mapstructure:"memory_interval"`
	Metrics        bool   `mapstructure:"metrics"`
	MetricsDB      string `mapstructure:"metrics_db"`
	ExportDir      string `mapstructure:"export_dir"`

	// Dashboard and rendering
	ListenAddr    string `mapstructure:"listen_addr"`
	Framework     string `mapstructure:"framework"`
	SceneManifest string `mapstructure:"scene_manifest"`
	MixerCount    int    `mapstructure:"mixer_count"`

	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`
	Verbose  bool   `mapstructure:"verbose"`
}

// Load reads configuration from flags, an optional TOML file and the
// environment. Command-line flags override file values, which override
// defaults. The config file location can be forced via TWINCTL_CONFIG.
func Load() (*Config, error) {
	errFactory := errors.New()

	v := viper.New()
	setDefaults(v)

	flags := pflag.NewFlagSet("twinctl", pflag.ContinueOnError)
	flags.ParseErrorsWhitelist.UnknownFlags = true
	flags.String("backend-url", defaultBackendURL, "Base URL of the Ditto backend")
	flags.String("thing-id", defaultThingID, "Identifier of the digital twin thing")
	flags.String("username", defaultUsername, "Backend username")
	flags.String("password", defaultPassword, "Backend password")
	flags.Int("poll-interval", defaultPollInterval, "Twin state poll interval (ms)")
	flags.Int("quiescence-delay", defaultQuiescenceDelay, "Interaction quiescence delay (ms)")
	flags.Int("write-debounce", defaultWriteDebounce, "Control write debounce window (ms)")
	flags.Int("window-size", defaultWindowSize, "Rolling metrics window capacity")
	flags.Int("memory-interval", defaultMemoryInterval, "Memory sampling cadence (ms)")
	flags.Bool("metrics", false, "Persist session metrics to sqlite")
	flags.String("metrics-db", "", "Path to the metrics database")
	flags.String("export-dir", ".", "Directory for CSV exports")
	flags.String("listen-addr", defaultListenAddr, "Dashboard listen address")
	flags.String("framework", defaultFramework, "Rendering framework to activate on start")
	flags.String("scene-manifest", "", "Path to the scene manifest file")
	flags.Int("mixer-count", defaultMixerCount, "Sub-entity fan-out count when no mixer is selected")
	flags.String("log-level", DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")

	if err := flags.Parse(os.Args[1:]); err != nil {
		return nil, errFactory.Wrap(errors.ErrBindFlags, err)
	}

	v.SetConfigName("twinctl")
	v.SetConfigType("toml")
	v.AddConfigPath("/etc")
	v.AddConfigPath(".")
	if path := os.Getenv("TWINCTL_CONFIG"); path != "" {
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("TWINCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, errFactory.Wrap(errors.ErrReadConfig, err)
		}
	}

	// Flags that were explicitly set win over file and env values
	flags.Visit(func(f *pflag.Flag) {
		v.Set(strings.ReplaceAll(f.Name, "-", "_"), f.Value.String())
	})

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	applyLogLevel(config)

	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend_url", defaultBackendURL)
	v.SetDefault("thing_id", defaultThingID)
	v.SetDefault("username", defaultUsername)
	v.SetDefault("password", defaultPassword)
	v.SetDefault("poll_interval", defaultPollInterval)
	v.SetDefault("quiescence_delay", defaultQuiescenceDelay)
	v.SetDefault("write_debounce", defaultWriteDebounce)
	v.SetDefault("window_size", defaultWindowSize)
	v.SetDefault("memory_interval", defaultMemoryInterval)
	v.SetDefault("metrics", false)
	v.SetDefault("metrics_db", "")
	v.SetDefault("export_dir", ".")
	v.SetDefault("listen_addr", defaultListenAddr)
	v.SetDefault("framework", defaultFramework)
	v.SetDefault("scene_manifest", "")
	v.SetDefault("mixer_count", defaultMixerCount)
	v.SetDefault("log_level", DefaultLogLevel)
	v.SetDefault("debug", false)
	v.SetDefault("verbose", false)
}

// Validate checks invariants that the rest of the system relies on
func (c *Config) Validate() error {
	errFactory := errors.New()

	if c.BackendURL == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "backend_url must not be empty")
	}
	if c.ThingID == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "thing_id must not be empty")
	}
	if c.PollInterval <= 0 || c.QuiescenceDelay <= 0 || c.WriteDebounce <= 0 {
		return errFactory.New(errors.ErrInvalidInterval)
	}
	if c.WindowSize <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "window_size must be positive")
	}
	if c.MixerCount <= 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig, "mixer_count must be positive")
	}
	if c.Metrics && c.MetricsDB == "" {
		return errFactory.WithMessage(errors.ErrMissingConfig, "metrics_db required when metrics enabled")
	}
	if !isValidLogLevel(c.LogLevel) {
		return errFactory.WithData(errors.ErrInvalidLogLevel, c.LogLevel)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warning", "error":
		return true
	default:
		return false
	}
}

func applyLogLevel(c *Config) {
	switch {
	case c.Debug || c.LogLevel == "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case c.Verbose || c.LogLevel == "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case c.LogLevel == "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	}
}
