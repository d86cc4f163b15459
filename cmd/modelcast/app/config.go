package app

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/agentstation/modelcast/internal/catalog"
	"github.com/agentstation/modelcast/internal/server"
	"github.com/agentstation/modelcast/pkg/constants"
	"github.com/agentstation/modelcast/pkg/errors"
)

// EnvPrefix prefixes every environment variable read through viper,
// e.g. MODELCAST_CATALOG_PATH for catalog.path.
const EnvPrefix = "MODELCAST"

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Server configuration used by serve and validate
	Server server.Config

	// Remote server used by get and watch
	RemoteURL      string
	ReconnectDelay time.Duration

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (applied later by the commands)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.modelcast.yaml or ./.modelcast.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file. An empty path
// searches the standard locations; a missing explicit file is an error.
func LoadConfigFile(path string) (*Config, error) {
	// Load .env files first (before Viper env binding)
	loadEnvFiles()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("config", "cannot read "+path, err)
		}
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".modelcast")

		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.NewConfigError("config", "cannot parse "+v.ConfigFileUsed(), err)
			}
		}
	}

	config := &Config{
		Verbose:    v.GetBool("verbose"),
		Quiet:      v.GetBool("quiet"),
		NoColor:    v.GetBool("no_color"),
		Format:     v.GetString("format"),
		ConfigFile: v.ConfigFileUsed(),

		Server: server.Config{
			Host:             v.GetString("server.host"),
			Port:             v.GetInt("server.port"),
			PathPrefix:       v.GetString("server.prefix"),
			CORSEnabled:      v.GetBool("server.cors"),
			CORSOrigins:      v.GetStringSlice("server.cors_origins"),
			RateLimit:        v.GetInt("server.rate_limit"),
			SubscriberBuffer: v.GetInt("server.subscriber_buffer"),
			ReadTimeout:      v.GetDuration("server.read_timeout"),
			WriteTimeout:     v.GetDuration("server.write_timeout"),
			IdleTimeout:      v.GetDuration("server.idle_timeout"),
			MetricsEnabled:   v.GetBool("server.metrics"),
			CatalogPath:      v.GetString("catalog.path"),
			Trigger:          v.GetString("catalog.trigger"),
			PollInterval:     v.GetDuration("catalog.poll_interval"),
			KeepLastGood:     v.GetBool("catalog.keep_last_good"),
			QuestionsPath:    v.GetString("feedback.questions_path"),
			FeedbackLogPath:  v.GetString("feedback.log_path"),
		},

		RemoteURL:      v.GetString("remote.url"),
		ReconnectDelay: v.GetDuration("remote.reconnect_delay"),

		// Logging configuration
		LogLevel:  getEnvOrDefault("LOG_LEVEL", ""),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput: getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}

	return config, nil
}

// setDefaults mirrors server.DefaultConfig so that a bare environment
// yields the same server as the library defaults.
func setDefaults(v *viper.Viper) {
	d := server.DefaultConfig()

	v.SetDefault("server.host", d.Host)
	v.SetDefault("server.port", d.Port)
	v.SetDefault("server.prefix", d.PathPrefix)
	v.SetDefault("server.cors", d.CORSEnabled)
	v.SetDefault("server.cors_origins", d.CORSOrigins)
	v.SetDefault("server.rate_limit", d.RateLimit)
	v.SetDefault("server.subscriber_buffer", d.SubscriberBuffer)
	v.SetDefault("server.read_timeout", d.ReadTimeout)
	v.SetDefault("server.write_timeout", d.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.IdleTimeout)
	v.SetDefault("server.metrics", d.MetricsEnabled)

	v.SetDefault("catalog.path", d.CatalogPath)
	v.SetDefault("catalog.trigger", catalog.TriggerFsnotify)
	v.SetDefault("catalog.poll_interval", d.PollInterval)
	v.SetDefault("catalog.keep_last_good", d.KeepLastGood)

	v.SetDefault("feedback.questions_path", d.QuestionsPath)
	v.SetDefault("feedback.log_path", d.FeedbackLogPath)

	v.SetDefault("remote.url", "http://localhost:8080")
	v.SetDefault("remote.reconnect_delay", constants.DefaultReconnectDelay)
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel, remoteURL string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	if remoteURL != "" {
		c.RemoteURL = remoteURL
	}
}

// loadEnvFiles loads environment variables from .env files. godotenv never
// overwrites a variable that is already set, so .env.local is loaded first
// to take precedence over .env.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}

// getEnvOrDefault returns the environment variable value or the default if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
