package cmd

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app       = "assessment-flow"
	envPrefix = "ASSESSMENT_FLOW"
)

type Config struct {
	API    *APIConfig    `mapstructure:"api"`
	Actor  *ActorConfig  `mapstructure:"actor"`
	Guard  *GuardConfig  `mapstructure:"guard"`
	Ledger *LedgerConfig `mapstructure:"ledger"`
	AI     *AIConfig     `mapstructure:"ai"`
	Log    *LogConfig    `mapstructure:"log"`
}

type LogConfig struct {
	// Output is stderr, stdout or a file path.
	Output string `mapstructure:"output"`
}

type APIConfig struct {
	URL       string        `mapstructure:"url"`
	Token     string        `mapstructure:"token"`
	TokenFile string        `mapstructure:"token-file"`
	UserAgent string        `mapstructure:"user-agent"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// ActorConfig is the identity the CLI acts as. The id is the candidate id for
// candidate commands and the approver id for review.
type ActorConfig struct {
	ID   int64  `mapstructure:"id"`
	Role string `mapstructure:"role"`
}

type GuardConfig struct {
	Concurrency  int           `mapstructure:"concurrency"`
	CheckTimeout time.Duration `mapstructure:"check-timeout"`
}

type LedgerConfig struct {
	// Path of the sqlite ledger. Empty keeps the ledger in memory.
	Path string `mapstructure:"path"`
}

type AIConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Gemini  *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var defaults = map[string]any{
	"api.url":                  "http://localhost:8080/api",
	"api.token":                "",
	"api.token-file":           "",
	"api.user-agent":           "",
	"api.timeout":              10 * time.Second,
	"actor.id":                 0,
	"actor.role":               "candidate",
	"guard.concurrency":        4,
	"guard.check-timeout":      5 * time.Second,
	"ledger.path":              ".assessment-flow/ledger.db",
	"ai.enabled":               false,
	"ai.gemini.api-key-file":   "",
	"ai.gemini.model":          "gemini-2.5-flash",
	"ai.gemini.max-retries":    3,
	"ai.gemini.max-log-length": 200,
	"log.output":               "stderr",
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "assessment-flow drives technical assessments from submission to contract",
		// usage is noise on API errors
		SilenceUsage: true,
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is assessment-flow.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().Int64("actor-id", 0, "id of the acting user (overrides actor.id)")
	rootCmd.PersistentFlags().String("role", "", "role of the acting user: candidate or company (overrides actor.role)")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("actor.id", rootCmd.PersistentFlags().Lookup("actor-id"))
	viper.BindPFlag("actor.role", rootCmd.PersistentFlags().Lookup("role"))
}

func initConfig() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env: %v", err)
	}

	configureViper()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
	}

	// The config file is optional unless given explicitly.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

// configureViper registers defaults so every key can be overridden from the
// environment, e.g. ASSESSMENT_FLOW_API_TOKEN_FILE for api.token-file.
func configureViper() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.API == nil {
		config.API = &APIConfig{}
	}
	if config.Actor == nil {
		config.Actor = &ActorConfig{}
	}
	if config.Guard == nil {
		config.Guard = &GuardConfig{}
	}
	if config.Ledger == nil {
		config.Ledger = &LedgerConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}
	if config.AI.Gemini == nil {
		config.AI.Gemini = &GeminiConfig{}
	}
	if config.Log == nil {
		config.Log = &LogConfig{}
	}

	return config, nil
}
