package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/sourcebrief/internal/model"
)

// Version is set at build time with -ldflags "-X ...cli.Version=..."
var Version = "v0.1.0"

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "sourcebrief",
	Short: "Sourcebrief - research briefs from a set of source URLs",
	Long: `Sourcebrief fetches a set of web pages, extracts their text and asks a
language model for a structured research brief: a summary, key points,
conflicting claims, what to verify, citations and topic tags.

Briefs are stored and can be listed or retrieved later, from the command
line or through the HTTP API started with 'sourcebrief serve'.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sourcebrief %s\n", Version)
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.sourcebrief/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("store", "memory", "brief store (memory, postgres)")
	rootCmd.PersistentFlags().String("provider", "gemini", "LLM provider (gemini, openai, anthropic, ollama)")
	rootCmd.PersistentFlags().StringSlice("models", nil, "candidate models in fallback order (default: provider's list)")

	_ = viper.BindPFlag("log.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("store.driver", rootCmd.PersistentFlags().Lookup("store"))
	_ = viper.BindPFlag("llm.provider", rootCmd.PersistentFlags().Lookup("provider"))
	_ = viper.BindPFlag("llm.models", rootCmd.PersistentFlags().Lookup("models"))

	rootCmd.AddCommand(versionCmd)
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			return
		}
		viper.AddConfigPath(home + "/.sourcebrief")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	configureViper(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil && verbose {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// configureViper registers defaults and SOURCEBRIEF_* environment lookups.
// Every key needs a default so AutomaticEnv can see it during Unmarshal.
func configureViper(v *viper.Viper) {
	d := model.DefaultConfig()

	v.SetDefault("http.timeout", d.HTTP.Timeout)
	v.SetDefault("http.user_agent", d.HTTP.UserAgent)
	v.SetDefault("http.max_body_bytes", d.HTTP.MaxBodyBytes)
	v.SetDefault("http.max_content_chars", d.HTTP.MaxContentChars)
	v.SetDefault("http.respect_robots", d.HTTP.RespectRobots)
	v.SetDefault("http.http_proxy", d.HTTP.HTTPProxy)
	v.SetDefault("http.https_proxy", d.HTTP.HTTPSProxy)

	v.SetDefault("extract.mode", d.Extract.Mode)
	v.SetDefault("concurrency.fetch_workers", d.Concurrency.FetchWorkers)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.dir", d.Cache.Dir)
	v.SetDefault("cache.redis_url", d.Cache.RedisURL)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.models", []string{})
	v.SetDefault("llm.api_key", d.LLM.APIKey)
	v.SetDefault("llm.base_url", d.LLM.BaseURL)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.max_tokens", d.LLM.MaxTokens)

	v.SetDefault("store.driver", d.Store.Driver)
	v.SetDefault("store.postgres_url", d.Store.PostgresURL)

	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.requests_per_second", d.Server.RequestsPerSecond)
	v.SetDefault("server.burst", d.Server.Burst)

	v.SetDefault("events.brokers", []string{})
	v.SetDefault("events.topic", d.Events.Topic)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetEnvPrefix("SOURCEBRIEF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// loadConfig resolves the effective configuration from v
func loadConfig(v *viper.Viper) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	if len(cfg.LLM.Models) == 0 {
		cfg.LLM.Models = model.DefaultModels(cfg.LLM.Provider)
	}
	applyProviderEnv(&cfg.LLM)

	return cfg, nil
}

// applyProviderEnv fills the API key and base URL from the provider's
// conventional environment variables when the config leaves them empty
func applyProviderEnv(cfg *model.LLMConfig) {
	var keyVar string
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		keyVar = "GEMINI_API_KEY"
	case "openai":
		keyVar = "OPENAI_API_KEY"
	case "anthropic", "claude":
		keyVar = "ANTHROPIC_API_KEY"
	case "ollama":
		if cfg.BaseURL == "" {
			cfg.BaseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		return
	}

	if cfg.APIKey == "" && keyVar != "" {
		cfg.APIKey = os.Getenv(keyVar)
	}
}
