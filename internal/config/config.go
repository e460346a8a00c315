// Package config provides Viper-based hierarchical configuration for the bot.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var envOnce sync.Once

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Telegram struct {
		Token string `mapstructure:"token" yaml:"-"` // Never serialize the token
		// AdminIDs is a comma-separated list of privileged user IDs.
		AdminIDs string `mapstructure:"admin_ids" yaml:"admin_ids"`
	} `mapstructure:"telegram" yaml:"telegram"`

	Classifier struct {
		APIKey string `mapstructure:"api_key" yaml:"-"`
		Model  string `mapstructure:"model" yaml:"model"`
	} `mapstructure:"classifier" yaml:"classifier"`

	Transcriber struct {
		APIKey  string `mapstructure:"api_key" yaml:"-"`
		Model   string `mapstructure:"model" yaml:"model"`
		BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	} `mapstructure:"transcriber" yaml:"transcriber"`

	Sheets struct {
		ServiceAccountFile  string `mapstructure:"service_account_file" yaml:"service_account_file"`
		ServiceAccountEmail string `mapstructure:"service_account_email" yaml:"service_account_email"`
		IncomeSheetName     string `mapstructure:"income_sheet_name" yaml:"income_sheet_name"`
		ExpenseSheetName    string `mapstructure:"expense_sheet_name" yaml:"expense_sheet_name"`
	} `mapstructure:"sheets" yaml:"sheets"`

	Storage struct {
		Path string `mapstructure:"path" yaml:"path"`
	} `mapstructure:"storage" yaml:"storage"`
}

// Load initializes Viper configuration with hierarchical loading: defaults,
// optional config file, then environment variables.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.ledgerbot")
	v.AddConfigPath(".ledgerbot")
	v.AddConfigPath(".")

	v.SetEnvPrefix("LEDGERBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Continue with defaults and env vars; the file is optional.
			fmt.Printf("Warning: error reading config file %s: %v\n", v.ConfigFileUsed(), err)
		}
	}

	// Secrets and identity always come from well-known unprefixed env vars.
	envBindings := map[string]string{
		"telegram.token":              "TELEGRAM_BOT_TOKEN",
		"telegram.admin_ids":          "ADMIN_USER_IDS",
		"classifier.api_key":          "GEMINI_API_KEY",
		"transcriber.api_key":         "GROQ_API_KEY",
		"sheets.service_account_file": "SERVICE_ACCOUNT_FILE",
		"sheets.service_account_email": "SERVICE_ACCOUNT_EMAIL",
	}
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			fmt.Printf("Warning: failed to bind %s environment variable: %v\n", env, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("classifier.model", "gemini-2.0-flash")

	v.SetDefault("transcriber.model", "whisper-large-v3")
	v.SetDefault("transcriber.base_url", "https://api.groq.com/openai/v1")

	v.SetDefault("sheets.service_account_file", "service_account.json")
	v.SetDefault("sheets.income_sheet_name", "Доходы факт")
	v.SetDefault("sheets.expense_sheet_name", "Расходы факт")

	v.SetDefault("storage.path", "groups.yaml")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}

	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Sheets.IncomeSheetName == "" || config.Sheets.ExpenseSheetName == "" {
		return fmt.Errorf("sheet names must not be empty")
	}

	if _, err := config.AdminIDs(); err != nil {
		return err
	}

	return nil
}

// AdminIDs parses the comma-separated admin list into user IDs.
func (c *Config) AdminIDs() ([]int64, error) {
	raw := strings.TrimSpace(c.Telegram.AdminIDs)
	if raw == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid admin user id %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SheetName maps a transaction type to its target sheet.
func (c *Config) SheetName(transactionType string) (string, error) {
	switch strings.ToLower(transactionType) {
	case "income":
		return c.Sheets.IncomeSheetName, nil
	case "expense":
		return c.Sheets.ExpenseSheetName, nil
	default:
		return "", fmt.Errorf("invalid transaction type: %s", transactionType)
	}
}

// LoadEnv loads environment variables from a .env file if one exists. It is
// safe to call more than once.
func LoadEnv() {
	envOnce.Do(func() {
		envFile := ".env"
		if _, err := os.Stat(envFile); os.IsNotExist(err) {
			envFile = filepath.Join("..", ".env")
			if _, err := os.Stat(envFile); os.IsNotExist(err) {
				return
			}
		}
		_ = godotenv.Load(envFile)
	})
}

// ConfigureLogging builds a logrus logger from the Config values.
func ConfigureLogging(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
