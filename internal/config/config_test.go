package config

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	// Run in an empty directory so no stray config file is picked up.
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, "gemini-2.0-flash", cfg.Classifier.Model)
	assert.Equal(t, "whisper-large-v3", cfg.Transcriber.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Transcriber.BaseURL)
	assert.Equal(t, "Доходы факт", cfg.Sheets.IncomeSheetName)
	assert.Equal(t, "Расходы факт", cfg.Sheets.ExpenseSheetName)
	assert.Equal(t, "groups.yaml", cfg.Storage.Path)
}

func TestLoadBindsWellKnownEnvVars(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("GEMINI_API_KEY", "gemini-key")
	t.Setenv("GROQ_API_KEY", "groq-key")
	t.Setenv("ADMIN_USER_IDS", "1, 42")
	t.Setenv("SERVICE_ACCOUNT_EMAIL", "bot@project.iam.gserviceaccount.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "tg-token", cfg.Telegram.Token)
	assert.Equal(t, "gemini-key", cfg.Classifier.APIKey)
	assert.Equal(t, "groq-key", cfg.Transcriber.APIKey)
	assert.Equal(t, "bot@project.iam.gserviceaccount.com", cfg.Sheets.ServiceAccountEmail)

	ids, err := cfg.AdminIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 42}, ids)
}

func TestLoadPrefixedEnvOverridesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LEDGERBOT_LOG_LEVEL", "debug")
	t.Setenv("LEDGERBOT_STORAGE_PATH", "/var/lib/ledgerbot/groups.yaml")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/lib/ledgerbot/groups.yaml", cfg.Storage.Path)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Run("bad log level", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("LEDGERBOT_LOG_LEVEL", "verbose")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("bad admin id", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("ADMIN_USER_IDS", "1,abc")
		_, err := Load()
		assert.Error(t, err)
	})
}

func TestAdminIDs(t *testing.T) {
	var cfg Config

	ids, err := cfg.AdminIDs()
	require.NoError(t, err)
	assert.Nil(t, ids)

	cfg.Telegram.AdminIDs = " 7 ,, 9 "
	ids, err = cfg.AdminIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 9}, ids)
}

func TestSheetName(t *testing.T) {
	var cfg Config
	cfg.Sheets.IncomeSheetName = "Доходы факт"
	cfg.Sheets.ExpenseSheetName = "Расходы факт"

	name, err := cfg.SheetName("income")
	require.NoError(t, err)
	assert.Equal(t, "Доходы факт", name)

	name, err = cfg.SheetName("Expense")
	require.NoError(t, err)
	assert.Equal(t, "Расходы факт", name)

	_, err = cfg.SheetName("transfer")
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	var cfg Config
	cfg.Log.Level = "debug"
	cfg.Log.Format = "json"

	logger := ConfigureLogging(&cfg)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	cfg.Log.Level = "bogus"
	cfg.Log.Format = "text"
	logger = ConfigureLogging(&cfg)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)
}
