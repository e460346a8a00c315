// Package root contains the root command, which runs the Telegram bot.
package root

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"vbaranov/ledgerbot/internal/bot"
	"vbaranov/ledgerbot/internal/classifier"
	"vbaranov/ledgerbot/internal/config"
	"vbaranov/ledgerbot/internal/groups"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/sheetstore"
	"vbaranov/ledgerbot/internal/transcriber"
)

var (
	// Log is the shared logger instance for commands.
	Log = logrus.New()

	// Cfg is the loaded configuration, available to all subcommands after
	// PersistentPreRunE.
	Cfg *config.Config

	// Cmd is the root command.
	Cmd = &cobra.Command{
		Use:   "ledgerbot",
		Short: "A Telegram bot that records shared income and expenses in Google Sheets.",
		Long: `ledgerbot listens for free-form text and voice messages in Telegram,
classifies them into transactions with a language model and appends them to
the Google Sheets ledger of the sender's group.`,
		RunE: runBot,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config.LoadEnv()
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			Cfg = cfg
			Log = config.ConfigureLogging(cfg)
			return nil
		},
	}
)

// Init finalizes root command setup. Kept separate from package init so
// main controls ordering.
func Init() {
	Cmd.SilenceUsage = true
}

func runBot(cmd *cobra.Command, args []string) error {
	if Cfg.Telegram.Token == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is not set")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := logging.NewLogrusAdapterFromLogger(Log)

	adminIDs, err := Cfg.AdminIDs()
	if err != nil {
		return err
	}
	directory := groups.NewDirectory(groups.NewStorage(Cfg.Storage.Path, logger), adminIDs, logger)

	gemini, err := classifier.NewGemini(ctx, Cfg.Classifier.APIKey, Cfg.Classifier.Model, logger)
	if err != nil {
		return fmt.Errorf("initializing classifier: %w", err)
	}

	opts := bot.Options{
		Directory:           directory,
		Classifier:          gemini,
		Stores:              storeFactory(logger),
		IncomeSheet:         Cfg.Sheets.IncomeSheetName,
		ExpenseSheet:        Cfg.Sheets.ExpenseSheetName,
		ServiceAccountEmail: Cfg.Sheets.ServiceAccountEmail,
		Logger:              logger,
	}

	if Cfg.Transcriber.APIKey != "" {
		whisper, err := transcriber.NewWhisperClient(
			Cfg.Transcriber.APIKey, Cfg.Transcriber.Model, Cfg.Transcriber.BaseURL, logger)
		if err != nil {
			return fmt.Errorf("initializing transcriber: %w", err)
		}
		opts.Transcriber = whisper
	} else {
		Log.Warn("GROQ_API_KEY is not set, voice messages will be ignored")
	}

	api, err := tgbotapi.NewBotAPI(Cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("connecting to Telegram: %w", err)
	}

	if err := bot.New(api, opts).Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	Log.Info("Bot stopped")
	return nil
}

// storeFactory opens a Google Sheets row store per spreadsheet with the
// configured service account.
func storeFactory(logger logging.Logger) bot.StoreFactory {
	return func(ctx context.Context, spreadsheetID string) (sheetstore.RowStore, error) {
		return sheetstore.NewGoogleStore(ctx, Cfg.Sheets.ServiceAccountFile, spreadsheetID, logger)
	}
}
