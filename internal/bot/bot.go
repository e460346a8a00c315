// Package bot is the Telegram transport. It routes commands, free-form text
// and voice notes into the group directory and the transaction pipeline, and
// renders replies with inline cancel buttons.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vbaranov/ledgerbot/internal/categories"
	"vbaranov/ledgerbot/internal/classifier"
	"vbaranov/ledgerbot/internal/dateutils"
	"vbaranov/ledgerbot/internal/groups"
	"vbaranov/ledgerbot/internal/ledger"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/processor"
	"vbaranov/ledgerbot/internal/sheetstore"
	"vbaranov/ledgerbot/internal/textutils"
)

const msgInternalError = "Что-то пошло не так. Попробуйте ещё раз."

// StoreFactory opens a row store over the given spreadsheet. Each group binds
// its own spreadsheet, so stores are created per interaction rather than held
// on the bot.
type StoreFactory func(ctx context.Context, spreadsheetID string) (sheetstore.RowStore, error)

// Options wires the bot's collaborators.
type Options struct {
	Directory           *groups.Directory
	Classifier          classifier.Classifier
	Transcriber         transcriber
	Stores              StoreFactory
	IncomeSheet         string
	ExpenseSheet        string
	ServiceAccountEmail string
	Logger              logging.Logger
}

// transcriber mirrors the transcriber package interface locally so tests can
// script it without importing the HTTP client.
type transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// reply is a rendered response: text plus an optional inline keyboard.
type reply struct {
	text     string
	keyboard *tgbotapi.InlineKeyboardMarkup
}

// Bot drives the Telegram update loop.
type Bot struct {
	api                 *tgbotapi.BotAPI
	directory           *groups.Directory
	classifier          classifier.Classifier
	transcriber         transcriber
	stores              StoreFactory
	incomeSheet         string
	expenseSheet        string
	serviceAccountEmail string
	httpClient          *http.Client
	now                 func() time.Time
	log                 logging.Logger
}

// New creates a bot over an authenticated Telegram API client.
func New(api *tgbotapi.BotAPI, opts Options) *Bot {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Bot{
		api:                 api,
		directory:           opts.Directory,
		classifier:          opts.Classifier,
		transcriber:         opts.Transcriber,
		stores:              opts.Stores,
		incomeSheet:         opts.IncomeSheet,
		expenseSheet:        opts.ExpenseSheet,
		serviceAccountEmail: opts.ServiceAccountEmail,
		httpClient:          &http.Client{Timeout: 60 * time.Second},
		now:                 time.Now,
		log:                 logger,
	}
}

// Run consumes updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	b.log.WithField("username", b.api.Self.UserName).Info("Bot started")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID
	username := msg.From.UserName

	var r reply
	switch {
	case msg.IsCommand():
		r = b.handleCommand(ctx, userID, msg.Command(), strings.TrimSpace(msg.CommandArguments()))
	case msg.Voice != nil || msg.Audio != nil:
		r = b.handleVoice(ctx, userID, username, msg)
	case msg.Text != "":
		r = b.handleText(ctx, userID, username, msg.Text)
	default:
		return
	}
	if r.text == "" {
		return
	}
	b.send(msg.Chat.ID, r)
}

func (b *Bot) send(chatID int64, r reply) {
	out := tgbotapi.NewMessage(chatID, r.text)
	if r.keyboard != nil {
		out.ReplyMarkup = *r.keyboard
	}
	if _, err := b.api.Send(out); err != nil {
		b.log.WithError(err).Error("Failed to send message")
	}
}

// handleCommand routes one slash command.
func (b *Bot) handleCommand(ctx context.Context, userID int64, command, args string) reply {
	b.log.WithFields(
		logging.Field{Key: logging.FieldUser, Value: userID},
		logging.Field{Key: logging.FieldOperation, Value: command},
	).Debug("Handling command")

	switch command {
	case "start":
		return reply{text: helpText(), keyboard: startKeyboard()}
	case "help":
		return reply{text: helpText()}
	case "auth":
		return b.cmdAuth(userID, args)
	case "mint":
		return b.cmdMint(userID)
	}

	authorised, err := b.directory.IsAuthorised(userID)
	if err != nil {
		return b.internalError(err)
	}
	if !authorised {
		return reply{text: msgNotAuthorised}
	}

	switch command {
	case "create":
		return b.cmdCreate(ctx, userID, args)
	case "join":
		return b.cmdJoin(userID, args)
	case "leave":
		return b.cmdLeave(userID)
	case "invite":
		return b.cmdInvite(userID, args)
	case "info":
		return b.cmdInfo(userID)
	case "summary":
		return b.cmdSummary(ctx, userID)
	case "find":
		return b.cmdFind(ctx, userID, args)
	default:
		return reply{text: helpText()}
	}
}

func (b *Bot) cmdAuth(userID int64, code string) reply {
	if code == "" {
		return reply{text: msgAuthUsage}
	}
	err := b.directory.RedeemAuthCode(userID, code)
	switch {
	case errors.Is(err, groups.ErrUnknownCode):
		return reply{text: msgAuthBadCode}
	case err != nil:
		return b.internalError(err)
	}
	return reply{text: msgAuthOK}
}

func (b *Bot) cmdMint(userID int64) reply {
	if !b.directory.IsAdmin(userID) {
		return reply{text: msgMintNotAdmin}
	}
	code, err := b.directory.MintAuthCode(userID)
	if err != nil {
		return b.internalError(err)
	}
	return reply{text: fmt.Sprintf("Код доступа: %s", code)}
}

// cmdCreate creates a group from "<title> [spreadsheet link]". When the
// arguments carry a spreadsheet link, it is bound right away.
func (b *Bot) cmdCreate(ctx context.Context, userID int64, args string) reply {
	title, spreadsheetID := splitCreateArgs(args)
	if title == "" {
		return reply{text: msgCreateUsage}
	}
	group, err := b.directory.CreateGroup(userID, title)
	switch {
	case errors.Is(err, groups.ErrAlreadyInGroup):
		return reply{text: msgAlreadyMember}
	case err != nil:
		return b.internalError(err)
	}

	lines := []string{
		fmt.Sprintf("Группа «%s» создана.", group.Title),
		fmt.Sprintf("Код приглашения: %s", group.InviteCode),
	}
	if spreadsheetID != "" {
		lines = append(lines, b.bindSpreadsheet(ctx, userID, spreadsheetID).text)
	} else {
		lines = append(lines, "Пришлите ссылку на Google-таблицу одним сообщением, чтобы привязать её к группе.")
		if b.serviceAccountEmail != "" {
			lines = append(lines, fmt.Sprintf("Перед этим откройте таблице доступ на редактирование для %s.", b.serviceAccountEmail))
		}
	}
	return reply{text: strings.Join(lines, "\n")}
}

// splitCreateArgs separates the group title from an optional spreadsheet
// link anywhere in the arguments.
func splitCreateArgs(args string) (title, spreadsheetID string) {
	if _, ok := textutils.ExtractSpreadsheetID(args); !ok {
		return args, ""
	}
	var kept []string
	for _, field := range strings.Fields(args) {
		if id, ok := textutils.ExtractSpreadsheetID(field); ok && spreadsheetID == "" {
			spreadsheetID = id
			continue
		}
		kept = append(kept, field)
	}
	return strings.Join(kept, " "), spreadsheetID
}

func (b *Bot) cmdJoin(userID int64, code string) reply {
	if code == "" {
		return reply{text: msgJoinUsage}
	}
	group, err := b.directory.JoinByCode(userID, code)
	switch {
	case errors.Is(err, groups.ErrUnknownCode):
		return reply{text: msgJoinBadCode}
	case errors.Is(err, groups.ErrAlreadyInGroup):
		return reply{text: msgAlreadyMember}
	case err != nil:
		return b.internalError(err)
	}
	return reply{text: fmt.Sprintf("Вы присоединились к группе «%s».", group.Title)}
}

func (b *Bot) cmdLeave(userID int64) reply {
	outcome, err := b.directory.Leave(userID)
	if err != nil {
		return b.internalError(err)
	}
	switch outcome {
	case groups.LeaveLeft:
		return reply{text: msgLeaveLeft}
	case groups.LeaveGroupDeleted:
		return reply{text: msgLeaveDeleted}
	default:
		return reply{text: msgLeaveNotMember}
	}
}

func (b *Bot) cmdInvite(userID int64, args string) reply {
	if strings.EqualFold(args, "new") {
		code, err := b.directory.RegenerateInviteCode(userID)
		switch {
		case errors.Is(err, groups.ErrNotOwner):
			return reply{text: msgInviteNotOwner}
		case errors.Is(err, groups.ErrNotInGroup):
			return reply{text: msgNoGroup}
		case err != nil:
			return b.internalError(err)
		}
		return reply{text: fmt.Sprintf("Новый код приглашения: %s", code)}
	}

	group, err := b.directory.GroupOf(userID)
	if err != nil {
		return b.internalError(err)
	}
	if group == nil {
		return reply{text: msgNoGroup}
	}
	return reply{text: fmt.Sprintf("Код приглашения: %s", group.InviteCode)}
}

func (b *Bot) cmdInfo(userID int64) reply {
	group, err := b.directory.GroupOf(userID)
	if err != nil {
		return b.internalError(err)
	}
	if group == nil {
		return reply{text: msgNoGroup}
	}
	return reply{text: formatGroupInfo(group, b.serviceAccountEmail)}
}

func (b *Bot) cmdSummary(ctx context.Context, userID int64) reply {
	proc, _, err := b.ledgerFor(ctx, userID)
	if err != nil {
		return b.ledgerError(err)
	}

	summary, err := proc.Summarize(ctx)
	if err != nil {
		return b.internalError(err)
	}
	return reply{text: formatSummary(summary)}
}

func (b *Bot) cmdFind(ctx context.Context, userID int64, query string) reply {
	if query == "" {
		return reply{text: "Использование: /find <текст>"}
	}
	proc, _, err := b.ledgerFor(ctx, userID)
	if err != nil {
		return b.ledgerError(err)
	}
	// No type filter: the search covers both ledger sheets.
	rows, err := proc.Search(ctx, "", query)
	if err != nil {
		return b.internalError(err)
	}
	return reply{text: formatSearchResults(rows)}
}

// handleText runs the free-text pipeline: access check, spreadsheet binding,
// then classification and commit.
func (b *Bot) handleText(ctx context.Context, userID int64, username, text string) reply {
	authorised, err := b.directory.IsAuthorised(userID)
	if err != nil {
		return b.internalError(err)
	}
	if !authorised {
		return reply{text: msgNotAuthorised}
	}

	if spreadsheetID, ok := textutils.ExtractSpreadsheetID(text); ok {
		return b.bindSpreadsheet(ctx, userID, spreadsheetID)
	}

	proc, categorySet, err := b.ledgerFor(ctx, userID)
	if err != nil {
		return b.ledgerError(err)
	}

	draft, err := b.classifier.Classify(ctx, text, categorySet, b.now())
	if err != nil {
		b.log.WithError(err).WithField(logging.FieldUser, userID).Error("Classification failed")
		return reply{text: msgInternalError}
	}
	if !draft.Classified() {
		return reply{text: msgNotATransaction}
	}
	draft.Author = username

	receipt, err := proc.Process(ctx, draft)
	if err != nil {
		var vErr *processor.ValidationError
		if errors.As(err, &vErr) {
			return reply{text: msgNotATransaction}
		}
		return b.internalError(err)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(msgCancelButton, encodeCancel(receipt.SheetName, receipt.TransactionID)),
		),
	)
	return reply{
		text:     formatReceipt(draft, dateutils.ToDisplay(draft.Date)),
		keyboard: &keyboard,
	}
}

func (b *Bot) bindSpreadsheet(ctx context.Context, userID int64, spreadsheetID string) reply {
	err := b.directory.BindSpreadsheet(userID, spreadsheetID)
	switch {
	case errors.Is(err, groups.ErrNotInGroup):
		return reply{text: msgNoGroup}
	case err != nil:
		return b.internalError(err)
	}

	// Prepare the ledger sheets right away so the failure surfaces while the
	// user is still looking at the binding, not on their first transaction.
	if _, _, err := b.ledgerFor(ctx, userID); err != nil {
		b.log.WithError(err).WithField(logging.FieldSpreadsheet, spreadsheetID).
			Warn("Spreadsheet bound but not reachable")
		return reply{text: msgSpreadsheetBound + "\nПока не удалось открыть таблицу: проверьте, что у сервисного аккаунта есть доступ."}
	}
	return reply{text: msgSpreadsheetBound}
}

// handleVoice downloads the voice note, transcribes it and feeds the text
// through the regular pipeline.
func (b *Bot) handleVoice(ctx context.Context, userID int64, username string, msg *tgbotapi.Message) reply {
	if b.transcriber == nil {
		return reply{text: msgVoiceEmpty}
	}

	fileID := ""
	filename := "voice.ogg"
	switch {
	case msg.Voice != nil:
		fileID = msg.Voice.FileID
	case msg.Audio != nil:
		fileID = msg.Audio.FileID
		if msg.Audio.FileName != "" {
			filename = msg.Audio.FileName
		}
	}

	audio, err := b.downloadFile(ctx, fileID)
	if err != nil {
		b.log.WithError(err).WithField(logging.FieldUser, userID).Error("Voice download failed")
		return reply{text: msgInternalError}
	}

	text, err := b.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		b.log.WithError(err).WithField(logging.FieldUser, userID).Error("Transcription failed")
		return reply{text: msgInternalError}
	}
	if text == "" {
		return reply{text: msgVoiceEmpty}
	}
	return b.handleText(ctx, userID, username, text)
}

func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("resolving file URL: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// handleCallback answers inline-keyboard presses.
func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		b.log.WithError(err).Warn("Failed to acknowledge callback")
	}
	if query.From == nil || query.Message == nil {
		return
	}

	var text string
	switch callbackAction(query.Data) {
	case actionCancel:
		// Replace the receipt message in place so the cancel button vanishes
		// with the record.
		text = b.cancelFromCallback(ctx, query.From.ID, query.Data)
		edit := tgbotapi.NewEditMessageText(query.Message.Chat.ID, query.Message.MessageID, text)
		if _, err := b.api.Send(edit); err != nil {
			b.log.WithError(err).Error("Failed to edit message after cancel")
		}
		return
	case actionCreateGroup:
		text = msgCreateUsage
	case actionJoinPrompt:
		text = msgJoinUsage
	case actionHelp:
		text = helpText()
	default:
		return
	}
	b.send(query.Message.Chat.ID, reply{text: text})
}

// cancelFromCallback deletes the committed row named in the callback data and
// returns the text the receipt message should be replaced with.
func (b *Bot) cancelFromCallback(ctx context.Context, userID int64, data string) string {
	sheetName, transactionID, err := decodeCancel(data)
	if err != nil {
		b.log.WithError(err).Warn("Ignoring malformed cancel callback")
		return msgInternalError
	}

	proc, _, err := b.ledgerFor(ctx, userID)
	if err != nil {
		return b.ledgerError(err).text
	}

	deleted, err := proc.Cancel(ctx, models.Receipt{SheetName: sheetName, TransactionID: transactionID})
	if err != nil {
		b.log.WithError(err).WithField(logging.FieldTransactionID, transactionID).Error("Cancel failed")
		return msgInternalError
	}
	if !deleted {
		return msgCancelGone
	}
	return msgCancelled
}

// ledgerFor opens the caller's group ledger: store, sheets, discovered
// categories and a processor over them.
func (b *Bot) ledgerFor(ctx context.Context, userID int64) (*processor.Processor, models.CategorySet, error) {
	spreadsheetID, err := b.directory.SpreadsheetFor(userID)
	if err != nil {
		return nil, models.CategorySet{}, err
	}

	store, err := b.stores(ctx, spreadsheetID)
	if err != nil {
		return nil, models.CategorySet{}, fmt.Errorf("opening spreadsheet %s: %w", spreadsheetID, err)
	}

	repo := ledger.NewRepository(store, b.log)
	if err := repo.EnsureSheets(ctx, b.incomeSheet, b.expenseSheet); err != nil {
		return nil, models.CategorySet{}, err
	}

	resolver := categories.NewResolver(store, repo, b.log)
	categorySet := resolver.Resolve(ctx, b.incomeSheet, b.expenseSheet)

	return processor.New(repo, b.incomeSheet, b.expenseSheet, b.log), categorySet, nil
}

// ledgerError maps directory errors to user guidance.
func (b *Bot) ledgerError(err error) reply {
	switch {
	case errors.Is(err, groups.ErrNotInGroup):
		return reply{text: msgNoGroup}
	case errors.Is(err, groups.ErrNoSpreadsheet):
		return reply{text: msgNoSpreadsheet}
	default:
		return b.internalError(err)
	}
}

func (b *Bot) internalError(err error) reply {
	b.log.WithError(err).Error("Internal error")
	return reply{text: msgInternalError}
}

func startKeyboard() *tgbotapi.InlineKeyboardMarkup {
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Создать группу", actionCreateGroup),
			tgbotapi.NewInlineKeyboardButtonData("Присоединиться", actionJoinPrompt),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Помощь", actionHelp),
		),
	)
	return &keyboard
}
