// Package processor validates classifier drafts and commits them to the
// ledger, and answers read queries over committed transactions.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"vbaranov/ledgerbot/internal/dateutils"
	"vbaranov/ledgerbot/internal/ledger"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Processor turns validated drafts into ledger rows. The income and expense
// sheets are fixed per ledger; the draft's type selects between them.
type Processor struct {
	repo         *ledger.Repository
	incomeSheet  string
	expenseSheet string
	now          func() time.Time
	log          logging.Logger
}

// New creates a processor writing to the given sheets.
func New(repo *ledger.Repository, incomeSheet, expenseSheet string, logger logging.Logger) *Processor {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Processor{
		repo:         repo,
		incomeSheet:  incomeSheet,
		expenseSheet: expenseSheet,
		now:          time.Now,
		log:          logger,
	}
}

// Validate checks a draft against the ledger's invariants. Category and month
// come from the classifier and are deliberately not checked against the
// discovered lists: a stale dropdown must not block a legitimate transaction.
func Validate(draft models.TransactionDraft) error {
	switch draft.Type {
	case models.TypeIncome, models.TypeExpense:
	case "":
		return &ValidationError{Field: "type", Reason: "missing"}
	default:
		return &ValidationError{Field: "type", Reason: fmt.Sprintf("unknown type %q", draft.Type)}
	}

	if draft.Date == "" {
		return &ValidationError{Field: "date", Reason: "missing"}
	}
	if _, err := dateutils.ParseISO(draft.Date); err != nil {
		return &ValidationError{Field: "date", Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", draft.Date)}
	}

	if draft.Amount.String() == "" {
		return &ValidationError{Field: "amount", Reason: "missing"}
	}
	amount, err := decimal.NewFromString(draft.Amount.String())
	if err != nil {
		return &ValidationError{Field: "amount", Reason: fmt.Sprintf("%q is not a number", draft.Amount.String())}
	}
	if !amount.IsPositive() {
		return &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if draft.Currency == "" {
		return &ValidationError{Field: "currency", Reason: "missing"}
	}
	if len(draft.Currency) != 3 {
		return &ValidationError{Field: "currency", Reason: fmt.Sprintf("%q is not a three-letter code", draft.Currency)}
	}

	return nil
}

// SheetFor maps a transaction type to its ledger sheet.
func (p *Processor) SheetFor(txType string) (string, error) {
	switch txType {
	case models.TypeIncome:
		return p.incomeSheet, nil
	case models.TypeExpense:
		return p.expenseSheet, nil
	default:
		return "", fmt.Errorf("unknown transaction type: %q", txType)
	}
}

// Process validates the draft and appends it to the ledger, returning a
// receipt that can cancel the committed row.
func (p *Processor) Process(ctx context.Context, draft models.TransactionDraft) (models.Receipt, error) {
	if err := Validate(draft); err != nil {
		return models.Receipt{}, err
	}

	sheetName, err := p.SheetFor(draft.Type)
	if err != nil {
		return models.Receipt{}, err
	}

	amount, err := decimal.NewFromString(draft.Amount.String())
	if err != nil {
		return models.Receipt{}, &ValidationError{Field: "amount", Reason: err.Error()}
	}

	row := ledger.Row{
		DisplayDate: dateutils.ToDisplay(draft.Date),
		Month:       draft.Month,
		Category:    draft.Category,
		Comment:     draft.Comment,
		Amount:      amount.InexactFloat64(),
		Currency:    strings.ToUpper(draft.Currency),
	}
	transactionID := dateutils.NewTransactionID(p.now())

	if err := p.repo.AppendTransaction(ctx, sheetName, row, transactionID, draft.Author); err != nil {
		return models.Receipt{}, err
	}

	p.log.WithFields(
		logging.Field{Key: logging.FieldSheet, Value: sheetName},
		logging.Field{Key: logging.FieldTransactionID, Value: transactionID},
		logging.Field{Key: logging.FieldCategory, Value: draft.Category},
	).Info("Transaction committed")
	return models.Receipt{SheetName: sheetName, TransactionID: transactionID}, nil
}

// Cancel removes a previously committed transaction. It reports false when
// the row has already been removed.
func (p *Processor) Cancel(ctx context.Context, receipt models.Receipt) (bool, error) {
	return p.repo.DeleteByTransactionID(ctx, receipt.SheetName, receipt.TransactionID)
}

// Totals sums committed amounts per currency for one transaction type.
func (p *Processor) Totals(ctx context.Context, txType string) (map[string]decimal.Decimal, error) {
	sheetName, err := p.SheetFor(txType)
	if err != nil {
		return nil, err
	}
	totals, _, err := p.totals(ctx, sheetName)
	return totals, err
}

// totals sums one sheet's amounts per currency and counts its rows. Rows with
// an unparseable amount are skipped from the sums but still counted.
func (p *Processor) totals(ctx context.Context, sheetName string) (map[string]decimal.Decimal, int, error) {
	rows, err := p.repo.Transactions(ctx, sheetName)
	if err != nil {
		return nil, 0, err
	}

	totals := make(map[string]decimal.Decimal)
	for _, row := range rows {
		if len(row) <= models.AmountColumnIndex {
			continue
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(row[models.AmountColumnIndex]))
		if err != nil {
			continue
		}
		currency := ""
		if len(row) > models.AmountColumnIndex+1 {
			currency = strings.ToUpper(strings.TrimSpace(row[models.AmountColumnIndex+1]))
		}
		totals[currency] = totals[currency].Add(amount)
	}
	return totals, len(rows), nil
}

// Summary aggregates the whole ledger: per-currency totals for each type,
// row counts, and the per-currency net (income minus expense).
type Summary struct {
	IncomeTotals  map[string]decimal.Decimal
	ExpenseTotals map[string]decimal.Decimal
	IncomeCount   int
	ExpenseCount  int
	Net           map[string]decimal.Decimal
}

// Summarize builds a Summary over both sheets.
func (p *Processor) Summarize(ctx context.Context) (Summary, error) {
	s := Summary{Net: make(map[string]decimal.Decimal)}

	var err error
	if s.IncomeTotals, s.IncomeCount, err = p.totals(ctx, p.incomeSheet); err != nil {
		return Summary{}, err
	}
	if s.ExpenseTotals, s.ExpenseCount, err = p.totals(ctx, p.expenseSheet); err != nil {
		return Summary{}, err
	}

	for currency, amount := range s.IncomeTotals {
		s.Net[currency] = s.Net[currency].Add(amount)
	}
	for currency, amount := range s.ExpenseTotals {
		s.Net[currency] = s.Net[currency].Sub(amount)
	}
	return s, nil
}

// Search returns committed rows whose date, category or comment contains the
// query, case-insensitively. An empty txType searches both sheets, expenses
// first.
func (p *Processor) Search(ctx context.Context, txType, query string) ([][]string, error) {
	types := []string{txType}
	if txType == "" {
		types = []string{models.TypeExpense, models.TypeIncome}
	}

	needle := strings.ToLower(strings.TrimSpace(query))
	var matches [][]string
	for _, t := range types {
		sheetName, err := p.SheetFor(t)
		if err != nil {
			return nil, err
		}
		rows, err := p.repo.Transactions(ctx, sheetName)
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			if needle == "" {
				matches = append(matches, row)
				continue
			}
			for _, cell := range row[:min(len(row), models.AmountColumnIndex)] {
				if strings.Contains(strings.ToLower(cell), needle) {
					matches = append(matches, row)
					break
				}
			}
		}
	}
	return matches, nil
}
