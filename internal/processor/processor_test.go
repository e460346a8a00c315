package processor

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbaranov/ledgerbot/internal/ledger"
	"vbaranov/ledgerbot/internal/logging"
	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/sheetstore"
)

const (
	incomeSheet  = "Доходы факт"
	expenseSheet = "Расходы факт"
)

func newFixture(t *testing.T) (*Processor, *sheetstore.FakeStore) {
	t.Helper()
	store := sheetstore.NewFakeStore()
	repo := ledger.NewRepository(store, logging.NewMockLogger())
	require.NoError(t, repo.EnsureSheets(context.Background(), incomeSheet, expenseSheet))

	p := New(repo, incomeSheet, expenseSheet, logging.NewMockLogger())
	p.now = func() time.Time {
		return time.Date(2026, time.March, 15, 10, 30, 0, 123456000, time.UTC)
	}
	return p, store
}

func validDraft() models.TransactionDraft {
	return models.TransactionDraft{
		Type:     models.TypeExpense,
		Category: "Продукты",
		Currency: "USD",
		Amount:   json.Number("12.5"),
		Date:     "2026-03-15",
		Month:    "Март",
		Comment:  "молоко",
		Author:   "anna",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.TransactionDraft)
		wantErr string
	}{
		{name: "valid draft", mutate: func(*models.TransactionDraft) {}},
		{
			name:    "missing type",
			mutate:  func(d *models.TransactionDraft) { d.Type = "" },
			wantErr: "type",
		},
		{
			name:    "unknown type",
			mutate:  func(d *models.TransactionDraft) { d.Type = "transfer" },
			wantErr: "type",
		},
		{
			name:    "missing date",
			mutate:  func(d *models.TransactionDraft) { d.Date = "" },
			wantErr: "date",
		},
		{
			name:    "display-format date rejected",
			mutate:  func(d *models.TransactionDraft) { d.Date = "15.03.2026" },
			wantErr: "date",
		},
		{
			name:    "missing amount",
			mutate:  func(d *models.TransactionDraft) { d.Amount = "" },
			wantErr: "amount",
		},
		{
			name:    "non-numeric amount",
			mutate:  func(d *models.TransactionDraft) { d.Amount = json.Number("many") },
			wantErr: "amount",
		},
		{
			name:    "zero amount",
			mutate:  func(d *models.TransactionDraft) { d.Amount = json.Number("0") },
			wantErr: "amount",
		},
		{
			name:    "negative amount",
			mutate:  func(d *models.TransactionDraft) { d.Amount = json.Number("-5") },
			wantErr: "amount",
		},
		{
			name:    "missing currency",
			mutate:  func(d *models.TransactionDraft) { d.Currency = "" },
			wantErr: "currency",
		},
		{
			name:    "long currency",
			mutate:  func(d *models.TransactionDraft) { d.Currency = "DOLLARS" },
			wantErr: "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft := validDraft()
			tt.mutate(&draft)
			err := Validate(draft)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantErr, vErr.Field)
		})
	}
}

func TestProcessCommitsExpense(t *testing.T) {
	p, store := newFixture(t)

	receipt, err := p.Process(context.Background(), validDraft())
	require.NoError(t, err)
	assert.Equal(t, expenseSheet, receipt.SheetName)
	assert.Equal(t, "2026-03-15 10:30:00.123456", receipt.TransactionID)

	rows := store.Rows(expenseSheet)
	require.Len(t, rows, 2)
	row := rows[1]
	assert.Equal(t, "15.03.2026", row[0])
	assert.Equal(t, "Март", row[1])
	assert.Equal(t, "Продукты", row[2])
	assert.Equal(t, "молоко", row[3])
	assert.Equal(t, "12.5", row[4])
	assert.Equal(t, "USD", row[5])
	assert.Equal(t, receipt.TransactionID, row[11])
	assert.Equal(t, "anna", row[12])

	// The income sheet is untouched.
	assert.Equal(t, 1, store.RowCount(incomeSheet))
}

func TestProcessRoutesIncome(t *testing.T) {
	p, store := newFixture(t)
	draft := validDraft()
	draft.Type = models.TypeIncome
	draft.Category = "Зарплата"
	draft.Amount = json.Number("1000")

	receipt, err := p.Process(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, incomeSheet, receipt.SheetName)
	assert.Equal(t, 2, store.RowCount(incomeSheet))
	assert.Equal(t, 1, store.RowCount(expenseSheet))
}

func TestProcessUppercasesCurrency(t *testing.T) {
	p, store := newFixture(t)
	draft := validDraft()
	draft.Currency = "eur"

	_, err := p.Process(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "EUR", store.Rows(expenseSheet)[1][5])
}

func TestProcessRejectsInvalidDraft(t *testing.T) {
	p, store := newFixture(t)
	draft := validDraft()
	draft.Amount = json.Number("0")

	_, err := p.Process(context.Background(), draft)
	require.Error(t, err)
	assert.Equal(t, 1, store.RowCount(expenseSheet), "nothing written for invalid drafts")
}

func TestCancel(t *testing.T) {
	p, store := newFixture(t)

	receipt, err := p.Process(context.Background(), validDraft())
	require.NoError(t, err)
	require.Equal(t, 2, store.RowCount(expenseSheet))

	deleted, err := p.Cancel(context.Background(), receipt)
	require.NoError(t, err)
	assert.True(t, deleted)
	assert.Equal(t, 1, store.RowCount(expenseSheet))

	// Cancelling twice is a no-op.
	deleted, err = p.Cancel(context.Background(), receipt)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestTotals(t *testing.T) {
	p, _ := newFixture(t)
	ctx := context.Background()

	drafts := []models.TransactionDraft{
		validDraft(),
		func() models.TransactionDraft {
			d := validDraft()
			d.Amount = json.Number("7.5")
			return d
		}(),
		func() models.TransactionDraft {
			d := validDraft()
			d.Amount = json.Number("100")
			d.Currency = "EUR"
			return d
		}(),
	}
	for _, d := range drafts {
		_, err := p.Process(ctx, d)
		require.NoError(t, err)
	}

	totals, err := p.Totals(ctx, models.TypeExpense)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, "20", totals["USD"].String())
	assert.Equal(t, "100", totals["EUR"].String())

	empty, err := p.Totals(ctx, models.TypeIncome)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSummarize(t *testing.T) {
	p, _ := newFixture(t)
	ctx := context.Background()

	empty, err := p.Summarize(ctx)
	require.NoError(t, err)
	assert.Zero(t, empty.IncomeCount)
	assert.Zero(t, empty.ExpenseCount)
	assert.Empty(t, empty.Net)

	income := validDraft()
	income.Type = models.TypeIncome
	income.Category = "Зарплата"
	income.Amount = json.Number("1000")
	for _, d := range []models.TransactionDraft{validDraft(), validDraft(), income} {
		_, err := p.Process(ctx, d)
		require.NoError(t, err)
	}

	s, err := p.Summarize(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, s.IncomeCount)
	assert.Equal(t, 2, s.ExpenseCount)
	assert.Equal(t, "1000", s.IncomeTotals["USD"].String())
	assert.Equal(t, "25", s.ExpenseTotals["USD"].String())
	assert.Equal(t, "975", s.Net["USD"].String())
}

func TestSearch(t *testing.T) {
	p, _ := newFixture(t)
	ctx := context.Background()

	first := validDraft()
	second := validDraft()
	second.Category = "Одежда"
	second.Comment = "куртка"
	for _, d := range []models.TransactionDraft{first, second} {
		_, err := p.Process(ctx, d)
		require.NoError(t, err)
	}

	matches, err := p.Search(ctx, models.TypeExpense, "одежда")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "куртка", matches[0][3])

	all, err := p.Search(ctx, models.TypeExpense, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	none, err := p.Search(ctx, models.TypeExpense, "транспорт")
	require.NoError(t, err)
	assert.Empty(t, none)

	// Empty type searches both sheets.
	income := validDraft()
	income.Type = models.TypeIncome
	income.Category = "Зарплата"
	income.Comment = "аванс"
	_, err = p.Process(ctx, income)
	require.NoError(t, err)

	both, err := p.Search(ctx, "", "")
	require.NoError(t, err)
	assert.Len(t, both, 3)

	salary, err := p.Search(ctx, "", "аванс")
	require.NoError(t, err)
	require.Len(t, salary, 1)
	assert.Equal(t, "Зарплата", salary[0][2])
}
