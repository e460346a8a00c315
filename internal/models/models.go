// Package models defines the domain types shared across the ledger bot:
// classifier drafts, ledger receipts, groups and the persisted group document.
package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Transaction types accepted by the ledger.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Ledger sheet layout. Data occupies columns A..F; the transaction ID and the
// author tag live out of band in columns L and M so user-visible formulas and
// charts over A:F are not disturbed.
const (
	DateColumn   = "A"
	IDColumn     = "L"
	AuthorColumn = "M"

	// AmountColumnIndex is the zero-based index of the amount cell within an
	// A:F row. A row with an empty amount cell counts as writable.
	AmountColumnIndex = 4
)

// ColumnHeaders is the fixed header row written to freshly created sheets.
var ColumnHeaders = []string{"Date", "Month", "Category", "Comment", "Amount", "Currency"}

// MonthNames are the month labels used in the Month column, January first.
var MonthNames = []string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

// Static fallback categories used when per-group discovery yields nothing.
var (
	DefaultIncomeCategories  = []string{"Зарплата", "Премия", "Бонус", "Другое"}
	DefaultExpenseCategories = []string{"Продукты", "Одежда", "Другое"}
)

// TransactionDraft is an unvalidated candidate transaction produced by the
// classifier. Fields the classifier could not fill stay at their zero value.
type TransactionDraft struct {
	Type       string      `json:"type"`
	Category   string      `json:"category"`
	Currency   string      `json:"currency"`
	Amount     json.Number `json:"amount"`
	Date       string      `json:"date"`
	Month      string      `json:"month"`
	Comment    string      `json:"comment"`
	SourceText string      `json:"source_text"`
	Author     string      `json:"author"`
}

// Classified reports whether the draft carries enough information to be
// written to the ledger. A missing type or category short-circuits the write.
func (d TransactionDraft) Classified() bool {
	return d.Type != "" && d.Category != ""
}

// Receipt identifies a committed ledger row so it can be cancelled later.
type Receipt struct {
	SheetName     string
	TransactionID string
}

// Group maps a set of users to one shared spreadsheet ledger.
type Group struct {
	Title         string  `yaml:"title"`
	OwnerID       int64   `yaml:"owner_id"`
	Members       []int64 `yaml:"members"`
	InviteCode    string  `yaml:"invite_code"`
	SpreadsheetID string  `yaml:"spreadsheet_id,omitempty"`
}

// HasMember reports whether the user belongs to the group.
func (g *Group) HasMember(userID int64) bool {
	for _, id := range g.Members {
		if id == userID {
			return true
		}
	}
	return false
}

// AddMember adds the user to the group if not already present.
func (g *Group) AddMember(userID int64) {
	if !g.HasMember(userID) {
		g.Members = append(g.Members, userID)
	}
}

// RemoveMember removes the user from the group. It reports whether the user
// was a member.
func (g *Group) RemoveMember(userID int64) bool {
	for i, id := range g.Members {
		if id == userID {
			g.Members = append(g.Members[:i], g.Members[i+1:]...)
			return true
		}
	}
	return false
}

// PendingTransaction is kept in the persisted document for forward
// compatibility; the current orchestration does not read it back.
type PendingTransaction struct {
	SheetName     string `yaml:"sheet_name"`
	TransactionID string `yaml:"transaction_id"`
	Author        string `yaml:"author"`
}

// GroupDocument is the whole persisted state of the group directory. Unused
// authorisation codes sit in AuthCodes; a claimed code moves into
// AuthorisedUsers as the key mapping to the user who redeemed it, so every
// code lives in exactly one of the two.
type GroupDocument struct {
	Groups              map[string]*Group             `yaml:"groups"`
	AuthCodes           []string                      `yaml:"auth_codes"`
	AuthorisedUsers     map[string]int64              `yaml:"authorised_users"`
	PendingTransactions map[string]PendingTransaction `yaml:"pending_transactions"`
}

// NewGroupDocument returns an empty document with all maps initialized.
func NewGroupDocument() *GroupDocument {
	return &GroupDocument{
		Groups:              make(map[string]*Group),
		AuthorisedUsers:     make(map[string]int64),
		PendingTransactions: make(map[string]PendingTransaction),
	}
}

// Normalize re-creates any nil maps so a document loaded from a partial or
// empty file is safe to mutate.
func (d *GroupDocument) Normalize() {
	if d.Groups == nil {
		d.Groups = make(map[string]*Group)
	}
	if d.AuthorisedUsers == nil {
		d.AuthorisedUsers = make(map[string]int64)
	}
	if d.PendingTransactions == nil {
		d.PendingTransactions = make(map[string]PendingTransaction)
	}
}

// CategorySet holds the per-group category lists used to steer the
// classifier, split by transaction type.
type CategorySet struct {
	Income  []string
	Expense []string
}

// DefaultCategorySet returns the static fallback categories.
func DefaultCategorySet() CategorySet {
	return CategorySet{
		Income:  append([]string(nil), DefaultIncomeCategories...),
		Expense: append([]string(nil), DefaultExpenseCategories...),
	}
}

// Describe renders the set for inclusion in a classifier prompt.
func (c CategorySet) Describe() string {
	return fmt.Sprintf("{income: [%s], expense: [%s]}",
		strings.Join(c.Income, ", "), strings.Join(c.Expense, ", "))
}
