package classifier

import (
	"fmt"
	"strings"
	"time"

	"vbaranov/ledgerbot/internal/dateutils"
	"vbaranov/ledgerbot/internal/models"
)

// buildPrompt renders the classification instructions. The model gets the
// allowed category lists, the month labels it must use verbatim, and the
// current date for resolving relative phrases like "yesterday".
func buildPrompt(text string, categories models.CategorySet, now time.Time) string {
	var b strings.Builder

	b.WriteString("You extract a single financial transaction from a user message.\n")
	b.WriteString("Respond with ONLY a JSON object, no markdown and no commentary, using exactly these keys:\n")
	b.WriteString(`{"type": "", "category": "", "currency": "", "amount": 0, "date": "", "month": "", "comment": ""}` + "\n\n")

	b.WriteString("Rules:\n")
	b.WriteString("- type is \"income\" or \"expense\". Leave it empty if the message is not about money.\n")
	fmt.Fprintf(&b, "- category must be one of the allowed categories: %s. Leave it empty if none fits.\n", categories.Describe())
	b.WriteString("- currency is a three-letter ISO code such as USD, EUR or RUB. Default to USD when the message names none.\n")
	b.WriteString("- amount is a positive number.\n")
	b.WriteString("- date is the transaction date in YYYY-MM-DD format. Resolve relative dates against today.\n")
	fmt.Fprintf(&b, "- month is the transaction month written exactly as one of: %s.\n", strings.Join(models.MonthNames, ", "))
	b.WriteString("- comment is a short free-text note taken from the message, may be empty.\n\n")

	fmt.Fprintf(&b, "Today is %s.\n\n", now.Format(dateutils.LayoutISO))
	fmt.Fprintf(&b, "Message: %s\n", text)

	return b.String()
}
