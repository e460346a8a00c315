package bot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"vbaranov/ledgerbot/internal/models"
	"vbaranov/ledgerbot/internal/processor"
)

// User-facing texts. The bot speaks Russian; log lines stay in English.
const (
	msgNotAuthorised = "У вас нет доступа к боту. Отправьте /auth <код>, чтобы активировать доступ."
	msgAuthOK        = "Доступ активирован. Создайте группу командой /create <название> или присоединитесь по коду: /join <код>."
	msgAuthBadCode   = "Код не подошёл. Проверьте его и попробуйте ещё раз."
	msgAuthUsage     = "Использование: /auth <код>"

	msgNoGroup = "Сначала нужна группа. Создайте её командой /create <название> или присоединитесь по коду: /join <код>."

	msgCreateUsage   = "Использование: /create <название группы> [ссылка на таблицу]"
	msgAlreadyMember = "Вы уже состоите в группе. Сначала выйдите из неё: /leave."

	msgJoinUsage   = "Использование: /join <код приглашения>"
	msgJoinBadCode = "Группа с таким кодом не найдена."

	msgLeaveNotMember   = "Вы не состоите ни в одной группе."
	msgLeaveLeft        = "Вы вышли из группы."
	msgLeaveDeleted     = "Группа удалена вместе с вами: владелец не может выйти, не распустив её."
	msgInviteNotOwner   = "Только владелец группы может сменить код приглашения."
	msgNoSpreadsheet    = "К группе ещё не привязана таблица. Пришлите ссылку на Google-таблицу одним сообщением."
	msgSpreadsheetBound = "Таблица привязана к группе. Теперь просто опишите трату или доход одним сообщением."

	msgNotATransaction = "Не удалось распознать в сообщении доход или расход. Опишите сумму и на что потрачено, например: «продукты 12.50»."
	msgVoiceEmpty      = "В голосовом сообщении не удалось распознать речь."
	msgCancelled       = "Запись удалена из таблицы."
	msgCancelGone      = "Эта запись уже удалена."
	msgCancelButton    = "Отменить"

	msgMintNotAdmin = "Создавать коды доступа могут только администраторы."
)

func helpText() string {
	return strings.Join([]string{
		"Я записываю доходы и расходы в Google-таблицу вашей группы.",
		"",
		"Просто напишите или надиктуйте трату: «такси 430 рублей вчера» — я сам определю категорию, сумму и дату.",
		"",
		"Команды:",
		"/create <название> [ссылка] — создать группу",
		"/join <код> — присоединиться к группе",
		"/invite — показать код приглашения (/invite new — сменить)",
		"/info — сведения о группе",
		"/leave — выйти из группы",
		"/summary — итоги по доходам и расходам",
		"/find <текст> — поиск по записям",
		"/auth <код> — активировать доступ",
	}, "\n")
}

// formatReceipt renders the confirmation shown under the cancel button.
func formatReceipt(draft models.TransactionDraft, displayDate string) string {
	kind := "Расход"
	if draft.Type == models.TypeIncome {
		kind = "Доход"
	}
	lines := []string{
		fmt.Sprintf("%s записан: %s %s", kind, draft.Amount.String(), strings.ToUpper(draft.Currency)),
		fmt.Sprintf("Категория: %s", draft.Category),
		fmt.Sprintf("Дата: %s", displayDate),
	}
	if draft.Comment != "" {
		lines = append(lines, fmt.Sprintf("Комментарий: %s", draft.Comment))
	}
	return strings.Join(lines, "\n")
}

// formatGroupInfo renders the /info reply.
func formatGroupInfo(group *models.Group, serviceAccountEmail string) string {
	lines := []string{
		fmt.Sprintf("Группа: %s", group.Title),
		fmt.Sprintf("Участников: %d", len(group.Members)),
		fmt.Sprintf("Код приглашения: %s", group.InviteCode),
	}
	if group.SpreadsheetID != "" {
		lines = append(lines, fmt.Sprintf("Таблица: https://docs.google.com/spreadsheets/d/%s", group.SpreadsheetID))
	} else {
		lines = append(lines, "Таблица: не привязана")
	}
	if serviceAccountEmail != "" {
		lines = append(lines, fmt.Sprintf("Не забудьте открыть таблице доступ для %s", serviceAccountEmail))
	}
	return strings.Join(lines, "\n")
}

// formatTotals renders per-currency totals, currencies sorted for stable
// output.
func formatTotals(title string, totals map[string]decimal.Decimal) string {
	if len(totals) == 0 {
		return fmt.Sprintf("%s: записей нет", title)
	}
	currencies := make([]string, 0, len(totals))
	for c := range totals {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	parts := make([]string, 0, len(currencies))
	for _, c := range currencies {
		parts = append(parts, fmt.Sprintf("%s %s", totals[c].String(), c))
	}
	return fmt.Sprintf("%s: %s", title, strings.Join(parts, ", "))
}

// formatSummary renders the /summary reply: totals per type plus the
// per-currency net when anything was recorded.
func formatSummary(s processor.Summary) string {
	lines := []string{
		formatTotals("Доходы", s.IncomeTotals),
		formatTotals("Расходы", s.ExpenseTotals),
	}
	if len(s.Net) > 0 {
		lines = append(lines, formatTotals("Баланс", s.Net))
	}
	return strings.Join(lines, "\n")
}

// formatSearchResults renders matching ledger rows, one per line.
func formatSearchResults(rows [][]string) string {
	if len(rows) == 0 {
		return "Ничего не найдено."
	}
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		cell := func(i int) string {
			if i < len(row) {
				return row[i]
			}
			return ""
		}
		lines = append(lines, fmt.Sprintf("%s — %s %s (%s) %s",
			cell(0), cell(4), cell(5), cell(2), cell(3)))
	}
	return strings.Join(lines, "\n")
}
