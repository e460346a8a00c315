package logging

// Standardized field names so log output stays consistent and greppable.
const (
	FieldOperation     = "operation"
	FieldUser          = "user_id"
	FieldGroup         = "group_id"
	FieldSheet         = "sheet"
	FieldSpreadsheet   = "spreadsheet_id"
	FieldTransactionID = "transaction_id"
	FieldCategory      = "category"
	FieldRow           = "row"
	FieldCount         = "count"
	FieldReason        = "reason"
)
