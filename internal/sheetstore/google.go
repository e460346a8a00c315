package sheetstore

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"vbaranov/ledgerbot/internal/logging"
)

const (
	inputOptionRaw         = "RAW"
	inputOptionUserEntered = "USER_ENTERED"
)

// GoogleStore implements RowStore against the Google Sheets API for a single
// spreadsheet.
type GoogleStore struct {
	svc           *sheets.Service
	spreadsheetID string
	log           logging.Logger
}

// NewGoogleStore authenticates with a service-account key file and returns a
// store bound to the given spreadsheet.
func NewGoogleStore(ctx context.Context, serviceAccountFile, spreadsheetID string, logger logging.Logger) (*GoogleStore, error) {
	credBytes, err := os.ReadFile(serviceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read service account file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credBytes, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse service account credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create sheets service: %w", err)
	}

	return NewGoogleStoreFromService(svc, spreadsheetID, logger), nil
}

// NewGoogleStoreFromService wraps an existing sheets service. Useful for
// tests and custom endpoints.
func NewGoogleStoreFromService(svc *sheets.Service, spreadsheetID string, logger logging.Logger) *GoogleStore {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &GoogleStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		log:           logger,
	}
}

// SheetExists reports whether a sheet with the given title exists.
func (s *GoogleStore) SheetExists(ctx context.Context, sheetName string) (bool, error) {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return false, fmt.Errorf("unable to read spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return true, nil
		}
	}
	return false, nil
}

// CreateSheet creates the sheet with its header row if it does not exist yet.
func (s *GoogleStore) CreateSheet(ctx context.Context, sheetName string, header []string) error {
	exists, err := s.SheetExists(ctx, sheetName)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: sheetName},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to create sheet %q: %w", sheetName, err)
	}

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := s.WriteRange(ctx, sheetName, "A1", [][]interface{}{headerRow}, false); err != nil {
		return fmt.Errorf("unable to write header row for %q: %w", sheetName, err)
	}

	s.log.WithFields(
		logging.Field{Key: logging.FieldSheet, Value: sheetName},
		logging.Field{Key: logging.FieldSpreadsheet, Value: s.spreadsheetID},
	).Info("Created ledger sheet")
	return nil
}

// ReadRange reads cell values; an empty range reads the default A:F span.
func (s *GoogleStore) ReadRange(ctx context.Context, sheetName, rng string) ([][]string, error) {
	if rng == "" {
		rng = DefaultReadRange
	}
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, QualifyRange(sheetName, rng)).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to read range %s from %q: %w", rng, sheetName, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, row := range resp.Values {
		cells := make([]string, len(row))
		for j, cell := range row {
			cells[j] = fmt.Sprint(cell)
		}
		rows[i] = cells
	}
	return rows, nil
}

// WriteRange overwrites cells starting at startCell.
func (s *GoogleStore) WriteRange(ctx context.Context, sheetName, startCell string, values [][]interface{}, userEntered bool) error {
	inputOption := inputOptionRaw
	if userEntered {
		inputOption = inputOptionUserEntered
	}
	body := &sheets.ValueRange{Values: values}
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, QualifyRange(sheetName, startCell), body).
		ValueInputOption(inputOption).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("unable to write range %s in %q: %w", startCell, sheetName, err)
	}
	return nil
}

// BatchWriteRanges applies several raw writes in a single values update.
func (s *GoogleStore) BatchWriteRanges(ctx context.Context, sheetName string, writes []RangeWrite) error {
	data := make([]*sheets.ValueRange, len(writes))
	for i, w := range writes {
		data[i] = &sheets.ValueRange{
			Range:  QualifyRange(sheetName, w.Range),
			Values: w.Values,
		}
	}
	body := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: inputOptionRaw,
		Data:             data,
	}
	if _, err := s.svc.Spreadsheets.Values.BatchUpdate(s.spreadsheetID, body).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to batch-write %d ranges in %q: %w", len(writes), sheetName, err)
	}
	return nil
}

// DeleteRow removes the row at rowIndex (1-based). Rows below shift up.
func (s *GoogleStore) DeleteRow(ctx context.Context, sheetName string, rowIndex int) error {
	if rowIndex < 1 {
		return fmt.Errorf("invalid row index: %d", rowIndex)
	}

	sheetID, err := s.sheetID(ctx, sheetName)
	if err != nil {
		return err
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: int64(rowIndex - 1),
					EndIndex:   int64(rowIndex),
				},
			},
		}},
	}
	if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("unable to delete row %d from %q: %w", rowIndex, sheetName, err)
	}

	s.log.WithFields(
		logging.Field{Key: logging.FieldSheet, Value: sheetName},
		logging.Field{Key: logging.FieldRow, Value: rowIndex},
	).Debug("Deleted ledger row")
	return nil
}

// ValidationFormula returns the data-validation formula of a cell, if any.
func (s *GoogleStore) ValidationFormula(ctx context.Context, sheetName, cell string) (string, error) {
	resp, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Ranges(QualifyRange(sheetName, cell)).
		Fields("sheets(data(rowData(values(dataValidation))))").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("unable to read validation for %s!%s: %w", sheetName, cell, err)
	}

	if len(resp.Sheets) == 0 || len(resp.Sheets[0].Data) == 0 {
		return "", nil
	}
	rowData := resp.Sheets[0].Data[0].RowData
	if len(rowData) == 0 || len(rowData[0].Values) == 0 {
		return "", nil
	}
	validation := rowData[0].Values[0].DataValidation
	if validation == nil || validation.Condition == nil || len(validation.Condition.Values) == 0 {
		return "", nil
	}
	return validation.Condition.Values[0].UserEnteredValue, nil
}

// sheetID resolves a sheet title to its internal identifier.
func (s *GoogleStore) sheetID(ctx context.Context, sheetName string) (int64, error) {
	spreadsheet, err := s.svc.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("unable to read spreadsheet metadata: %w", err)
	}
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			return sheet.Properties.SheetId, nil
		}
	}
	return 0, fmt.Errorf("sheet %q not found", sheetName)
}
