package bot

import (
	"fmt"
	"strings"
)

// Callback actions carried in inline-keyboard button data.
const (
	actionCancel      = "cancel"
	actionCreateGroup = "create_group"
	actionJoinPrompt  = "join_group"
	actionHelp        = "help"
)

// callbackSeparator splits the action from its arguments. Sheet titles may
// contain spaces but never the separator, and transaction IDs are
// timestamp-shaped, so a plain split is unambiguous.
const callbackSeparator = "|"

// encodeCancel packs a committed row's coordinates into callback data so
// cancellation needs no server-side session state.
func encodeCancel(sheetName, transactionID string) string {
	return strings.Join([]string{actionCancel, sheetName, transactionID}, callbackSeparator)
}

// decodeCancel unpacks cancel callback data.
func decodeCancel(data string) (sheetName, transactionID string, err error) {
	parts := strings.SplitN(data, callbackSeparator, 3)
	if len(parts) != 3 || parts[0] != actionCancel || parts[1] == "" || parts[2] == "" {
		return "", "", fmt.Errorf("malformed cancel callback: %q", data)
	}
	return parts[1], parts[2], nil
}

// callbackAction returns the action prefix of callback data.
func callbackAction(data string) string {
	return strings.SplitN(data, callbackSeparator, 2)[0]
}
