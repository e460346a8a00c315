package dateutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseISO(t *testing.T) {
	parsed, err := ParseISO("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), parsed)

	_, err = ParseISO("15.03.2026")
	assert.Error(t, err)
	_, err = ParseISO("")
	assert.Error(t, err)

	parsed, err = ParseISO("  2026-01-02  ")
	require.NoError(t, err)
	assert.Equal(t, time.January, parsed.Month())
}

func TestToDisplay(t *testing.T) {
	assert.Equal(t, "15.03.2026", ToDisplay("2026-03-15"))
	assert.Equal(t, "garbage", ToDisplay("garbage"), "unparseable input passes through")
	assert.Equal(t, "", ToDisplay(""))
}

func TestMonthName(t *testing.T) {
	names := []string{
		"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
		"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
	}
	assert.Equal(t, "Январь", MonthName(time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC), names))
	assert.Equal(t, "Декабрь", MonthName(time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC), names))
	assert.Equal(t, "", MonthName(time.Now(), nil))
}

func TestNewTransactionID(t *testing.T) {
	moment := time.Date(2026, time.March, 15, 10, 30, 0, 123456000, time.FixedZone("CET", 3600))
	assert.Equal(t, "2026-03-15 09:30:00.123456", NewTransactionID(moment), "IDs are minted in UTC")
}
