package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeToken(t *testing.T) {
	// Standard date/time values
	saleDate := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	createdAt := time.Date(2024, 3, 15, 14, 30, 45, 123456789, time.UTC)

	token := EncodeToken(saleDate, createdAt, "sale-42")
	assert.NotEmpty(t, token, "Token should not be empty")

	cursor, err := DecodeToken(token)
	require.NoError(t, err, "Decoding should not return an error")
	assert.Equal(t, saleDate, cursor.SortDate, "Sale date should match after decode")
	assert.Equal(t, createdAt, cursor.CreatedAt, "Created at time should match after decode")
	assert.Equal(t, "sale-42", cursor.ID)

	// Zero time values
	zeroCursor, err := DecodeToken(EncodeToken(time.Time{}, time.Time{}, "x"))
	assert.NoError(t, err, "Decoding zero time should not return an error")
	assert.True(t, zeroCursor.SortDate.IsZero())

	// Ids containing the separator survive the round trip
	odd, err := DecodeToken(EncodeToken(saleDate, createdAt, "a|b"))
	require.NoError(t, err)
	assert.Equal(t, "a|b", odd.ID)
}

func TestDecodeTokenError(t *testing.T) {
	_, err := DecodeToken("this is not base64!")
	assert.Error(t, err, "Should return an error for invalid base64")
	assert.Contains(t, err.Error(), "base64 decode", "Error should mention base64 decoding")

	missingParts := base64.URLEncoding.EncodeToString([]byte("2024-03-15T00:00:00Z"))
	_, err = DecodeToken(missingParts)
	assert.Error(t, err, "Should return an error for invalid token format")
	assert.Contains(t, err.Error(), "split", "Error should mention splitting issue")

	badDate := base64.URLEncoding.EncodeToString([]byte("notadate|2024-03-15T14:30:45Z|id"))
	_, err = DecodeToken(badDate)
	assert.Error(t, err, "Should return an error for invalid date format")
	assert.Contains(t, err.Error(), "sort date parse", "Error should mention date parsing issue")

	emptyID := base64.URLEncoding.EncodeToString([]byte("2024-03-15T00:00:00Z|2024-03-15T00:00:00Z|"))
	_, err = DecodeToken(emptyID)
	assert.Error(t, err)
}

func TestCursorAfter(t *testing.T) {
	day := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	created := day.Add(10 * time.Hour)
	c := Cursor{SortDate: day, CreatedAt: created, ID: "m"}

	assert.True(t, c.After(day.AddDate(0, 0, -1), created, "z"), "older sale date is on the next page")
	assert.False(t, c.After(day.AddDate(0, 0, 1), created, "a"), "newer sale date was already returned")
	assert.True(t, c.After(day, created.Add(-time.Minute), "z"))
	assert.True(t, c.After(day, created, "a"))
	assert.False(t, c.After(day, created, "m"), "the cursor row itself is excluded")
}
