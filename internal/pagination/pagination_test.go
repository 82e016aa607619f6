package pagination

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursor_RoundTrip(t *testing.T) {
	ts := time.Date(2026, 2, 10, 12, 0, 0, 123456789, time.UTC)

	token := EncodeCursor("item-42", ts)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, "item-42", cursor.LastID)
	assert.True(t, cursor.Timestamp.Equal(ts))
}

func TestEncodeCursor_EmptyID(t *testing.T) {
	assert.Empty(t, EncodeCursor("", time.Now()))
}

func TestDecodeCursor_Empty(t *testing.T) {
	cursor, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, cursor)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	for _, token := range []string{"!!!", "aGVsbG8=", "aXRlbXxub3QtYS10aW1l"} {
		_, err := DecodeCursor(token)
		assert.ErrorIs(t, err, ErrInvalidCursor, "token %q", token)
	}
}

type pageItem struct {
	ID        string
	CreatedAt time.Time
}

func TestCreateNextCursor_FullPage(t *testing.T) {
	items := []pageItem{
		{ID: "a", CreatedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
		{ID: "b", CreatedAt: time.Date(2026, 2, 10, 11, 0, 0, 0, time.UTC)},
	}

	token := CreateNextCursor(items, 2,
		func(i pageItem) string { return i.ID },
		func(i pageItem) time.Time { return i.CreatedAt },
	)
	require.NotEmpty(t, token)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "b", cursor.LastID)
}

func TestCreateNextCursor_ShortPage(t *testing.T) {
	items := []pageItem{{ID: "a", CreatedAt: time.Now()}}

	token := CreateNextCursor(items, 2,
		func(i pageItem) string { return i.ID },
		func(i pageItem) time.Time { return i.CreatedAt },
	)
	assert.Empty(t, token)
}

func TestCreateNextCursor_Empty(t *testing.T) {
	token := CreateNextCursor(nil, 2,
		func(i pageItem) string { return i.ID },
		func(i pageItem) time.Time { return i.CreatedAt },
	)
	assert.Empty(t, token)
}
