package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "123", CreatedAt: "2026-08-30T10:00:00Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "123", cursor.ID)
	assert.Equal(t, "2026-08-30T10:00:00Z", cursor.CreatedAt)
}

func TestDecodeCursor_RejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("not base64!!")
	assert.Error(t, err)
}

func TestBuildCursorPageInfo(t *testing.T) {
	type row struct{ id string }
	extract := func(r *row) string { return r.id }

	info := BuildCursorPageInfo(nil, 10, extract)
	assert.False(t, info.HasMore)

	rows := []*row{{id: "a"}, {id: "b"}, {id: "c"}}
	info = BuildCursorPageInfo(rows, 2, extract)
	assert.True(t, info.HasMore)
	// Cursor comes from the last visible row, not the extra lookahead row.
	assert.Equal(t, "b", info.NextPageToken)

	info = BuildCursorPageInfo(rows, 5, extract)
	assert.False(t, info.HasMore)
	assert.Equal(t, "c", info.NextPageToken)
}
