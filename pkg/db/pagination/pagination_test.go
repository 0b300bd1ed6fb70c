package pagination

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	token, err := EncodeCursor(Cursor{ID: "42", CreatedAt: "2026-01-02T03:04:05Z"})
	require.NoError(t, err)

	cursor, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "42", cursor.ID)
	assert.Equal(t, "2026-01-02T03:04:05Z", cursor.CreatedAt)

	_, err = DecodeCursor("%%%")
	assert.Error(t, err)
}

func TestTrim(t *testing.T) {
	items := []*int{}
	for i := 0; i < 4; i++ {
		v := i
		items = append(items, &v)
	}
	key := func(v *int) string { return fmt.Sprint(*v) }

	page, info := Trim(items, 3, key)
	assert.Len(t, page, 3)
	assert.True(t, info.HasMore)
	assert.Equal(t, "2", info.NextPageToken)

	page, info = Trim(items, 10, key)
	assert.Len(t, page, 4)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)

	page, info = Trim([]*int{}, 3, key)
	assert.Empty(t, page)
	assert.False(t, info.HasMore)
}
