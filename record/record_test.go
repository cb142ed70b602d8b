package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordImmutability(t *testing.T) {
	fields := map[string]string{"full_name": "Jane Smith"}
	r := New("r1", fields)

	// Mutating the source map must not affect the record.
	fields["full_name"] = "changed"

	v, ok := r.Field("full_name")
	require.True(t, ok)
	assert.Equal(t, "Jane Smith", v)
}

func TestRecordField(t *testing.T) {
	r := New("r1", map[string]string{"email": "jane@example.com"})

	v, ok := r.Field("email")
	require.True(t, ok)
	assert.Equal(t, "jane@example.com", v)

	_, ok = r.Field("missing")
	assert.False(t, ok)
}

func TestRecordWithField(t *testing.T) {
	r := New("r1", map[string]string{"full_name": "JANE SMITH"})
	cleaned := r.WithField("full_name", "jane smith")

	v, _ := cleaned.Field("full_name")
	assert.Equal(t, "jane smith", v)

	// Original unchanged.
	v, _ = r.Field("full_name")
	assert.Equal(t, "JANE SMITH", v)

	assert.Equal(t, r.ID(), cleaned.ID())
}

func TestRecordColumns(t *testing.T) {
	r := New("r1", map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []string{"a", "b", "c"}, r.Columns())
}

func TestNewCollection(t *testing.T) {
	t.Run("preserves order", func(t *testing.T) {
		c, err := NewCollection(
			New("r2", nil),
			New("r1", nil),
			New("r3", nil),
		)
		require.NoError(t, err)
		assert.Equal(t, []ID{"r2", "r1", "r3"}, c.IDs())
		assert.Equal(t, 3, c.Len())
	})

	t.Run("duplicate id fails", func(t *testing.T) {
		_, err := NewCollection(New("r1", nil), New("r1", nil))
		require.Error(t, err)

		var dupErr *ErrDuplicateID
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, ID("r1"), dupErr.ID)
	})

	t.Run("empty", func(t *testing.T) {
		c, err := NewCollection()
		require.NoError(t, err)
		assert.Equal(t, 0, c.Len())
		assert.Empty(t, c.IDs())
	})
}

func TestCollectionGet(t *testing.T) {
	c, err := NewCollection(
		New("r1", map[string]string{"full_name": "Jane"}),
		New("r2", map[string]string{"full_name": "John"}),
	)
	require.NoError(t, err)

	r, ok := c.Get("r2")
	require.True(t, ok)

	v, _ := r.Field("full_name")
	assert.Equal(t, "John", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCollectionRecordsIsCopy(t *testing.T) {
	c, err := NewCollection(New("r1", nil), New("r2", nil))
	require.NoError(t, err)

	records := c.Records()
	records[0] = New("other", nil)

	assert.Equal(t, ID("r1"), c.At(0).ID())
}
