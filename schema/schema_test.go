package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid bindings", func(t *testing.T) {
		s, err := New(map[FieldTag]string{
			TagName:  "full_name",
			TagEmail: "email_address",
		})
		require.NoError(t, err)
		assert.Equal(t, 2, s.Len())
	})

	t.Run("empty bindings", func(t *testing.T) {
		s, err := New(nil)
		require.NoError(t, err)
		assert.Equal(t, 0, s.Len())
	})

	t.Run("invalid tag", func(t *testing.T) {
		_, err := New(map[FieldTag]string{FieldTag(99): "col"})
		require.Error(t, err)

		var invalidErr *ErrInvalidTag
		require.ErrorAs(t, err, &invalidErr)
		assert.Equal(t, FieldTag(99), invalidErr.Tag)
	})

	t.Run("empty column", func(t *testing.T) {
		_, err := New(map[FieldTag]string{TagName: ""})
		require.Error(t, err)

		var emptyErr *ErrEmptyColumn
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, TagName, emptyErr.Tag)
	})
}

func TestSchemaColumn(t *testing.T) {
	s, err := New(map[FieldTag]string{
		TagName:     "full_name",
		TagPostcode: "post_code",
	})
	require.NoError(t, err)

	t.Run("bound tag", func(t *testing.T) {
		column, err := s.Column(TagName)
		require.NoError(t, err)
		assert.Equal(t, "full_name", column)
	})

	t.Run("unbound tag fails explicitly", func(t *testing.T) {
		_, err := s.Column(TagEmail)
		require.Error(t, err)

		var notBound *ErrTagNotBound
		require.ErrorAs(t, err, &notBound)
		assert.Equal(t, TagEmail, notBound.Tag)
	})
}

func TestSchemaBoundTags(t *testing.T) {
	s, err := New(map[FieldTag]string{
		TagPostcode: "post_code",
		TagName:     "full_name",
		TagEmail:    "email",
	})
	require.NoError(t, err)

	// Order is deterministic regardless of map iteration.
	assert.Equal(t, []FieldTag{TagName, TagEmail, TagPostcode}, s.BoundTags())

	assert.True(t, s.Bound(TagName))
	assert.False(t, s.Bound(TagPhone))
}

func TestParseFieldTag(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected FieldTag
		wantErr  bool
	}{
		{"name", "name", TagName, false},
		{"customer id", "customer_id", TagCustomerID, false},
		{"dob", "dob", TagDOB, false},
		{"postcode", "postcode", TagPostcode, false},
		{"unknown", "whatever", 0, true},
		{"empty", "", 0, true},
		{"case sensitive", "NAME", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tag, err := ParseFieldTag(tt.input)
			if tt.wantErr {
				require.Error(t, err)

				var unknownErr *ErrUnknownTag
				assert.ErrorAs(t, err, &unknownErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, tag)
		})
	}
}

func TestFieldTagString(t *testing.T) {
	assert.Equal(t, "name", TagName.String())
	assert.Equal(t, "customer_id", TagCustomerID.String())
	assert.Equal(t, "unknown(99)", FieldTag(99).String())
}

func TestFieldTagRoundTrip(t *testing.T) {
	for _, tag := range Tags() {
		parsed, err := ParseFieldTag(tag.String())
		require.NoError(t, err)
		assert.Equal(t, tag, parsed)
	}
}
