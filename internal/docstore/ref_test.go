package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefPath(t *testing.T) {
	r := NewRef(CollectionJoin("customers", "u1", "cart"), "p1")
	assert.Equal(t, "customers/u1/cart/p1", r.Path())
	assert.Equal(t, r.Path(), r.String())
	assert.False(t, r.IsZero())
	assert.True(t, Ref{}.IsZero())
}

func TestParseRefRoundTrip(t *testing.T) {
	orig := NewRef("products/s1/published_products", "p9")
	parsed, err := ParseRef(orig.Path())
	require.NoError(t, err)
	assert.Equal(t, orig, parsed)
}

func TestParseRefSingleSegmentCollection(t *testing.T) {
	parsed, err := ParseRef("orders/o1")
	require.NoError(t, err)
	assert.Equal(t, "orders", parsed.Collection)
	assert.Equal(t, "o1", parsed.ID)
}

func TestParseRefMalformed(t *testing.T) {
	for _, path := range []string{"", "orders", "/o1", "orders/"} {
		_, err := ParseRef(path)
		assert.ErrorIs(t, err, ErrBadRefPath, "path %q", path)
	}
}
