package ig

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
)

func TestNewDealReferenceIsNotZero(t *testing.T) {
	ref := newDealReference()
	parsed, err := ulid.ParseStrict(ref)
	assert.NoError(t, err)
	assert.False(t, isULIDZero(parsed))
}

func TestIsULIDZero(t *testing.T) {
	var zero ulid.ULID
	assert.True(t, isULIDZero(zero))
	assert.False(t, isULIDZero(ulid.Make()))
}
