package queue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDrop(t *testing.T) {
	cause := errors.New("bad payload")
	err := Drop(cause)

	assert.True(t, IsDrop(err))
	assert.True(t, IsDrop(fmt.Errorf("decode: %w", err)))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsDrop(cause))
	assert.Nil(t, Drop(nil))
}
