package actor

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrom(t *testing.T) {
	assert.True(t, From(context.Background()).Anonymous())

	ctx := WithActor(context.Background(), Actor{UserID: "user-1", Username: "alice", RequestID: "req-1"})
	a := From(ctx)
	assert.False(t, a.Anonymous())
	assert.Equal(t, "alice", a.Username)
	assert.Equal(t, "req-1", a.RequestID)
}
