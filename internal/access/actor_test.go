package access

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestActor_Allows(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	actor := ForUser(uuid.New(), a)

	assert.True(t, actor.Allows(a))
	assert.False(t, actor.Allows(b))
	assert.True(t, actor.AllowsShared(nil))
	assert.False(t, actor.AllowsShared(&b))

	assert.True(t, System().Allows(b))
	assert.True(t, actor.Sudo().Allows(b))
}

func TestActor_CopiesAreIndependent(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	actor := ForUser(uuid.New(), a)

	wider := actor.WithCompany(b)
	assert.True(t, wider.Allows(b))
	assert.False(t, actor.Allows(b))
	assert.Len(t, wider.WithCompany(a).CompanyIDs, 2)

	elevated := actor.Sudo()
	assert.True(t, elevated.Elevated)
	assert.False(t, actor.Elevated)
	assert.Equal(t, actor.UserID, elevated.UserID)
}

func TestContext(t *testing.T) {
	_, ok := From(context.Background())
	assert.False(t, ok)

	actor := ForUser(uuid.New(), uuid.New())
	got, ok := From(Into(context.Background(), actor))
	assert.True(t, ok)
	assert.Equal(t, actor, got)
}
