package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeStoryPermissions_Owner(t *testing.T) {
	p := ComputeStoryPermissions(true, false)

	assert.True(t, p.CanRead)
	assert.True(t, p.CanEdit)
	assert.True(t, p.CanDelete)
	assert.True(t, p.CanPublish)
}

func TestComputeStoryPermissions_Collaborator(t *testing.T) {
	p := ComputeStoryPermissions(false, true)

	assert.True(t, p.CanRead)
	assert.True(t, p.CanEdit)
	assert.False(t, p.CanDelete)
	assert.False(t, p.CanPublish)
}

func TestComputeStoryPermissions_Stranger(t *testing.T) {
	p := ComputeStoryPermissions(false, false)

	assert.False(t, p.CanRead)
	assert.False(t, p.CanEdit)
	assert.False(t, p.CanDelete)
	assert.False(t, p.CanPublish)
}

func TestStoryPermissions_Allows(t *testing.T) {
	owner := ComputeStoryPermissions(true, false)
	collaborator := ComputeStoryPermissions(false, true)
	stranger := ComputeStoryPermissions(false, false)

	assert.True(t, owner.Allows(AccessLevelDelete))
	assert.True(t, owner.Allows(AccessLevelPublish))
	assert.True(t, collaborator.Allows(AccessLevelEdit))
	assert.False(t, collaborator.Allows(AccessLevelDelete))
	assert.False(t, stranger.Allows(AccessLevelRead))
}
