package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDirectoryLifecycle(t *testing.T) {
	d := NewDirectory()

	assert.False(t, d.Online("ana"))

	d.Add("ana", RoleClient)
	d.Add("att-1", RoleAttendant)

	role, ok := d.RoleOf("ana")
	assert.True(t, ok)
	assert.Equal(t, RoleClient, role)

	role, ok = d.RoleOf("att-1")
	assert.True(t, ok)
	assert.Equal(t, RoleAttendant, role)

	d.Remove("ana")
	assert.False(t, d.Online("ana"))
	assert.True(t, d.Online("att-1"))
}
