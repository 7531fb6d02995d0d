package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypes(t *testing.T) {
	t.Parallel()

	assert.Nil(t, eventTypes(""))
	assert.Equal(t, []string{"job:status", "error"}, eventTypes(" job:status, ,error"))
}
