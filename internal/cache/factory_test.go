package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultsToMemory(t *testing.T) {
	c, err := New("", "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)

	c, err = New("memory", "", "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, c)
}

func TestNew_Redis(t *testing.T) {
	c, err := New("redis", "localhost:6379", "")
	require.NoError(t, err)
	assert.IsType(t, &RedisCache{}, c)
}

func TestNew_RedisRequiresAddr(t *testing.T) {
	_, err := New("redis", "", "")
	assert.Error(t, err)
}

func TestNew_UnknownType(t *testing.T) {
	_, err := New("s3", "", "")
	assert.Error(t, err)
}
