package ws

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryBindAndUnregister(t *testing.T) {
	registry := NewRegistry()
	first, second := newClient(nil, ConnInfo{ConnID: "a"}), newClient(nil, ConnInfo{ConnID: "b"})

	require.True(t, registry.Register(first))
	require.True(t, registry.Register(second))
	require.True(t, registry.Bind(first, 7))
	require.True(t, registry.Bind(second, 7))
	assert.Equal(t, 2, registry.Connections(7))

	assert.Equal(t, 2, registry.SendToUser(7, []byte(`{}`)))

	registry.Unregister(first)
	assert.Equal(t, 1, registry.Connections(7))
	registry.Unregister(second)
	assert.Equal(t, 0, registry.Connections(7))
	assert.Empty(t, registry.users)
}

func TestRegistryRebindMovesClient(t *testing.T) {
	registry := NewRegistry()
	c := newClient(nil, ConnInfo{})
	registry.Register(c)

	registry.Bind(c, 1)
	registry.Bind(c, 2)

	assert.Equal(t, 0, registry.Connections(1))
	assert.Equal(t, 1, registry.Connections(2))
	assert.Equal(t, int64(2), c.UserID())
}

func TestRegistryBindRequiresRegistration(t *testing.T) {
	registry := NewRegistry()
	assert.False(t, registry.Bind(newClient(nil, ConnInfo{}), 1))
}

func TestRegistryDropsSlowConsumer(t *testing.T) {
	registry := NewRegistry()
	slow, healthy := newClient(nil, ConnInfo{}), newClient(nil, ConnInfo{})
	registry.Register(slow)
	registry.Register(healthy)
	registry.Bind(slow, 3)
	registry.Bind(healthy, 4)

	for i := 0; i < sendBufferSize; i++ {
		require.Equal(t, 1, registry.SendToUser(3, []byte(`{}`)))
	}
	assert.Equal(t, 0, registry.SendToUser(3, []byte(`{}`)))

	select {
	case <-slow.Done():
	default:
		t.Fatal("expected slow client to be closed")
	}
	assert.Equal(t, 0, registry.Connections(3))
	assert.Equal(t, 1, registry.SendToUser(4, []byte(`{}`)), "other users are unaffected")
}

func TestRegistryCloseClosesEveryClient(t *testing.T) {
	registry := NewRegistry()
	c := newClient(nil, ConnInfo{})
	registry.Register(c)
	registry.Bind(c, 5)

	registry.Close()

	<-c.Done()
	assert.Equal(t, 0, registry.Connections(5))
	assert.False(t, registry.Register(newClient(nil, ConnInfo{})))
	assert.Equal(t, 0, registry.SendToUser(5, []byte(`{}`)))
}
