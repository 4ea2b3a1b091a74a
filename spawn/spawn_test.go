package spawn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonng/netrpc/entity"
	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/rpcmeta"
	"github.com/lonng/netrpc/transport"
)

type crate struct {
	entity.Base
	spawned bool
}

func (c *crate) GetBase() *entity.Base { return &c.Base }
func (c *crate) RPCTable() []rpcmeta.Decl {
	return []rpcmeta.Decl{rpcmeta.ServerRPC("OpenServerRPC")}
}
func (c *crate) OpenServerRPC() {}
func (c *crate) OnSpawn()       { c.spawned = true }

type noopEmitter struct{}

func (noopEmitter) IsHost() bool          { return true }
func (noopEmitter) IsConnected() bool     { return true }
func (noopEmitter) LocalClientID() uint32 { return 0 }
func (noopEmitter) SendToServer(string, uint32, []any, transport.DeliveryMode) error { return nil }
func (noopEmitter) Broadcast(string, uint32, []any, transport.DeliveryMode) error    { return nil }

func newCoordinator() *Coordinator {
	return NewCoordinator(registry.New(), registry.NewDescriptorCache(), registry.NewCounterAllocator())
}

func TestHostSpawnAssignsIDAndFiresHook(t *testing.T) {
	entity.Register("spawn_test.crate", func() entity.Networked { return &crate{} })
	c := newCoordinator()

	e, frame, err := c.HostSpawn("spawn_test.crate", 0, noopEmitter{})
	require.NoError(t, err)
	require.NotEmpty(t, frame)

	cr := e.(*crate)
	assert.EqualValues(t, 1, cr.NetworkObjectID())
	assert.True(t, cr.spawned)
	assert.Same(t, e, c.registry.Get(1))
}

func TestHostSpawnUnknownTypeErrors(t *testing.T) {
	c := newCoordinator()
	_, _, err := c.HostSpawn("no-such-type", 0, noopEmitter{})
	var unknown *entity.ErrUnknownType
	assert.ErrorAs(t, err, &unknown)
}

func TestReceiveDecodesAndInsertsEntity(t *testing.T) {
	entity.Register("spawn_test.crate", func() entity.Networked { return &crate{} })
	host := newCoordinator()
	_, frame, err := host.HostSpawn("spawn_test.crate", 5, noopEmitter{})
	require.NoError(t, err)

	client := newCoordinator()
	e, err := client.Receive(frame, noopEmitter{})
	require.NoError(t, err)

	cr := e.(*crate)
	assert.EqualValues(t, 1, cr.NetworkObjectID())
	assert.EqualValues(t, 5, cr.OwnerClientID())
	assert.True(t, cr.spawned)
}

func TestReceiveIsIdempotent(t *testing.T) {
	entity.Register("spawn_test.crate", func() entity.Networked { return &crate{} })
	host := newCoordinator()
	_, frame, err := host.HostSpawn("spawn_test.crate", 0, noopEmitter{})
	require.NoError(t, err)

	client := newCoordinator()
	first, err := client.Receive(frame, noopEmitter{})
	require.NoError(t, err)
	second, err := client.Receive(frame, noopEmitter{})
	require.NoError(t, err)

	assert.Same(t, first, second, "a duplicate spawn frame must not construct a second entity")
	assert.Len(t, client.registry.All(), 1)
}

func TestReplayFramesPreserveInsertionOrder(t *testing.T) {
	entity.Register("spawn_test.crate", func() entity.Networked { return &crate{} })
	host := newCoordinator()
	_, _, err := host.HostSpawn("spawn_test.crate", 0, noopEmitter{})
	require.NoError(t, err)
	_, _, err = host.HostSpawn("spawn_test.crate", 0, noopEmitter{})
	require.NoError(t, err)

	frames := host.ReplayFrames()
	require.Len(t, frames, 2)

	client := newCoordinator()
	for _, f := range frames {
		_, err := client.Receive(f, noopEmitter{})
		require.NoError(t, err)
	}
	assert.Len(t, client.registry.All(), 2)
}
