package netrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonng/netrpc/entity"
	"github.com/lonng/netrpc/rpcmeta"
	"github.com/lonng/netrpc/transport"
	"github.com/lonng/netrpc/transport/loopback"
	"github.com/lonng/netrpc/wire"
)

type actor struct {
	entity.Base
	hits    []int32
	healths []int32
	tags    []string
	crates  []loadout
}

type loadout struct {
	Weapon string
	Ammo   int
}

func (a *actor) GetBase() *entity.Base { return &a.Base }

func (a *actor) RPCTable() []rpcmeta.Decl {
	return []rpcmeta.Decl{
		rpcmeta.ServerRPC("HitServerRPC"),
		rpcmeta.ClientRPC("SyncHealthClientRPC"),
		rpcmeta.ServerRPC("SetTagServerRPC"),
		rpcmeta.ServerRPC("EquipServerRPC"),
	}
}

func (a *actor) HitServerRPC(amount int32) { a.hits = append(a.hits, amount) }

func (a *actor) SyncHealthClientRPC(health int32) { a.healths = append(a.healths, health) }

func (a *actor) SetTagServerRPC(tag *string) {
	if tag == nil {
		a.tags = append(a.tags, "<nil>")
		return
	}
	a.tags = append(a.tags, *tag)
}

func (a *actor) EquipServerRPC(l loadout) { a.crates = append(a.crates, l) }

func pump(n int, managers ...*Manager) {
	for i := 0; i < n; i++ {
		for _, m := range managers {
			m.Update()
		}
	}
}

// connectOne spins up a host and a single client over a fresh loopback
// network and pumps until the client has a confirmed client-id
// assignment (the first connecting client always gets id 1).
func connectOne(t *testing.T) (*Manager, *Manager) {
	t.Helper()
	net := loopback.NewNetwork()

	host := NewManager()
	require.NoError(t, host.StartServer(net.Host(), 0, 10))

	client := NewManager()
	require.NoError(t, client.StartClient(net.Client(), "", 0))

	pump(4, host, client)
	require.Equal(t, Connected, client.State())
	require.EqualValues(t, 1, client.LocalClientID())

	return host, client
}

func TestEcho_ServerBoundCallReachesHostAndSuppressesLocalOnClient(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	host, client := connectOne(t)

	hostEntity, err := host.Spawn("netrpc_test.actor", 1)
	require.NoError(t, err)
	pump(2, host, client)

	clientRaw := client.reg.Get(hostEntity.NetworkObjectID())
	require.NotNil(t, clientRaw)
	clientEntity := clientRaw.(entity.Networked)

	require.NoError(t, entity.Invoke(clientEntity, "HitServerRPC", int32(7)))
	assert.Empty(t, clientEntity.(*actor).hits, "the owning client must not run the body itself")

	pump(2, host, client)
	assert.Equal(t, []int32{7}, hostEntity.(*actor).hits)
}

func TestBroadcast_ClientBoundCallReachesConnectedClients(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	host, client := connectOne(t)

	hostEntity, err := host.Spawn("netrpc_test.actor", 1)
	require.NoError(t, err)
	pump(2, host, client)

	require.NoError(t, entity.Invoke(hostEntity, "SyncHealthClientRPC", int32(50)))
	assert.Equal(t, []int32{50}, hostEntity.(*actor).healths, "the host also runs the body locally")

	pump(2, host, client)

	clientRaw := client.reg.Get(hostEntity.NetworkObjectID())
	require.NotNil(t, clientRaw)
	assert.Equal(t, []int32{50}, clientRaw.(*actor).healths)
}

func TestOwnership_NonOwnerCallIsSuppressedWithoutReachingHost(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	host, client := connectOne(t)

	// Owned by client 2, which never connects here; the only connected
	// client is id 1.
	hostEntity, err := host.Spawn("netrpc_test.actor", 2)
	require.NoError(t, err)
	pump(2, host, client)

	clientRaw := client.reg.Get(hostEntity.NetworkObjectID())
	require.NotNil(t, clientRaw)

	require.NoError(t, entity.Invoke(clientRaw.(entity.Networked), "HitServerRPC", int32(99)))
	pump(2, host, client)

	assert.Empty(t, hostEntity.(*actor).hits)
}

// TestOwnership_HostDropsFrameFromNonOwningSender bypasses entity.Invoke's
// own sender-side suppression entirely, crafting and sending the wire
// frame directly, to exercise the host's own receive-side authority
// check: a require-ownership server-bound frame whose sender-id doesn't
// match the target's owner must never reach the method body, regardless
// of how the frame was produced.
func TestOwnership_HostDropsFrameFromNonOwningSender(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	net := loopback.NewNetwork()

	host := NewManager()
	require.NoError(t, host.StartServer(net.Host(), 0, 10))

	owner := NewManager()
	require.NoError(t, owner.StartClient(net.Client(), "", 0))
	pump(4, host, owner)
	require.EqualValues(t, 1, owner.LocalClientID())

	impostor := NewManager()
	require.NoError(t, impostor.StartClient(net.Client(), "", 0))
	pump(4, host, owner, impostor)
	require.EqualValues(t, 2, impostor.LocalClientID())

	hostEntity, err := host.Spawn("netrpc_test.actor", owner.LocalClientID())
	require.NoError(t, err)
	pump(2, host, owner, impostor)

	frame, err := wire.EncodeRPC("HitServerRPC", hostEntity.NetworkObjectID(), []any{int32(42)})
	require.NoError(t, err)

	require.NoError(t, impostor.tr.SendToServer(frame, transport.Reliable))
	pump(2, host, owner, impostor)
	assert.Empty(t, hostEntity.(*actor).hits, "a non-owning sender's frame must never reach the method body")

	require.NoError(t, owner.tr.SendToServer(frame, transport.Reliable))
	pump(2, host, owner, impostor)
	assert.Equal(t, []int32{42}, hostEntity.(*actor).hits, "the owning sender's identical frame must still be accepted")
}

func TestLateJoin_ReplaysExistingEntitiesInInsertionOrder(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	net := loopback.NewNetwork()

	host := NewManager()
	require.NoError(t, host.StartServer(net.Host(), 0, 10))
	pump(2, host)

	first, err := host.Spawn("netrpc_test.actor", 0)
	require.NoError(t, err)
	second, err := host.Spawn("netrpc_test.actor", 0)
	require.NoError(t, err)

	client := NewManager()
	require.NoError(t, client.StartClient(net.Client(), "", 0))
	pump(4, host, client)

	require.Equal(t, Connected, client.State())
	assert.NotNil(t, client.reg.Get(first.NetworkObjectID()))
	assert.NotNil(t, client.reg.Get(second.NetworkObjectID()))
	all := client.reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, first.NetworkObjectID(), all[0].NetworkObjectID())
	assert.Equal(t, second.NetworkObjectID(), all[1].NetworkObjectID())
}

func TestNullArgument_ConvertsToNilPointer(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	host, client := connectOne(t)

	hostEntity, err := host.Spawn("netrpc_test.actor", 1)
	require.NoError(t, err)
	pump(2, host, client)

	clientRaw := client.reg.Get(hostEntity.NetworkObjectID())
	require.NoError(t, entity.Invoke(clientRaw.(entity.Networked), "SetTagServerRPC", nil))

	pump(2, host, client)
	assert.Equal(t, []string{"<nil>"}, hostEntity.(*actor).tags)
}

func TestFallbackJSON_RoundTripsStructParam(t *testing.T) {
	entity.Register("netrpc_test.actor", func() entity.Networked { return &actor{} })
	host, client := connectOne(t)

	hostEntity, err := host.Spawn("netrpc_test.actor", 1)
	require.NoError(t, err)
	pump(2, host, client)

	clientRaw := client.reg.Get(hostEntity.NetworkObjectID())
	gear := loadout{Weapon: "railgun", Ammo: 12}
	require.NoError(t, entity.Invoke(clientRaw.(entity.Networked), "EquipServerRPC", gear))

	pump(2, host, client)
	require.Len(t, hostEntity.(*actor).crates, 1)
	assert.Equal(t, gear, hostEntity.(*actor).crates[0])
}
