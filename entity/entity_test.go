package entity

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/rpcmeta"
	"github.com/lonng/netrpc/transport"
)

type widget struct {
	Base
	damage []int32
}

func (w *widget) GetBase() *Base { return &w.Base }

func (w *widget) RPCTable() []rpcmeta.Decl {
	return []rpcmeta.Decl{
		rpcmeta.ServerRPC("TakeDamageServerRPC"),
		rpcmeta.ClientRPC("SyncHealthClientRPC"),
	}
}

func (w *widget) TakeDamageServerRPC(amount int32) {
	w.damage = append(w.damage, amount)
}

func (w *widget) SyncHealthClientRPC(health int32) {
	w.damage = append(w.damage, health)
}

type fakeEmitter struct {
	host      bool
	connected bool
	localID   uint32

	sentToServer []string
	broadcasts   []string
	sendErr      error
	broadcastErr error
}

func (f *fakeEmitter) IsHost() bool          { return f.host }
func (f *fakeEmitter) IsConnected() bool     { return f.connected }
func (f *fakeEmitter) LocalClientID() uint32 { return f.localID }

func (f *fakeEmitter) SendToServer(method string, id uint32, params []any, mode transport.DeliveryMode) error {
	f.sentToServer = append(f.sentToServer, method)
	return f.sendErr
}

func (f *fakeEmitter) Broadcast(method string, id uint32, params []any, mode transport.DeliveryMode) error {
	f.broadcasts = append(f.broadcasts, method)
	return f.broadcastErr
}

func newWidget(t *testing.T, emitter *fakeEmitter, owner uint32) *widget {
	t.Helper()
	cache := registry.NewDescriptorCache()
	w := &widget{}
	descs, err := cache.CacheDescriptors(reflect.TypeOf(w), w.RPCTable())
	require.NoError(t, err)

	w.SetNetworkObjectID(7)
	w.SetOwnerClientID(owner)
	w.Attach(emitter, "widget", descs)
	return w
}

func TestInvoke_ServerBound_HostExecutesLocally(t *testing.T) {
	e := &fakeEmitter{host: true}
	w := newWidget(t, e, 0)

	err := Invoke(w, "TakeDamageServerRPC", int32(5))

	require.NoError(t, err)
	assert.Equal(t, []int32{5}, w.damage)
	assert.Empty(t, e.sentToServer)
}

func TestInvoke_ServerBound_OwningClientSendsAndSuppressesLocal(t *testing.T) {
	e := &fakeEmitter{host: false, connected: true, localID: 3}
	w := newWidget(t, e, 3)

	err := Invoke(w, "TakeDamageServerRPC", int32(5))

	require.NoError(t, err)
	assert.Empty(t, w.damage, "local body must not run on the sending client")
	assert.Equal(t, []string{"TakeDamageServerRPC"}, e.sentToServer)
}

func TestInvoke_ServerBound_NonOwnerSuppressedWithoutSending(t *testing.T) {
	e := &fakeEmitter{host: false, connected: true, localID: 9}
	w := newWidget(t, e, 3) // owned by client 3, local id is 9

	err := Invoke(w, "TakeDamageServerRPC", int32(5))

	require.NoError(t, err)
	assert.Empty(t, w.damage)
	assert.Empty(t, e.sentToServer)
}

func TestInvoke_ServerBound_DisconnectedIsNoOp(t *testing.T) {
	e := &fakeEmitter{host: false, connected: false, localID: 3}
	w := newWidget(t, e, 3)

	err := Invoke(w, "TakeDamageServerRPC", int32(5))

	require.NoError(t, err)
	assert.Empty(t, w.damage)
	assert.Empty(t, e.sentToServer)
}

func TestInvoke_ClientBound_HostBroadcastsAndExecutesLocally(t *testing.T) {
	e := &fakeEmitter{host: true}
	w := newWidget(t, e, 0)

	err := Invoke(w, "SyncHealthClientRPC", int32(42))

	require.NoError(t, err)
	assert.Equal(t, []int32{42}, w.damage)
	assert.Equal(t, []string{"SyncHealthClientRPC"}, e.broadcasts)
}

func TestInvoke_ClientBound_ClientRunsLocallyWithoutBroadcast(t *testing.T) {
	e := &fakeEmitter{host: false, connected: true, localID: 3}
	w := newWidget(t, e, 3)

	err := Invoke(w, "SyncHealthClientRPC", int32(42))

	require.NoError(t, err)
	assert.Equal(t, []int32{42}, w.damage)
	assert.Empty(t, e.broadcasts)
}

func TestDispatchValuesBypassesInterception(t *testing.T) {
	e := &fakeEmitter{host: false, connected: true, localID: 9}
	w := newWidget(t, e, 3) // a non-owner client, would normally be suppressed

	err := DispatchValues(w, "TakeDamageServerRPC", []reflect.Value{reflect.ValueOf(int32(5))})

	require.NoError(t, err)
	assert.Equal(t, []int32{5}, w.damage, "inbound-dispatch calls must always run the body")
	assert.Empty(t, e.sentToServer)
}

func TestInvoke_UndeclaredMethodReturnsError(t *testing.T) {
	e := &fakeEmitter{host: false, connected: true, localID: 3}
	w := newWidget(t, e, 3)

	err := Invoke(w, "NotARemoteMethod")

	var unknown *ErrUnknownMethod
	assert.ErrorAs(t, err, &unknown)
}

func TestFactoryRegisterAndLookup(t *testing.T) {
	Register("entity_test.widget", func() Networked { return &widget{} })

	f, err := Lookup("entity_test.widget")
	require.NoError(t, err)
	n := f()
	_, ok := n.(*widget)
	assert.True(t, ok)
}

func TestFactoryLookupUnknownType(t *testing.T) {
	_, err := Lookup("no-such-type")
	var unknown *ErrUnknownType
	assert.ErrorAs(t, err, &unknown)
}

func TestOnSpawnDefaultIsNoOp(t *testing.T) {
	w := &widget{}
	var s Spawnable = w
	assert.NotPanics(t, func() { s.OnSpawn() })
}
