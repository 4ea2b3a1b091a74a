package registry

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lonng/netrpc/rpcmeta"
)

type Greeter struct{}

func (g *Greeter) SayHelloServerRPC(name string) {}
func (g *Greeter) unexportedRPC(name string)     {}

func TestCacheDescriptorsIdempotent(t *testing.T) {
	c := NewDescriptorCache()
	typ := reflect.TypeOf(&Greeter{})
	table := []rpcmeta.Decl{rpcmeta.ServerRPC("SayHelloServerRPC")}

	first, err := c.CacheDescriptors(typ, table)
	require.NoError(t, err)

	second, err := c.CacheDescriptors(typ, nil) // different table, ignored on cache hit
	require.NoError(t, err)

	assert.Same(t, first["SayHelloServerRPC"], second["SayHelloServerRPC"])
	assert.Equal(t, rpcmeta.ServerBound, first["SayHelloServerRPC"].Decl.Kind)
	assert.True(t, first["SayHelloServerRPC"].Decl.RequireOwnership)
}

func TestCacheDescriptorsRejectsUnexported(t *testing.T) {
	c := NewDescriptorCache()
	typ := reflect.TypeOf(&Greeter{})
	table := []rpcmeta.Decl{rpcmeta.ServerRPC("unexportedRPC")}

	_, err := c.CacheDescriptors(typ, table)
	require.Error(t, err)
	var notOverridable *ErrNotOverridable
	assert.ErrorAs(t, err, &notOverridable)
}

func TestCacheDescriptorsParamTypesExcludeReceiver(t *testing.T) {
	c := NewDescriptorCache()
	typ := reflect.TypeOf(&Greeter{})
	descs, err := c.CacheDescriptors(typ, []rpcmeta.Decl{rpcmeta.ServerRPC("SayHelloServerRPC")})
	require.NoError(t, err)
	require.Len(t, descs["SayHelloServerRPC"].ParamTypes, 1)
	assert.Equal(t, reflect.TypeOf(""), descs["SayHelloServerRPC"].ParamTypes[0])
}
