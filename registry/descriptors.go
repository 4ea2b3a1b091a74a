package registry

import (
	"fmt"
	"reflect"

	"github.com/lonng/netrpc/rpcmeta"
)

// ErrNotOverridable is the configuration error from spec.md §7 kind 1:
// a declared remote method isn't exported (and so can't be reached by
// reflection), which is this Go implementation's equivalent of "not
// overridable" for a reimplementation that has no proxy/virtual-method
// mechanism (spec.md §9).
type ErrNotOverridable struct {
	Type   reflect.Type
	Method string
}

func (e *ErrNotOverridable) Error() string {
	return fmt.Sprintf("registry: %s.%s is declared as a remote method but is not exported/overridable", e.Type, e.Method)
}

// Descriptor is the cached metadata for one declared remote method.
type Descriptor struct {
	Decl       rpcmeta.Decl
	ParamTypes []reflect.Type // excludes the receiver
	Method     reflect.Method
}

// DescriptorCache holds the per-entity-type table of remote method
// descriptors, built once per type and reused thereafter.
type DescriptorCache struct {
	byType map[reflect.Type]map[string]*Descriptor
}

// NewDescriptorCache returns an empty cache.
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{byType: make(map[reflect.Type]map[string]*Descriptor)}
}

// CacheDescriptors builds (or returns the already-built) descriptor
// table for entityType from its declared remote-method table. It is
// idempotent per type: the first call validates every declared method
// is exported and records its descriptor; later calls for the same
// type are a cache hit and never re-validate.
func (c *DescriptorCache) CacheDescriptors(entityType reflect.Type, table []rpcmeta.Decl) (map[string]*Descriptor, error) {
	if cached, ok := c.byType[entityType]; ok {
		return cached, nil
	}

	descriptors := make(map[string]*Descriptor, len(table))
	for _, decl := range table {
		method, ok := entityType.MethodByName(decl.Name)
		if !ok || !method.IsExported() {
			return nil, &ErrNotOverridable{Type: entityType, Method: decl.Name}
		}

		// method.Type.In(0) is the receiver; the rest are the
		// declared call's parameters in order.
		paramTypes := make([]reflect.Type, 0, method.Type.NumIn()-1)
		for i := 1; i < method.Type.NumIn(); i++ {
			paramTypes = append(paramTypes, method.Type.In(i))
		}

		descriptors[decl.Name] = &Descriptor{
			Decl:       decl,
			ParamTypes: paramTypes,
			Method:     method,
		}
	}

	c.byType[entityType] = descriptors
	return descriptors, nil
}

// Lookup returns the already-cached descriptor table for entityType, or
// nil if CacheDescriptors hasn't been called for it yet.
func (c *DescriptorCache) Lookup(entityType reflect.Type) map[string]*Descriptor {
	return c.byType[entityType]
}
