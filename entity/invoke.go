package entity

import (
	"fmt"
	"reflect"

	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/registry"
	"github.com/lonng/netrpc/rpcmeta"
)

// ErrUnknownMethod is returned when Invoke or DispatchValues names a
// method that was never declared in the entity's RPCTable.
type ErrUnknownMethod struct {
	Type   reflect.Type
	Method string
}

func (e *ErrUnknownMethod) Error() string {
	return fmt.Sprintf("entity: %s has no declared remote method %q", e.Type, e.Method)
}

// Invoke is the interceptor from spec.md §4.3: application code that
// wants a declared remote method routed calls Invoke instead of the
// method directly. Invoke implements the server-bound/client-bound ×
// host/client/disconnected decision table, performing the local method
// call itself via reflection whenever the table says the body should
// run, and/or sending or broadcasting the call over the wire via the
// entity's bound Emitter.
func Invoke(e Networked, name string, args ...any) error {
	base := e.GetBase()
	d, ok := base.descriptors[name]
	if !ok {
		return &ErrUnknownMethod{Type: reflect.TypeOf(e), Method: name}
	}

	params := make([]reflect.Value, len(args))
	for i, a := range args {
		params[i] = reflect.ValueOf(a)
	}

	host := base.emitter.IsHost()

	switch d.Decl.Kind {
	case rpcmeta.ServerBound:
		if host {
			// The host is the authority for its own server-bound
			// methods: a direct call just runs.
			return callMethod(e, d, params)
		}
		if !base.emitter.IsConnected() {
			// Disconnected: dropped, never sent.
			return nil
		}
		if d.Decl.RequireOwnership && base.emitter.LocalClientID() != base.ownerClientID {
			// Non-owner: suppressed, both locally and on the wire.
			return nil
		}
		if err := base.emitter.SendToServer(name, base.networkObjectID, args, d.Decl.Delivery); err != nil {
			log.Error("entity: send server-bound rpc %s#%d.%s: %v", base.typeName, base.networkObjectID, name, err)
			return err
		}
		return nil

	case rpcmeta.ClientBound:
		if !host {
			// A client invoking its own client-bound method directly
			// just runs it; only the host may broadcast.
			return callMethod(e, d, params)
		}
		if d.Decl.RequireOwnership && base.emitter.LocalClientID() != base.ownerClientID {
			// Suppress both the broadcast and the local run, keeping
			// behavior uniform with the server-bound ownership gate.
			return nil
		}
		if err := base.emitter.Broadcast(name, base.networkObjectID, args, d.Decl.Delivery); err != nil {
			log.Error("entity: broadcast client-bound rpc %s#%d.%s: %v", base.typeName, base.networkObjectID, name, err)
			return err
		}
		return callMethod(e, d, params) // the host also runs the body locally

	default:
		return nil
	}
}

// DispatchValues runs name's body directly, with no interception. The
// manager calls it for a frame whose routing has already been decided
// by the sender: params must already match the descriptor's ParamTypes
// (wire.Convert produces exactly that).
func DispatchValues(e Networked, name string, params []reflect.Value) error {
	base := e.GetBase()
	d, ok := base.descriptors[name]
	if !ok {
		return &ErrUnknownMethod{Type: reflect.TypeOf(e), Method: name}
	}
	return callMethod(e, d, params)
}

func callMethod(e Networked, d *registry.Descriptor, params []reflect.Value) error {
	in := make([]reflect.Value, 0, len(params)+1)
	in = append(in, reflect.ValueOf(e))
	in = append(in, params...)

	out := d.Method.Func.Call(in)
	for _, o := range out {
		if err, ok := o.Interface().(error); ok && err != nil {
			return err
		}
	}
	return nil
}
