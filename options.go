package netrpc

import (
	"github.com/lonng/netrpc/internal/env"
	"github.com/lonng/netrpc/internal/log"
	"github.com/lonng/netrpc/pipeline"
	"github.com/lonng/netrpc/registry"
)

// Option configures a Manager at construction time, mirroring the
// teacher's Option func(*cluster.Options) pattern.
type Option func(*managerOptions)

type managerOptions struct {
	allocator            registry.IDAllocator
	pipeline             pipeline.Pipeline
	onClientConnected    func(clientID uint32)
	onClientDisconnected func(clientID uint32)
	onConnectedToServer  func()
	onDisconnectedFromServer func()
}

func defaultManagerOptions() *managerOptions {
	return &managerOptions{
		allocator: registry.NewCounterAllocator(),
		pipeline:  pipeline.New(),
	}
}

// WithDebugMode enables verbose per-frame dispatch logging.
func WithDebugMode() Option {
	return func(opt *managerOptions) {
		env.Debug = true
	}
}

// WithLogger redirects framework log output.
func WithLogger(logger log.Logger) Option {
	return func(opt *managerOptions) {
		log.SetLogger(logger)
	}
}

// WithIDAllocator overrides the default counter-based network-object-id
// allocator, e.g. with registry.NewSnowflakeAllocator for a multi-host
// deployment.
func WithIDAllocator(allocator registry.IDAllocator) Option {
	return func(opt *managerOptions) {
		opt.allocator = allocator
	}
}

// WithPipeline installs an inbound/outbound frame pipeline.
func WithPipeline(p pipeline.Pipeline) Option {
	return func(opt *managerOptions) {
		opt.pipeline = p
	}
}

// WithOnClientConnected sets the host-side callback fired once a
// client's handshake and client-id assignment complete.
func WithOnClientConnected(fn func(clientID uint32)) Option {
	return func(opt *managerOptions) {
		opt.onClientConnected = fn
	}
}

// WithOnClientDisconnected sets the host-side disconnect callback.
func WithOnClientDisconnected(fn func(clientID uint32)) Option {
	return func(opt *managerOptions) {
		opt.onClientDisconnected = fn
	}
}

// WithOnConnectedToServer sets the client-side callback fired once the
// local client-id assignment is received.
func WithOnConnectedToServer(fn func()) Option {
	return func(opt *managerOptions) {
		opt.onConnectedToServer = fn
	}
}

// WithOnDisconnectedFromServer sets the client-side disconnect callback.
func WithOnDisconnectedFromServer(fn func()) Option {
	return func(opt *managerOptions) {
		opt.onDisconnectedFromServer = fn
	}
}
