// Package loader supplies the classpath provider named in the design notes
// as an external collaborator: a registered set of handler values, each
// walking one classpath root and feeding the parser (relative_path, byte
// stream) pairs, plus a built-in default handler for plain filesystem
// roots. This mirrors the source program's service-loader discovery of
// class-loader handlers, reworked into an explicit Go registry instead of
// a runtime plugin lookup.
package loader

import (
	"context"
	"io"
)

// Handler walks one classpath root, calling emit once per .class entry
// found (directory member, archive member, or remote object) with its
// root-relative path and a readable byte stream. emit returning an error
// stops the walk early and that error propagates out of Walk.
type Handler interface {
	Walk(ctx context.Context, root string, emit func(relativePath string, r io.Reader) error) error
}

// Registry dispatches a classpath root to the Handler registered for its
// scheme (e.g. "cos://bucket/prefix"), falling back to the default
// filesystem handler for a bare path. This is the Go-native replacement
// for a service-loader lookup of class-loader handlers: callers register
// handlers up front instead of the runtime discovering them.
type Registry struct {
	handlers map[string]Handler
	def      Handler
}

// NewRegistry creates a Registry with LocalHandler registered as the
// default for filesystem roots.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
		def:      NewLocalHandler(),
	}
}

// Register associates a Handler with a scheme prefix (e.g. "cos").
func (r *Registry) Register(scheme string, h Handler) {
	r.handlers[scheme] = h
}

// For returns the Handler registered for scheme, or the default handler if
// none was registered.
func (r *Registry) For(scheme string) Handler {
	if h, ok := r.handlers[scheme]; ok {
		return h
	}
	return r.def
}
