package feed

import (
	"fmt"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

// Decoder turns one raw feed payload into alert records. The upstream feed
// is served both as a GeoJSON API response and as a CAP Atom document, so
// decoding is a strategy resolved per fetch.
type Decoder interface {
	Name() string
	Decode(data []byte) ([]domain.Alert, error)
}

// Registry keeps a mapping from decoder names to their implementations.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{decoders: map[string]Decoder{}}
}

// Register adds or replaces a decoder implementation.
func (r *Registry) Register(dec Decoder) {
	if r.decoders == nil {
		r.decoders = map[string]Decoder{}
	}
	r.decoders[dec.Name()] = dec
}

// Resolve returns a decoder by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Decoder, error) {
	if dec, ok := r.decoders[name]; ok {
		return dec, nil
	}
	return nil, fmt.Errorf("feed decoder %s is not registered", name)
}
