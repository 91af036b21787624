// Package idgen allocates short human-facing identifiers for shippers and orders.
//
// A candidate is drawn at random and probed against the store; taken candidates are redrawn up to a
// fixed number of attempts. The store's unique constraint remains the final guard against two
// concurrent requests drawing the same free candidate.
package idgen

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"pozt-backend/internal/apperr"
	"pozt-backend/internal/metrics"
)

type Kind string

const (
	KindShipper Kind = "shipper"
	KindOrder   Kind = "order"
)

// Format is Prefix followed by Digits decimal digits without a leading zero.
type Format struct {
	Prefix string
	Digits int
}

// Len is the total identifier length.
func (f Format) Len() int {
	return len(f.Prefix) + f.Digits
}

var Formats = map[Kind]Format{
	KindShipper: {Prefix: "58", Digits: 4},
	KindOrder:   {Prefix: "POZT", Digits: 21},
}

const DefaultMaxAttempts = 16

var (
	ErrExhausted   = apperr.Dependency("id_space_exhausted", "could not allocate a unique identifier", nil)
	ErrUnknownKind = apperr.Dependency("id_kind_unknown", "unknown identifier kind", nil)
)

// ProbeFunc reports whether id is already taken.
type ProbeFunc func(ctx context.Context, id string) (bool, error)

type Generator struct {
	probes      map[Kind]ProbeFunc
	maxAttempts int
	random      io.Reader
}

type Option func(*Generator)

// WithRandom replaces crypto/rand as the digit source.
func WithRandom(r io.Reader) Option {
	return func(g *Generator) { g.random = r }
}

func WithMaxAttempts(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func New(probes map[Kind]ProbeFunc, opts ...Option) *Generator {
	g := &Generator{
		probes:      probes,
		maxAttempts: DefaultMaxAttempts,
		random:      rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns an identifier of kind that the store does not hold yet.
func (g *Generator) Generate(ctx context.Context, kind Kind) (string, error) {
	format, ok := Formats[kind]
	probe := g.probes[kind]
	if !ok || probe == nil {
		return "", ErrUnknownKind.Wrap(fmt.Errorf("kind %q", kind))
	}

	for attempt := 0; attempt < g.maxAttempts; attempt++ {
		candidate, err := Draw(g.random, format)
		if err != nil {
			return "", apperr.Dependency("id_random", "random source failed", err)
		}

		taken, err := probe(ctx, candidate)
		if err != nil {
			return "", apperr.Dependency("store_error", "identifier lookup failed", err)
		}
		if !taken {
			return candidate, nil
		}
		metrics.IDCollisions.WithLabelValues(string(kind)).Inc()
	}

	return "", ErrExhausted.Wrap(fmt.Errorf("%s: %d attempts", kind, g.maxAttempts))
}

// Draw produces one candidate for format, uniform over [10^(d-1), 10^d - 1].
func Draw(random io.Reader, format Format) (string, error) {
	lo := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(format.Digits-1)), nil)
	span := new(big.Int).Mul(lo, big.NewInt(9))

	n, err := rand.Int(random, span)
	if err != nil {
		return "", err
	}
	n.Add(n, lo)
	return format.Prefix + n.String(), nil
}
