package xrpl

import (
	"context"
	"fmt"
)

// DefaultPoolSize is the number of clients a pool holds by default.
const DefaultPoolSize = 3

// Pool hands out Clients to fetch workers. Acquire blocks until a client
// is free or the context ends; there is no spinning.
type Pool struct {
	clients chan Client
	all     []Client
}

// NewPool creates a pool over the given clients.
func NewPool(clients ...Client) (*Pool, error) {
	if len(clients) == 0 {
		return nil, fmt.Errorf("pool needs at least one client")
	}
	p := &Pool{
		clients: make(chan Client, len(clients)),
		all:     clients,
	}
	for _, c := range clients {
		p.clients <- c
	}
	return p, nil
}

// Acquire blocks until a client is available.
func (p *Pool) Acquire(ctx context.Context) (Client, error) {
	select {
	case c := <-p.clients:
		return c, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a client to the pool. Callers must release every
// acquired client exactly once.
func (p *Pool) Release(c Client) {
	p.clients <- c
}

// Size returns the pool capacity.
func (p *Pool) Size() int {
	return len(p.all)
}

// Close closes every pooled client.
func (p *Pool) Close() error {
	var firstErr error
	for _, c := range p.all {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
