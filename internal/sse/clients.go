// Package sse fans out state snapshots to subscribers and streams them as Server-Sent Events.
package sse

import (
	"sync"
)

// Client receives snapshots on Msg. The channel holds one value; a slow
// reader only ever sees the most recent snapshot.
type Client[T any] struct {
	Msg chan T
}

type Clients[T any] struct {
	clients map[*Client[T]]bool
	mu      sync.RWMutex
}

func NewClients[T any]() *Clients[T] {
	return &Clients[T]{
		clients: make(map[*Client[T]]bool),
	}
}

// Subscribe registers a new client, primed with initial.
func (s *Clients[T]) Subscribe(initial T) *Client[T] {
	client := &Client[T]{Msg: make(chan T, 1)}
	client.Msg <- initial
	s.Add(client)
	return client
}

func (s *Clients[T]) Add(client *Client[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

// Delete unregisters the client and closes its channel. Deleting twice is a no-op.
func (s *Clients[T]) Delete(client *Client[T]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.clients[client] {
		return
	}
	delete(s.clients, client)
	close(client.Msg)
}

func (s *Clients[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

// Broadcast never blocks. A pending unread value is replaced by msg.
// Callers must broadcast from a single goroutine.
func (s *Clients[T]) Broadcast(msg T) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		select {
		case client.Msg <- msg:
			continue
		default:
		}

		select {
		case <-client.Msg:
		default:
		}
		select {
		case client.Msg <- msg:
		default:
		}
	}
}

// Close unregisters every client.
func (s *Clients[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for client := range s.clients {
		delete(s.clients, client)
		close(client.Msg)
	}
}
