package core

import (
	"context"
	"fmt"
)

// nameCache maps client ids to display names for one game. Unknown ids get
// a stable placeholder so score tables stay readable before lookups finish.
type nameCache struct {
	names        map[string]string
	placeholders map[string]string
	next         int
}

func newNameCache() *nameCache {
	c := &nameCache{}
	c.reset()
	return c
}

func (c *nameCache) reset() {
	c.names = make(map[string]string)
	c.placeholders = make(map[string]string)
	c.next = 0
}

func (c *nameCache) learn(id, name string) {
	if id == "" || name == "" {
		return
	}
	c.names[id] = name
}

func (c *nameCache) lookup(id string) (string, bool) {
	name, ok := c.names[id]
	return name, ok
}

func (c *nameCache) placeholder(id string) string {
	if p, ok := c.placeholders[id]; ok {
		return p
	}
	c.next++
	p := fmt.Sprintf("Player %d", c.next)
	c.placeholders[id] = p
	return p
}

// ClientName returns the cached display name of a client, or a placeholder
// of the form "Player N" when the name has not been resolved yet.
func (s *Store) ClientName(clientID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if name, ok := s.names.lookup(clientID); ok {
		return name
	}
	return s.names.placeholder(clientID)
}

// ResolveClientName looks the client up on the server and caches the
// result. On failure the placeholder is returned along with the error.
func (s *Store) ResolveClientName(ctx context.Context, clientID string) (string, error) {
	s.mu.Lock()
	if name, ok := s.names.lookup(clientID); ok {
		s.mu.Unlock()
		return name, nil
	}
	epoch := s.epoch
	s.mu.Unlock()

	info, err := s.api.ClientByID(ctx, clientID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || info.Name == "" {
		return s.names.placeholder(clientID), err
	}
	if epoch == s.epoch {
		s.names.learn(clientID, info.Name)
	}
	return info.Name, nil
}

// KnownNames returns the number of resolved client names.
func (s *Store) KnownNames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names.names)
}
