package core

// Subscribe returns a channel that receives a snapshot after every state
// change, starting with the current one. Slow subscribers only see the
// latest snapshot. cancel must be called to release the subscription.
func (s *Store) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.state.clone()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
	return ch, cancel
}

// Subscribers returns the number of active subscriptions.
func (s *Store) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// publishLocked fans the current state out to subscribers. Caller holds s.mu.
func (s *Store) publishLocked() {
	if len(s.subs) == 0 {
		return
	}
	snap := s.state.clone()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
			// Drop if slow consumer.
		}
	}
}
