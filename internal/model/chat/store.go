package chat

// Store holds the in-session conversation as an ordered sequence.
//
// Ids are assigned by the store and are strictly increasing in insertion
// order; no id is ever reused within a session, including after removals.
// All mutation happens on the UI event loop, so the store does no locking.
type Store struct {
	messages []Message
	nextID   int64
}

// NewStore returns an empty conversation.
func NewStore() *Store {
	return &Store{nextID: 1}
}

// Append adds a message to the end of the sequence and returns it with its
// assigned id. Any id already set on the input is ignored.
func (s *Store) Append(m Message) Message {
	m.ID = s.nextID
	s.nextID++
	s.messages = append(s.messages, m)
	return m
}

// Remove deletes the message with the given id. Removing an id that is not
// present is a no-op.
func (s *Store) Remove(id int64) {
	for i, m := range s.messages {
		if m.ID == id {
			s.messages = append(s.messages[:i], s.messages[i+1:]...)
			return
		}
	}
}

// Get returns the message with the given id, if present.
func (s *Store) Get(id int64) (Message, bool) {
	for _, m := range s.messages {
		if m.ID == id {
			return m, true
		}
	}
	return Message{}, false
}

// All returns a snapshot of the current sequence in insertion order.
func (s *Store) All() []Message {
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

// Len reports the number of messages currently held.
func (s *Store) Len() int {
	return len(s.messages)
}
