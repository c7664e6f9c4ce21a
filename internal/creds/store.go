package creds

import (
	"fmt"
	"iter"
	"strings"
)

type entry struct {
	username string
	password string
}

// Store is an ordered mapping from username to password.
// The zero value is an empty store ready to use.
type Store struct {
	index   map[string]int
	entries []entry
}

// New creates an empty credential store
func New() *Store {
	return &Store{index: make(map[string]int)}
}

// Clear removes all stored credentials, leaving the store empty
func (s *Store) Clear() {
	clear(s.index)
	// drop references so cleared passwords can be collected
	clear(s.entries)
	s.entries = s.entries[:0]
}

// Insert adds a username and password pair.
//
// If the username is already present its password is replaced and the entry
// keeps its original position. The username should not contain a colon or a
// newline and the password should not contain a newline; this is not checked
// here, Write rejects such entries.
func (s *Store) Insert(username, password string) {
	if i, ok := s.index[username]; ok {
		s.entries[i].password = password
		return
	}
	if s.index == nil {
		s.index = make(map[string]int)
	}
	s.index[username] = len(s.entries)
	s.entries = append(s.entries, entry{username: username, password: password})
}

// Get returns the password stored for username and whether it was present
func (s *Store) Get(username string) (string, bool) {
	i, ok := s.index[username]
	if !ok {
		return "", false
	}
	return s.entries[i].password, true
}

// MustGet is like Get but panics if username is not present.
// Use it only where a missing username is a programming error.
func (s *Store) MustGet(username string) string {
	password, ok := s.Get(username)
	if !ok {
		panic(fmt.Sprintf("username not present: %s", username))
	}
	return password
}

// Len returns the number of stored credentials
func (s *Store) Len() int {
	return len(s.entries)
}

// All iterates over username/password pairs in insertion order
func (s *Store) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, e := range s.entries {
			if !yield(e.username, e.password) {
				return
			}
		}
	}
}

// Usernames returns the stored usernames in insertion order
func (s *Store) Usernames() []string {
	names := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		names = append(names, e.username)
	}
	return names
}

// Clone returns an independent copy of the store
func (s *Store) Clone() *Store {
	c := &Store{
		index:   make(map[string]int, len(s.entries)),
		entries: make([]entry, len(s.entries)),
	}
	copy(c.entries, s.entries)
	for i, e := range c.entries {
		c.index[e.username] = i
	}
	return c
}

// String lists the usernames with masked passwords. Passwords are never printed.
func (s *Store) String() string {
	var b strings.Builder
	b.WriteString("creds.Store{")
	for i, e := range s.entries {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%q: ***", e.username)
	}
	b.WriteString("}")
	return b.String()
}
