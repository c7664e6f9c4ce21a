package creds

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Write serializes the store to w, one "<username>:<password>" line per entry
// in insertion order.
//
// Each entry is validated just before it is written. On the first invalid
// entry Write stops and returns an error matching ErrMalformed; lines written
// before it are left in w.
func (s *Store) Write(w io.Writer) error {
	for _, e := range s.entries {
		if err := ValidEntry(e.username, e.password); err != nil {
			return err
		}
		if _, err := io.WriteString(w, e.username+":"+e.password+"\n"); err != nil {
			return fmt.Errorf("write credentials: %w", err)
		}
	}
	return nil
}

// Read parses credentials from r.
//
// Each line is split at its first colon into username and password. Lines
// without a colon are skipped. A username seen again later overwrites the
// earlier password but keeps its first position.
func Read(r io.Reader) (*Store, error) {
	s := New()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			// a lone trailing '\r' belongs to the password, only CRLF is a terminator
			if l, ok := strings.CutSuffix(line, "\n"); ok {
				line = strings.TrimSuffix(l, "\r")
			}
			if username, password, ok := strings.Cut(line, ":"); ok {
				s.Insert(username, password)
			}
		}
		if errors.Is(err, io.EOF) {
			return s, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read credentials: %w", err)
		}
	}
}
