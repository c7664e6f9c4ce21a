package creds

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pairs(s *Store) [][2]string {
	var out [][2]string
	for username, password := range s.All() {
		out = append(out, [2]string{username, password})
	}
	return out
}

func TestWriteFormat(t *testing.T) {
	s := New()
	s.Insert("alice", "wonderland")
	s.Insert("bob", "pass:with:colons")
	s.Insert("alice", "again")

	var buf bytes.Buffer
	require.NoError(t, s.Write(&buf))
	assert.Equal(t, "alice:again\nbob:pass:with:colons\n", buf.String())
}

func TestWriteEmptyStore(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New().Write(&buf))
	assert.Empty(t, buf.String())
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		entries [][2]string
	}{
		{name: "Empty store", entries: nil},
		{name: "Single entry", entries: [][2]string{{"alice", "x"}}},
		{name: "Order preserved", entries: [][2]string{{"zed", "1"}, {"amy", "2"}, {"mid", "3"}}},
		{name: "Colons in passwords", entries: [][2]string{{"alice", ":"}, {"bob", "a:b:c"}}},
		{name: "Empty password", entries: [][2]string{{"alice", ""}}},
		{name: "Empty username", entries: [][2]string{{"", "anonymous"}}},
		{name: "Unicode and spaces", entries: [][2]string{{"jörg müller", "pässwörd with spaces"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			for _, p := range tt.entries {
				s.Insert(p[0], p[1])
			}

			var buf bytes.Buffer
			require.NoError(t, s.Write(&buf))

			got, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, s.Len(), got.Len())
			assert.Equal(t, pairs(s), pairs(got))
		})
	}
}

func TestWriteRejectsIllegalCharacters(t *testing.T) {
	s := New()
	s.Insert("a:b", "x")

	var buf bytes.Buffer
	err := s.Write(&buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.Empty(t, buf.String())
}

func TestWriteLeavesPartialOutput(t *testing.T) {
	s := New()
	s.Insert("alice", "1")
	s.Insert("bob", "two\nlines")
	s.Insert("carol", "3")

	var buf bytes.Buffer
	err := s.Write(&buf)
	require.Error(t, err)

	var merr *MalformedError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "bob", merr.Username)
	assert.Equal(t, "alice:1\n", buf.String())
}

type failingWriter struct {
	err error
}

func (w failingWriter) Write([]byte) (int, error) {
	return 0, w.err
}

func TestWritePropagatesIOError(t *testing.T) {
	boom := errors.New("disk full")
	s := New()
	s.Insert("alice", "x")

	err := s.Write(failingWriter{err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestRead(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected [][2]string
	}{
		{name: "Empty input", input: "", expected: nil},
		{name: "Skips lines without colon", input: "a:1\njunk\nb:2\n", expected: [][2]string{{"a", "1"}, {"b", "2"}}},
		{name: "Splits at first colon", input: "user:pass:extra\n", expected: [][2]string{{"user", "pass:extra"}}},
		{name: "Skips blank lines", input: "\n\na:1\n\n", expected: [][2]string{{"a", "1"}}},
		{name: "Last line without newline", input: "a:1\nb:2", expected: [][2]string{{"a", "1"}, {"b", "2"}}},
		{name: "CRLF line endings", input: "a:1\r\nb:2\r\n", expected: [][2]string{{"a", "1"}, {"b", "2"}}},
		{name: "Carriage return without newline is kept", input: "a:1\nb:2\r", expected: [][2]string{{"a", "1"}, {"b", "2\r"}}},
		{name: "Carriage return inside line is kept", input: "a:x\ry\n", expected: [][2]string{{"a", "x\ry"}}},
		{name: "Empty username and password", input: ":\n", expected: [][2]string{{"", ""}}},
		{name: "Last one wins in first position", input: "a:1\nb:2\na:3\n", expected: [][2]string{{"a", "3"}, {"b", "2"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Read(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, pairs(s))
		})
	}
}

func TestReadLongLine(t *testing.T) {
	long := strings.Repeat("x", 1<<20)
	s, err := Read(strings.NewReader("alice:" + long + "\n"))
	require.NoError(t, err)
	assert.Equal(t, long, s.MustGet("alice"))
}

type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadPropagatesIOError(t *testing.T) {
	boom := errors.New("broken pipe")
	s, err := Read(&failingReader{data: "a:1\n", err: boom})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, s)
}
