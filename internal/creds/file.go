package creds

import (
	"bufio"
	"fmt"
	"os"
)

// FileMode is the permission used when a credentials file is created
const FileMode os.FileMode = 0600

// WriteToFile writes the store to path, creating the file or truncating an
// existing one. See Store.Write.
//
// If validation fails part way through, the file keeps the lines written
// before the invalid entry. Call Validate first to avoid that.
func (s *Store) WriteToFile(path string) (err error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, FileMode)
	if err != nil {
		return fmt.Errorf("create credentials file %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close credentials file %s: %w", path, cerr)
		}
	}()

	w := bufio.NewWriter(f)
	werr := s.Write(w)
	// flush whatever was written before a validation failure
	if ferr := w.Flush(); ferr != nil && werr == nil {
		return fmt.Errorf("write credentials file %s: %w", path, ferr)
	}
	return werr
}

// ReadFromFile parses the credentials file at path. See Read.
func ReadFromFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open credentials file %s: %w", path, err)
	}
	defer f.Close()

	return Read(f)
}
