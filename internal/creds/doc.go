// Package creds implements a small in-memory credential store that maps
// usernames to passwords and persists them in a colon-delimited text file.
//
// The file format is one entry per line:
//
//	<username1>:<password1>
//	<username2>:<password2>
//	...
//
// Entries are written in insertion order. A username must not contain a
// colon or a newline and a password must not contain a newline. These rules
// are checked when the store is written, not when entries are inserted, so a
// store may hold an entry that cannot be serialized until Write reports it.
//
// Reading splits each line at its first colon. Passwords may therefore
// contain colons, but only because usernames may not: relaxing the username
// rule would make "a:b:c" ambiguous and silently corrupt data on the next
// read. Lines without a colon are skipped.
//
// The store holds secrets in plain text and does no locking. Callers that
// share a Store between goroutines must synchronize access themselves.
package creds
