package policy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agausmann/ope/internal/creds"
	"github.com/agausmann/ope/internal/testutils"
)

func rules(violations []Violation) [][2]string {
	var out [][2]string
	for _, v := range violations {
		out = append(out, [2]string{v.Username, v.Rule})
	}
	return out
}

func TestEvaluateBuiltinRules(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx)
	require.NoError(t, err)

	s := creds.New()
	s.Insert("alice", "tiny1")
	s.Insert("bob", "bob")
	s.Insert("", "longenoughpassword")
	s.Insert("a:b", "longenoughpassword")
	s.Insert("carol", "correcthorsebattery")

	violations, err := e.Evaluate(ctx, s, Params{MinPasswordLength: 8})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{
		{"", "empty_username"},
		{"a:b", "malformed"},
		{"alice", "short_password"},
		{"bob", "password_equals_username"},
		{"bob", "short_password"},
	}, rules(violations))

	for _, v := range violations {
		assert.NotContains(t, v.Message, "tiny1")
		assert.NotContains(t, v.Message, "longenoughpassword")
	}
}

func TestEvaluateMessages(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx)
	require.NoError(t, err)

	s := creds.New()
	s.Insert("dave", "abc")
	s.Insert("erin", "line\nbreak")

	violations, err := e.Evaluate(ctx, s, Params{MinPasswordLength: 4})
	require.NoError(t, err)
	require.Len(t, violations, 2)
	assert.Equal(t, Violation{Username: "dave", Rule: "short_password", Message: "password is shorter than 4 characters"}, violations[0])
	assert.Equal(t, Violation{Username: "erin", Rule: "malformed", Message: "password contains a newline"}, violations[1])
}

func TestEvaluateCleanStore(t *testing.T) {
	tests := []struct {
		name  string
		store *creds.Store
	}{
		{name: "Empty store", store: creds.New()},
		{name: "Strong passwords", store: func() *creds.Store {
			s := creds.New()
			s.Insert("alice", "correcthorsebattery")
			s.Insert("bob", "pass:with:colons")
			return s
		}()},
	}

	ctx := context.Background()
	e, err := New(ctx)
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			violations, err := e.Evaluate(ctx, tt.store, Params{MinPasswordLength: 8})
			require.NoError(t, err)
			assert.Empty(t, violations)
		})
	}
}

const adminRule = `package ope

violations contains v if {
	some e in input.entries
	startswith(e.username, "admin")
	v := {"username": e.username, "rule": "admin_account", "message": "shared admin account"}
}
`

func TestExtraModule(t *testing.T) {
	ctx := context.Background()
	e, err := New(ctx, WithModule("admin.rego", adminRule))
	require.NoError(t, err)

	s := creds.New()
	s.Insert("admin", "correcthorsebattery")
	s.Insert("alice", "correcthorsebattery")

	violations, err := e.Evaluate(ctx, s, Params{MinPasswordLength: 8})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"admin", "admin_account"}}, rules(violations))
}

func TestExtraModuleFile(t *testing.T) {
	ctx := context.Background()
	path := testutils.WriteFile(t, "admin.rego", adminRule)

	e, err := New(ctx, WithModuleFile(path))
	require.NoError(t, err)

	s := creds.New()
	s.Insert("administrator", "correcthorsebattery")
	violations, err := e.Evaluate(ctx, s, Params{})
	require.NoError(t, err)
	assert.Equal(t, [][2]string{{"administrator", "admin_account"}}, rules(violations))
}

func TestInvalidModule(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{name: "Syntax error", opt: WithModule("broken.rego", "package ope\nviolations contains v if {")},
		{name: "Missing file", opt: WithModuleFile("/nonexistent/policy.rego")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(context.Background(), tt.opt)
			assert.Error(t, err)
		})
	}
}
