// Package policy checks stored credentials against Rego rules.
package policy

import (
	"cmp"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/agausmann/ope/internal/creds"
)

// Query is the Rego query evaluated against the credential entries.
// Extra modules add rules by defining more "violations" in package ope.
const Query = "data.ope.violations"

//go:embed builtin.rego
var builtinModule string

// Violation is a single rule failure for one username
type Violation struct {
	Username string `json:"username"`
	Rule     string `json:"rule"`
	Message  string `json:"message"`
}

// Params are the tunable inputs passed to the rules
type Params struct {
	MinPasswordLength int
}

type module struct {
	name   string
	source string
}

type options struct {
	modules []module
}

// Option configures an Evaluator
type Option func(*options) error

// WithModule adds a Rego module from source
func WithModule(name, source string) Option {
	return func(o *options) error {
		o.modules = append(o.modules, module{name: name, source: source})
		return nil
	}
}

// WithModuleFile adds the Rego module stored at path
func WithModuleFile(path string) Option {
	return func(o *options) error {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read policy %s: %w", path, err)
		}
		o.modules = append(o.modules, module{name: path, source: string(data)})
		return nil
	}
}

// Evaluator runs the prepared policy query
type Evaluator struct {
	query rego.PreparedEvalQuery
}

// New compiles the built-in rules plus any extra modules
func New(ctx context.Context, opts ...Option) (*Evaluator, error) {
	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	regoOpts := []func(*rego.Rego){
		rego.Query(Query),
		rego.Module("builtin.rego", builtinModule),
	}
	for _, m := range o.modules {
		regoOpts = append(regoOpts, rego.Module(m.name, m.source))
	}

	pq, err := rego.New(regoOpts...).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile policy: %w", err)
	}
	return &Evaluator{query: pq}, nil
}

// Evaluate returns the violations found in store, sorted by username then rule
func (e *Evaluator) Evaluate(ctx context.Context, store *creds.Store, params Params) ([]Violation, error) {
	entries := make([]any, 0, store.Len())
	for username, password := range store.All() {
		entries = append(entries, map[string]any{
			"username": username,
			"password": password,
		})
	}
	input := map[string]any{
		"entries":             entries,
		"min_password_length": params.MinPasswordLength,
	}

	rs, err := e.query.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		return nil, fmt.Errorf("policy evaluation failed: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}

	raw, err := json.Marshal(rs[0].Expressions[0].Value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode policy result: %w", err)
	}
	var violations []Violation
	if err := json.Unmarshal(raw, &violations); err != nil {
		return nil, fmt.Errorf("unexpected policy result: %w", err)
	}

	slices.SortFunc(violations, func(a, b Violation) int {
		return cmp.Or(cmp.Compare(a.Username, b.Username), cmp.Compare(a.Rule, b.Rule))
	})
	return violations, nil
}
