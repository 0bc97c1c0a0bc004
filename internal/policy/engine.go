// Package policy decides who may read or change a session, using OPA.
package policy

import (
	"context"
	"fmt"

	"github.com/open-policy-agent/opa/rego"
)

// Engine is the OPA policy engine.
type Engine struct {
	query rego.PreparedEvalQuery
}

// NewEngine creates a new policy engine with the given policy content.
func NewEngine(ctx context.Context, policyContent string) (*Engine, error) {
	r := rego.New(
		rego.Query("data.session_access.allow"),
		rego.Module("session_access.rego", policyContent),
	)

	query, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare rego: %w", err)
	}

	return &Engine{query: query}, nil
}

// Input is what the policy sees for one access check.
type Input struct {
	Action  string `json:"action"`
	UserID  string `json:"user_id"`
	OwnerID string `json:"owner_id"`
}

// Actions checked against the policy.
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionDelete = "delete"
)

// Allowed evaluates the policy. An undefined result counts as a denial.
func (e *Engine) Allowed(ctx context.Context, in Input) (bool, error) {
	results, err := e.query.Eval(ctx, rego.EvalInput(map[string]interface{}{
		"action":   in.Action,
		"user_id":  in.UserID,
		"owner_id": in.OwnerID,
	}))
	if err != nil {
		return false, fmt.Errorf("failed to evaluate policy: %w", err)
	}
	if len(results) == 0 || len(results[0].Expressions) == 0 {
		return false, nil
	}
	allowed, ok := results[0].Expressions[0].Value.(bool)
	return ok && allowed, nil
}

// DefaultPolicy lets anyone use anonymous sessions and restricts owned
// sessions to their owner.
const DefaultPolicy = `
package session_access

default allow = false

allow {
	input.owner_id == ""
}

allow {
	input.owner_id != ""
	input.owner_id == input.user_id
}
`
