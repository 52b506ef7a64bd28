package modules

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/modusai/modus/pkg/domain"
	"github.com/modusai/modus/pkg/module"
)

const defaultPolicyQuery = "data.modus.policy.allow"

// policy gates records through an embedded OPA/Rego decision. The record
// (minus reserved keys) is passed as the Rego input; a false or undefined
// decision fails the stage and aborts the pipeline.
//
// Configuration:
//
//	module:       Rego source text (required)
//	query:        decision path (default "data.modus.policy.allow")
//	deny_message: message carried by the stage failure on denial
type policy struct {
	source      string
	query       string
	denyMessage string
	prepared    rego.PreparedEvalQuery
}

// NewPolicy constructs the policy module from its configuration fragment.
// The Rego source is compiled once at Initialize so syntax errors surface as
// load failures, not mid-pipeline.
func NewPolicy(config map[string]any) (module.Module, error) {
	source, _ := config["module"].(string)
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("policy module requires a rego module")
	}

	query := defaultPolicyQuery
	if raw, ok := config["query"].(string); ok && strings.TrimSpace(raw) != "" {
		query = raw
	}

	denyMessage := "denied by policy"
	if raw, ok := config["deny_message"].(string); ok && raw != "" {
		denyMessage = raw
	}

	return &policy{source: source, query: query, denyMessage: denyMessage}, nil
}

// Initialize compiles and prepares the Rego query.
func (m *policy) Initialize() error {
	prepared, err := rego.New(
		rego.Query(m.query),
		rego.Module("policy.rego", m.source),
	).PrepareForEval(context.Background())
	if err != nil {
		return fmt.Errorf("compile rego module: %w", err)
	}
	m.prepared = prepared
	return nil
}

func (m *policy) Process(ctx context.Context, in domain.Record) (domain.Record, error) {
	payload := make(map[string]any, len(in))
	for k, v := range in {
		if k == domain.KeyAgentState || k == domain.KeyTimestamp || k == domain.KeyStateUpdate {
			continue
		}
		payload[k] = v
	}

	results, err := m.prepared.Eval(ctx, rego.EvalInput(payload))
	if err != nil {
		return nil, fmt.Errorf("opa decision: %w", err)
	}

	allowed := false
	if len(results) > 0 && len(results[0].Expressions) > 0 {
		allowed, _ = results[0].Expressions[0].Value.(bool)
	}
	if !allowed {
		return nil, errors.New(m.denyMessage)
	}

	out := in.Clone()
	out["_policy_allowed"] = true
	return out, nil
}
