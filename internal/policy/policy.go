// Package policy evaluates hook documents against rego pin policies using
// embedded OPA.
package policy

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/fenrow/prehook/internal/hookcfg"
	"github.com/fenrow/prehook/pkg/safeio"
)

//go:embed pins.rego
var defaultPolicy string

const denyQuery = "data.prehook.hooks.deny"

// Engine evaluates a rego policy over a hook document.
type Engine struct {
	regoCode string
}

// NewEngine returns an engine carrying the built-in pin policy.
func NewEngine() *Engine {
	return &Engine{regoCode: defaultPolicy}
}

// LoadPolicy replaces the built-in policy with a rego file from disk.
func (e *Engine) LoadPolicy(path string) error {
	clean, err := safeio.CleanUserPath(path)
	if err != nil {
		return fmt.Errorf("invalid policy path: %w", err)
	}
	data, err := os.ReadFile(clean) // #nosec G304 -- path cleaned above
	if err != nil {
		return fmt.Errorf("read policy: %w", err)
	}
	e.regoCode = string(data)
	return nil
}

// Evaluate runs the deny query over the document and returns the sorted
// violation messages. An empty slice means the document complies.
func (e *Engine) Evaluate(ctx context.Context, doc *hookcfg.Document) ([]string, error) {
	input, err := toRegoInput(doc)
	if err != nil {
		return nil, err
	}

	rs, err := rego.New(
		rego.Query(denyQuery),
		rego.Input(input),
		rego.Module("policy.rego", e.regoCode),
	).Eval(ctx)
	if err != nil {
		return nil, fmt.Errorf("policy evaluation: %w", err)
	}

	var violations []string
	for _, result := range rs {
		for _, expr := range result.Expressions {
			values, ok := expr.Value.([]interface{})
			if !ok {
				continue
			}
			for _, v := range values {
				if msg, ok := v.(string); ok {
					violations = append(violations, msg)
				}
			}
		}
	}

	sort.Strings(violations)
	return violations, nil
}

// toRegoInput round-trips the document through JSON so OPA sees plain maps
// matching the document's field names.
func toRegoInput(doc *hookcfg.Document) (interface{}, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var input interface{}
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, err
	}
	return input, nil
}
