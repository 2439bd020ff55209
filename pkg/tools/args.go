package tools

import (
	"encoding/json"
	"fmt"

	"github.com/ctxhub/ctxhub/pkg/model"
)

// Argument coercion helpers. Parameters arrive as generic JSON values:
// numbers may be float64 (decoded JSON) or native ints (direct Go callers).

func intArg(params map[string]interface{}, name string) (int64, error) {
	v, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", model.ErrInvalidInput, name)
	}
	switch n := v.(type) {
	case float64:
		return int64(n), nil
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidInput, name)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s must be an integer", model.ErrInvalidInput, name)
	}
}

func strArg(params map[string]interface{}, name string) string {
	if s, ok := params[name].(string); ok {
		return s
	}
	return ""
}

// optStrArg distinguishes "absent" from "present" for partial updates.
func optStrArg(params map[string]interface{}, name string) *string {
	if v, ok := params[name]; ok {
		if s, ok := v.(string); ok {
			return &s
		}
	}
	return nil
}

func boolArg(params map[string]interface{}, name string, fallback bool) bool {
	if b, ok := params[name].(bool); ok {
		return b
	}
	return fallback
}

func optBoolArg(params map[string]interface{}, name string) *bool {
	if v, ok := params[name]; ok {
		if b, ok := v.(bool); ok {
			return &b
		}
	}
	return nil
}

// tasksArg decodes a generic task list through JSON into typed inputs.
func tasksArg(params map[string]interface{}, name string) ([]model.TaskInput, error) {
	v, ok := params[name]
	if !ok || v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s is not a task list", model.ErrInvalidInput, name)
	}
	var tasks []model.TaskInput
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("%w: %s is not a task list", model.ErrInvalidInput, name)
	}
	return tasks, nil
}
