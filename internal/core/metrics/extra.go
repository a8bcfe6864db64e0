package metrics

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

// ErrMalformedExtraMetrics is returned when an extra_metrics payload is not a JSON object.
// The parsed value is still usable (empty); callers log and continue.
var ErrMalformedExtraMetrics = errors.New("malformed extra metrics")

// ExtraMetrics is the platform-specific action lookup attached to a record.
// Actions hold counts (messaging conversations, leads, purchases...);
// ActionValues hold the monetary value attributed to an action type.
type ExtraMetrics struct {
	Actions      map[string]decimal.Decimal
	ActionValues map[string]decimal.Decimal
}

// Action returns the count for actionType, or zero when absent.
func (e ExtraMetrics) Action(actionType string) decimal.Decimal {
	return lookup(e.Actions, actionType)
}

// HasAction reports whether actionType was delivered at all (including a zero value).
func (e ExtraMetrics) HasAction(actionType string) bool {
	_, ok := e.Actions[actionType]
	return ok
}

// ActionValue returns the monetary value for actionType, or zero when absent.
func (e ExtraMetrics) ActionValue(actionType string) decimal.Decimal {
	return lookup(e.ActionValues, actionType)
}

// IsEmpty reports whether no action data is present.
func (e ExtraMetrics) IsEmpty() bool {
	return len(e.Actions) == 0 && len(e.ActionValues) == 0
}

func lookup(m map[string]decimal.Decimal, key string) decimal.Decimal {
	if key == "" {
		return decimal.Zero
	}
	v, ok := m[key]
	if !ok {
		return decimal.Zero
	}
	return v
}

type actionEntry struct {
	ActionType string      `json:"action_type"`
	Value      interface{} `json:"value"`
}

// ParseExtraMetrics decodes an extra_metrics JSON document.
//
// Two shapes are accepted and may be mixed: Meta's
// {"actions":[{"action_type":..,"value":..}],"action_values":[...]} arrays, and
// flat top-level numeric entries ({"reach": 1200}), which land in Actions.
// Non-numeric entries are skipped. Empty input yields an empty value and no error.
func ParseExtraMetrics(raw []byte) (ExtraMetrics, error) {
	out := ExtraMetrics{
		Actions:      map[string]decimal.Decimal{},
		ActionValues: map[string]decimal.Decimal{},
	}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return out, ErrMalformedExtraMetrics
	}

	for key, value := range doc {
		switch key {
		case "actions":
			decodeActionArray(value, out.Actions)
		case "action_values":
			decodeActionArray(value, out.ActionValues)
		default:
			var scalar interface{}
			if err := json.Unmarshal(value, &scalar); err != nil {
				continue
			}
			if d, ok := toDecimal(scalar); ok {
				out.Actions[key] = d
			}
		}
	}
	return out, nil
}

// decodeActionArray folds an action array into dst, summing repeated action types.
// A non-array value is ignored.
func decodeActionArray(raw json.RawMessage, dst map[string]decimal.Decimal) {
	var entries []actionEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return
	}
	for _, entry := range entries {
		if entry.ActionType == "" {
			continue
		}
		d, ok := toDecimal(entry.Value)
		if !ok {
			continue
		}
		dst[entry.ActionType] = dst[entry.ActionType].Add(d)
	}
}

// toDecimal converts a decoded JSON scalar into a decimal.
// Platforms send action values both as numbers and as numeric strings.
func toDecimal(v interface{}) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case float64:
		return decimal.NewFromFloat(val), true
	case float32:
		return decimal.NewFromFloat(float64(val)), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case int64:
		return decimal.NewFromInt(val), true
	case int32:
		return decimal.NewFromInt(int64(val)), true
	case string:
		d, err := decimal.NewFromString(val)
		if err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
