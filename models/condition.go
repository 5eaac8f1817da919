package models

import "fmt"

// Operation names the comparison a condition applies
type Operation string

const (
	OpEqual   Operation = "equal"
	OpGreater Operation = "greater"
	OpLess    Operation = "less"
	OpIn      Operation = "in"
	OpNear    Operation = "near"
)

// Condition is one field/operator/value predicate supplied by the caller.
// Right holds a JSON literal (number, string, bool) or an array for "in".
type Condition struct {
	Left      string    `json:"left"`
	Operation Operation `json:"operation"`
	Right     any       `json:"right"`
}

// Validate checks the structural shape of a condition. Field names and
// operations outside the known sets are not rejected here; how they evaluate
// is decided by the evaluator's unknown-condition policy.
func (c Condition) Validate() error {
	if c.Left == "" {
		return fmt.Errorf("condition is missing left field name")
	}
	if c.Operation == "" {
		return fmt.Errorf("condition %q is missing operation", c.Left)
	}
	return nil
}

// ConditionSet is an ordered list of conditions combined with AND.
// An empty set matches every record.
type ConditionSet []Condition

// Validate checks every condition in the set
func (cs ConditionSet) Validate() error {
	for i, c := range cs {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("condition %d: %w", i, err)
		}
	}
	return nil
}
