package transform

import (
	"fmt"
	"strings"
)

// FieldOp holds what one rule declares for one field: an optional equality
// condition and an optional replacement. Pattern is consulted only when Cond
// is set, Replacement only when Change is set.
type FieldOp struct {
	Cond        bool
	Pattern     string
	Change      bool
	Replacement string
}

// Empty reports whether the op declares neither a condition nor a change.
func (op FieldOp) Empty() bool {
	return !op.Cond && !op.Change
}

// Rule is a single versioned rewrite. ID doubles as the rule's version
// number. A Rule is immutable once handed to a RuleSet.
type Rule struct {
	ID  int64
	Ops map[Field]FieldOp
}

// Op returns the op declared for f, if any.
func (r *Rule) Op(f Field) (FieldOp, bool) {
	op, ok := r.Ops[f]
	return op, ok
}

// AppliesTo reports whether rec carries every field the rule references,
// through a condition or a change. A rule conditioning on title can never
// apply to an album.
func (r *Rule) AppliesTo(rec Record) bool {
	for f, op := range r.Ops {
		if op.Empty() {
			continue
		}
		if _, ok := rec.Field(f); !ok {
			return false
		}
	}
	return true
}

// Conditioned reports whether the rule declares at least one condition.
// A rule with no conditions never matches anything; it can hold changes
// that are parked inert.
func (r *Rule) Conditioned() bool {
	for _, op := range r.Ops {
		if op.Cond {
			return true
		}
	}
	return false
}

// Apply evaluates the rule against rec and returns whether the rule was
// applicable.
//
// Inapplicable rules leave rec completely untouched, watermark included.
// Applicable rules always advance the watermark to the rule's id, matched
// or not. Matching requires every declared condition to hold. On a match,
// each declared change whose replacement differs from the current value is
// written and marks the record dirty; writing an identical value does not.
func (r *Rule) Apply(rec Record) bool {
	if !r.AppliesTo(rec) {
		return false
	}

	matched := false
	if r.Conditioned() {
		matched = true
		for _, f := range rec.Fields() {
			op, ok := r.Ops[f]
			if !ok || !op.Cond {
				continue
			}
			if v, _ := rec.Field(f); v != op.Pattern {
				matched = false
			}
		}
	}

	if matched {
		for _, f := range rec.Fields() {
			op, ok := r.Ops[f]
			if !ok || !op.Change {
				continue
			}
			if v, _ := rec.Field(f); v != op.Replacement {
				rec.SetField(f, op.Replacement)
				rec.MarkDirty()
			}
		}
	}

	rec.SetWatermark(r.ID)
	return true
}

// String renders the rule on one line: its id, the conditions that must
// hold, and the values written on a match. A rule declaring no conditions
// renders "(never)" since it cannot match anything.
func (r *Rule) String() string {
	var conds, changes []string
	for _, f := range AllFields {
		op, ok := r.Ops[f]
		if !ok {
			continue
		}
		if op.Cond {
			conds = append(conds, fmt.Sprintf("%s = %q", f, op.Pattern))
		}
		if op.Change {
			changes = append(changes, fmt.Sprintf("%s = %q", f, op.Replacement))
		}
	}

	cond := "(never)"
	if len(conds) > 0 {
		cond = strings.Join(conds, " and ")
	}
	change := "(nothing)"
	if len(changes) > 0 {
		change = strings.Join(changes, ", ")
	}
	return fmt.Sprintf("rule %d: when %s set %s", r.ID, cond, change)
}
