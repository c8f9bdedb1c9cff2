package transform

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes rule engine errors.
type ErrorCode string

const (
	// ErrCodeDuplicateRule indicates an insert with an id already stored.
	ErrCodeDuplicateRule ErrorCode = "DUPLICATE_RULE"

	// ErrCodeRuleOutOfOrder indicates an insert with an id at or below the
	// set's current maximum.
	ErrCodeRuleOutOfOrder ErrorCode = "RULE_OUT_OF_ORDER"

	// ErrCodeBadRuleID indicates a zero or negative rule id.
	ErrCodeBadRuleID ErrorCode = "BAD_RULE_ID"
)

// OrderingError reports a RuleSet insertion that would break the strictly
// increasing id sequence. History is append-only: corrections are made by
// adding a later rule, never by rewriting an existing id.
type OrderingError struct {
	Code   ErrorCode
	RuleID int64
	MaxID  int64
}

// Error implements the error interface.
func (e *OrderingError) Error() string {
	switch e.Code {
	case ErrCodeDuplicateRule:
		return fmt.Sprintf("%s: rule id %d is already in the set", e.Code, e.RuleID)
	case ErrCodeRuleOutOfOrder:
		return fmt.Sprintf("%s: rule id %d is not above the set's max id %d", e.Code, e.RuleID, e.MaxID)
	default:
		return fmt.Sprintf("%s: rule id %d is not a positive integer", e.Code, e.RuleID)
	}
}

func newOrderingError(code ErrorCode, ruleID, maxID int64) *OrderingError {
	return &OrderingError{Code: code, RuleID: ruleID, MaxID: maxID}
}

// IsOrderingError returns true if err is an ordering violation from RuleSet
// insertion. Uses errors.As to handle wrapped errors.
func IsOrderingError(err error) bool {
	var oe *OrderingError
	return errors.As(err, &oe)
}
