// Package rulefile loads rewrite rule definitions from CUE files.
//
// A rule file declares a top-level rules list. Each entry names the fields
// it touches, with an optional match condition and an optional replace
// value per field:
//
//	rules: [
//		{artist: {match: "Beatles", replace: "The Beatles"}},
//		{artist: {match: "Low"}, title: {replace: "Untitled"}},
//	]
//
// A field with match alone is a pure condition; replace alone is a change
// with no condition on that field. Definitions carry no ids; the database
// assigns one when a definition is imported.
package rulefile

import (
	stderrors "errors"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tracklog/internal/transform"
)

// Load error codes.
const (
	ErrCodeGeneric    = "E001" // generic/unknown error
	ErrCodeLoadFailed = "E004" // CUE compile failed
	ErrCodeNotFound   = "E005" // rule file not found

	ErrCodeUnknownField = "E201" // rule names a field the engine does not carry
	ErrCodeEmptyRule    = "E202" // rule declares no field operations
	ErrCodeBadFieldOp   = "E203" // field operation malformed
)

// LoadError is an error in a rule file, with source position when one is
// available.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsLoadError reports whether err is a rule file load error.
func IsLoadError(err error) bool {
	var le *LoadError
	return stderrors.As(err, &le)
}

// Definition is one parsed rule definition, ready for import.
type Definition struct {
	Ops map[transform.Field]transform.FieldOp
	Pos token.Pos
}

// Load reads and validates the rule file at path. Definitions come back in
// file order, which is the order they must be imported in.
func Load(path string) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("rule file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("reading rule file: %v", err)}
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	rulesVal := v.LookupPath(cue.ParsePath("rules"))
	if !rulesVal.Exists() {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: "no rules list found", Pos: v.Pos()}
	}

	iter, err := rulesVal.List()
	if err != nil {
		return nil, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("rules must be a list: %v", err), Pos: rulesVal.Pos()}
	}

	var defs []Definition
	for iter.Next() {
		def, err := parseRule(iter.Value())
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// parseRule parses one rules list entry.
func parseRule(v cue.Value) (Definition, error) {
	def := Definition{
		Ops: make(map[transform.Field]transform.FieldOp),
		Pos: v.Pos(),
	}

	fields, err := v.Fields()
	if err != nil {
		return def, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("rule must be a struct: %v", err), Pos: v.Pos()}
	}

	for fields.Next() {
		field := transform.Field(fields.Label())
		if !transform.KnownField(field) {
			return def, &LoadError{
				Code:    ErrCodeUnknownField,
				Message: fmt.Sprintf("unknown field %q (known fields: %v)", fields.Label(), transform.AllFields),
				Pos:     fields.Value().Pos(),
			}
		}
		op, err := parseFieldOp(fields.Value())
		if err != nil {
			return def, err
		}
		def.Ops[field] = op
	}

	if len(def.Ops) == 0 {
		return def, &LoadError{Code: ErrCodeEmptyRule, Message: "rule declares no field operations", Pos: v.Pos()}
	}
	return def, nil
}

// parseFieldOp parses one field's {match, replace} struct.
func parseFieldOp(v cue.Value) (transform.FieldOp, error) {
	var op transform.FieldOp

	fields, err := v.Fields()
	if err != nil {
		return op, &LoadError{Code: ErrCodeBadFieldOp, Message: fmt.Sprintf("field op must be a struct: %v", err), Pos: v.Pos()}
	}

	for fields.Next() {
		switch fields.Label() {
		case "match":
			s, err := fields.Value().String()
			if err != nil {
				return op, formatCUEError(err)
			}
			op.Cond = true
			op.Pattern = s
		case "replace":
			s, err := fields.Value().String()
			if err != nil {
				return op, formatCUEError(err)
			}
			op.Change = true
			op.Replacement = s
		default:
			return op, &LoadError{
				Code:    ErrCodeBadFieldOp,
				Message: fmt.Sprintf("unknown key %q in field op (want match and/or replace)", fields.Label()),
				Pos:     fields.Value().Pos(),
			}
		}
	}

	if op.Empty() {
		return op, &LoadError{Code: ErrCodeBadFieldOp, Message: "field op declares neither match nor replace", Pos: v.Pos()}
	}
	return op, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Code: ErrCodeLoadFailed, Message: err.Error()}
	}

	firstErr := errs[0]
	le := &LoadError{Code: ErrCodeLoadFailed, Message: firstErr.Error()}
	if positions := errors.Positions(firstErr); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
