package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/tracklog/internal/transform"
)

// ruleColumns returns the cond/pattern/change/replacement column quads in
// canonical field order. The schema carries one quad per rewritable field.
func ruleColumns() []string {
	cols := make([]string, 0, len(transform.AllFields)*4)
	for _, f := range transform.AllFields {
		cols = append(cols,
			string(f)+"_cond",
			string(f)+"_pattern",
			string(f)+"_change",
			string(f)+"_replacement",
		)
	}
	return cols
}

// InsertRule appends a rule definition and returns the id SQLite assigned.
// Ids come from the AUTOINCREMENT primary key, so they are unique and
// strictly increasing without any coordination on the write path.
func (s *Store) InsertRule(ctx context.Context, ops map[transform.Field]transform.FieldOp) (int64, error) {
	return insertRule(ctx, s.db, ops)
}

// InsertRule is the transactional variant of Store.InsertRule.
func (t *Tx) InsertRule(ctx context.Context, ops map[transform.Field]transform.FieldOp) (int64, error) {
	return insertRule(ctx, t.tx, ops)
}

func insertRule(ctx context.Context, q queryer, ops map[transform.Field]transform.FieldOp) (int64, error) {
	cols := ruleColumns()
	args := make([]any, 0, len(cols))
	for _, f := range transform.AllFields {
		op := ops[f]
		args = append(args, op.Cond, op.Pattern, op.Change, op.Replacement)
	}

	query := fmt.Sprintf("INSERT INTO rules (%s) VALUES (%s)",
		strings.Join(cols, ", "),
		strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", "))
	res, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert rule: %w", err)
	}
	return id, nil
}

// LoadRules reads every stored rule in ascending id order and rebuilds the
// rule set through RuleSet.Insert, so a table with duplicated or
// out-of-order ids surfaces as an ordering violation instead of loading
// into a quietly wrong set.
func (s *Store) LoadRules(ctx context.Context) (*transform.RuleSet, error) {
	return loadRules(ctx, s.db)
}

// LoadRules is the transactional variant of Store.LoadRules.
func (t *Tx) LoadRules(ctx context.Context) (*transform.RuleSet, error) {
	return loadRules(ctx, t.tx)
}

func loadRules(ctx context.Context, q queryer) (*transform.RuleSet, error) {
	query := "SELECT id, " + strings.Join(ruleColumns(), ", ") + " FROM rules ORDER BY id ASC"
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	set := transform.NewRuleSet()
	for rows.Next() {
		var id int64
		quads := make([]transform.FieldOp, len(transform.AllFields))
		dest := make([]any, 0, 1+len(quads)*4)
		dest = append(dest, &id)
		for i := range quads {
			dest = append(dest, &quads[i].Cond, &quads[i].Pattern, &quads[i].Change, &quads[i].Replacement)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}

		ops := make(map[transform.Field]transform.FieldOp)
		for i, f := range transform.AllFields {
			if !quads[i].Empty() {
				ops[f] = quads[i]
			}
		}
		if err := set.Insert(&transform.Rule{ID: id, Ops: ops}); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	return set, nil
}

// CountRules returns the number of stored rules.
func (s *Store) CountRules(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rules").Scan(&n); err != nil {
		return 0, fmt.Errorf("count rules: %w", err)
	}
	return n, nil
}
