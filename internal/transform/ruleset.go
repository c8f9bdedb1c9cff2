package transform

// RuleSet is the append-only pool of rewrite rules, keyed by id. Ids are
// sparse: deleting rows is not supported anywhere in the system, but
// numbering gaps are tolerated when applying.
type RuleSet struct {
	rules map[int64]*Rule
	ids   []int64 // ascending, maintained by Insert
	maxID int64
}

// NewRuleSet returns an empty RuleSet with max id 0.
func NewRuleSet() *RuleSet {
	return &RuleSet{rules: make(map[int64]*Rule)}
}

// Insert adds r to the set. Insertion order must follow id order: a
// duplicate id or an id at or below the current maximum is rejected with an
// *OrderingError and leaves the set unchanged.
func (s *RuleSet) Insert(r *Rule) error {
	if r.ID <= 0 {
		return newOrderingError(ErrCodeBadRuleID, r.ID, s.maxID)
	}
	if _, ok := s.rules[r.ID]; ok {
		return newOrderingError(ErrCodeDuplicateRule, r.ID, s.maxID)
	}
	if r.ID <= s.maxID {
		return newOrderingError(ErrCodeRuleOutOfOrder, r.ID, s.maxID)
	}

	s.rules[r.ID] = r
	s.ids = append(s.ids, r.ID)
	s.maxID = r.ID
	return nil
}

// Apply brings rec up to date with the set. Records already at or past the
// max id are left alone, which makes Apply idempotent. Otherwise every
// stored rule above the record's watermark runs in ascending id order, so a
// later rule sees the mutations of earlier ones in the same pass.
func (s *RuleSet) Apply(rec Record) {
	if rec.Watermark() >= s.maxID {
		return
	}
	for _, id := range s.ids {
		if id <= rec.Watermark() {
			continue
		}
		s.rules[id].Apply(rec)
	}
}

// MaxID returns the highest id ever inserted, 0 when empty.
func (s *RuleSet) MaxID() int64 {
	return s.maxID
}

// Rule returns the rule stored under id, if any.
func (s *RuleSet) Rule(id int64) (*Rule, bool) {
	r, ok := s.rules[id]
	return r, ok
}

// Len returns the number of stored rules, which is less than MaxID when the
// numbering has gaps.
func (s *RuleSet) Len() int {
	return len(s.rules)
}

// Rules returns the stored rules in ascending id order. The rules
// themselves are shared; callers must not mutate them.
func (s *RuleSet) Rules() []*Rule {
	out := make([]*Rule, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.rules[id])
	}
	return out
}
