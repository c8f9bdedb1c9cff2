// Package transform implements the versioned metadata rewrite engine.
//
// A Rule is a single rewrite definition: for each metadata field it may
// declare an equality condition, a replacement, or both. Rules are owned by
// a RuleSet, which only ever grows - rule ids are unique and strictly
// increasing, and a bad rule is corrected by appending a newer rule that
// rewrites its output, never by editing history.
//
// Records (tracks and albums) carry a watermark: the id of the last rule
// they have absorbed. RuleSet.Apply walks every stored rule above the
// record's watermark in ascending id order, so rules compose sequentially
// and re-applying a set a record has already absorbed is a no-op.
//
// Rules referencing fields a record variant does not carry (an album has no
// title) are wholly inapplicable to that record: they neither mutate it nor
// advance its watermark.
package transform
