package transform

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testRecord is a minimal Record with a configurable field set, standing in
// for tracks (full field set) and albums (artist/album only).
type testRecord struct {
	key    int64
	fields []Field
	values map[Field]string
	wm     int64
	dirty  bool
}

func newTestTrack(artist, album, title string) *testRecord {
	return &testRecord{
		fields: AllFields,
		values: map[Field]string{
			FieldArtist: artist,
			FieldAlbum:  album,
			FieldTitle:  title,
		},
	}
}

func newTestAlbum(artist, album string) *testRecord {
	return &testRecord{
		fields: []Field{FieldArtist, FieldAlbum},
		values: map[Field]string{
			FieldArtist: artist,
			FieldAlbum:  album,
		},
	}
}

func (r *testRecord) Key() int64      { return r.key }
func (r *testRecord) Fields() []Field { return r.fields }

func (r *testRecord) Field(f Field) (string, bool) {
	for _, have := range r.fields {
		if have == f {
			return r.values[f], true
		}
	}
	return "", false
}

func (r *testRecord) SetField(f Field, value string) bool {
	if _, ok := r.Field(f); !ok {
		return false
	}
	r.values[f] = value
	return true
}

func (r *testRecord) Watermark() int64      { return r.wm }
func (r *testRecord) SetWatermark(id int64) { r.wm = id }
func (r *testRecord) Dirty() bool           { return r.dirty }
func (r *testRecord) MarkDirty()            { r.dirty = true }
func (r *testRecord) ResetDirty()           { r.dirty = false }
func (r *testRecord) String() string        { return fmt.Sprintf("test record %d", r.key) }

func TestRuleApplyChangesMatchedField(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	rule := &Rule{ID: 1, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
	}}

	applicable := rule.Apply(track)

	require.True(t, applicable, "artist rule applies to a track")
	assert.Equal(t, "Artist 2", track.values[FieldArtist])
	assert.Equal(t, int64(1), track.Watermark())
	assert.True(t, track.Dirty())
}

func TestRuleApplyConditionMiss(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	rule := &Rule{ID: 1, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Someone Else", Change: true, Replacement: "Artist 2"},
	}}

	applicable := rule.Apply(track)

	require.True(t, applicable)
	assert.Equal(t, "Artist", track.values[FieldArtist], "missed condition leaves the field alone")
	assert.Equal(t, int64(1), track.Watermark(), "watermark advances even without a match")
	assert.False(t, track.Dirty())
}

func TestRuleApplyConditionsNarrow(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	rule := &Rule{ID: 1, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Artist"},
		FieldAlbum:  {Cond: true, Pattern: "Other Album"},
		FieldTitle:  {Change: true, Replacement: "Title 2"},
	}}

	rule.Apply(track)

	assert.Equal(t, "Title", track.values[FieldTitle], "every condition must hold")
	assert.Equal(t, int64(1), track.Watermark())
	assert.False(t, track.Dirty())
}

func TestRuleApplyZeroConditionsNeverMatches(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	rule := &Rule{ID: 4, Ops: map[Field]FieldOp{
		FieldArtist: {Change: true, Replacement: "Artist 2"},
		FieldTitle:  {Change: true, Replacement: "Title 2"},
	}}

	applicable := rule.Apply(track)

	require.True(t, applicable)
	assert.Equal(t, "Artist", track.values[FieldArtist])
	assert.Equal(t, "Title", track.values[FieldTitle])
	assert.False(t, track.Dirty(), "a rule without conditions is parked inert")
	assert.Equal(t, int64(4), track.Watermark(), "inert rules still advance the watermark")
}

func TestRuleApplyIdenticalReplacementNotDirty(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	rule := &Rule{ID: 2, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist"},
	}}

	rule.Apply(track)

	assert.Equal(t, "Artist", track.values[FieldArtist])
	assert.False(t, track.Dirty(), "writing the value already present is not a mutation")
	assert.Equal(t, int64(2), track.Watermark())
}

func TestRuleApplyAllFields(t *testing.T) {
	track := newTestTrack("Artist", "Album", "Title")
	track.values[FieldEnsemble] = "Ensemble"
	track.values[FieldComposer] = "Composer"
	track.values[FieldConductor] = "Conductor"

	ops := make(map[Field]FieldOp, len(AllFields))
	for _, f := range AllFields {
		cur := track.values[f]
		ops[f] = FieldOp{Cond: true, Pattern: cur, Change: true, Replacement: cur + " 2"}
	}
	rule := &Rule{ID: 1, Ops: ops}

	rule.Apply(track)

	assert.Equal(t, "Artist 2", track.values[FieldArtist])
	assert.Equal(t, "Album 2", track.values[FieldAlbum])
	assert.Equal(t, "Title 2", track.values[FieldTitle])
	assert.Equal(t, "Ensemble 2", track.values[FieldEnsemble])
	assert.Equal(t, "Composer 2", track.values[FieldComposer])
	assert.Equal(t, "Conductor 2", track.values[FieldConductor])
	assert.True(t, track.Dirty())
}

func TestRuleInapplicableToAlbum(t *testing.T) {
	tests := []struct {
		name string
		ops  map[Field]FieldOp
	}{
		{"title condition", map[Field]FieldOp{
			FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
			FieldTitle:  {Cond: true, Pattern: "Title"},
		}},
		{"title change", map[Field]FieldOp{
			FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
			FieldTitle:  {Change: true, Replacement: "Title 2"},
		}},
		{"ensemble condition", map[Field]FieldOp{
			FieldArtist:   {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
			FieldEnsemble: {Cond: true, Pattern: "Ensemble"},
		}},
		{"composer change", map[Field]FieldOp{
			FieldArtist:   {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
			FieldComposer: {Change: true, Replacement: "Composer 2"},
		}},
		{"conductor condition", map[Field]FieldOp{
			FieldArtist:    {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
			FieldConductor: {Cond: true, Pattern: "Conductor"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			album := newTestAlbum("Artist", "Album")
			rule := &Rule{ID: 1, Ops: tt.ops}

			applicable := rule.Apply(album)

			require.False(t, applicable, "track-only fields make the rule inapplicable")
			assert.Equal(t, "Artist", album.values[FieldArtist], "no mutation on an inapplicable rule")
			assert.Equal(t, int64(0), album.Watermark(), "no watermark advance on an inapplicable rule")
			assert.False(t, album.Dirty())
		})
	}
}

func TestRuleApplicableToAlbum(t *testing.T) {
	album := newTestAlbum("Artist", "Album")
	rule := &Rule{ID: 7, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
		FieldAlbum:  {Cond: true, Pattern: "Album", Change: true, Replacement: "Album 2"},
	}}

	applicable := rule.Apply(album)

	require.True(t, applicable)
	assert.Equal(t, "Artist 2", album.values[FieldArtist])
	assert.Equal(t, "Album 2", album.values[FieldAlbum])
	assert.Equal(t, int64(7), album.Watermark())
	assert.True(t, album.Dirty())
}

func TestRuleEmptyOpsIgnored(t *testing.T) {
	// An op with neither cond nor change set does not reference the field,
	// so it cannot make the rule inapplicable.
	album := newTestAlbum("Artist", "Album")
	rule := &Rule{ID: 3, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Artist", Change: true, Replacement: "Artist 2"},
		FieldTitle:  {},
	}}

	applicable := rule.Apply(album)

	require.True(t, applicable)
	assert.Equal(t, "Artist 2", album.values[FieldArtist])
	assert.Equal(t, int64(3), album.Watermark())
}

func TestRuleAppliesTo(t *testing.T) {
	titleRule := &Rule{ID: 1, Ops: map[Field]FieldOp{
		FieldTitle: {Cond: true, Pattern: "Title"},
	}}
	artistRule := &Rule{ID: 2, Ops: map[Field]FieldOp{
		FieldArtist: {Change: true, Replacement: "Artist 2"},
	}}

	assert.True(t, titleRule.AppliesTo(newTestTrack("a", "b", "c")))
	assert.False(t, titleRule.AppliesTo(newTestAlbum("a", "b")))
	assert.True(t, artistRule.AppliesTo(newTestTrack("a", "b", "c")))
	assert.True(t, artistRule.AppliesTo(newTestAlbum("a", "b")))
}

func TestRuleString(t *testing.T) {
	full := &Rule{ID: 7, Ops: map[Field]FieldOp{
		FieldArtist: {Cond: true, Pattern: "Beatles", Change: true, Replacement: "The Beatles"},
		FieldAlbum:  {Cond: true, Pattern: "White"},
	}}
	assert.Equal(t,
		`rule 7: when artist = "Beatles" and album = "White" set artist = "The Beatles"`,
		full.String())

	inert := &Rule{ID: 2, Ops: map[Field]FieldOp{
		FieldTitle: {Change: true, Replacement: "Untitled"},
	}}
	assert.Equal(t, `rule 2: when (never) set title = "Untitled"`, inert.String())

	condOnly := &Rule{ID: 3, Ops: map[Field]FieldOp{
		FieldComposer: {Cond: true, Pattern: "Bach"},
	}}
	assert.Equal(t, `rule 3: when composer = "Bach" set (nothing)`, condOnly.String())
}
