package transform

// Field names one piece of rewritable metadata.
type Field string

const (
	FieldArtist    Field = "artist"
	FieldAlbum     Field = "album"
	FieldTitle     Field = "title"
	FieldEnsemble  Field = "ensemble"
	FieldComposer  Field = "composer"
	FieldConductor Field = "conductor"
)

// AllFields lists every field a rule may reference, in canonical order.
// Matching and mutation iterate fields in this order so application is
// deterministic.
var AllFields = []Field{
	FieldArtist,
	FieldAlbum,
	FieldTitle,
	FieldEnsemble,
	FieldComposer,
	FieldConductor,
}

// KnownField reports whether f is one of the fields rules may reference.
func KnownField(f Field) bool {
	for _, known := range AllFields {
		if f == known {
			return true
		}
	}
	return false
}

// Record is one rewritable row. Tracks carry every field in AllFields;
// albums carry only artist and album. Rule application is written against
// this interface so both variants share one code path.
type Record interface {
	// Key returns the record's primary key, or 0 before the first persist.
	Key() int64

	// Fields returns the field names this record variant carries, in
	// canonical order.
	Fields() []Field

	// Field returns the current value of f. ok is false when the record
	// variant does not carry f.
	Field(f Field) (value string, ok bool)

	// SetField stores a new value for f. Returns false when the record
	// variant does not carry f, in which case nothing is stored.
	SetField(f Field, value string) bool

	// Watermark returns the id of the last rule this record absorbed.
	Watermark() int64

	// SetWatermark records that every rule up to and including id has been
	// absorbed.
	SetWatermark(id int64)

	// Dirty reports whether a field mutation happened since the record was
	// loaded or ResetDirty was last called. It tracks that a write occurred,
	// not that the final values differ from the originals: two rules that
	// cancel each other out still leave the record dirty.
	Dirty() bool
	MarkDirty()
	ResetDirty()

	// String identifies the record in report output.
	String() string
}
