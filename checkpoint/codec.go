package checkpoint

// Codec converts a result value to and from CSV columns. The store
// prepends its own bookkeeping columns; a codec only describes the
// value's payload columns.
type Codec[V any] interface {
	// Header returns the column names for the encoded value.
	Header() []string

	// Encode renders a value as one CSV field per header column.
	Encode(v V) []string

	// Decode rebuilds a value from fields laid out per Header.
	// The fields slice always has len(Header()) entries.
	Decode(fields []string) (V, error)
}
