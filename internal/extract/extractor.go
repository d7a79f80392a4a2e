package extract

// Emit receives one record during extraction. Records are delivered in
// a single forward pass over the file; the callback must not retain the
// slice fields beyond the call unless it copies them.
type Emit func(table Table, rec Record)

// Extractor turns one source file into a stream of records.
// Implementations are per-language and must be safe to reuse across files.
type Extractor interface {
	// ID identifies the extractor in persisted file metadata.
	ID() string

	// Version is bumped when extraction output changes, so the database
	// can re-extract files scanned by an older version.
	Version() int

	// Matches is a pure predicate on the file name. No I/O.
	Matches(path string) bool

	// Extract reads the file and emits records via the callback.
	// Malformed input must degrade to zero or partial records, never an
	// error; only fatal I/O errors are returned.
	Extract(path string, emit Emit) error
}

// Registry is an explicit, ordered list of extractors. The first
// extractor whose Matches accepts a path processes it; order is part of
// the contract and controlled by the caller.
type Registry []Extractor

// Find returns the first extractor matching path.
func (r Registry) Find(path string) (Extractor, bool) {
	for _, ex := range r {
		if ex.Matches(path) {
			return ex, true
		}
	}
	return nil, false
}

// Versions returns the current id→version map for every registered extractor.
func (r Registry) Versions() map[string]int {
	versions := make(map[string]int, len(r))
	for _, ex := range r {
		versions[ex.ID()] = ex.Version()
	}
	return versions
}

// DefaultRegistry returns the built-in extractors in their standard order.
func DefaultRegistry() Registry {
	return Registry{
		NewGoExtractor(),
		NewPythonExtractor(),
	}
}
