package wikiindex

import "errors"

var (
	// ErrMalformedCatalogEntry is returned when an index filename does
	// not encode a page id range.
	ErrMalformedCatalogEntry = errors.New("malformed catalog entry")
	// ErrMissingCounterpart is returned when an index file has no
	// matching data file.
	ErrMissingCounterpart = errors.New("missing data file counterpart")
	// ErrNotFound is returned for absent titles, ids and article numbers.
	ErrNotFound = errors.New("not found")
	// ErrExtractionFailed means a block did not contain the article the
	// index says it holds.  The index and the data disagree.
	ErrExtractionFailed = errors.New("article extraction failed")
	// ErrOffsetOverflow is returned when a value does not fit its
	// 4 byte on-disk field.
	ErrOffsetOverflow = errors.New("value overflows 32 bit field")
	// ErrNotBuilt is returned when an artifact a step depends on has
	// not been built yet.
	ErrNotBuilt = errors.New("prerequisite not built")
)
