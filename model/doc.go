// Package model provides the shared data structures for line-item table
// reconstruction: normalized page geometry, positioned tokens, a spatial
// token index, and the column/row band and table types passed between the
// candidate builder, the ranker, and the row fixer.
//
// All geometry in this package is normalized: coordinates are fractions of
// the page size in [0,1] with the origin at the top-left, so larger Y means
// further down the page. Absolute page points appear only at the boundary
// to the external candidate engine, via [Rect].
package model
