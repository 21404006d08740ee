// Package exporter persists pipeline tables as CSV.
//
// CSVWriter resolves relative paths against an output directory and
// creates it on demand. WriteTable streams a table into a temporary file
// and renames it into place, so a failed write never leaves a truncated
// output behind. EncodeTable writes the same format to any io.Writer and
// backs the HTTP transport.
//
// Values are rendered with domain.Column.Text: missing values and NaN are
// empty cells, integral floats keep a trailing ".0" and booleans render as
// True/False.
package exporter
