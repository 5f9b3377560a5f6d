// Package jsonutil wraps github.com/go-json-experiment/json for the two jobs
// trafficsieve has for JSON: deciding whether a captured payload parses, and
// encoding reports and events.
//
// Usage:
//
//	if jsonutil.Lenient([]byte(span)) {
//	    // accepted payload
//	}
//
//	data, err := jsonutil.Marshal(report)
package jsonutil

import (
	"io"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// lenientOpts mirror what common HTTP stacks accept on the wire: duplicate
// object names are tolerated, the last one wins.
var lenientOpts = json.JoinOptions(
	jsontext.AllowDuplicateNames(true),
	jsontext.AllowInvalidUTF8(true),
)

// Unmarshal parses the JSON-encoded data and stores the result in v.
func Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Marshal returns the JSON encoding of v.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MarshalIndent returns the indented JSON encoding of v.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.Marshal(v, jsontext.WithIndentPrefix(prefix), jsontext.WithIndent(indent))
}

// Valid reports whether data is a single, strictly valid JSON value
// (RFC 7493: unique names, valid UTF-8). Surrounding whitespace is allowed.
func Valid(data []byte) bool {
	return jsontext.Value(data).IsValid()
}

// Lenient reports whether data is one syntactically valid JSON value,
// tolerating duplicate object names and invalid UTF-8 inside strings.
func Lenient(data []byte) bool {
	var v jsontext.Value
	return json.Unmarshal(data, &v, lenientOpts) == nil
}

// Encoder writes one JSON value per line.
type Encoder struct {
	w      io.Writer
	indent string
}

// NewStreamEncoder creates an encoder that writes to w.
func NewStreamEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the JSON encoding of v to the stream, followed by a newline.
func (e *Encoder) Encode(v any) error {
	var err error
	if e.indent != "" {
		err = json.MarshalWrite(e.w, v, jsontext.WithIndent(e.indent))
	} else {
		err = json.MarshalWrite(e.w, v)
	}
	if err != nil {
		return err
	}
	_, err = e.w.Write([]byte{'\n'})
	return err
}

// SetIndent formats each subsequent value with the given indentation.
func (e *Encoder) SetIndent(indent string) {
	e.indent = indent
}
