// Package grampsxml reads and writes Gramps XML documents.
package grampsxml

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"

	"github.com/starford/grampsxml/internal/apperr"
	"github.com/starford/grampsxml/internal/models"
	"github.com/starford/grampsxml/internal/refindex"
)

const (
	rootElement       = "database"
	legacyRootElement = "grampsxml"
)

var (
	doctypeVersionRe   = regexp.MustCompile(`Gramps XML ([0-9][0-9A-Za-z.]*)//`)
	namespaceVersionRe = regexp.MustCompile(`/xml/([0-9][0-9A-Za-z.]*)/?$`)
)

// ParseError reports a document that is not well-formed or is not a Gramps
// database. Line is 1-based and 0 when unknown.
type ParseError struct {
	Line int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("grampsxml: line %d: %s", e.Line, e.Msg)
	}
	return "grampsxml: " + e.Msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// Is makes every ParseError match apperr.ErrMalformed.
func (e *ParseError) Is(target error) bool { return target == apperr.ErrMalformed }

// Parse decodes a Gramps XML document. Unknown elements and attributes are
// ignored; enumerated values are kept verbatim even when unrecognized.
func Parse(data []byte) (*models.Document, error) {
	return ParseReader(bytes.NewReader(data))
}

// ParseReader is Parse over a stream.
func ParseReader(r io.Reader) (*models.Document, error) {
	return decode(r)
}

// ParseWithIndex decodes a document and returns it together with its handle
// index.
func ParseWithIndex(data []byte) (*models.Document, *refindex.Index, error) {
	doc, err := decode(bytes.NewReader(data))
	if err != nil {
		return nil, nil, err
	}
	return doc, refindex.Build(doc), nil
}

func decode(r io.Reader) (*models.Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var doctypeVersion string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Msg: "no root element"}
		}
		if err != nil {
			return nil, parseError(dec, err)
		}

		switch t := tok.(type) {
		case xml.Directive:
			if m := doctypeVersionRe.FindSubmatch(t); m != nil {
				doctypeVersion = string(m[1])
			}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return nil, &ParseError{Line: line(dec), Msg: "text content outside the root element"}
			}
		case xml.StartElement:
			if t.Name.Local != rootElement && t.Name.Local != legacyRootElement {
				return nil, &ParseError{
					Line: line(dec),
					Msg:  fmt.Sprintf("unexpected root element <%s>, want <%s>", t.Name.Local, rootElement),
				}
			}
			var db xmlDatabase
			if err := dec.DecodeElement(&db, &t); err != nil {
				return nil, parseError(dec, err)
			}
			if err := expectEnd(dec); err != nil {
				return nil, err
			}

			doc := db.toModel()
			doc.SchemaVersion = doctypeVersion
			if doc.SchemaVersion == "" {
				if m := namespaceVersionRe.FindStringSubmatch(t.Name.Space); m != nil {
					doc.SchemaVersion = m[1]
				}
			}
			return doc, nil
		}
	}
}

// expectEnd consumes the trailer after the root element. Only whitespace,
// comments and processing instructions may follow.
func expectEnd(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return parseError(dec, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return &ParseError{Line: line(dec), Msg: fmt.Sprintf("second root element <%s>", t.Name.Local)}
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return &ParseError{Line: line(dec), Msg: "text content after the root element"}
			}
		}
	}
}

func parseError(dec *xml.Decoder, err error) error {
	var syntax *xml.SyntaxError
	if errors.As(err, &syntax) {
		return &ParseError{Line: syntax.Line, Msg: syntax.Msg, Err: err}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return &ParseError{Line: line(dec), Msg: "unexpected end of document", Err: err}
	}
	return &ParseError{Line: line(dec), Msg: err.Error(), Err: err}
}

func line(dec *xml.Decoder) int {
	l, _ := dec.InputPos()
	return l
}

// namespaceFor returns the Gramps namespace URI of a schema version.
func namespaceFor(version string) string {
	if version == "" {
		version = models.DefaultSchemaVersion
	}
	return "http://gramps-project.org/xml/" + version + "/"
}
