// Package xml checks rendered markup before it is written.
//
// Security Notes:
//   - Entity expansion is disabled in Validate; xml.Decoder never fetches
//     external entities.
//   - xmlquery parses through encoding/xml and inherits the same behavior.
package xml

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
)

// Document is a parsed markup document.
type Document struct {
	root *xmlquery.Node
}

// ValidationResult contains the result of a well-formedness check.
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// ValidationError is a single well-formedness problem.
type ValidationError struct {
	Line    int
	Column  int
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Line, e.Column, e.Message)
}

// Parse parses XML data and returns a Document.
func Parse(data []byte) (*Document, error) {
	root, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing XML: %w", err)
	}
	return &Document{root: root}, nil
}

// Validate checks that data is well-formed XML with a single root element.
// It stops at the first error.
func Validate(data []byte) ValidationResult {
	result := ValidationResult{Valid: true}

	decoder := xml.NewDecoder(bytes.NewReader(data))
	decoder.Entity = map[string]string{}

	fail := func(msg string) {
		line, col := decoder.InputPos()
		result.Valid = false
		result.Errors = append(result.Errors, ValidationError{Line: line, Column: col, Message: msg})
	}

	depth, roots := 0, 0
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			fail(err.Error())
			return result
		}
		switch tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				roots++
				if roots > 1 {
					fail("more than one root element")
					return result
				}
			}
			depth++
		case xml.EndElement:
			depth--
		}
	}
	if roots == 0 {
		fail("no root element")
	}
	return result
}

// Root returns the name of the root element, or "" if there is none.
func (d *Document) Root() string {
	for child := d.root.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child.Data
		}
	}
	return ""
}

// Count evaluates an XPath node-set expression and returns the number of
// matching nodes.
func (d *Document) Count(expr string) (int, error) {
	compiled, err := xpath.Compile(expr)
	if err != nil {
		return 0, fmt.Errorf("invalid xpath: %w", err)
	}
	return len(xmlquery.QuerySelectorAll(d.root, compiled)), nil
}

// Texts returns the trimmed inner text of every node matching expr.
func (d *Document) Texts(expr string) ([]string, error) {
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = strings.TrimSpace(n.InnerText())
	}
	return out, nil
}

// Attrs returns the value of attribute name on every node matching expr.
func (d *Document) Attrs(expr, name string) ([]string, error) {
	nodes, err := xmlquery.QueryAll(d.root, expr)
	if err != nil {
		return nil, fmt.Errorf("xpath query failed: %w", err)
	}
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.SelectAttr(name)
	}
	return out, nil
}
