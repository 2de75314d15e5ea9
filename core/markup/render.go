package markup

import (
	"strings"
)

// Structural tags emitted by the assembler.
const (
	DocOpen      = "<doc>"
	DocClose     = "</doc>"
	ChapterClose = "</chapter>"
)

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")
)

// EscapeText escapes &, < and > for element content.
func EscapeText(s string) string {
	return textEscaper.Replace(s)
}

// EscapeAttr escapes text for a double-quoted attribute value.
func EscapeAttr(s string) string {
	return attrEscaper.Replace(s)
}

// Renderer turns Lines into tagged text.
//
// With Raw set, text and attribute values are written byte-for-byte and the
// result may not be well-formed.
type Renderer struct {
	Raw bool
}

func (r Renderer) text(s string) string {
	if r.Raw {
		return s
	}
	return EscapeText(s)
}

func (r Renderer) attr(s string) string {
	if r.Raw {
		return s
	}
	return EscapeAttr(s)
}

// Render returns the tagged form of a single line.
func (r Renderer) Render(l Line) string {
	switch l.Kind {
	case KindTitle:
		return "<title> " + r.text(l.Text) + " </title>"
	case KindChapterStart:
		return r.ChapterOpen(l.Number)
	case KindHeading:
		return r.Heading(l.Text)
	case KindVerseBlock:
		var b strings.Builder
		for _, v := range l.Verses {
			b.WriteString(`<verse no="`)
			b.WriteString(r.attr(v.Number))
			b.WriteString(`"> `)
			b.WriteString(r.text(v.Content))
			b.WriteString(" </verse>")
		}
		return b.String()
	default:
		return r.text(l.Text)
	}
}

// ChapterOpen returns the opening chapter tag.
func (r Renderer) ChapterOpen(number string) string {
	return `<chapter no="` + r.attr(number) + `">`
}

// Heading returns a heading element.
func (r Renderer) Heading(text string) string {
	return "<heading> " + r.text(text) + " </heading>"
}

// Document is the assembled output, one markup token per entry.
type Document struct {
	Lines []string
}

// String joins the lines with newlines and adds a trailing newline.
func (d *Document) String() string {
	if len(d.Lines) == 0 {
		return ""
	}
	return strings.Join(d.Lines, "\n") + "\n"
}

// Bytes returns String as UTF-8 bytes.
func (d *Document) Bytes() []byte {
	return []byte(d.String())
}

// Compact joins the lines with no separator. The converter logs a cut-down
// copy of it at debug level.
func (d *Document) Compact() string {
	return strings.Join(d.Lines, "")
}
