// Package docxtest builds minimal .docx packages for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Namespace is the transitional WordprocessingML namespace.
const Namespace = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
</Types>`

const rels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

// Para describes one body paragraph. When Body is set it is used verbatim
// as the content of <w:p> and Text is ignored.
type Para struct {
	Text     string
	Centered bool
	Body     string
}

// Centered returns a centered paragraph.
func Centered(text string) Para { return Para{Text: text, Centered: true} }

// Plain returns a left-aligned paragraph.
func Plain(text string) Para { return Para{Text: text} }

// DocumentXML renders word/document.xml for paras.
func DocumentXML(paras ...Para) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<w:document xmlns:w="` + Namespace + `"><w:body>`)
	for _, p := range paras {
		b.WriteString("<w:p>")
		if p.Centered {
			b.WriteString(`<w:pPr><w:jc w:val="center"/></w:pPr>`)
		}
		if p.Body != "" {
			b.WriteString(p.Body)
		} else if p.Text != "" {
			b.WriteString(`<w:r><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&b, []byte(p.Text))
			b.WriteString(`</w:t></w:r>`)
		}
		b.WriteString("</w:p>")
	}
	b.WriteString(`<w:sectPr/></w:body></w:document>`)
	return b.String()
}

// Build returns a .docx package whose parts are given verbatim.
func Build(parts map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"[Content_Types].xml", "_rels/.rels", "word/document.xml"} {
		if body, ok := parts[name]; ok {
			w, _ := zw.Create(name)
			_, _ = w.Write([]byte(body))
		}
	}
	for name, body := range parts {
		switch name {
		case "[Content_Types].xml", "_rels/.rels", "word/document.xml":
			continue
		}
		w, _ := zw.Create(name)
		_, _ = w.Write([]byte(body))
	}
	_ = zw.Close()
	return buf.Bytes()
}

// Package returns a complete .docx package for paras.
func Package(paras ...Para) []byte {
	return Build(map[string]string{
		"[Content_Types].xml": contentTypes,
		"_rels/.rels":         rels,
		"word/document.xml":   DocumentXML(paras...),
	})
}

// Write stores a .docx for paras under dir and returns its path.
func Write(t testing.TB, dir, name string, paras ...Para) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, Package(paras...), 0644); err != nil {
		t.Fatalf("failed to write test docx: %v", err)
	}
	return path
}
