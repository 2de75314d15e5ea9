// Package docx reads body paragraphs out of Office Open XML word-processing
// documents.
//
// Only what the classifier needs is extracted: the run text of each
// top-level body paragraph and whether the paragraph is directly centered.
// Tables, text boxes, headers and footers are not traversed, and alignment
// inherited from paragraph styles is not resolved.
package docx

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"
	"golang.org/x/text/unicode/norm"

	apperrors "github.com/FocuswithJustin/otparse/core/errors"
	"github.com/FocuswithJustin/otparse/core/markup"
)

// FormatName is reported in errors and detection results.
const FormatName = "DOCX"

// Package part names.
const (
	DocumentPart     = "word/document.xml"
	ContentTypesPart = "[Content_Types].xml"
)

// WordprocessingML main namespaces, transitional and strict.
const (
	NamespaceTransitional = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	NamespaceStrict       = "http://purl.oclc.org/ooxml/wordprocessingml/main"
)

// Extensions recognised by Detect.
var Extensions = []string{".docx", ".docm", ".dotx", ".dotm"}

// MaxDocumentPartSize bounds the uncompressed size of word/document.xml.
var MaxDocumentPartSize int64 = 256 << 20

// Options controls paragraph extraction.
type Options struct {
	// NormalizeNFC applies Unicode NFC normalization to paragraph text.
	NormalizeNFC bool
}

// Document is the paragraph content of one .docx file.
type Document struct {
	Path       string
	Namespace  string
	Paragraphs []markup.Paragraph
}

// queries holds the compiled expressions for one namespace.
type queries struct {
	body *xpath.Expr
	jc   *xpath.Expr
}

var namespaceQueries = map[string]queries{
	NamespaceTransitional: compileQueries(NamespaceTransitional),
	NamespaceStrict:       compileQueries(NamespaceStrict),
}

func compileQueries(ns string) queries {
	bind := map[string]string{"w": ns}
	return queries{
		body: mustCompileNS("/w:document/w:body/w:p", bind),
		jc:   mustCompileNS("w:pPr/w:jc", bind),
	}
}

func mustCompileNS(expr string, bind map[string]string) *xpath.Expr {
	e, err := xpath.CompileWithNS(expr, bind)
	if err != nil {
		panic(fmt.Sprintf("docx: bad xpath %q: %v", expr, err))
	}
	return e
}

// Open reads the document at path.
func Open(path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.NewIO("open", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apperrors.NewIO("stat", path, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewIO("open", path, fmt.Errorf("is a directory"))
	}

	return read(f, info.Size(), path, opts)
}

// Read reads a document from r, which holds size bytes of zip data.
func Read(r io.ReaderAt, size int64, opts Options) (*Document, error) {
	return read(r, size, "", opts)
}

// ReadBytes reads a document held in memory.
func ReadBytes(data []byte, opts Options) (*Document, error) {
	return Read(bytes.NewReader(data), int64(len(data)), opts)
}

func read(r io.ReaderAt, size int64, path string, opts Options) (*Document, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, apperrors.NewParse(FormatName, path, err)
	}

	part, err := openPart(zr, DocumentPart)
	if err != nil {
		return nil, apperrors.NewParse(FormatName, path, err)
	}
	defer part.Close()

	root, err := xmlquery.Parse(io.LimitReader(part, MaxDocumentPartSize))
	if err != nil {
		return nil, apperrors.NewParse(FormatName, path, fmt.Errorf("%s: %w", DocumentPart, err))
	}

	ns := rootNamespace(root)
	q, ok := namespaceQueries[ns]
	if !ok {
		return nil, apperrors.NewParse(FormatName, path,
			apperrors.NewUnsupported("document namespace", fmt.Sprintf("%q", ns)))
	}

	doc := &Document{Path: path, Namespace: ns}
	for _, p := range xmlquery.QuerySelectorAll(root, q.body) {
		doc.Paragraphs = append(doc.Paragraphs, paragraph(p, q, ns, opts))
	}
	return doc, nil
}

func openPart(zr *zip.Reader, name string) (io.ReadCloser, error) {
	rc, err := zr.Open(name)
	if err != nil {
		if apperrors.Is(err, fs.ErrNotExist) {
			return nil, apperrors.NewNotFound("document part", name)
		}
		return nil, err
	}
	return rc, nil
}

func rootNamespace(root *xmlquery.Node) string {
	for n := root.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			return n.NamespaceURI
		}
	}
	return ""
}

func paragraph(p *xmlquery.Node, q queries, ns string, opts Options) markup.Paragraph {
	var b strings.Builder
	collectRuns(&b, p, ns)

	text := b.String()
	if opts.NormalizeNFC {
		text = norm.NFC.String(text)
	}

	return markup.Paragraph{
		Text:     text,
		Centered: centered(p, q),
	}
}

// centered reports direct center justification. Word writes "center";
// "both" and "distribute" are justified, not centered.
func centered(p *xmlquery.Node, q queries) bool {
	for _, jc := range xmlquery.QuerySelectorAll(p, q.jc) {
		if attrLocal(jc, "val") == "center" {
			return true
		}
	}
	return false
}

// runContainers are paragraph children whose runs count as paragraph text.
var runContainers = map[string]bool{
	"hyperlink":  true,
	"ins":        true,
	"smartTag":   true,
	"fldSimple":  true,
	"customXml":  true,
	"sdt":        true,
	"sdtContent": true,
}

func collectRuns(b *strings.Builder, parent *xmlquery.Node, ns string) {
	for n := parent.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.NamespaceURI != ns {
			continue
		}
		switch {
		case n.Data == "r":
			runText(b, n, ns)
		case runContainers[n.Data]:
			collectRuns(b, n, ns)
		}
	}
}

func runText(b *strings.Builder, r *xmlquery.Node, ns string) {
	for n := r.FirstChild; n != nil; n = n.NextSibling {
		if n.Type != xmlquery.ElementNode || n.NamespaceURI != ns {
			continue
		}
		switch n.Data {
		case "t":
			b.WriteString(n.InnerText())
		case "tab", "ptab":
			b.WriteByte('\t')
		case "br", "cr":
			b.WriteByte('\n')
		case "noBreakHyphen":
			b.WriteByte('-')
		}
	}
}

func attrLocal(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

// DetectResult reports whether a path looks like a .docx file.
type DetectResult struct {
	Detected bool
	Format   string
	Reason   string
}

// Detect checks the extension and the zip structure of path.
func Detect(path string) *DetectResult {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Reason: fmt.Sprintf("cannot stat: %v", err)}
	}
	if info.IsDir() {
		return &DetectResult{Reason: "path is a directory, not a file"}
	}

	ext := strings.ToLower(filepath.Ext(path))
	extensionMatch := false
	for _, valid := range Extensions {
		if ext == valid {
			extensionMatch = true
			break
		}
	}
	if !extensionMatch {
		return &DetectResult{Reason: fmt.Sprintf("not a %s file extension: %q", FormatName, ext)}
	}

	zr, err := zip.OpenReader(path)
	if err != nil {
		return &DetectResult{Reason: fmt.Sprintf("cannot open as ZIP: %v", err)}
	}
	defer zr.Close()

	hasContentTypes, hasDocument := false, false
	for _, f := range zr.File {
		switch f.Name {
		case ContentTypesPart:
			hasContentTypes = true
		case DocumentPart:
			hasDocument = true
		}
	}
	if !hasContentTypes || !hasDocument {
		return &DetectResult{Reason: fmt.Sprintf("missing %s required parts", FormatName)}
	}

	return &DetectResult{
		Detected: true,
		Format:   FormatName,
		Reason:   "WordprocessingML package detected",
	}
}
