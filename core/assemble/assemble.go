// Package assemble nests classified lines into chapter blocks.
//
// The classifier sees one paragraph at a time and cannot close a chapter
// or move a heading. Assembly makes one forward pass with two pieces of
// state: whether a chapter is open, and a heading waiting to be placed.
//
// A heading inside an open chapter is held back until the next
// non-heading line, until the next chapter opens (it is written between
// the close of the old chapter and the open of the new one), or until the
// end of the document. A later heading replaces a waiting one.
package assemble

import (
	"github.com/FocuswithJustin/otparse/core/markup"
)

// Stats summarizes one assembly pass.
type Stats struct {
	Lines    int                 // classified lines consumed
	ByKind   map[markup.Kind]int // lines per kind
	Chapters int                 // chapters opened
	Deferred int                 // headings held back inside a chapter
	Replaced int                 // held headings overwritten by a later one
	Dropped  int                 // truncated verses omitted by the classifier
}

// Assembler carries the nesting state of a single pass. Use Assemble for
// the common case; the zero value is ready to use.
type Assembler struct {
	Renderer markup.Renderer

	out            []string
	insideChapter  bool
	pendingHeading *string
	stats          Stats
}

// Assemble nests lines into a Document using r to render them.
func Assemble(lines []markup.Line, r markup.Renderer) (*markup.Document, Stats) {
	a := &Assembler{Renderer: r}
	for _, l := range lines {
		a.Add(l)
	}
	return a.Finish()
}

func (a *Assembler) begin() {
	if a.out != nil {
		return
	}
	a.out = []string{markup.DocOpen}
	a.stats.ByKind = make(map[markup.Kind]int)
}

// Add consumes the next line.
func (a *Assembler) Add(l markup.Line) {
	a.begin()
	a.stats.Lines++
	a.stats.ByKind[l.Kind]++
	a.stats.Dropped += l.Dropped

	switch l.Kind {
	case markup.KindChapterStart:
		if a.insideChapter {
			a.emit(markup.ChapterClose)
		}
		a.insideChapter = true
		a.stats.Chapters++
		a.flushHeading()
		a.emit(a.Renderer.ChapterOpen(l.Number))

	case markup.KindHeading:
		if !a.insideChapter {
			a.emit(a.Renderer.Heading(l.Text))
			return
		}
		if a.pendingHeading != nil {
			a.stats.Replaced++
		}
		text := l.Text
		a.pendingHeading = &text
		a.stats.Deferred++

	default:
		a.flushHeading()
		a.emit(a.Renderer.Render(l))
	}
}

// Finish closes any open chapter, places a still-pending heading after it,
// and closes the document. The Assembler must not be reused afterwards.
func (a *Assembler) Finish() (*markup.Document, Stats) {
	a.begin()
	if a.insideChapter {
		a.emit(markup.ChapterClose)
		a.insideChapter = false
	}
	a.flushHeading()
	a.emit(markup.DocClose)

	doc := &markup.Document{Lines: a.out}
	a.out = nil
	return doc, a.stats
}

func (a *Assembler) flushHeading() {
	if a.pendingHeading == nil {
		return
	}
	a.emit(a.Renderer.Heading(*a.pendingHeading))
	a.pendingHeading = nil
}

func (a *Assembler) emit(s string) {
	a.out = append(a.out, s)
}
