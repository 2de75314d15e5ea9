// Package classify maps source paragraphs to tagged lines.
//
// Classification is a pure function of one paragraph: it never looks at
// neighbouring paragraphs or at position in the document. Precedence, first
// match wins:
//
//  1. centered paragraph: Title
//  2. script-range prefix followed by "[": ChapterStart
//  3. no digits at all (decimal or digit-valued numerals): Heading
//  4. starts with a digit: VerseBlock
//  5. anything else: Plain
package classify

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/FocuswithJustin/otparse/core/markup"
)

// ScriptRange is the inclusive code point range of chapter-marker glyphs.
type ScriptRange struct {
	First rune
	Last  rune
}

// Ethiopic is the Ethiopic Unicode block, the default chapter script.
var Ethiopic = ScriptRange{First: 0x1200, Last: 0x137F}

// Contains reports whether r falls inside the range.
func (s ScriptRange) Contains(r rune) bool {
	return r >= s.First && r <= s.Last
}

// Validate checks that the range is non-empty and within Unicode.
func (s ScriptRange) Validate() error {
	if s.First <= 0 || s.Last > unicode.MaxRune {
		return fmt.Errorf("script range U+%04X-U+%04X outside Unicode", s.First, s.Last)
	}
	if s.First > s.Last {
		return fmt.Errorf("script range U+%04X-U+%04X is empty", s.First, s.Last)
	}
	return nil
}

func (s ScriptRange) String() string {
	return fmt.Sprintf("U+%04X-U+%04X", s.First, s.Last)
}

// TrailingVersePolicy decides what happens to a final verse number with no
// content after it.
type TrailingVersePolicy int

const (
	// TrailingDrop omits the verse.
	TrailingDrop TrailingVersePolicy = iota
	// TrailingEmpty keeps the verse with empty content.
	TrailingEmpty
)

// ParseTrailingVersePolicy accepts "drop" or "empty". The empty string
// selects TrailingDrop.
func ParseTrailingVersePolicy(s string) (TrailingVersePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return TrailingDrop, nil
	case "empty":
		return TrailingEmpty, nil
	default:
		return TrailingDrop, fmt.Errorf("unknown trailing verse policy %q", s)
	}
}

func (p TrailingVersePolicy) String() string {
	if p == TrailingEmpty {
		return "empty"
	}
	return "drop"
}

// Options configures a Classifier.
type Options struct {
	Script   ScriptRange
	Trailing TrailingVersePolicy
}

// Classifier classifies paragraphs. It is immutable once built and safe for
// concurrent use.
type Classifier struct {
	script   ScriptRange
	chapter  *regexp.Regexp
	trailing TrailingVersePolicy
}

// New builds a Classifier. A zero Script selects Ethiopic.
func New(opts Options) (*Classifier, error) {
	script := opts.Script
	if script == (ScriptRange{}) {
		script = Ethiopic
	}
	if err := script.Validate(); err != nil {
		return nil, err
	}

	pattern := fmt.Sprintf(`^([\x{%x}-\x{%x}]+)\[`, script.First, script.Last)
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling chapter pattern: %w", err)
	}

	return &Classifier{
		script:   script,
		chapter:  re,
		trailing: opts.Trailing,
	}, nil
}

// Default returns a Classifier for Ethiopic chapter markers that drops
// truncated trailing verses.
func Default() *Classifier {
	c, err := New(Options{})
	if err != nil {
		panic(err)
	}
	return c
}

// Script returns the chapter-marker range in use.
func (c *Classifier) Script() ScriptRange { return c.script }

// digitNumerals holds the Numeric_Type=Digit characters outside Nd:
// superscripts, subscripts, circled forms and the Ethiopic numerals one
// through nine.
var digitNumerals = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x00b2, Hi: 0x00b3, Stride: 1},
		{Lo: 0x00b9, Hi: 0x00b9, Stride: 1},
		{Lo: 0x1369, Hi: 0x1371, Stride: 1},
		{Lo: 0x19da, Hi: 0x19da, Stride: 1},
		{Lo: 0x2070, Hi: 0x2070, Stride: 1},
		{Lo: 0x2074, Hi: 0x2079, Stride: 1},
		{Lo: 0x2080, Hi: 0x2089, Stride: 1},
		{Lo: 0x2460, Hi: 0x2468, Stride: 1},
		{Lo: 0x2474, Hi: 0x247c, Stride: 1},
		{Lo: 0x2488, Hi: 0x2490, Stride: 1},
		{Lo: 0x24ea, Hi: 0x24ea, Stride: 1},
		{Lo: 0x24f5, Hi: 0x24fd, Stride: 1},
		{Lo: 0x24ff, Hi: 0x24ff, Stride: 1},
		{Lo: 0x2776, Hi: 0x277e, Stride: 1},
		{Lo: 0x2780, Hi: 0x2788, Stride: 1},
		{Lo: 0x278a, Hi: 0x2792, Stride: 1},
	},
	R32: []unicode.Range32{
		{Lo: 0x10a40, Hi: 0x10a43, Stride: 1},
		{Lo: 0x10e60, Hi: 0x10e68, Stride: 1},
		{Lo: 0x11052, Hi: 0x1105a, Stride: 1},
		{Lo: 0x1f100, Hi: 0x1f10a, Stride: 1},
	},
}

// isDigit reports whether r is a decimal digit or another digit-valued
// numeral. The verse tokenizer only splits on decimal digits, so a line
// led by an Ethiopic numeral is a verse block with no verses.
func isDigit(r rune) bool {
	return unicode.IsDigit(r) || unicode.Is(digitNumerals, r)
}

// Classify returns exactly one Line for p.
func (c *Classifier) Classify(p markup.Paragraph) markup.Line {
	text := strings.TrimSpace(p.Text)

	if p.Centered {
		return markup.Title(text)
	}

	if m := c.chapter.FindStringSubmatch(text); m != nil {
		return markup.ChapterStart(m[1])
	}

	if strings.IndexFunc(text, isDigit) < 0 {
		return markup.Heading(text)
	}

	if first, _ := utf8.DecodeRuneInString(text); isDigit(first) {
		return c.verses(text)
	}

	return markup.Plain(text)
}

// ClassifyAll classifies paragraphs in order.
func (c *Classifier) ClassifyAll(paras []markup.Paragraph) []markup.Line {
	lines := make([]markup.Line, len(paras))
	for i, p := range paras {
		lines[i] = c.Classify(p)
	}
	return lines
}

func (c *Classifier) verses(text string) markup.Line {
	toks, err := Tokenize(text)
	if err != nil {
		return markup.Plain(text)
	}

	line := markup.VerseBlock(toks.Verses...)
	if toks.Truncated && c.trailing == TrailingDrop {
		line.Verses = line.Verses[:len(line.Verses)-1]
		line.Dropped = 1
	}
	return line
}
