package classify

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/FocuswithJustin/otparse/core/markup"
)

// verseLine is the grammar of a verse paragraph: an optional run of text,
// then any number of (digit run, text) pairs.
type verseLine struct {
	Lead   string        `parser:"@Text?"`
	Verses []*verseEntry `parser:"@@*"`
}

type verseEntry struct {
	Number  string `parser:"@Number"`
	Content string `parser:"@Text?"`
}

// verseLexer splits input into maximal digit and non-digit runs. The two
// rules cover every rune, so lexing cannot fail on valid UTF-8.
var verseLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Number", Pattern: `\p{Nd}+`},
	{Name: "Text", Pattern: `[^\p{Nd}]+`},
})

var verseParser = participle.MustBuild[verseLine](
	participle.Lexer(verseLexer),
)

// Tokens is the result of splitting a verse paragraph.
type Tokens struct {
	// Lead is trimmed text before the first verse number. The classifier
	// only tokenizes paragraphs that start with a digit, so it is empty
	// there.
	Lead string

	// Verses in paragraph order, content trimmed. When Truncated is set the
	// last entry has empty content.
	Verses []markup.Verse

	// Truncated reports that the final digit run had no content after it.
	Truncated bool
}

// Tokenize splits text into numbered verses. Each digit run is a verse
// number; the text up to the next digit run is that verse's content.
func Tokenize(text string) (Tokens, error) {
	var toks Tokens
	if text == "" {
		return toks, nil
	}

	parsed, err := verseParser.ParseString("", text)
	if err != nil {
		return toks, fmt.Errorf("tokenizing verses: %w", err)
	}

	toks.Lead = strings.TrimSpace(parsed.Lead)
	toks.Verses = make([]markup.Verse, 0, len(parsed.Verses))
	for _, e := range parsed.Verses {
		toks.Verses = append(toks.Verses, markup.Verse{
			Number:  e.Number,
			Content: strings.TrimSpace(e.Content),
		})
	}
	if n := len(toks.Verses); n > 0 && toks.Verses[n-1].Content == "" {
		toks.Truncated = true
	}
	return toks, nil
}
