package markup

// Paragraph is one body paragraph of the source document.
type Paragraph struct {
	// Text is the paragraph's run text, untrimmed.
	Text string `json:"text"`

	// Centered reports direct center alignment on the paragraph.
	Centered bool `json:"centered,omitempty"`
}

// Kind identifies the variant held by a Line.
type Kind int

// Line kinds, in classification precedence order.
const (
	KindTitle Kind = iota
	KindChapterStart
	KindHeading
	KindVerseBlock
	KindPlain
)

var kindNames = map[Kind]string{
	KindTitle:        "title",
	KindChapterStart: "chapter",
	KindHeading:      "heading",
	KindVerseBlock:   "verses",
	KindPlain:        "plain",
}

// String returns the lower-case kind name used in logs and stats.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsValid returns true if k is one of the defined kinds.
func (k Kind) IsValid() bool {
	_, ok := kindNames[k]
	return ok
}

// Verse is one numbered verse. Number is the literal digit run.
type Verse struct {
	Number  string `json:"number"`
	Content string `json:"content"`
}

// Line is a classified paragraph. Which fields are meaningful depends on
// Kind: Text for Title, Heading and Plain; Number for ChapterStart;
// Verses for VerseBlock.
type Line struct {
	Kind   Kind    `json:"kind"`
	Text   string  `json:"text,omitempty"`
	Number string  `json:"number,omitempty"`
	Verses []Verse `json:"verses,omitempty"`

	// Dropped counts verses omitted from a VerseBlock because their number
	// had no content after it.
	Dropped int `json:"dropped,omitempty"`
}

// Title returns a Title line.
func Title(text string) Line { return Line{Kind: KindTitle, Text: text} }

// ChapterStart returns a ChapterStart line for the given chapter token.
func ChapterStart(number string) Line { return Line{Kind: KindChapterStart, Number: number} }

// Heading returns a Heading line.
func Heading(text string) Line { return Line{Kind: KindHeading, Text: text} }

// VerseBlock returns a VerseBlock line.
func VerseBlock(verses ...Verse) Line { return Line{Kind: KindVerseBlock, Verses: verses} }

// Plain returns a Plain line.
func Plain(text string) Line { return Line{Kind: KindPlain, Text: text} }
