package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FocuswithJustin/otparse/core/markup"
)

func TestClassify(t *testing.T) {
	c := Default()

	tests := []struct {
		name string
		para markup.Paragraph
		want markup.Line
	}{
		{
			name: "centered is title",
			para: markup.Paragraph{Text: "  Genesis  ", Centered: true},
			want: markup.Title("Genesis"),
		},
		{
			name: "centered wins over chapter prefix",
			para: markup.Paragraph{Text: "ወንጌል[", Centered: true},
			want: markup.Title("ወንጌል["),
		},
		{
			name: "centered wins over verses",
			para: markup.Paragraph{Text: "1 In the beginning", Centered: true},
			want: markup.Title("1 In the beginning"),
		},
		{
			name: "chapter prefix",
			para: markup.Paragraph{Text: "ወንጌል["},
			want: markup.ChapterStart("ወንጌል"),
		},
		{
			name: "chapter prefix keeps trailing text out of the number",
			para: markup.Paragraph{Text: " ማቴ[ 5 ] ምዕራፍ "},
			want: markup.ChapterStart("ማቴ"),
		},
		{
			name: "prefix not followed by bracket is a heading",
			para: markup.Paragraph{Text: "ወንጌል"},
			want: markup.Heading("ወንጌል"),
		},
		{
			name: "latin prefix is not a chapter",
			para: markup.Paragraph{Text: "Matthew[ 5"},
			want: markup.Plain("Matthew[ 5"),
		},
		{
			name: "no digits is heading",
			para: markup.Paragraph{Text: "The Sermon on the Mount"},
			want: markup.Heading("The Sermon on the Mount"),
		},
		{
			name: "empty paragraph is an empty heading",
			para: markup.Paragraph{Text: "   "},
			want: markup.Heading(""),
		},
		{
			name: "verses",
			para: markup.Paragraph{Text: "1 In the beginning 2 God created"},
			want: markup.VerseBlock(
				markup.Verse{Number: "1", Content: "In the beginning"},
				markup.Verse{Number: "2", Content: "God created"},
			),
		},
		{
			name: "multi digit verse numbers",
			para: markup.Paragraph{Text: "10 ten 11 eleven"},
			want: markup.VerseBlock(
				markup.Verse{Number: "10", Content: "ten"},
				markup.Verse{Number: "11", Content: "eleven"},
			),
		},
		{
			name: "non ascii decimal digits",
			para: markup.Paragraph{Text: "١ first ٢ second"},
			want: markup.VerseBlock(
				markup.Verse{Number: "١", Content: "first"},
				markup.Verse{Number: "٢", Content: "second"},
			),
		},
		{
			name: "embedded numerals are plain",
			para: markup.Paragraph{Text: "See chapter 3 for details"},
			want: markup.Plain("See chapter 3 for details"),
		},
		{
			name: "ethiopic numeral after text is plain",
			para: markup.Paragraph{Text: "ምዕራፍ ፩"},
			want: markup.Plain("ምዕራፍ ፩"),
		},
		{
			name: "superscript digit is plain",
			para: markup.Paragraph{Text: "x²"},
			want: markup.Plain("x²"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.para))
		})
	}
}

func TestClassify_TrailingVerse(t *testing.T) {
	para := markup.Paragraph{Text: "1 In the beginning 2"}

	t.Run("drop", func(t *testing.T) {
		c, err := New(Options{Trailing: TrailingDrop})
		require.NoError(t, err)

		got := c.Classify(para)
		assert.Equal(t, markup.KindVerseBlock, got.Kind)
		assert.Equal(t, []markup.Verse{{Number: "1", Content: "In the beginning"}}, got.Verses)
		assert.Equal(t, 1, got.Dropped)
	})

	t.Run("empty", func(t *testing.T) {
		c, err := New(Options{Trailing: TrailingEmpty})
		require.NoError(t, err)

		got := c.Classify(para)
		assert.Equal(t, []markup.Verse{
			{Number: "1", Content: "In the beginning"},
			{Number: "2", Content: ""},
		}, got.Verses)
		assert.Zero(t, got.Dropped)
		assert.Equal(t, `<verse no="1"> In the beginning </verse><verse no="2">  </verse>`,
			markup.Renderer{}.Render(got))
	})

	t.Run("interior empty verse is kept", func(t *testing.T) {
		got := Default().Classify(markup.Paragraph{Text: "1 2 second"})
		assert.Equal(t, []markup.Verse{
			{Number: "1", Content: ""},
			{Number: "2", Content: "second"},
		}, got.Verses)
	})
}

func TestClassify_CustomScript(t *testing.T) {
	syriac := ScriptRange{First: 0x0700, Last: 0x074F}
	c, err := New(Options{Script: syriac})
	require.NoError(t, err)
	assert.Equal(t, syriac, c.Script())

	assert.Equal(t, markup.ChapterStart("ܐܒ"), c.Classify(markup.Paragraph{Text: "ܐܒ["}))
	assert.Equal(t, markup.Heading("ወንጌል["), c.Classify(markup.Paragraph{Text: "ወንጌል["}))
}

func TestClassify_Deterministic(t *testing.T) {
	c := Default()
	paras := []markup.Paragraph{
		{Text: "Genesis", Centered: true},
		{Text: "ወንጌል["},
		{Text: "1 a 2 b"},
		{Text: "x 1"},
	}
	assert.Equal(t, c.ClassifyAll(paras), c.ClassifyAll(paras))
	assert.Len(t, c.ClassifyAll(paras), len(paras))
}

func TestNew_InvalidScript(t *testing.T) {
	tests := []struct {
		name   string
		script ScriptRange
	}{
		{"reversed", ScriptRange{First: 0x137F, Last: 0x1200}},
		{"beyond unicode", ScriptRange{First: 0x1200, Last: 0x110000}},
		{"negative", ScriptRange{First: -1, Last: 0x10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(Options{Script: tt.script})
			assert.Error(t, err)
		})
	}
}

func TestScriptRange(t *testing.T) {
	assert.True(t, Ethiopic.Contains('ወ'))
	assert.False(t, Ethiopic.Contains('a'))
	assert.Equal(t, "U+1200-U+137F", Ethiopic.String())
}

func TestParseTrailingVersePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    TrailingVersePolicy
		wantErr bool
	}{
		{"", TrailingDrop, false},
		{"drop", TrailingDrop, false},
		{"Empty", TrailingEmpty, false},
		{"error", TrailingDrop, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTrailingVersePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) TrailingVersePolicy {
	t.Helper()
	p, err := ParseTrailingVersePolicy(s)
	require.NoError(t, err)
	return p
}

func TestClassify_LeadingNumeralWithoutDecimalDigits(t *testing.T) {
	line := Default().Classify(markup.Paragraph{Text: "፩ text"})

	assert.Equal(t, markup.KindVerseBlock, line.Kind)
	assert.Empty(t, line.Verses)
	assert.Zero(t, line.Dropped)
}
