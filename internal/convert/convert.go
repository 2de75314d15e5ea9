// Package convert runs one document through the whole pipeline: read the
// .docx, classify each paragraph, assemble chapters, check the markup and
// write it out.
//
// Nothing is written until the markup is complete. The output appears in
// a single rename, so a failed run never leaves a partial file behind.
package convert

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ulikunitz/xz"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/otparse/core/assemble"
	"github.com/FocuswithJustin/otparse/core/classify"
	"github.com/FocuswithJustin/otparse/core/docx"
	apperrors "github.com/FocuswithJustin/otparse/core/errors"
	"github.com/FocuswithJustin/otparse/core/markup"
	"github.com/FocuswithJustin/otparse/core/xml"
	"github.com/FocuswithJustin/otparse/internal/config"
	"github.com/FocuswithJustin/otparse/internal/logging"
	"github.com/FocuswithJustin/otparse/internal/validation"
)

// Extensions used by the naming rule.
const (
	SourceExt     = ".docx"
	OutputExt     = ".xml"
	CompressedExt = ".xz"
)

// Injectable functions for testing.
var (
	osCreateTemp = os.CreateTemp
	osRename     = os.Rename
	xzNewWriter  = xz.NewWriter
)

// Options selects the files for one run.
type Options struct {
	Input  string
	Output string
	// Config supplies the settings; nil means config.Default().
	Config *config.Config
}

// Digests identifies the source document.
type Digests struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
}

// Summary counts elements in the rendered markup. It is only filled in
// when validation is enabled.
type Summary struct {
	Root           string   `json:"root"`
	Titles         int      `json:"titles"`
	Chapters       int      `json:"chapters"`
	Headings       int      `json:"headings"`
	Verses         int      `json:"verses"`
	TitleTexts     []string `json:"title_texts"`
	ChapterNumbers []string `json:"chapter_numbers"`
}

// Result describes a finished run.
type Result struct {
	RunID      string         `json:"run_id"`
	Input      string         `json:"input"`
	Output     string         `json:"output"`
	Paragraphs int            `json:"paragraphs"`
	Stats      assemble.Stats `json:"-"`
	Bytes      int64          `json:"bytes"`
	Compressed bool           `json:"compressed"`
	Source     Digests        `json:"source"`
	Summary    *Summary       `json:"summary,omitempty"`
	Duration   time.Duration  `json:"duration"`
}

// OutputPath applies the naming rule: a trailing ".docx" becomes ".xml";
// any other path is used as given.
func OutputPath(output string) string {
	if strings.HasSuffix(output, SourceExt) {
		return strings.TrimSuffix(output, SourceExt) + OutputExt
	}
	return output
}

// FinalPath is OutputPath plus ".xz" when compressing.
func FinalPath(output string, compress bool) string {
	p := OutputPath(output)
	if compress {
		p += CompressedExt
	}
	return p
}

// Run converts opts.Input and writes the markup to the named output. The
// context is checked between stages.
func Run(ctx context.Context, opts Options) (*Result, error) {
	start := time.Now()

	cfg := opts.Config
	if cfg == nil {
		cfg = config.Default()
	}

	runID := logging.GetRunID(ctx)
	if runID == "" {
		ctx, runID = logging.NewRun(ctx)
	}

	output := FinalPath(opts.Output, cfg.Output.Compress)
	if err := checkPaths(opts.Input, output); err != nil {
		logging.ConversionError(ctx, "validate", err)
		return nil, err
	}

	logging.ConversionStart(ctx, opts.Input, output,
		"compress", cfg.Output.Compress,
		"validate", cfg.Output.Validate,
	)

	source, err := sourceDigests(opts.Input)
	if err != nil {
		logging.ConversionError(ctx, "read", err)
		return nil, err
	}
	logging.DebugContext(ctx, "source_digest", "sha256", source.SHA256, "blake3", source.BLAKE3)

	if det := docx.Detect(opts.Input); !det.Detected {
		logging.WarnContext(ctx, "input not recognised as a word document", "reason", det.Reason)
	}

	doc, err := docx.Open(opts.Input, docx.Options{NormalizeNFC: cfg.NormalizeNFC()})
	if err != nil {
		logging.ConversionError(ctx, "read", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rendered, stats, err := Transform(ctx, doc.Paragraphs, cfg)
	if err != nil {
		logging.ConversionError(ctx, "transform", err)
		return nil, err
	}
	if stats.Dropped > 0 {
		logging.WarnContext(ctx, "truncated trailing verses dropped", "count", stats.Dropped)
	}

	logging.DebugContext(ctx, "markup_preview", "markup", preview(rendered.Compact(), previewRunes))

	data := rendered.Bytes()

	var summary *Summary
	if cfg.Output.Validate {
		summary, err = check(data, output)
		if err != nil {
			logging.ConversionError(ctx, "validate", err)
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	written, err := writeAtomic(output, data, cfg.Output.Compress)
	if err != nil {
		logging.ConversionError(ctx, "write", err)
		return nil, err
	}

	res := &Result{
		RunID:      runID,
		Input:      opts.Input,
		Output:     output,
		Paragraphs: len(doc.Paragraphs),
		Stats:      stats,
		Bytes:      written,
		Compressed: cfg.Output.Compress,
		Source:     source,
		Summary:    summary,
		Duration:   time.Since(start),
	}

	logging.ConversionDone(ctx, output, res.Paragraphs, res.Duration,
		"chapters", stats.Chapters,
		"bytes", written,
		"sha256", source.SHA256,
	)
	return res, nil
}

// Transform classifies paras and assembles them into a document.
func Transform(ctx context.Context, paras []markup.Paragraph, cfg *config.Config) (*markup.Document, assemble.Stats, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	opts, err := cfg.ClassifyOptions()
	if err != nil {
		return nil, assemble.Stats{}, err
	}
	c, err := classify.New(opts)
	if err != nil {
		return nil, assemble.Stats{}, apperrors.NewValidation("script", err.Error())
	}

	a := &assemble.Assembler{Renderer: markup.Renderer{Raw: !cfg.EscapeText}}
	for i, line := range c.ClassifyAll(paras) {
		logging.ParagraphClassified(ctx, i, line.Kind.String(), "verses", len(line.Verses))
		a.Add(line)
	}
	doc, stats := a.Finish()
	return doc, stats, nil
}

func checkPaths(input, output string) error {
	if err := validation.ValidateInputFile(input); err != nil {
		if apperrors.Is(err, os.ErrNotExist) {
			return apperrors.NewIO("open", input, err)
		}
		return &apperrors.ValidationError{Field: "input", Value: input, Message: err.Error(), Err: err}
	}
	if err := validation.ValidateOutputPath(input, output); err != nil {
		return &apperrors.ValidationError{Field: "output", Value: output, Message: err.Error(), Err: err}
	}
	return nil
}

// sourceDigests hashes the input in one pass and rejects files that do not
// start like a zip container.
func sourceDigests(path string) (Digests, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digests{}, apperrors.NewIO("open", path, err)
	}
	defer f.Close()

	sh := sha256.New()
	bh := blake3.New()
	w := io.MultiWriter(sh, bh)

	if err := validation.CheckZipMagic(io.TeeReader(f, w)); err != nil {
		if apperrors.Is(err, validation.ErrNotZip) {
			return Digests{}, apperrors.NewParse(docx.FormatName, path, err)
		}
		return Digests{}, apperrors.NewIO("read", path, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return Digests{}, apperrors.NewIO("read", path, err)
	}

	return Digests{
		SHA256: hex.EncodeToString(sh.Sum(nil)),
		BLAKE3: hex.EncodeToString(bh.Sum(nil)),
	}, nil
}

// check verifies well-formedness and counts the emitted elements.
func check(data []byte, output string) (*Summary, error) {
	res := xml.Validate(data)
	if !res.Valid {
		return nil, &apperrors.ParseError{
			Format:  "XML",
			Path:    output,
			Message: res.Errors[0].Error(),
			Err:     res.Errors[0],
		}
	}

	doc, err := xml.Parse(data)
	if err != nil {
		return nil, apperrors.NewParse("XML", output, err)
	}

	s := &Summary{Root: doc.Root()}
	for expr, dst := range map[string]*int{
		"//title":   &s.Titles,
		"//chapter": &s.Chapters,
		"//heading": &s.Headings,
		"//verse":   &s.Verses,
	} {
		n, err := doc.Count(expr)
		if err != nil {
			return nil, err
		}
		*dst = n
	}

	if s.TitleTexts, err = doc.Texts("//title"); err != nil {
		return nil, err
	}
	if s.ChapterNumbers, err = doc.Attrs("//chapter", "no"); err != nil {
		return nil, err
	}
	return s, nil
}

// previewRunes bounds the markup preview logged at debug level.
const previewRunes = 200

// preview cuts s to at most n runes.
func preview(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos] + "..."
		}
		i++
	}
	return s
}

// writeAtomic writes data to a temporary file next to path and renames it
// into place. It returns the number of bytes on disk.
func writeAtomic(path string, data []byte, compress bool) (int64, error) {
	dir := filepath.Dir(path)
	tmp, err := osCreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, apperrors.NewIO("create", path, err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			tmp.Close()
			os.Remove(tmpName)
		}
	}()

	if compress {
		zw, err := xzNewWriter(tmp)
		if err != nil {
			return 0, apperrors.NewIO("compress", path, fmt.Errorf("failed to create xz writer: %w", err))
		}
		if _, err := zw.Write(data); err != nil {
			return 0, apperrors.NewIO("write", path, err)
		}
		if err := zw.Close(); err != nil {
			return 0, apperrors.NewIO("compress", path, err)
		}
	} else if _, err := tmp.Write(data); err != nil {
		return 0, apperrors.NewIO("write", path, err)
	}

	if err := tmp.Sync(); err != nil {
		return 0, apperrors.NewIO("sync", path, err)
	}
	info, err := tmp.Stat()
	if err != nil {
		return 0, apperrors.NewIO("stat", path, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, apperrors.NewIO("close", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return 0, apperrors.NewIO("chmod", path, err)
	}
	if err := osRename(tmpName, path); err != nil {
		return 0, apperrors.NewIO("rename", path, err)
	}
	committed = true
	return info.Size(), nil
}
