// Command otparse converts a Word document of scripture text into tagged
// markup with <title>, <chapter>, <heading> and <verse> elements.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	apperrors "github.com/FocuswithJustin/otparse/core/errors"
	"github.com/FocuswithJustin/otparse/internal/config"
	"github.com/FocuswithJustin/otparse/internal/convert"
	"github.com/FocuswithJustin/otparse/internal/logging"
	"github.com/FocuswithJustin/otparse/internal/validation"
)

const version = "0.1.0"

// stdout receives the run summary. Logs go to stderr.
var stdout io.Writer = os.Stdout

// CLI defines the command-line interface for otparse.
type CLI struct {
	File   string `name:"file" short:"f" help:"Input .docx document" type:"existingfile"`
	Output string `name:"output" short:"o" help:"Output path; a trailing .docx becomes .xml" type:"path"`
	Config string `name:"config" short:"c" help:"YAML configuration file" type:"path"`

	XZ            bool   `name:"xz" help:"Compress the output with xz"`
	NoValidate    bool   `name:"no-validate" help:"Skip the well-formedness check before writing"`
	Raw           bool   `name:"raw" help:"Write text without XML escaping; usually needs --no-validate, since a bare & or < fails the default check"`
	TrailingVerse string `name:"trailing-verse" help:"Truncated final verse: drop or empty"`
	NFC           bool   `name:"nfc" help:"Normalize paragraph text to Unicode NFC"`

	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (text, json)"`
	JSON      bool   `name:"json" help:"Print the run summary as JSON"`

	ShowConfig bool             `name:"show-config" help:"Print the effective configuration and exit"`
	Version    kong.VersionFlag `name:"version" help:"Print version information"`
}

// settings merges the config file, the environment and the flags, in that
// order of precedence from lowest to highest.
func (c *CLI) settings() (*config.Config, error) {
	cfg := config.Default()
	if c.Config != "" {
		if err := validation.ValidatePath(c.Config); err != nil {
			return nil, apperrors.Wrapf(err, "invalid config path %q", c.Config)
		}
		loaded, err := config.Load(c.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if c.XZ {
		cfg.Output.Compress = true
	}
	if c.NoValidate {
		cfg.Output.Validate = false
	}
	if c.Raw {
		cfg.EscapeText = false
	}
	if c.TrailingVerse != "" {
		cfg.TrailingVerse = c.TrailingVerse
	}
	if c.NFC {
		cfg.Normalize = "nfc"
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Run executes the command.
func (c *CLI) Run(ctx context.Context) error {
	cfg, err := c.settings()
	if err != nil {
		return err
	}

	level, format, err := cfg.Logging()
	if err != nil {
		return err
	}
	logging.InitLogger(level, format)

	if c.ShowConfig {
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	}

	if c.File == "" || c.Output == "" {
		return errors.New("both --file and --output are required")
	}

	ctx, _ = logging.NewRun(ctx)
	res, err := convert.Run(ctx, convert.Options{
		Input:  c.File,
		Output: c.Output,
		Config: cfg,
	})
	if err != nil {
		return err
	}

	if c.JSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printResult(stdout, res)
	return nil
}

func printResult(w io.Writer, res *convert.Result) {
	fmt.Fprintf(w, "Converted: %s\n", res.Input)
	fmt.Fprintf(w, "  Output: %s\n", res.Output)
	fmt.Fprintf(w, "  Paragraphs: %d\n", res.Paragraphs)
	fmt.Fprintf(w, "  Chapters: %d\n", res.Stats.Chapters)
	if res.Summary != nil {
		fmt.Fprintf(w, "  Headings: %d\n", res.Summary.Headings)
		fmt.Fprintf(w, "  Verses: %d\n", res.Summary.Verses)
		if len(res.Summary.ChapterNumbers) > 0 {
			fmt.Fprintf(w, "  Chapter numbers: %s\n", strings.Join(res.Summary.ChapterNumbers, " "))
		}
	}
	if res.Stats.Dropped > 0 {
		fmt.Fprintf(w, "  Dropped verses: %d\n", res.Stats.Dropped)
	}
	fmt.Fprintf(w, "  SHA-256: %s\n", res.Source.SHA256)
	fmt.Fprintf(w, "  BLAKE3: %s\n", res.Source.BLAKE3)
	fmt.Fprintf(w, "  Size: %d bytes\n", res.Bytes)
	fmt.Fprintf(w, "  Run ID: %s\n", res.RunID)
}

func main() {
	var cli CLI
	ctx := kong.Parse(&cli,
		kong.Name("otparse"),
		kong.Description("Convert a Word document of scripture text into tagged markup"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{"version": "otparse version " + version},
	)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := cli.Run(runCtx)
	ctx.FatalIfErrorf(err)
}
