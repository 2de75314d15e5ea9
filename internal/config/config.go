// Package config loads otparse settings from a YAML file.
//
// Every key is optional. Load starts from Default and overlays whatever the
// file sets, so a file holding only "trailing_verse: empty" keeps every
// other default.
package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/FocuswithJustin/otparse/core/classify"
	apperrors "github.com/FocuswithJustin/otparse/core/errors"
	"github.com/FocuswithJustin/otparse/internal/logging"
)

// Environment variables that override file values.
const (
	EnvLogLevel  = "OTPARSE_LOG_LEVEL"
	EnvLogFormat = "OTPARSE_LOG_FORMAT"
)

// Config holds converter settings.
type Config struct {
	Script        ScriptConfig `yaml:"script"`
	TrailingVerse string       `yaml:"trailing_verse"` // drop, empty
	EscapeText    bool         `yaml:"escape_text"`
	Normalize     string       `yaml:"normalize"` // "", nfc
	Output        OutputConfig `yaml:"output"`
	Log           LogConfig    `yaml:"log"`
}

// ScriptConfig bounds the chapter-marker code points. Values are written
// as "U+1200", "0x1200" or as the character itself.
type ScriptConfig struct {
	First string `yaml:"first"`
	Last  string `yaml:"last"`
}

// OutputConfig controls how the result is written.
type OutputConfig struct {
	Compress bool `yaml:"compress"`
	Validate bool `yaml:"validate"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Script: ScriptConfig{
			First: "U+1200",
			Last:  "U+137F",
		},
		TrailingVerse: classify.TrailingDrop.String(),
		EscapeText:    true,
		Output: OutputConfig{
			Validate: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &apperrors.NotFoundError{Resource: "config", ID: path, Err: err}
		}
		return nil, apperrors.NewIO("read", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		var pe *apperrors.ParseError
		if apperrors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, apperrors.NewParse("YAML", "", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides logging settings from the environment.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		c.Log.Format = v
	}
}

// Validate reports the first invalid value as a *ValidationError.
func (c *Config) Validate() error {
	if _, err := c.ScriptRange(); err != nil {
		return err
	}
	if _, err := classify.ParseTrailingVersePolicy(c.TrailingVerse); err != nil {
		return apperrors.NewValidation("trailing_verse", `must be "drop" or "empty"`)
	}
	switch strings.ToLower(c.Normalize) {
	case "", "nfc":
	default:
		return apperrors.NewValidation("normalize", `must be "" or "nfc"`)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return apperrors.NewValidation("log.level", err.Error())
	}
	if _, err := logging.ParseFormat(c.Log.Format); err != nil {
		return apperrors.NewValidation("log.format", err.Error())
	}
	return nil
}

// ScriptRange returns the configured chapter-marker range.
func (c *Config) ScriptRange() (classify.ScriptRange, error) {
	first, err := ParseCodePoint(c.Script.First)
	if err != nil {
		return classify.ScriptRange{}, &apperrors.ValidationError{Field: "script.first", Value: c.Script.First, Message: err.Error()}
	}
	last, err := ParseCodePoint(c.Script.Last)
	if err != nil {
		return classify.ScriptRange{}, &apperrors.ValidationError{Field: "script.last", Value: c.Script.Last, Message: err.Error()}
	}
	r := classify.ScriptRange{First: first, Last: last}
	if err := r.Validate(); err != nil {
		return classify.ScriptRange{}, apperrors.NewValidation("script", err.Error())
	}
	return r, nil
}

// ClassifyOptions returns classifier options for the configured values.
func (c *Config) ClassifyOptions() (classify.Options, error) {
	script, err := c.ScriptRange()
	if err != nil {
		return classify.Options{}, err
	}
	trailing, err := classify.ParseTrailingVersePolicy(c.TrailingVerse)
	if err != nil {
		return classify.Options{}, apperrors.NewValidation("trailing_verse", err.Error())
	}
	return classify.Options{Script: script, Trailing: trailing}, nil
}

// NormalizeNFC reports whether paragraph text is NFC-normalized.
func (c *Config) NormalizeNFC() bool {
	return strings.EqualFold(c.Normalize, "nfc")
}

// Logging returns the parsed logger settings.
func (c *Config) Logging() (logging.Level, logging.Format, error) {
	level, err := logging.ParseLevel(c.Log.Level)
	if err != nil {
		return logging.LevelInfo, logging.FormatText, apperrors.NewValidation("log.level", err.Error())
	}
	format, err := logging.ParseFormat(c.Log.Format)
	if err != nil {
		return logging.LevelInfo, logging.FormatText, apperrors.NewValidation("log.format", err.Error())
	}
	return level, format, nil
}

// Marshal renders the settings as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// ParseCodePoint accepts "U+1200", "u+1200", "0x1200" or a single
// character.
func ParseCodePoint(s string) (rune, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty code point")
	}

	for _, prefix := range []string{"U+", "u+", "0x", "0X"} {
		if hex, ok := strings.CutPrefix(s, prefix); ok {
			v, err := strconv.ParseUint(hex, 16, 32)
			if err != nil {
				return 0, fmt.Errorf("bad code point %q", s)
			}
			return rune(v), nil
		}
	}

	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || size != len(s) {
		return 0, fmt.Errorf("bad code point %q: want U+XXXX or one character", s)
	}
	return r, nil
}
