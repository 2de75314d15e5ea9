package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/otparse/core/docx/docxtest"
	"github.com/FocuswithJustin/otparse/internal/config"
	"github.com/FocuswithJustin/otparse/internal/validation"
)

// captureStdout swaps the summary writer for a buffer.
func captureStdout(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = orig })
	return &buf
}

func createTestDocx(t *testing.T, dir string) string {
	t.Helper()
	return docxtest.Write(t, dir, "matthew.docx",
		docxtest.Centered("Matthew"),
		docxtest.Plain("ማቴ["),
		docxtest.Plain("1 The book 2 Abraham"),
	)
}

func createTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}
	return path
}

func TestCLI_Run(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	input := createTestDocx(t, dir)

	cli := &CLI{File: input, Output: input}
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "matthew.xml"))
	if err != nil {
		t.Fatalf("output not written: %v", err)
	}
	want := "<doc>\n<title> Matthew </title>\n" + `<chapter no="ማቴ">` + "\n" +
		`<verse no="1"> The book </verse><verse no="2"> Abraham </verse>` + "\n</chapter>\n</doc>\n"
	if string(data) != want {
		t.Errorf("output = %q, want %q", data, want)
	}

	summary := out.String()
	for _, s := range []string{"Converted: " + input, "Chapters: 1", "Verses: 2", "Chapter numbers: ማቴ", "SHA-256: ", "BLAKE3: ", "Run ID: "} {
		if !strings.Contains(summary, s) {
			t.Errorf("summary missing %q:\n%s", s, summary)
		}
	}
}

func TestCLI_RunJSON(t *testing.T) {
	out := captureStdout(t)
	dir := t.TempDir()
	input := createTestDocx(t, dir)

	cli := &CLI{File: input, Output: filepath.Join(dir, "out.xml"), XZ: true, JSON: true}
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var res struct {
		Output     string `json:"output"`
		Compressed bool   `json:"compressed"`
		RunID      string `json:"run_id"`
		Source     struct {
			SHA256 string `json:"sha256"`
		} `json:"source"`
	}
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, out.String())
	}
	if res.Output != filepath.Join(dir, "out.xml.xz") {
		t.Errorf("output = %q", res.Output)
	}
	if !res.Compressed || res.RunID == "" || len(res.Source.SHA256) != 64 {
		t.Errorf("unexpected summary: %+v", res)
	}
}

func TestCLI_RunErrors(t *testing.T) {
	captureStdout(t)
	dir := t.TempDir()
	input := createTestDocx(t, dir)

	tests := []struct {
		name string
		cli  CLI
	}{
		{"missing output", CLI{File: input}},
		{"missing file", CLI{Output: filepath.Join(dir, "x.xml")}},
		{"corrupt input", CLI{File: createTestFile(t, dir, "bad.docx", "not a zip"), Output: filepath.Join(dir, "bad.xml")}},
		{"bad trailing policy", CLI{File: input, Output: input, TrailingVerse: "maybe"}},
		{"bad log level", CLI{File: input, Output: input, LogLevel: "chatty"}},
		{"missing config", CLI{File: input, Output: input, Config: filepath.Join(dir, "none.yaml")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cli.Run(context.Background()); err == nil {
				t.Error("Run() error = nil, want error")
			}
		})
	}

	if _, err := os.Stat(filepath.Join(dir, "bad.xml")); !os.IsNotExist(err) {
		t.Errorf("failed run left output behind: %v", err)
	}
}

func TestCLI_Settings(t *testing.T) {
	dir := t.TempDir()
	cfgPath := createTestFile(t, dir, "otparse.yaml", "trailing_verse: empty\noutput:\n  compress: true\nlog:\n  level: warn\n")

	cli := &CLI{Config: cfgPath, NoValidate: true, Raw: true, NFC: true, LogLevel: "debug"}
	cfg, err := cli.settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}

	if cfg.TrailingVerse != "empty" {
		t.Errorf("TrailingVerse = %q, want empty from file", cfg.TrailingVerse)
	}
	if !cfg.Output.Compress {
		t.Error("Compress from file was lost")
	}
	if cfg.Output.Validate {
		t.Error("--no-validate did not apply")
	}
	if cfg.EscapeText {
		t.Error("--raw did not apply")
	}
	if !cfg.NormalizeNFC() {
		t.Error("--nfc did not apply")
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, flag should win over file", cfg.Log.Level)
	}
}

func TestCLI_SettingsInvalidConfigPath(t *testing.T) {
	_, err := (&CLI{Config: "bad\x00.yaml"}).settings()
	if err == nil {
		t.Fatal("settings() error = nil, want error")
	}
	if !errors.Is(err, validation.ErrInvalidCharacter) {
		t.Errorf("settings() error = %v, want ErrInvalidCharacter", err)
	}
	if !strings.HasPrefix(err.Error(), "invalid config path ") {
		t.Errorf("error %q lacks config path context", err)
	}
}

func TestCLI_SettingsEnv(t *testing.T) {
	t.Setenv(config.EnvLogFormat, "json")

	cfg, err := (&CLI{}).settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json from environment", cfg.Log.Format)
	}

	cfg, err = (&CLI{LogFormat: "text"}).settings()
	if err != nil {
		t.Fatalf("settings() error = %v", err)
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, flag should win over environment", cfg.Log.Format)
	}
}

func TestCLI_ShowConfig(t *testing.T) {
	out := captureStdout(t)

	cli := &CLI{ShowConfig: true, TrailingVerse: "empty"}
	if err := cli.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := out.String()
	for _, s := range []string{"trailing_verse: empty", "first: U+1200", "validate: true"} {
		if !strings.Contains(got, s) {
			t.Errorf("config output missing %q:\n%s", s, got)
		}
	}
}

func TestKongParse(t *testing.T) {
	dir := t.TempDir()
	input := createTestDocx(t, dir)

	var cli CLI
	parser, err := kong.New(&cli, kong.Name("otparse"), kong.Vars{"version": version})
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	if _, err := parser.Parse([]string{"-f", input, "-o", "out.xml", "--xz", "--log-level", "debug"}); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cli.File != input || !cli.XZ || cli.LogLevel != "debug" {
		t.Errorf("unexpected parse result: %+v", cli)
	}
	if !filepath.IsAbs(cli.Output) {
		t.Errorf("--output should resolve to an absolute path, got %q", cli.Output)
	}

	var missing CLI
	parser, err = kong.New(&missing, kong.Name("otparse"), kong.Vars{"version": version})
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}
	if _, err := parser.Parse([]string{"-f", filepath.Join(dir, "absent.docx")}); err == nil {
		t.Error("Parse() accepted a missing input file")
	}
}

func TestKongHelp_RawMentionsNoValidate(t *testing.T) {
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("otparse"), kong.Vars{"version": version})
	if err != nil {
		t.Fatalf("kong.New() error = %v", err)
	}

	for _, f := range parser.Model.Flags {
		if f.Name != "raw" {
			continue
		}
		if !strings.Contains(f.Help, "--no-validate") {
			t.Errorf("--raw help = %q, want a pointer to --no-validate", f.Help)
		}
		return
	}
	t.Fatal("--raw flag not found")
}
