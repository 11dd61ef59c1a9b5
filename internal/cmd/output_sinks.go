package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/namelens/adlens/internal/output"
	"github.com/namelens/adlens/internal/view"
)

type outputSink struct {
	writer io.Writer
	close  func() error
	path   string
}

func (s *outputSink) isTerminal() bool {
	file, ok := s.writer.(*os.File)
	return ok && term.IsTerminal(int(file.Fd()))
}

func outputExtension(format output.Format) string {
	switch format {
	case output.FormatJSON:
		return "json"
	case output.FormatYAML:
		return "yaml"
	case output.FormatMarkdown:
		return "md"
	case output.FormatHTML:
		return "html"
	default:
		return "txt"
	}
}

var nonFilename = regexp.MustCompile(`[^a-z0-9._-]+`)

func sanitizeFilename(value string) string {
	clean := strings.ToLower(strings.TrimSpace(value))
	clean = nonFilename.ReplaceAllString(clean, "-")
	clean = strings.Trim(clean, "-.")
	if clean == "" {
		return "output"
	}
	return clean
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "table", "Output format: table, json, yaml, markdown, html")
	cmd.Flags().String("out", "", "Write output to this file ('-' for stdout)")
	cmd.Flags().String("out-dir", "", "Write output to a file named after the query in this directory")
	cmd.Flags().Bool("no-color", false, "Disable colour in table output")
}

func resolveOutputFormat(cmd *cobra.Command) (output.Format, error) {
	value, err := cmd.Flags().GetString("output")
	if err != nil {
		return "", err
	}
	return output.ParseFormat(value)
}

func resolveOutputTargets(cmd *cobra.Command) (outPath string, outDir string, err error) {
	outPath, err = cmd.Flags().GetString("out")
	if err != nil {
		return "", "", err
	}
	outDir, err = cmd.Flags().GetString("out-dir")
	if err != nil {
		return "", "", err
	}
	if strings.TrimSpace(outPath) != "" && strings.TrimSpace(outDir) != "" {
		return "", "", fmt.Errorf("--out and --out-dir are mutually exclusive")
	}
	return strings.TrimSpace(outPath), strings.TrimSpace(outDir), nil
}

// sinkFor resolves --out/--out-dir; name is the base file name used with --out-dir.
func sinkFor(cmd *cobra.Command, format output.Format, name string) (*outputSink, error) {
	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return nil, err
	}
	if outDir != "" {
		dir, err := ensureOutDir(outDir)
		if err != nil {
			return nil, err
		}
		outPath = filepath.Join(dir, sanitizeFilename(name)+"."+outputExtension(format))
	}
	sink, err := openSink(outPath)
	if err != nil {
		return nil, err
	}
	if sink.path == "-" {
		sink.writer = cmd.OutOrStdout()
	}
	return sink, nil
}

func openSink(path string) (*outputSink, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || trimmed == "-" {
		return &outputSink{writer: os.Stdout, close: func() error { return nil }, path: "-"}, nil
	}

	if err := os.MkdirAll(filepath.Dir(trimmed), 0755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	file, err := os.Create(trimmed)
	if err != nil {
		return nil, err
	}
	return &outputSink{writer: file, close: file.Close, path: trimmed}, nil
}

func ensureOutDir(dir string) (string, error) {
	clean := strings.TrimSpace(dir)
	if clean == "" {
		return "", nil
	}
	if err := os.MkdirAll(clean, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	abs, err := filepath.Abs(clean)
	if err != nil {
		return clean, nil
	}
	return abs, nil
}

// renderView formats v and writes it to the sink selected by the output flags.
// Colour is used only for table output on a terminal.
func renderView(cmd *cobra.Command, v *view.View, name string, legacy bool) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}
	sink, err := sinkFor(cmd, format, name)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	noColor, _ := cmd.Flags().GetBool("no-color")
	formatter := output.NewFormatter(format, output.Options{
		Color:  !noColor && sink.isTerminal(),
		Legacy: legacy,
	})
	rendered, err := formatter.Format(v)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(sink.writer, rendered); err != nil {
		return err
	}
	if sink.path != "-" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", sink.path)
	}
	return nil
}
