package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/a3tai/mcp-form-audit/internal/audit"
	"github.com/a3tai/mcp-form-audit/internal/config"
	"github.com/a3tai/mcp-form-audit/internal/layout"
	"github.com/a3tai/mcp-form-audit/internal/report"
	"github.com/fatih/color"
	"github.com/spf13/pflag"
)

// Exit codes
const (
	exitOK       = 0
	exitError    = 1
	exitNotClean = 2
)

type options struct {
	reference  string
	candidate  string
	importPath string
	format     string
	output     string
	strict     bool
	noColor    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newFlagSet(opts *options, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("form_audit", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.reference, "reference", "", "Known-good document to compare against")
	fs.StringVar(&opts.candidate, "candidate", "", "Document to check")
	fs.StringVar(&opts.importPath, "import", "", "Fillable PDF to turn into a catalog instead of auditing")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json (yaml is accepted with --import)")
	fs.StringVarP(&opts.output, "output", "o", "", "Write the result to this file inside --dir instead of stdout")
	fs.BoolVar(&opts.strict, "strict", false, "Exit with status 2 when the report is not clean")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Form Audit - validate field layouts and compare filled documents\n\n")
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  form_audit --catalog fields.json [--reference ref.pdf --candidate out.pdf]\n")
		fmt.Fprintf(stderr, "  form_audit --import form.pdf [--format yaml] [-o fields.yaml]\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}
	return fs
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := newFlagSet(&opts, stderr)

	cfg, err := config.Load(fs, args)
	if errors.Is(err, pflag.ErrHelp) {
		return exitOK
	}
	if errors.Is(err, config.ErrVersionRequested) {
		fmt.Fprintln(stdout, "form_audit", config.DefaultConfig().Version)
		return exitOK
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.noColor {
		color.NoColor = true
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.IsDebug() {
		logger = log.New(stderr, "[FormAudit] ", log.LstdFlags)
	}

	service, err := audit.NewServiceFromConfig(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if opts.importPath != "" {
		return runImport(service, opts, stdout, stderr)
	}
	return runAudit(ctx, service, opts, stdout, stderr)
}

func runImport(service *audit.Service, opts options, stdout, stderr io.Writer) int {
	format := layout.FormatJSON
	switch opts.format {
	case "text", "json":
	case "yaml", "yml":
		format = layout.FormatYAML
	default:
		fmt.Fprintf(stderr, "Error: unsupported format: %s\n", opts.format)
		return exitError
	}

	result, err := service.ImportLayout(audit.ImportLayoutRequest{
		Path:   opts.importPath,
		Format: format,
		Output: opts.output,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error importing layout: %v\n", err)
		return exitError
	}

	for _, issue := range result.Catalog.Issues() {
		fmt.Fprintf(stderr, "%s skipped %s: %s\n", color.YellowString("⚠"), issue.Field, issue.Message)
	}
	if result.Written != "" {
		fmt.Fprintf(stderr, "%s Imported %d fields to %s\n", color.GreenString("✓"), result.Catalog.Len(), result.Written)
		return exitOK
	}
	fmt.Fprint(stdout, result.Encoded)
	return exitOK
}

func runAudit(ctx context.Context, service *audit.Service, opts options, stdout, stderr io.Writer) int {
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: unsupported format: %s\n", opts.format)
		return exitError
	}

	output := ""
	if opts.output != "" {
		resolved, err := service.ResolvePath(opts.output)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return exitError
		}
		output = resolved
	}

	var (
		r   *report.Report
		err error
	)
	if opts.reference == "" && opts.candidate == "" {
		r, err = service.ValidateLayout(audit.ValidateLayoutRequest{})
	} else {
		r, err = service.Audit(ctx, audit.AuditRequest{
			Reference: opts.reference,
			Candidate: opts.candidate,
		})
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	var buf bytes.Buffer
	if opts.format == "json" {
		err = r.WriteJSON(&buf)
	} else {
		if output != "" {
			color.NoColor = true
		}
		err = r.WriteText(&buf)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	if output == "" {
		stdout.Write(buf.Bytes())
	} else {
		if err := os.WriteFile(output, buf.Bytes(), 0o644); err != nil {
			fmt.Fprintf(stderr, "Error: cannot write output file: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stderr, "%s Results saved to: %s\n", color.GreenString("✓"), output)
	}

	if opts.strict && !r.Clean {
		return exitNotClean
	}
	return exitOK
}
