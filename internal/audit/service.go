package audit

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-form-audit/internal/compare"
	"github.com/a3tai/mcp-form-audit/internal/config"
	"github.com/a3tai/mcp-form-audit/internal/layout"
	"github.com/a3tai/mcp-form-audit/internal/report"
)

// Options configures a Service
type Options struct {
	Directory      string
	DefaultCatalog string
	MaxFileSize    int64
	Limits         layout.Limits
	Utility        compare.Utility
	Sections       []string
	Logger         *log.Logger
}

// Service runs layout validation and document comparison and assembles the
// results into reports. It holds no per-run state.
type Service struct {
	paths          *PathValidator
	defaultCatalog string
	validator      *layout.Validator
	advisor        *layout.Advisor
	importer       *layout.AcroFormImporter
	extractor      *compare.TextExtractor
	fields         *compare.FieldExtractor
	sections       []string
	assembler      *report.Assembler
	logger         *log.Logger
}

// NewService creates a service with all components
func NewService(opts Options) (*Service, error) {
	paths, err := NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	sections := opts.Sections
	if sections == nil {
		sections = compare.DefaultSections
	}

	return &Service{
		paths:          paths,
		defaultCatalog: opts.DefaultCatalog,
		validator:      layout.NewValidator(opts.Limits),
		advisor:        layout.NewAdvisor(opts.Limits, nil),
		importer:       layout.NewAcroFormImporter(logger),
		extractor:      compare.NewTextExtractor(opts.Utility, opts.MaxFileSize, logger),
		fields:         compare.NewFieldExtractor(),
		sections:       sections,
		assembler:      report.NewAssembler(),
		logger:         logger,
	}, nil
}

// NewServiceFromConfig wires a service from loaded configuration
func NewServiceFromConfig(cfg *config.Config, logger *log.Logger) (*Service, error) {
	return NewService(Options{
		Directory:      cfg.Directory,
		DefaultCatalog: cfg.Catalog,
		MaxFileSize:    cfg.MaxFileSize,
		Limits:         cfg.Limits(),
		Utility:        NewUtility(cfg),
		Logger:         logger,
	})
}

// NewUtility selects the text extraction utility named by the configuration.
// "none" yields nil, which sends every document to the byte scan.
func NewUtility(cfg *config.Config) compare.Utility {
	switch cfg.Extractor {
	case config.ExtractorNative:
		return compare.NewNativeUtility(int(cfg.MaxFileSize))
	case config.ExtractorNone:
		return nil
	default:
		return compare.NewCommandUtility(cfg.ExtractorCommand, cfg.ExtractorTimeout)
	}
}

// Directory returns the sandbox directory
func (s *Service) Directory() string {
	return s.paths.Directory()
}

// DefaultCatalog returns the catalog used when a request names none
func (s *Service) DefaultCatalog() string {
	return s.defaultCatalog
}

// ResolvePath resolves a caller-supplied path against the sandbox directory
func (s *Service) ResolvePath(path string) (string, error) {
	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return "", fmt.Errorf("security validation failed: %w", err)
	}
	return resolved, nil
}

// Limits returns the layout heuristics in use
func (s *Service) Limits() layout.Limits {
	return s.validator.Limits()
}

// ValidateLayoutRequest names the catalog to check
type ValidateLayoutRequest struct {
	Catalog            string
	ProximityThreshold float64 // zero uses the configured threshold
}

// ValidateLayout checks one catalog. A missing or unreadable catalog yields a
// clean report with a note. Only sandbox violations are returned as errors.
func (s *Service) ValidateLayout(req ValidateLayoutRequest) (*report.Report, error) {
	lf, err := s.layoutFindings(req.Catalog, req.ProximityThreshold)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(lf, nil), nil
}

// CompareDocumentsRequest names the two documents to compare
type CompareDocumentsRequest struct {
	Reference string
	Candidate string
}

// CompareDocuments extracts fields from both documents and diffs them. Missing
// documents and failed extraction degrade to empty field maps.
func (s *Service) CompareDocuments(ctx context.Context, req CompareDocumentsRequest) (*report.Report, error) {
	cf, err := s.comparisonFindings(ctx, req.Reference, req.Candidate)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(nil, cf), nil
}

// AuditRequest combines a layout check and a document comparison
type AuditRequest struct {
	Catalog            string
	Reference          string
	Candidate          string
	ProximityThreshold float64
}

// Audit runs both engines and returns one report
func (s *Service) Audit(ctx context.Context, req AuditRequest) (*report.Report, error) {
	lf, err := s.layoutFindings(req.Catalog, req.ProximityThreshold)
	if err != nil {
		return nil, err
	}
	cf, err := s.comparisonFindings(ctx, req.Reference, req.Candidate)
	if err != nil {
		return nil, err
	}
	return s.assembler.Assemble(lf, cf), nil
}

// ImportLayoutRequest names a fillable PDF whose widgets become a catalog
type ImportLayoutRequest struct {
	Path   string
	Format layout.Format
	Output string // optional file to write the encoded catalog to
}

// ImportLayoutResult is the imported catalog and its encoding
type ImportLayoutResult struct {
	Source  string
	Catalog *layout.Catalog
	Encoded string
	Written string
}

// ImportLayout reads AcroForm widgets from a PDF and encodes them as a catalog
func (s *Service) ImportLayout(req ImportLayoutRequest) (*ImportLayoutResult, error) {
	path, err := s.paths.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	c, err := s.importer.ImportFile(path)
	if err != nil {
		return nil, err
	}

	format := req.Format
	if format == "" {
		format = layout.FormatJSON
	}
	data, err := c.Encode(format)
	if err != nil {
		return nil, fmt.Errorf("failed to encode catalog: %w", err)
	}

	result := &ImportLayoutResult{Source: path, Catalog: c, Encoded: string(data)}
	if req.Output != "" {
		out, err := s.paths.Resolve(req.Output)
		if err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
		if err := os.WriteFile(out, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write catalog: %w", err)
		}
		result.Written = out
	}
	return result, nil
}

// LoadCatalog resolves and loads a catalog. PDF sources are imported from
// their AcroForm widgets; everything else is parsed as JSON or YAML.
func (s *Service) LoadCatalog(path string) (*layout.Catalog, string, error) {
	if path == "" {
		path = s.defaultCatalog
	}
	if path == "" {
		return layout.NewCatalog(), "", &layout.CatalogError{
			Type:    layout.ErrorTypeCatalogMissing,
			Message: "no catalog source configured",
		}
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, "", fmt.Errorf("security validation failed: %w", err)
	}

	if strings.EqualFold(filepath.Ext(resolved), ".pdf") {
		c, err := s.importer.ImportFile(resolved)
		if err != nil {
			return layout.NewCatalog(), resolved, err
		}
		return c, resolved, nil
	}

	c, err := layout.LoadCatalog(resolved)
	return c, resolved, err
}

func (s *Service) layoutFindings(catalog string, threshold float64) (*report.LayoutFindings, error) {
	c, source, err := s.LoadCatalog(catalog)
	lf := &report.LayoutFindings{Catalog: source}
	if err != nil {
		var ce *layout.CatalogError
		if !errors.As(err, &ce) {
			return nil, err
		}
		s.logger.Printf("catalog unavailable, nothing to validate: %v", err)
		lf.Notes = append(lf.Notes, ce.Error())
		return lf, nil
	}

	lf.FieldCount = c.Len()
	lf.Issues = s.validator.CheckCatalog(c)
	lf.Overlaps = s.validator.FindOverlaps(c)
	lf.ClosePairs = s.validator.FindClosePairs(c, threshold)
	lf.Recommendations = s.advisor.Recommend(c)
	if n := len(c.Issues()); n > 0 {
		lf.Notes = append(lf.Notes, fmt.Sprintf("%d malformed catalog entries skipped", n))
	}
	s.logger.Printf("validated %d fields from %s: %d issues, %d overlaps, %d close pairs",
		lf.FieldCount, source, len(lf.Issues), len(lf.Overlaps), len(lf.ClosePairs))
	return lf, nil
}

func (s *Service) comparisonFindings(ctx context.Context, reference, candidate string) (*report.ComparisonFindings, error) {
	ref, err := s.document(ctx, compare.SourceReference, reference)
	if err != nil {
		return nil, err
	}
	cand, err := s.document(ctx, compare.SourceCandidate, candidate)
	if err != nil {
		return nil, err
	}

	return &report.ComparisonFindings{
		Reference:     ref,
		Candidate:     cand,
		Discrepancies: compare.Diff(ref.Fields, cand.Fields),
	}, nil
}

func (s *Service) document(ctx context.Context, role compare.Source, path string) (*report.Document, error) {
	doc := &report.Document{Role: role, Fields: compare.FieldMap{}}
	if path == "" {
		return doc, nil
	}

	resolved, err := s.paths.Resolve(path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed for %s document: %w", role, err)
	}

	doc.Info = compare.Inspect(resolved)
	if !doc.Info.Exists {
		return doc, nil
	}

	doc.Extraction = s.extractor.ExtractDetailed(ctx, resolved)
	doc.TextLength = len(doc.Extraction.Text)
	doc.Fields = s.fields.ExtractFields(doc.Extraction.Text)
	doc.Sections = compare.SectionPresence(doc.Extraction.Text, s.sections)
	s.logger.Printf("%s document %s: %d characters via %s, %d fields",
		role, resolved, doc.TextLength, doc.Extraction.Strategy, len(doc.Fields))
	return doc, nil
}
