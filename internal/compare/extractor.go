package compare

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
)

// ErrUtilityUnavailable is returned when an extraction utility cannot run in
// the current environment
var ErrUtilityUnavailable = errors.New("extraction utility unavailable")

// ErrNoText is returned when a utility ran but recovered no text
var ErrNoText = errors.New("no text extracted")

// Utility is a text-extraction collaborator invoked with a document path
type Utility interface {
	Name() string
	Extract(ctx context.Context, path string) (string, error)
}

// CommandUtility runs an external program such as pdftotext and returns its stdout
type CommandUtility struct {
	command string
	args    []string
	timeout time.Duration
}

// NewCommandUtility creates a utility invoking `command <path> -`. A zero
// timeout leaves the call unbounded.
func NewCommandUtility(command string, timeout time.Duration) *CommandUtility {
	return &CommandUtility{
		command: command,
		args:    []string{"{path}", "-"},
		timeout: timeout,
	}
}

// Name returns the command name
func (u *CommandUtility) Name() string {
	return u.command
}

// Extract runs the command. A missing binary yields ErrUtilityUnavailable and
// a non-zero exit yields a wrapped error.
func (u *CommandUtility) Extract(ctx context.Context, path string) (string, error) {
	bin, err := exec.LookPath(u.command)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUtilityUnavailable, u.command, err)
	}

	if u.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, u.timeout)
		defer cancel()
	}

	args := make([]string, len(u.args))
	for i, a := range u.args {
		args[i] = strings.ReplaceAll(a, "{path}", path)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", fmt.Errorf("%s failed: %w: %s", u.command, err, msg)
		}
		return "", fmt.Errorf("%s failed: %w", u.command, err)
	}
	return string(out), nil
}

// NativeUtility extracts plain text in-process with ledongthuc/pdf
type NativeUtility struct {
	maxTextSize int
}

// NewNativeUtility creates an in-process extractor capped at maxTextSize bytes
func NewNativeUtility(maxTextSize int) *NativeUtility {
	if maxTextSize <= 0 {
		maxTextSize = 10 * 1024 * 1024
	}
	return &NativeUtility{maxTextSize: maxTextSize}
}

// Name identifies the utility
func (u *NativeUtility) Name() string {
	return "ledongthuc/pdf"
}

// Extract concatenates the plain text of every page. A document without
// any extractable text yields ErrNoText so the caller can fall back.
func (u *NativeUtility) Extract(_ context.Context, path string) (text string, err error) {
	defer func() {
		// The parser panics on some malformed inputs
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf parser panic: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var builder strings.Builder
	extracted := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		extracted++
		if builder.Len()+len(content) > u.maxTextSize {
			builder.WriteString(truncateUTF8(content, u.maxTextSize-builder.Len()))
			break
		}
		builder.WriteString(content)
		if pageNum < reader.NumPage() {
			builder.WriteString("\n")
		}
	}
	if extracted == 0 || strings.TrimSpace(builder.String()) == "" {
		return "", ErrNoText
	}
	return builder.String(), nil
}

// truncateUTF8 cuts s to at most n bytes without splitting a rune
func truncateUTF8(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if n >= len(s) {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Strategy records which path produced a document's text
type Strategy string

const (
	StrategyUtility  Strategy = "utility"
	StrategyFallback Strategy = "fallback"
)

// Extraction is the text of one document and how it was obtained
type Extraction struct {
	Text     string   `json:"-"`
	Strategy Strategy `json:"strategy"`
	Utility  string   `json:"utility,omitempty"`
	Error    string   `json:"error,omitempty"`
}

// TextExtractor produces best-effort plain text from a document: first via a
// Utility, then by scanning the raw bytes for stream segments. It never fails;
// the worst case is empty text.
type TextExtractor struct {
	utility     Utility
	maxFileSize int64
	logger      *log.Logger
}

// NewTextExtractor creates an extractor. A nil utility skips straight to the
// byte scan; a non-positive maxFileSize disables the size guard.
func NewTextExtractor(utility Utility, maxFileSize int64, logger *log.Logger) *TextExtractor {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &TextExtractor{
		utility:     utility,
		maxFileSize: maxFileSize,
		logger:      logger,
	}
}

// Extract returns the document's text, possibly empty
func (e *TextExtractor) Extract(ctx context.Context, path string) string {
	return e.ExtractDetailed(ctx, path).Text
}

// ExtractDetailed returns the text along with the strategy that produced it
func (e *TextExtractor) ExtractDetailed(ctx context.Context, path string) Extraction {
	var utilityErr error
	if e.utility != nil {
		text, err := e.utility.Extract(ctx, path)
		if err == nil {
			return Extraction{Text: text, Strategy: StrategyUtility, Utility: e.utility.Name()}
		}
		utilityErr = err
		e.logger.Printf("utility %s failed for %s, scanning raw bytes: %v", e.utility.Name(), path, err)
	}

	result := Extraction{Strategy: StrategyFallback}
	if utilityErr != nil {
		result.Error = utilityErr.Error()
	}

	data, err := e.readDocument(path)
	if err != nil {
		e.logger.Printf("fallback scan skipped for %s: %v", path, err)
		return result
	}
	result.Text = ScanStreams(data)
	return result
}

func (e *TextExtractor) readDocument(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, not a file: %s", path)
	}
	if e.maxFileSize > 0 && info.Size() > e.maxFileSize {
		return nil, fmt.Errorf("file too large: %d bytes (max: %d bytes)", info.Size(), e.maxFileSize)
	}
	return os.ReadFile(path)
}

var (
	streamMarker    = []byte("stream")
	endstreamMarker = []byte("endstream")
)

// ScanStreams decodes every stream/endstream delimited segment as ISO-8859-1,
// keeps printable and whitespace characters and terminates each fragment with
// a newline. Input without markers yields "".
func ScanStreams(data []byte) string {
	var builder strings.Builder
	for _, segment := range SegmentStreams(data) {
		builder.WriteString(FilterPrintable(decodeLatin1(segment)))
		builder.WriteByte('\n')
	}
	return builder.String()
}

// SegmentStreams returns the byte ranges between each "stream" keyword and
// the next "endstream". The end-of-line after the keyword and before
// endstream is not part of the segment. An unterminated stream is dropped.
func SegmentStreams(data []byte) [][]byte {
	var segments [][]byte
	pos := 0
	for pos < len(data) {
		idx := indexStreamKeyword(data, pos)
		if idx < 0 {
			break
		}
		start := idx + len(streamMarker)
		for start < len(data) && (data[start] == ' ' || data[start] == '\t' || data[start] == '\r') {
			start++
		}
		if start < len(data) && data[start] == '\n' {
			start++
		}

		rel := bytes.Index(data[start:], endstreamMarker)
		if rel < 0 {
			break
		}
		end := start + rel
		segment := data[start:end]
		segment = bytes.TrimSuffix(segment, []byte("\n"))
		segment = bytes.TrimSuffix(segment, []byte("\r"))
		segments = append(segments, segment)

		pos = end + len(endstreamMarker)
	}
	return segments
}

// indexStreamKeyword finds the next "stream" at or after pos that is not the
// tail of an "endstream"
func indexStreamKeyword(data []byte, pos int) int {
	for pos < len(data) {
		rel := bytes.Index(data[pos:], streamMarker)
		if rel < 0 {
			return -1
		}
		idx := pos + rel
		if idx >= 3 && bytes.Equal(data[idx-3:idx], []byte("end")) {
			pos = idx + len(streamMarker)
			continue
		}
		return idx
	}
	return -1
}

// decodeLatin1 maps every byte to a rune; it cannot fail
func decodeLatin1(segment []byte) string {
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(segment)
	if err != nil {
		return ""
	}
	return string(decoded)
}

// FilterPrintable drops every rune that is neither printable nor whitespace
func FilterPrintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, s)
}
