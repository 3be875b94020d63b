package compare

import (
	"os"

	"github.com/ledongthuc/pdf"
)

// DocumentInfo is basic metadata about a document on disk
type DocumentInfo struct {
	Path   string `json:"path"`
	Exists bool   `json:"exists"`
	Size   int64  `json:"size"`
	Pages  int    `json:"pages,omitempty"`
}

// Inspect stats the document and counts pages when it parses as a PDF.
// Any failure leaves the corresponding field at its zero value.
func Inspect(path string) DocumentInfo {
	info := DocumentInfo{Path: path}
	if path == "" {
		return info
	}

	fileInfo, err := os.Stat(path)
	if err != nil || fileInfo.IsDir() {
		return info
	}
	info.Exists = true
	info.Size = fileInfo.Size()
	info.Pages = countPages(path)
	return info
}

func countPages(path string) (pages int) {
	defer func() {
		if recover() != nil {
			pages = 0
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return 0
	}
	defer f.Close()
	return reader.NumPage()
}
