package layout

import (
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

const (
	pointsToMillimetres = 25.4 / 72
	letterHeightPoints  = 792.0

	flagMultiline  = 1 << 12 // Tx: bit 13
	flagRadio      = 1 << 15 // Btn: bit 16
	flagPushbutton = 1 << 16 // Btn: bit 17
)

// AcroFormImporter derives a catalog from the widget rectangles of a
// fillable PDF using pdfcpu
type AcroFormImporter struct {
	logger *log.Logger
}

// NewAcroFormImporter creates an importer; a nil logger discards output
func NewAcroFormImporter(logger *log.Logger) *AcroFormImporter {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &AcroFormImporter{logger: logger}
}

// ImportFile reads the AcroForm of the PDF at path
func (im *AcroFormImporter) ImportFile(path string) (*Catalog, error) {
	file, err := os.Open(path)
	if err != nil {
		return NewCatalog(), newCatalogMissing(path, "cannot open PDF", err)
	}
	defer file.Close()

	c, err := im.Import(file)
	if ce, ok := err.(*CatalogError); ok {
		ce.Source = path
	}
	return c, err
}

// Import reads the AcroForm from rs. Widgets are converted from PDF points
// (bottom-left origin) to millimetres from the top-left of the first page.
func (im *AcroFormImporter) Import(rs io.ReadSeeker) (*Catalog, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(rs, conf)
	if err != nil {
		return NewCatalog(), &CatalogError{Type: ErrorTypeInvalidForm, Message: "failed to read PDF context", Err: err}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return NewCatalog(), &CatalogError{Type: ErrorTypeInvalidForm, Message: "failed to ensure page count", Err: err}
	}

	pageHeight := letterHeightPoints
	if dims, err := ctx.PageDims(); err == nil && len(dims) > 0 && dims[0].Height > 0 {
		pageHeight = dims[0].Height
	}

	rootDict, err := ctx.Catalog()
	if err != nil {
		return NewCatalog(), &CatalogError{Type: ErrorTypeInvalidForm, Message: "failed to get catalog", Err: err}
	}

	acroFormObj, found := rootDict.Find("AcroForm")
	if !found {
		im.logger.Printf("no AcroForm dictionary found in document")
		return NewCatalog(), nil
	}
	acroFormDict, err := ctx.DereferenceDict(acroFormObj)
	if err != nil || acroFormDict == nil {
		return NewCatalog(), &CatalogError{Type: ErrorTypeInvalidForm, Message: "failed to dereference AcroForm", Err: err}
	}

	fieldsObj, found := acroFormDict.Find("Fields")
	if !found {
		return NewCatalog(), nil
	}
	fieldsArray, err := ctx.DereferenceArray(fieldsObj)
	if err != nil {
		return NewCatalog(), &CatalogError{Type: ErrorTypeInvalidForm, Message: "failed to dereference Fields array", Err: err}
	}

	w := &widgetWalker{ctx: ctx, pageHeight: pageHeight, logger: im.logger}
	for i, fieldRef := range fieldsArray {
		w.walk(fieldRef, "", "", 0, i)
	}

	c := NewCatalog(w.defs...)
	c.issues = w.issues
	return c, nil
}

type widgetWalker struct {
	ctx        *model.Context
	pageHeight float64
	logger     *log.Logger
	defs       []FieldDefinition
	issues     []Issue
}

// walk visits a field node. Kids that carry their own T entry are child
// fields; kids without one are widget annotations of this field.
func (w *widgetWalker) walk(obj types.Object, parentName, parentFT string, parentFlags, index int) {
	dict, err := w.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		w.logger.Printf("skipping field %d: %v", index, err)
		return
	}

	name := w.partialName(dict)
	if name == "" {
		name = fmt.Sprintf("field_%d", index)
	}
	if parentName != "" {
		name = parentName + "." + name
	}

	ft := parentFT
	if ftObj, found := dict.Find("FT"); found {
		if n, err := w.ctx.DereferenceName(ftObj, model.V10, nil); err == nil {
			ft = string(n)
		}
	}
	flags := parentFlags
	if flagsObj, found := dict.Find("Ff"); found {
		if f, err := w.ctx.DereferenceInteger(flagsObj); err == nil && f != nil {
			flags = int(*f)
		}
	}

	var widget types.Dict
	if kidsObj, found := dict.Find("Kids"); found {
		if kids, err := w.ctx.DereferenceArray(kidsObj); err == nil && len(kids) > 0 {
			first, err := w.ctx.DereferenceDict(kids[0])
			if err == nil && first != nil {
				if _, named := first.Find("T"); named {
					for i, kid := range kids {
						w.walk(kid, name, ft, flags, i)
					}
					return
				}
				widget = first
			}
		}
	}
	if widget == nil {
		widget = dict
	}

	fieldType, ok := mapFieldType(ft, flags)
	if !ok {
		w.logger.Printf("skipping field %s with unsupported type %q", name, ft)
		return
	}

	rectObj, found := widget.Find("Rect")
	if !found {
		w.issues = append(w.issues, Issue{Field: name, Kind: IssueMalformedEntry, Message: "widget has no Rect"})
		return
	}
	llx, lly, urx, ury, ok := w.rect(rectObj)
	if !ok {
		w.issues = append(w.issues, Issue{Field: name, Kind: IssueMalformedEntry, Message: "widget Rect is not four numbers"})
		return
	}

	label := name
	if tuObj, found := dict.Find("TU"); found {
		if tu, err := w.ctx.DereferenceStringOrHexLiteral(tuObj, model.V10, nil); err == nil && tu != "" {
			label = tu
		}
	}

	w.defs = append(w.defs, FieldDefinition{
		Key:    name,
		Label:  label,
		X:      roundMM(llx * pointsToMillimetres),
		Y:      roundMM((w.pageHeight - ury) * pointsToMillimetres),
		Width:  roundMM((urx - llx) * pointsToMillimetres),
		Height: roundMM((ury - lly) * pointsToMillimetres),
		Type:   fieldType,
	})
}

func (w *widgetWalker) partialName(dict types.Dict) string {
	nameObj, found := dict.Find("T")
	if !found {
		return ""
	}
	name, err := w.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// rect returns a normalised rectangle so that ll is below and left of ur
func (w *widgetWalker) rect(obj types.Object) (llx, lly, urx, ury float64, ok bool) {
	arr, err := w.ctx.DereferenceArray(obj)
	if err != nil || len(arr) != 4 {
		return 0, 0, 0, 0, false
	}
	coords := make([]float64, 4)
	for i, c := range arr {
		f, err := w.ctx.DereferenceNumber(c)
		if err != nil {
			return 0, 0, 0, 0, false
		}
		coords[i] = f
	}
	llx, urx = minMax(coords[0], coords[2])
	lly, ury = minMax(coords[1], coords[3])
	return llx, lly, urx, ury, true
}

func mapFieldType(ft string, flags int) (FieldType, bool) {
	switch ft {
	case "Tx":
		if flags&flagMultiline != 0 {
			return FieldTypeTextarea, true
		}
		return FieldTypeText, true
	case "Btn":
		if flags&(flagRadio|flagPushbutton) != 0 {
			return "", false
		}
		return FieldTypeCheckbox, true
	case "Ch":
		return FieldTypeSelect, true
	default:
		return "", false
	}
}

func minMax(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}

func roundMM(v float64) float64 {
	return math.Round(v*100) / 100
}
