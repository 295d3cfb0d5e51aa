package entity

// Document is the normalized output of the OCR provider boundary: full text,
// a tree of typed entities and per-page layout. Cell and line text is not
// pre-resolved; it is referenced through byte-offset anchors into Text.
type Document struct {
	Text     string
	Entities []Entity
	Pages    []Page
}

// Entity is a typed node produced by the document-understanding service.
// Type is a free-form tag whose vocabulary varies by processor version, so
// consumers must tolerate missing or unexpected types.
type Entity struct {
	Type            string
	MentionText     string
	NormalizedValue *NormalizedValue
	Properties      []Entity
}

// NormalizedValue carries the provider's cleaned-up scalar for an entity.
type NormalizedValue struct {
	Text        string
	NumberValue *float64
}

// Page holds the layout primitives the extractors consume.
type Page struct {
	Lines  []Line
	Tables []Table
}

// Line references one detected text line through its anchor.
type Line struct {
	Anchor TextAnchor
}

// Table is a detected table; header and body rows reference text by anchor.
type Table struct {
	HeaderRows []TableRow
	BodyRows   []TableRow
}

type TableRow struct {
	Cells []TableCell
}

type TableCell struct {
	Anchor TextAnchor
}

// TextAnchor is a list of [start,end) byte ranges into Document.Text.
type TextAnchor struct {
	Segments []TextSegment
}

type TextSegment struct {
	Start int64
	End   int64
}

// ResolveText re-joins the anchored ranges against the document text.
// Out-of-range segments are clamped rather than rejected; OCR offsets are
// occasionally off by a byte at page boundaries.
func (d *Document) ResolveText(anchor TextAnchor) string {
	if d == nil || len(anchor.Segments) == 0 {
		return ""
	}
	out := make([]byte, 0, 64)
	n := int64(len(d.Text))
	for _, seg := range anchor.Segments {
		start, end := seg.Start, seg.End
		if start < 0 {
			start = 0
		}
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		out = append(out, d.Text[start:end]...)
	}
	return string(out)
}
