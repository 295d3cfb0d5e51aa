package ocr

import (
	"context"
	"fmt"
	"log/slog"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/api/option"

	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
)

// Processor runs a document through Google Document AI and maps the response
// into the internal document shape the extractors consume.
type Processor interface {
	Process(ctx context.Context, content []byte, mimeType string, docType string) (*entity.Document, error)
	Close() error
}

// DocAI is the production Processor. It routes receipts and statements to
// separate Document AI processors.
type DocAI struct {
	client             *documentai.DocumentProcessorClient
	projectID          string
	location           string
	receiptProcessor   string
	statementProcessor string
	logger             *slog.Logger
}

func NewDocAI(ctx context.Context, cfg common.OCRConfig, logger *slog.Logger, opts ...option.ClientOption) (*DocAI, error) {
	if logger == nil {
		logger = slog.Default()
	}
	endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)
	opts = append([]option.ClientOption{option.WithEndpoint(endpoint)}, opts...)
	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, common.NewAppError("OCR_INIT", "create document ai client", err)
	}
	return &DocAI{
		client:             client,
		projectID:          cfg.ProjectID,
		location:           cfg.Location,
		receiptProcessor:   cfg.ReceiptProcessor,
		statementProcessor: cfg.StatementProcessor,
		logger:             logger,
	}, nil
}

func (d *DocAI) Close() error { return d.client.Close() }

func (d *DocAI) processorName(docType string) string {
	id := d.statementProcessor
	if docType == "receipt" {
		id = d.receiptProcessor
	}
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", d.projectID, d.location, id)
}

// Process OCRs one document. Provider failures surface as
// ErrProviderUnavailable so the pipeline can degrade instead of aborting.
func (d *DocAI) Process(ctx context.Context, content []byte, mimeType string, docType string) (*entity.Document, error) {
	name := d.processorName(docType)
	d.logger.Info("ocr.process.start", "processor", name, "mime", mimeType, "bytes", len(content))

	resp, err := d.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  content,
				MimeType: mimeType,
			},
		},
	})
	if err != nil {
		d.logger.Error("ocr.process.failed", "error", err)
		return nil, common.NewAppError("OCR_FAILED", "document ai process", common.ErrProviderUnavailable)
	}

	doc := mapDocument(resp.GetDocument())
	d.logger.Info("ocr.process.done",
		"text_len", len(doc.Text),
		"entities", len(doc.Entities),
		"pages", len(doc.Pages))
	return doc, nil
}

// mapDocument flattens the Document AI response into the internal shape.
func mapDocument(src *documentaipb.Document) *entity.Document {
	if src == nil {
		return &entity.Document{}
	}
	doc := &entity.Document{Text: src.GetText()}
	for _, e := range src.GetEntities() {
		doc.Entities = append(doc.Entities, mapEntity(e))
	}
	for _, p := range src.GetPages() {
		doc.Pages = append(doc.Pages, mapPage(p))
	}
	return doc
}

// mapEntity converts one entity subtree with an explicit work list, the same
// bounded traversal the extractors use on the mapped tree.
func mapEntity(src *documentaipb.Document_Entity) entity.Entity {
	root := mapEntityFields(src)

	type frame struct {
		src *documentaipb.Document_Entity
		dst *entity.Entity
	}
	stack := []frame{{src, &root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		props := f.src.GetProperties()
		if len(props) == 0 {
			continue
		}
		f.dst.Properties = make([]entity.Entity, len(props))
		for i, p := range props {
			f.dst.Properties[i] = mapEntityFields(p)
			stack = append(stack, frame{p, &f.dst.Properties[i]})
		}
	}
	return root
}

func mapEntityFields(src *documentaipb.Document_Entity) entity.Entity {
	out := entity.Entity{
		Type:        src.GetType(),
		MentionText: src.GetMentionText(),
	}
	if nv := src.GetNormalizedValue(); nv != nil {
		out.NormalizedValue = &entity.NormalizedValue{Text: nv.GetText()}
		if f, ok := nv.GetStructuredValue().(*documentaipb.Document_Entity_NormalizedValue_FloatValue); ok {
			v := float64(f.FloatValue)
			out.NormalizedValue.NumberValue = &v
		}
	}
	return out
}

func mapPage(src *documentaipb.Document_Page) entity.Page {
	var page entity.Page
	for _, l := range src.GetLines() {
		page.Lines = append(page.Lines, entity.Line{Anchor: mapAnchor(l.GetLayout())})
	}
	for _, t := range src.GetTables() {
		page.Tables = append(page.Tables, mapTable(t))
	}
	return page
}

func mapTable(src *documentaipb.Document_Page_Table) entity.Table {
	var table entity.Table
	for _, r := range src.GetHeaderRows() {
		table.HeaderRows = append(table.HeaderRows, mapRow(r))
	}
	for _, r := range src.GetBodyRows() {
		table.BodyRows = append(table.BodyRows, mapRow(r))
	}
	return table
}

func mapRow(src *documentaipb.Document_Page_Table_TableRow) entity.TableRow {
	var row entity.TableRow
	for _, c := range src.GetCells() {
		row.Cells = append(row.Cells, entity.TableCell{Anchor: mapAnchor(c.GetLayout())})
	}
	return row
}

func mapAnchor(layout *documentaipb.Document_Page_Layout) entity.TextAnchor {
	var anchor entity.TextAnchor
	if layout == nil {
		return anchor
	}
	for _, seg := range layout.GetTextAnchor().GetTextSegments() {
		anchor.Segments = append(anchor.Segments, entity.TextSegment{
			Start: seg.GetStartIndex(),
			End:   seg.GetEndIndex(),
		})
	}
	return anchor
}
