package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/banks"
	"github.com/dmaraujo/finpipe/internal/classify"
	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/extract"
	"github.com/dmaraujo/finpipe/internal/llm"
	"github.com/dmaraujo/finpipe/internal/ocr"
)

// JobStore persists extraction job state.
type JobStore interface {
	Create(ctx context.Context, job *entity.ExtractJob) error
	Update(ctx context.Context, job *entity.ExtractJob) error
}

// Result is everything one document produced.
type Result struct {
	Job          *entity.ExtractJob
	DocType      constants.DocType
	Institution  string
	Strategy     string
	Transactions []entity.ExtractedTransaction
	Receipt      *entity.ExtractedReceipt
}

// Pipeline runs one uploaded document through quota gate, OCR,
// classification, institution detection and the extraction cascade. The LLM
// is an augmenting strategy: its failures degrade to the heuristic result,
// they never abort the run.
type Pipeline struct {
	ocr     ocr.Processor
	limiter *ocr.Limiter
	llm     llm.Extractor // nil disables LLM strategies
	jobs    JobStore
	logger  *slog.Logger
	now     func() time.Time
}

func New(proc ocr.Processor, limiter *ocr.Limiter, model llm.Extractor, jobs JobStore, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		ocr:     proc,
		limiter: limiter,
		llm:     model,
		jobs:    jobs,
		logger:  logger,
		now:     time.Now,
	}
}

// Process ingests one document. docTypeHint, when valid, overrides the
// classifier entirely.
func (p *Pipeline) Process(ctx context.Context, userID uuid.UUID, filename string, content []byte, docTypeHint string) (*Result, error) {
	ext := constants.NormalizeExt(filepath.Ext(filename))
	if _, ok := constants.AllowedExtensions[ext]; !ok {
		return nil, common.NewAppError("BAD_FILE_TYPE", "unsupported file extension "+ext, common.ErrInvalidInput)
	}
	mime := constants.MimeTypes[ext]

	job := &entity.ExtractJob{
		ID:        uuid.New(),
		UserID:    userID,
		Filename:  filename,
		Status:    string(constants.JobStatusQueued),
		StartedAt: p.now(),
	}
	if err := p.jobs.Create(ctx, job); err != nil {
		return nil, err
	}
	job.Status = string(constants.JobStatusRunning)

	res, err := p.run(ctx, job, filename, content, mime, docTypeHint)
	if err != nil {
		msg := err.Error()
		job.ErrorMessage = &msg
		job.Status = string(constants.JobStatusFailed)
		p.finish(ctx, job)
		return nil, err
	}
	p.finish(ctx, job)
	return res, nil
}

func (p *Pipeline) finish(ctx context.Context, job *entity.ExtractJob) {
	now := p.now()
	job.FinishedAt = &now
	if err := p.jobs.Update(ctx, job); err != nil {
		p.logger.Error("pipeline.job_update_failed", "job_id", job.ID, "error", err)
	}
}

func (p *Pipeline) run(ctx context.Context, job *entity.ExtractJob, filename string, content []byte, mime, docTypeHint string) (*Result, error) {
	now := p.now()
	if err := p.limiter.Allow(ctx, now); err != nil {
		return nil, err
	}

	hint := constants.DocType(docTypeHint)
	if !hint.Valid() {
		hint = ""
	}

	doc, err := p.ocr.Process(ctx, content, mime, string(hint))
	if err != nil {
		return nil, err
	}
	if err := p.limiter.Record(ctx, now); err != nil {
		p.logger.Warn("pipeline.usage_record_failed", "error", err)
	}
	job.OCRText = &doc.Text
	job.Status = string(constants.JobStatusOCROK)

	docType := hint
	if docType == "" {
		docType = classify.Classify(doc.Text, doc.Entities, filename)
	}
	dt := string(docType)
	job.DocType = &dt

	var res *Result
	if docType == constants.DocTypeReceipt {
		res = p.runReceipt(ctx, doc, now)
	} else {
		res, err = p.runStatement(ctx, doc, docType, filename, now)
		if err != nil {
			return nil, err
		}
	}
	res.DocType = docType
	res.Job = job

	for i := range res.Transactions {
		if res.Transactions[i].SuggestedCategory == "" {
			res.Transactions[i].SuggestedCategory = string(constants.SuggestCategory(res.Transactions[i].Description))
		}
	}

	if res.Institution != "" {
		job.Institution = &res.Institution
	}
	job.Strategy = &res.Strategy
	if extracted, err := json.Marshal(res.Transactions); err == nil {
		job.ExtractedJSON = extracted
	}
	job.Status = string(constants.JobStatusParsed)

	p.logger.Info("pipeline.done",
		"job_id", job.ID,
		"doc_type", docType,
		"institution", res.Institution,
		"strategy", res.Strategy,
		"transactions", len(res.Transactions))
	return res, nil
}

// runReceipt extracts the itemized receipt and derives one outflow
// transaction from its header.
func (p *Pipeline) runReceipt(ctx context.Context, doc *entity.Document, now time.Time) *Result {
	res := &Result{Strategy: "receipt"}
	if store, ok := banks.DetectStore(doc.Text); ok {
		res.Institution = store
	}

	rec := extract.ExtractReceipt(doc, now)
	if p.llm != nil && extract.IsPoorReceiptItems(rec.Items) {
		cleaned, err := p.llm.CleanupReceiptItems(ctx, rec.Items, rec.Merchant, rec.Total)
		if err != nil {
			p.logger.Warn("pipeline.receipt_cleanup_miss", "error", err)
		} else {
			rec.Items = cleaned
			res.Strategy = "receipt+llm"
		}
	}
	rec.Normalize()
	res.Receipt = rec

	if rec.Total != nil {
		amount := -*rec.Total
		date := rec.Date
		if date == "" {
			date = now.Format("2006-01-02")
		}
		desc := rec.Merchant
		if desc == "" {
			desc = res.Institution
		}
		if desc == "" {
			desc = "Compra"
		}
		res.Transactions = []entity.ExtractedTransaction{{
			Date:        date,
			Description: desc,
			Amount:      &amount,
		}}
	}
	return res
}

// runStatement tries the institution parser first, then the generic cascade,
// then the LLM. Every strategy miss falls through; only a full miss is an
// error.
func (p *Pipeline) runStatement(ctx context.Context, doc *entity.Document, docType constants.DocType, filename string, now time.Time) (*Result, error) {
	res := &Result{}

	if parser, ok := banks.Detect(doc.Text); ok {
		res.Institution = parser.Name
		txs := parser.Parse(doc, now)
		if len(txs) > 0 {
			res.Strategy = "bank:" + parser.Name
			res.Transactions = txs
			return res, nil
		}
		p.logger.Info("pipeline.bank_parser_miss", "institution", parser.Name)
	}

	txs, strategy := extract.Transactions(doc, now, p.logger)
	if len(txs) > 0 {
		res.Strategy = strategy
		res.Transactions = txs
		return res, nil
	}

	if p.llm != nil {
		out, err := p.llm.ExtractTransactions(ctx, llm.ExtractRequest{
			OCRText:     doc.Text,
			Filename:    filename,
			DocTypeHint: string(docType),
			Categories:  constants.AsStringSlice(),
		})
		if err != nil {
			p.logger.Warn("pipeline.llm_miss", "error", err)
		} else if txs := out.ToExtracted(); len(txs) > 0 {
			res.Strategy = "llm"
			res.Transactions = txs
			return res, nil
		}
	}

	return nil, common.NewAppError("NO_TRANSACTIONS", "no strategy produced transactions", common.ErrNoTransactions)
}
