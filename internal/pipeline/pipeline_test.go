package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/common"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/llm"
	"github.com/dmaraujo/finpipe/internal/ocr"
)

type fakeProcessor struct {
	doc *entity.Document
	err error
}

func (f *fakeProcessor) Process(context.Context, []byte, string, string) (*entity.Document, error) {
	return f.doc, f.err
}

func (f *fakeProcessor) Close() error { return nil }

type memUsageStore struct {
	count int
}

func (m *memUsageStore) CountOn(context.Context, time.Time) (int, error) { return m.count, nil }

func (m *memUsageStore) Increment(context.Context, time.Time) error {
	m.count++
	return nil
}

type memJobStore struct {
	created []*entity.ExtractJob
	updated []*entity.ExtractJob
}

func (m *memJobStore) Create(_ context.Context, job *entity.ExtractJob) error {
	m.created = append(m.created, job)
	return nil
}

func (m *memJobStore) Update(_ context.Context, job *entity.ExtractJob) error {
	m.updated = append(m.updated, job)
	return nil
}

type fakeLLM struct {
	statement    *llm.StatementResult
	statementErr error
	cleaned      []entity.ReceiptItem
	cleanupErr   error
}

func (f *fakeLLM) ExtractTransactions(context.Context, llm.ExtractRequest) (*llm.StatementResult, error) {
	return f.statement, f.statementErr
}

func (f *fakeLLM) CleanupReceiptItems(context.Context, []entity.ReceiptItem, string, *float64) ([]entity.ReceiptItem, error) {
	return f.cleaned, f.cleanupErr
}

func newTestPipeline(doc *entity.Document, model llm.Extractor, jobs *memJobStore) *Pipeline {
	// limit 0 disables the quota gate
	return New(&fakeProcessor{doc: doc}, ocr.NewLimiter(nil, 0, nil), model, jobs, nil)
}

const statementText = "Extrato\n15/03/2024 COMPRA FARMACIA CENTRAL 12,50\n16/03/2024 TRF RECEBIDA 200,00"

func TestProcessStatementCascade(t *testing.T) {
	jobs := &memJobStore{}
	doc := &entity.Document{Text: statementText}
	p := newTestPipeline(doc, nil, jobs)

	res, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "")
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeBankStatement, res.DocType)
	assert.Equal(t, "text", res.Strategy)
	require.Len(t, res.Transactions, 2)
	assert.NotEmpty(t, res.Transactions[0].SuggestedCategory)

	require.Len(t, jobs.created, 1)
	require.Len(t, jobs.updated, 1)
	job := jobs.updated[0]
	assert.Equal(t, string(constants.JobStatusParsed), job.Status)
	require.NotNil(t, job.Strategy)
	assert.Equal(t, "text", *job.Strategy)
	assert.NotNil(t, job.FinishedAt)
	assert.NotEmpty(t, job.ExtractedJSON)
}

func TestProcessStatementBankParserWins(t *testing.T) {
	jobs := &memJobStore{}
	doc := &entity.Document{Text: "CAIXA GERAL DE DEPOSITOS\n" +
		"01.03.2024 01.03.2024 COMPRA CONTINENTE 45,90- 1.954,10"}
	p := newTestPipeline(doc, nil, jobs)

	res, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "bank_statement")
	require.NoError(t, err)
	assert.Equal(t, "CGD", res.Institution)
	assert.Equal(t, "bank:CGD", res.Strategy)
	require.Len(t, res.Transactions, 1)
}

func TestProcessReceiptDerivesOutflowTransaction(t *testing.T) {
	jobs := &memJobStore{}
	doc := &entity.Document{Text: "CONTINENTE MATOSINHOS\nFatura Simplificada\n" +
		"LEITE MEIO GORDO 0,89\nPAO DE FORMA 1,49\nARROZ AGULHA 1,20\nTotal 3,58"}
	p := newTestPipeline(doc, nil, jobs)

	res, err := p.Process(context.Background(), uuid.New(), "recibo.jpg", []byte("jpg"), "receipt")
	require.NoError(t, err)
	assert.Equal(t, constants.DocTypeReceipt, res.DocType)
	assert.Equal(t, "CONTINENTE", res.Institution)
	require.NotNil(t, res.Receipt)
	assert.Len(t, res.Receipt.Items, 3)

	require.Len(t, res.Transactions, 1)
	tx := res.Transactions[0]
	require.NotNil(t, tx.Amount)
	assert.InDelta(t, -3.58, *tx.Amount, 0.0001)
	assert.Equal(t, "CONTINENTE", tx.Description)
}

func TestProcessStatementLLMFallback(t *testing.T) {
	jobs := &memJobStore{}
	doc := &entity.Document{Text: "Extrato ilegivel sem linhas reconheciveis"}
	model := &fakeLLM{statement: &llm.StatementResult{
		DocType: "bank_statement",
		Transactions: []llm.TransactionJSON{
			{Date: "2024-03-15", Description: "COMPRA LOJA", Amount: -12.5},
		},
	}}
	p := newTestPipeline(doc, model, jobs)

	res, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "bank_statement")
	require.NoError(t, err)
	assert.Equal(t, "llm", res.Strategy)
	require.Len(t, res.Transactions, 1)
	assert.Equal(t, "COMPRA LOJA", res.Transactions[0].Description)
}

func TestProcessFullMissFailsJob(t *testing.T) {
	jobs := &memJobStore{}
	doc := &entity.Document{Text: "Extrato ilegivel sem linhas reconheciveis"}
	p := newTestPipeline(doc, nil, jobs)

	_, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "bank_statement")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoTransactions))

	require.Len(t, jobs.updated, 1)
	job := jobs.updated[0]
	assert.Equal(t, string(constants.JobStatusFailed), job.Status)
	require.NotNil(t, job.ErrorMessage)
}

func TestProcessLLMErrorDegradesReceiptCleanup(t *testing.T) {
	jobs := &memJobStore{}
	// single-token descriptions trip the quality gate, sending the items to
	// the LLM; its failure must keep the heuristic items
	doc := &entity.Document{Text: "MERCEARIA\nRecibo\nPAO 1,00\nOVOS 2,00"}
	model := &fakeLLM{cleanupErr: errors.New("model unavailable")}
	p := newTestPipeline(doc, model, jobs)

	res, err := p.Process(context.Background(), uuid.New(), "recibo.jpg", []byte("jpg"), "receipt")
	require.NoError(t, err)
	assert.Equal(t, "receipt", res.Strategy)
	require.NotNil(t, res.Receipt)
	assert.Len(t, res.Receipt.Items, 2)
}

func TestProcessRejectsUnknownExtension(t *testing.T) {
	jobs := &memJobStore{}
	p := newTestPipeline(&entity.Document{}, nil, jobs)

	_, err := p.Process(context.Background(), uuid.New(), "dados.xlsx", []byte{}, "")
	require.Error(t, err)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "BAD_FILE_TYPE", appErr.Code)
	assert.Empty(t, jobs.created)
}

func TestProcessQuotaExceeded(t *testing.T) {
	jobs := &memJobStore{}
	usage := &memUsageStore{count: 5}
	p := New(&fakeProcessor{doc: &entity.Document{Text: statementText}},
		ocr.NewLimiter(usage, 5, nil), nil, jobs, nil)

	_, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "bank_statement")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrQuotaExceeded))
	// the document was never sent to OCR, so the failed call spent no quota
	assert.Equal(t, 5, usage.count)
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, string(constants.JobStatusFailed), jobs.updated[0].Status)
}

func TestProcessRecordsUsageAfterOCR(t *testing.T) {
	usage := &memUsageStore{count: 0}
	p := New(&fakeProcessor{doc: &entity.Document{Text: statementText}},
		ocr.NewLimiter(usage, 5, nil), nil, &memJobStore{}, nil)

	_, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "bank_statement")
	require.NoError(t, err)
	assert.Equal(t, 1, usage.count)
}

func TestProcessOCRFailureFailsJob(t *testing.T) {
	jobs := &memJobStore{}
	proc := &fakeProcessor{err: common.NewAppError("OCR_FAILED", "provider down", common.ErrProviderUnavailable)}
	p := New(proc, ocr.NewLimiter(nil, 0, nil), nil, jobs, nil)

	_, err := p.Process(context.Background(), uuid.New(), "extrato.pdf", []byte("pdf"), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrProviderUnavailable))
	require.Len(t, jobs.updated, 1)
	assert.Equal(t, string(constants.JobStatusFailed), jobs.updated[0].Status)
}
