package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/profit"
	"github.com/dmaraujo/finpipe/internal/repasse"
)

const maxUploadBytes = 20 << 20

func (s *Server) handleUpload(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}
	if fh.Size > maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, err)
		return
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		writeError(c, err)
		return
	}

	res, err := s.pipeline.Process(c.Request.Context(), uid, fh.Filename, content, c.PostForm("doc_type"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id":       res.Job.ID,
		"doc_type":     res.DocType,
		"institution":  res.Institution,
		"strategy":     res.Strategy,
		"transactions": res.Transactions,
		"receipt":      res.Receipt,
	})
}

func (s *Server) handleListJobs(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	status := constants.JobStatus(c.Query("status"))
	jobs, err := s.jobs.ListByUser(c.Request.Context(), uid, status, 100)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) handleGetJob(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job id"})
		return
	}
	job, err := s.jobs.ByID(c.Request.Context(), uid, jobID)
	if err != nil {
		writeError(c, err)
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	c.JSON(http.StatusOK, job)
}

func (s *Server) handleProfit(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	cutoff := time.Now().UTC()
	if v := c.Query("cutoff"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cutoff date"})
			return
		}
		cutoff = parsed
	}
	display := c.DefaultQuery("currency", entity.CurrencyEUR)

	var filter profit.Filter
	for _, raw := range c.QueryArray("account_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account_id"})
			return
		}
		filter.AccountIDs = append(filter.AccountIDs, id)
	}
	for _, raw := range c.QueryArray("credit_card_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credit_card_id"})
			return
		}
		filter.CreditCardIDs = append(filter.CreditCardIDs, id)
	}

	result, err := s.profit.ProfitUntil(c.Request.Context(), uid, cutoff, display, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleRepasseForecast(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	display := c.DefaultQuery("currency", entity.CurrencyEUR)
	forecasts, err := s.repasse.Forecast(c.Request.Context(), uid, time.Now().UTC(), display)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts})
}

type createRuleRequest struct {
	Name        string                 `json:"name" binding:"required"`
	Percentage  decimal.Decimal        `json:"percentage"`
	PayoutDay   int                    `json:"payout_day"`
	IsRecurring bool                   `json:"is_recurring"`
	Targets     []entity.RepasseTarget `json:"targets"`
	Sources     []entity.RepasseSource `json:"sources"`
}

func (s *Server) handleCreateRule(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var req createRuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rule := entity.RepasseRule{
		ID:          uuid.New(),
		UserID:      uid,
		Name:        req.Name,
		Percentage:  req.Percentage,
		PayoutDay:   req.PayoutDay,
		IsActive:    true,
		IsRecurring: req.IsRecurring,
		Targets:     req.Targets,
		Sources:     req.Sources,
	}
	if err := repasse.ValidateRule(rule); err != nil {
		writeError(c, err)
		return
	}
	if err := s.rules.CreateRule(c.Request.Context(), &rule); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

type executeRequest struct {
	Amount   decimal.Decimal `json:"amount" binding:"required"`
	Currency string          `json:"currency"`
}

func (s *Server) handleRepasseExecute(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	ruleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rule id"})
		return
	}
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Currency == "" {
		req.Currency = entity.CurrencyEUR
	}

	execs, err := s.repasse.Execute(c.Request.Context(), uid, ruleID, req.Amount, req.Currency, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"executions": execs})
}

type ratesRequest struct {
	RateDate string           `json:"rate_date" binding:"required"`
	EURToBRL *decimal.Decimal `json:"eur_to_brl"`
	BRLToEUR *decimal.Decimal `json:"brl_to_eur"`
	EURToUSD *decimal.Decimal `json:"eur_to_usd"`
	USDToEUR *decimal.Decimal `json:"usd_to_eur"`
	USDToBRL *decimal.Decimal `json:"usd_to_brl"`
	BRLToUSD *decimal.Decimal `json:"brl_to_usd"`
}

func (s *Server) handleUpsertRates(c *gin.Context) {
	if _, ok := userID(c); !ok {
		return
	}
	var req ratesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	day, err := time.Parse("2006-01-02", req.RateDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate_date"})
		return
	}
	snap := entity.RateSnapshot{
		RateDate: day,
		EURToBRL: req.EURToBRL,
		BRLToEUR: req.BRLToEUR,
		EURToUSD: req.EURToUSD,
		USDToEUR: req.USDToEUR,
		USDToBRL: req.USDToBRL,
		BRLToUSD: req.BRLToUSD,
	}
	if err := s.rates.Upsert(c.Request.Context(), snap); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleExport(c *gin.Context) {
	uid, ok := userID(c)
	if !ok {
		return
	}
	var from, to *time.Time
	if v := c.Query("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		from = &parsed
	}
	if v := c.Query("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		to = &parsed
	}

	data, err := s.exporter.ExportTransactionsXLSX(c.Request.Context(), uid, from, to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="transactions.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
