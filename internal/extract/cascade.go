package extract

import (
	"log/slog"
	"time"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// Strategy is one pure extraction function in the fallback cascade.
type Strategy struct {
	Name string
	Run  func(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction
}

// Cascade is the fixed strategy order: structured signals first because they
// carry less ambiguity, unstructured text scanning as the last resort.
func Cascade() []Strategy {
	return []Strategy{
		{Name: "entities", Run: MapEntities},
		{Name: "tables", Run: ExtractFromTables},
		{Name: "lines", Run: ExtractFromLines},
		{Name: "text", Run: func(doc *entity.Document, refDate time.Time) []entity.ExtractedTransaction {
			if doc == nil {
				return nil
			}
			return ExtractFromPlainText(doc.Text, refDate)
		}},
	}
}

// Transactions runs the cascade until a strategy yields candidates. A zero
// result from every strategy is a valid outcome, not an error; the caller
// decides how to report it. Returns the winning strategy name.
func Transactions(doc *entity.Document, refDate time.Time, logger *slog.Logger) ([]entity.ExtractedTransaction, string) {
	if logger == nil {
		logger = slog.Default()
	}
	for _, s := range Cascade() {
		txs := s.Run(doc, refDate)
		if len(txs) > 0 {
			logger.Info("extract.cascade.hit", "strategy", s.Name, "count", len(txs))
			return txs, s.Name
		}
		logger.Debug("extract.cascade.miss", "strategy", s.Name)
	}
	return nil, ""
}
