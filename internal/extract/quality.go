package extract

import (
	"strings"

	"github.com/dmaraujo/finpipe/internal/entity"
)

// Thresholds for rejecting a structurally-extracted item set. OCR table-cell
// misalignment often yields rows that are syntactically valid but garbage;
// past these ratios the full-text fallback does better.
const (
	maxGarbageDescRatio  = 0.15
	maxMissingTotalRatio = 0.50
	maxSingleTokenRatio  = 0.60
)

// IsPoorReceiptItems reports whether an extracted item set looks unreliable
// enough that the next fallback strategy should be tried instead. An empty
// set is always poor.
func IsPoorReceiptItems(items []entity.ReceiptItem) bool {
	if len(items) == 0 {
		return true
	}
	n := float64(len(items))
	var garbageDesc, missingTotal, singleToken float64
	for _, it := range items {
		desc := strings.TrimSpace(it.Description)
		if !hasLetter(desc) {
			garbageDesc++
		}
		if it.Total == nil {
			missingTotal++
		}
		if len(strings.Fields(desc)) <= 1 {
			singleToken++
		}
	}
	if garbageDesc/n > maxGarbageDescRatio {
		return true
	}
	if missingTotal/n > maxMissingTotalRatio {
		return true
	}
	if singleToken/n > maxSingleTokenRatio {
		return true
	}
	return false
}
