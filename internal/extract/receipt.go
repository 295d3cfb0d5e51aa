package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/dmaraujo/finpipe/internal/entity"
)

var (
	merchantTypeRe = regexp.MustCompile(`(?i)supplier|merchant|store|loja|emitente|vendor`)
	totalTypeRe    = regexp.MustCompile(`(?i)^(total|total_amount|grand_total|amount_due|total_a_pagar)$`)
	subtotalTypeRe = regexp.MustCompile(`(?i)subtotal|net_amount`)
	taxTypeRe      = regexp.MustCompile(`(?i)^(tax|total_tax|vat|iva|itbis)`)
	dateTypeRe     = regexp.MustCompile(`(?i)receipt_date|purchase_date|transaction_date|^date$|^data$`)

	itemQtyTypeRe   = regexp.MustCompile(`(?i)quantity|qty|quantidade|qtd`)
	itemUnitTypeRe  = regexp.MustCompile(`(?i)unit_price|price|preco|preco_unit`)
	itemTotalTypeRe = regexp.MustCompile(`(?i)^(amount|total|line_total|total_price|valor)$`)
	itemCodeTypeRe  = regexp.MustCompile(`(?i)code|sku|product_code|codigo|artigo`)
	itemTaxRateRe   = regexp.MustCompile(`(?i)tax_rate|vat_rate|taxa|iva_rate`)
)

// receipt table header keywords with scoring weights
var receiptHeaderWeights = []struct {
	re     *regexp.Regexp
	weight int
}{
	{regexp.MustCompile(`descri|artigo|produto|item|designac`), 3},
	{regexp.MustCompile(`\b(total|valor|importe|amount)\b`), 3},
	{regexp.MustCompile(`\b(qtd|qt|quant|quantidade|qty)\b`), 2},
	{regexp.MustCompile(`preco|unit|p\.?u\b`), 2},
	{regexp.MustCompile(`\b(cod|codigo|ref|sku)\b`), 1},
	{regexp.MustCompile(`\b(iva|tax|vat|taxa)\b`), 1},
}

const maxTableRowScore = 10

// ExtractReceipt turns an OCR'd retail receipt into header fields plus
// itemized lines. It tries entity-derived items, then the best-scoring table,
// then a plain-text scan, moving on whenever the quality gate rejects the
// item set. Header fields are independent of the item strategy.
func ExtractReceipt(doc *entity.Document, refDate time.Time) *entity.ExtractedReceipt {
	if doc == nil {
		return nil
	}
	rec := &entity.ExtractedReceipt{}
	fillReceiptHeader(doc, rec, refDate.Year())

	items := receiptItemsFromEntities(doc)
	if IsPoorReceiptItems(items) {
		items = receiptItemsFromTables(doc)
	}
	if IsPoorReceiptItems(items) {
		items = receiptItemsFromText(doc.Text)
	}
	for i := range items {
		backComputeTax(&items[i])
	}
	rec.Items = items
	rec.Normalize()
	return rec
}

// fillReceiptHeader locates merchant/date/subtotal/tax/total by type-name
// regex anywhere in the entity tree, iteratively.
func fillReceiptHeader(doc *entity.Document, rec *entity.ExtractedReceipt, baseYear int) {
	stack := make([]entity.Entity, len(doc.Entities))
	copy(stack, doc.Entities)
	const maxNodes = 50000
	visited := 0
	for len(stack) > 0 && visited < maxNodes {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++
		stack = append(stack, e.Properties...)

		t := strings.TrimSpace(e.Type)
		if t == "" || isTransactionType(t) {
			continue
		}
		switch {
		case rec.Merchant == "" && merchantTypeRe.MatchString(t):
			rec.Merchant = TextOf(e)
		case rec.Date == "" && dateTypeRe.MatchString(t):
			rec.Date = ParseFlexibleDate(TextOf(e), baseYear)
		case rec.Total == nil && totalTypeRe.MatchString(t):
			rec.Total = NumberOf(e)
		case rec.Subtotal == nil && subtotalTypeRe.MatchString(t):
			rec.Subtotal = NumberOf(e)
		case rec.Tax == nil && taxTypeRe.MatchString(t):
			rec.Tax = NumberOf(e)
		}
	}
}

// receiptItemsFromEntities maps line_item-typed entities to items.
func receiptItemsFromEntities(doc *entity.Document) []entity.ReceiptItem {
	var items []entity.ReceiptItem
	stack := make([]entity.Entity, len(doc.Entities))
	copy(stack, doc.Entities)
	const maxNodes = 50000
	visited := 0
	for len(stack) > 0 && visited < maxNodes {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visited++

		if strings.EqualFold(strings.TrimSpace(e.Type), "line_item") {
			if it, ok := itemFromEntity(e); ok {
				items = append(items, it)
			}
			continue
		}
		stack = append(stack, e.Properties...)
	}
	return items
}

func itemFromEntity(e entity.Entity) (entity.ReceiptItem, bool) {
	var it entity.ReceiptItem
	for _, p := range e.Properties {
		t := strings.TrimSpace(p.Type)
		switch {
		case itemQtyTypeRe.MatchString(t):
			it.Quantity = NumberOf(p)
		case itemUnitTypeRe.MatchString(t):
			it.UnitPrice = NumberOf(p)
		case itemTotalTypeRe.MatchString(t):
			it.Total = NumberOf(p)
		case itemCodeTypeRe.MatchString(t):
			it.Code = TextOf(p)
		case itemTaxRateRe.MatchString(t):
			it.TaxRate = NumberOf(p)
		case it.Description == "" && descHeaderRe.MatchString(normalizeHeader(t)):
			it.Description = TextOf(p)
		}
	}
	if it.Description == "" {
		// untyped line_item: longest lettered child wins
		for _, p := range e.Properties {
			text := TextOf(p)
			if hasLetter(text) && len(text) > len(it.Description) {
				it.Description = text
			}
		}
	}
	if it.Description == "" {
		// no child fields at all: split the mention text into name + amount
		text := TextOf(e)
		if amounts := findAmounts(text); len(amounts) > 0 {
			last := amounts[len(amounts)-1]
			it.Total = &last.Value
			it.Description = collapseWhitespace(text[:last.Start] + " " + text[last.End:])
		} else {
			it.Description = text
		}
	}
	if strings.TrimSpace(it.Description) == "" {
		return entity.ReceiptItem{}, false
	}
	return it, true
}

// receiptItemsFromTables scores every table on the document for
// receipt-likeness and maps the best one.
func receiptItemsFromTables(doc *entity.Document) []entity.ReceiptItem {
	bestScore := 0
	var best *entity.Table
	for pi := range doc.Pages {
		for ti := range doc.Pages[pi].Tables {
			t := &doc.Pages[pi].Tables[ti]
			if s := scoreReceiptTable(doc, t); s > bestScore {
				bestScore = s
				best = t
			}
		}
	}
	if best == nil {
		return nil
	}
	return itemsFromTable(doc, best)
}

func scoreReceiptTable(doc *entity.Document, table *entity.Table) int {
	score := 0
	for _, hr := range table.HeaderRows {
		for _, cell := range hr.Cells {
			h := normalizeHeader(doc.ResolveText(cell.Anchor))
			if h == "" {
				continue
			}
			for _, hw := range receiptHeaderWeights {
				if hw.re.MatchString(h) {
					score += hw.weight
				}
			}
		}
	}
	rows := len(table.BodyRows)
	if rows > maxTableRowScore {
		rows = maxTableRowScore
	}
	return score + rows
}

func itemsFromTable(doc *entity.Document, table *entity.Table) []entity.ReceiptItem {
	// locate columns by header keywords
	descCol, qtyCol, unitCol, totalCol, codeCol, taxCol := -1, -1, -1, -1, -1, -1
	for _, hr := range table.HeaderRows {
		for i, cell := range hr.Cells {
			h := normalizeHeader(doc.ResolveText(cell.Anchor))
			switch {
			case descCol < 0 && receiptHeaderWeights[0].re.MatchString(h):
				descCol = i
			case totalCol < 0 && receiptHeaderWeights[1].re.MatchString(h):
				totalCol = i
			case qtyCol < 0 && receiptHeaderWeights[2].re.MatchString(h):
				qtyCol = i
			case unitCol < 0 && receiptHeaderWeights[3].re.MatchString(h):
				unitCol = i
			case codeCol < 0 && receiptHeaderWeights[4].re.MatchString(h):
				codeCol = i
			case taxCol < 0 && receiptHeaderWeights[5].re.MatchString(h):
				taxCol = i
			}
		}
	}

	var items []entity.ReceiptItem
	for _, row := range table.BodyRows {
		cells := make([]string, len(row.Cells))
		for i, c := range row.Cells {
			cells[i] = collapseWhitespace(doc.ResolveText(c.Anchor))
		}
		it, ok := itemFromCells(cells, descCol, qtyCol, unitCol, totalCol, codeCol, taxCol)
		if ok {
			items = append(items, it)
		}
	}
	return items
}

func itemFromCells(cells []string, descCol, qtyCol, unitCol, totalCol, codeCol, taxCol int) (entity.ReceiptItem, bool) {
	var it entity.ReceiptItem
	pick := func(col int) string {
		if col >= 0 && col < len(cells) {
			return cells[col]
		}
		return ""
	}
	it.Description = pick(descCol)
	it.Code = pick(codeCol)
	it.Quantity = ParseAmount(pick(qtyCol))
	it.UnitPrice = ParseAmount(pick(unitCol))
	it.Total = ParseAmount(pick(totalCol))
	it.TaxRate = ParseAmount(strings.TrimSuffix(pick(taxCol), "%"))

	if it.Description == "" {
		// headerless table: longest lettered cell describes, rightmost
		// parseable cell totals
		for _, c := range cells {
			if hasLetter(c) && len(c) > len(it.Description) {
				it.Description = c
			}
		}
		for i := len(cells) - 1; i >= 0; i-- {
			if cells[i] == it.Description {
				continue
			}
			if v := ParseAmount(cells[i]); v != nil {
				it.Total = v
				break
			}
		}
	}
	if strings.TrimSpace(it.Description) == "" {
		return entity.ReceiptItem{}, false
	}
	if isSummaryLine(it.Description) {
		return entity.ReceiptItem{}, false
	}
	return it, true
}

// receiptItemsFromText is the raw-text fallback: pair description lines with
// trailing numeric-only lines, or pull the numbers off inline multi-number
// lines. Integer-vs-decimal shape and position disambiguate quantity, unit
// price and total.
func receiptItemsFromText(text string) []entity.ReceiptItem {
	lines := strings.Split(text, "\n")
	var items []entity.ReceiptItem
	var pendingDesc string

	for _, rawLine := range lines {
		line := collapseWhitespace(rawLine)
		if line == "" || isSummaryLine(line) {
			pendingDesc = ""
			continue
		}
		amounts := findAmounts(line)

		switch {
		case !hasLetter(line) && len(amounts) > 0 && pendingDesc != "":
			// numeric-only line closing a pending description
			it := entity.ReceiptItem{Description: pendingDesc}
			assignNumbers(&it, amounts)
			items = append(items, it)
			pendingDesc = ""
		case hasLetter(line) && len(amounts) > 0:
			// inline item: strip the numbers, keep the rest as description
			desc := line
			for i := len(amounts) - 1; i >= 0; i-- {
				desc = desc[:amounts[i].Start] + " " + desc[amounts[i].End:]
			}
			desc = collapseWhitespace(desc)
			if isBoilerplateDescription(desc) {
				continue
			}
			it := entity.ReceiptItem{Description: desc}
			assignNumbers(&it, amounts)
			items = append(items, it)
			pendingDesc = ""
		case hasLetter(line):
			pendingDesc = line
		default:
			pendingDesc = ""
		}
	}
	return items
}

// assignNumbers distributes a line's numbers over quantity/unitPrice/total.
// Small integers lead as quantity; the last decimal-shaped number is the
// line total; a middle decimal is the unit price.
func assignNumbers(it *entity.ReceiptItem, amounts []amountMatch) {
	if len(amounts) == 0 {
		return
	}
	isInt := func(m amountMatch) bool { return !strings.ContainsAny(m.Text, ".,") }

	rest := amounts
	if isInt(rest[0]) && rest[0].Value > 0 && rest[0].Value < 1000 && len(rest) > 1 {
		q := rest[0].Value
		it.Quantity = &q
		rest = rest[1:]
	}
	last := rest[len(rest)-1]
	total := last.Value
	it.Total = &total
	if len(rest) >= 2 {
		unit := rest[len(rest)-2].Value
		it.UnitPrice = &unit
	}
}

// backComputeTax derives the per-item tax amount when a tax rate and a
// tax-inclusive total are both known: total - total/(1+rate).
func backComputeTax(it *entity.ReceiptItem) {
	if it.TaxAmount != nil || it.TaxRate == nil || it.Total == nil {
		return
	}
	rate := *it.TaxRate / 100
	if rate <= 0 {
		return
	}
	tax := *it.Total - *it.Total/(1+rate)
	tax = round2f(tax)
	it.TaxAmount = &tax
}

func round2f(v float64) float64 {
	if v < 0 {
		return float64(int64(v*100-0.5)) / 100
	}
	return float64(int64(v*100+0.5)) / 100
}
