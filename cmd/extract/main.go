// Command extract runs the heuristic extraction strategies against a local
// file, without OCR, LLM or database access. Useful for tuning parsers on
// saved OCR text dumps: pass either plain text or a JSON document dump
// (-json) captured from the OCR stage.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dmaraujo/finpipe/constants"
	"github.com/dmaraujo/finpipe/internal/banks"
	"github.com/dmaraujo/finpipe/internal/classify"
	"github.com/dmaraujo/finpipe/internal/entity"
	"github.com/dmaraujo/finpipe/internal/extract"
)

func main() {
	var (
		path    = flag.String("file", "", "path to OCR text (or JSON document with -json)")
		isJSON  = flag.Bool("json", false, "input is a JSON document dump")
		refDate = flag.String("ref-date", "", "reference date YYYY-MM-DD (default today)")
		docType = flag.String("doc-type", "", "force doc type: receipt, credit_card, bank_statement")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	if *path == "" {
		fmt.Fprintln(os.Stderr, "usage: extract -file <path> [-json] [-ref-date YYYY-MM-DD] [-doc-type t]")
		os.Exit(2)
	}
	raw, err := os.ReadFile(*path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read input:", err)
		os.Exit(1)
	}

	doc := &entity.Document{Text: string(raw)}
	if *isJSON {
		doc = &entity.Document{}
		if err := json.Unmarshal(raw, doc); err != nil {
			fmt.Fprintln(os.Stderr, "parse document JSON:", err)
			os.Exit(1)
		}
	}

	ref := time.Now()
	if *refDate != "" {
		ref, err = time.Parse("2006-01-02", *refDate)
		if err != nil {
			fmt.Fprintln(os.Stderr, "parse ref-date:", err)
			os.Exit(1)
		}
	}

	dt := constants.DocType(*docType)
	if !dt.Valid() {
		dt = classify.Classify(doc.Text, doc.Entities, *path)
	}

	out := map[string]any{"doc_type": dt}
	if dt == constants.DocTypeReceipt {
		if store, ok := banks.DetectStore(doc.Text); ok {
			out["institution"] = store
		}
		rec := extract.ExtractReceipt(doc, ref)
		rec.Normalize()
		out["receipt"] = rec
		out["poor_items"] = extract.IsPoorReceiptItems(rec.Items)
	} else {
		if parser, ok := banks.Detect(doc.Text); ok {
			out["institution"] = parser.Name
			if txs := parser.Parse(doc, ref); len(txs) > 0 {
				out["strategy"] = "bank:" + parser.Name
				out["transactions"] = txs
			}
		}
		if _, ok := out["transactions"]; !ok {
			txs, strategy := extract.Transactions(doc, ref, logger)
			out["strategy"] = strategy
			out["transactions"] = txs
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, "encode output:", err)
		os.Exit(1)
	}
}
