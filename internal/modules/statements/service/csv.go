package service

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"
)

// StatementRow is one line of a brokerage activity-statement export.
// All fields stay raw strings; validation happens during ingestion.
type StatementRow struct {
	TradeTime  string `csv:"Trade Time"`
	Symbol     string `csv:"Symbol"`
	Quantity   string `csv:"Quantity"`
	Price      string `csv:"Price"`
	Fees       string `csv:"Fees"`
	RealizedPL string `csv:"Realized P/L"`
}

func ParseStatement(r io.Reader) ([]StatementRow, error) {
	var rows []StatementRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse statement csv: %w", err)
	}
	return rows, nil
}
