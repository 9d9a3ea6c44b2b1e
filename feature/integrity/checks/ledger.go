package checks

import (
	"fmt"

	"transfer-manager/feature/transfer/ledger"
)

// LedgerReport strictly types the result of a ledger schema check.
type LedgerReport struct {
	Table          string   `json:"table"`
	Matched        bool     `json:"matched"`
	MissingColumns []string `json:"missing_columns"`
	Status         string   `json:"status"` // "ok", "error"
}

// CheckLedger verifies the transfers table has every column the ledger writes.
func CheckLedger(ldg *ledger.Ledger) (*LedgerReport, error) {
	if ldg == nil {
		return nil, fmt.Errorf("transfer ledger is not configured")
	}

	missing, err := ldg.MissingColumns()
	if err != nil {
		return nil, fmt.Errorf("failed to inspect ledger table: %w", err)
	}

	report := &LedgerReport{
		Table:          ledger.Record{}.TableName(),
		Matched:        len(missing) == 0,
		MissingColumns: []string{},
		Status:         StatusOK,
	}
	if len(missing) > 0 {
		report.MissingColumns = missing
		report.Status = StatusError
	}
	return report, nil
}
