package model

// LedgerMeta holds the process-wide ledger scalars.
type LedgerMeta struct {
	Owner       Principal
	LoanCounter uint64
	TotalUsers  uint64
}

// LedgerStats is the public view of the global counters.
type LedgerStats struct {
	TotalUsers  uint64
	LoanCounter uint64
}
