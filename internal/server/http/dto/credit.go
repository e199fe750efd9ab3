package dto

// CreditRecordResponse is the stored credit record of a principal.
type CreditRecordResponse struct {
	Principal      string `json:"principal"`
	Score          uint32 `json:"score"`
	LastUpdated    uint64 `json:"last_updated"`
	TotalLoans     uint64 `json:"total_loans"`
	RepaidLoans    uint64 `json:"repaid_loans"`
	DefaultedLoans uint64 `json:"defaulted_loans"`
	TotalBorrowed  uint64 `json:"total_borrowed"`
	TotalRepaid    uint64 `json:"total_repaid"`
}

// ScoreResponse carries a computed score.
type ScoreResponse struct {
	Principal string `json:"principal"`
	Score     uint32 `json:"score"`
	Source    string `json:"source,omitempty"`
}

// StatsResponse exposes global ledger counters.
type StatsResponse struct {
	TotalUsers  uint64 `json:"total_users"`
	LoanCounter uint64 `json:"loan_counter"`
}

// HeightResponse exposes the current block height.
type HeightResponse struct {
	Height uint64 `json:"height"`
}
