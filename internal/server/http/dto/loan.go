package dto

// LoanRequest describes a new loan payload.
type LoanRequest struct {
	Borrower     string `json:"borrower"`
	Lender       string `json:"lender"`
	Amount       uint64 `json:"amount"`
	InterestRate uint64 `json:"interest_rate"`
	Duration     uint64 `json:"duration"`
}

// LoanCreatedResponse returns the identifier of a recorded loan.
type LoanCreatedResponse struct {
	ID uint64 `json:"id"`
}

// RepaymentRequest describes a repayment payload.
type RepaymentRequest struct {
	Amount uint64 `json:"amount"`
}

// LoanResponse represents a stored loan.
type LoanResponse struct {
	ID           uint64 `json:"id"`
	Borrower     string `json:"borrower"`
	Lender       string `json:"lender"`
	Amount       uint64 `json:"amount"`
	InterestRate uint64 `json:"interest_rate"`
	DueDate      uint64 `json:"due_date"`
	Repaid       bool   `json:"repaid"`
	RepaidAmount uint64 `json:"repaid_amount"`
	Defaulted    bool   `json:"defaulted"`
	CreatedAt    uint64 `json:"created_at"`
}
