package model

// LoanRecord tracks a single loan between a borrower and a lender.
type LoanRecord struct {
	ID           uint64
	Borrower     Principal
	Lender       Principal
	Amount       uint64
	InterestRate uint64
	DueDate      uint64
	Repaid       bool
	RepaidAmount uint64
	CreatedAt    uint64
	// Defaulted is set once a default was reported; the loan has no further
	// valid transition afterwards.
	Defaulted bool
}

// Overdue reports whether height is past the due date.
func (l *LoanRecord) Overdue(height uint64) bool {
	return height > l.DueDate
}

// Settled reports whether the loan reached a terminal state.
func (l *LoanRecord) Settled() bool {
	return l.Repaid || l.Defaulted
}

// LoanRequest carries the parameters of a new loan.
type LoanRequest struct {
	Borrower     Principal
	Lender       Principal
	Amount       uint64
	InterestRate uint64
	Duration     uint64
}
