package errors

import "errors"

var (
	ErrNotAuthorized       = errors.New("not authorized")
	ErrInvalidScore        = errors.New("invalid score")
	ErrUserNotFound        = errors.New("user not found")
	ErrAlreadyExists       = errors.New("already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrLoanNotFound        = errors.New("loan not found")
	ErrLoanAlreadyRepaid   = errors.New("loan already repaid")
	// ErrPaymentOverdue is returned when a default is reported for a loan
	// whose due date has not passed yet.
	ErrPaymentOverdue = errors.New("payment overdue")
	ErrLoanDefaulted  = errors.New("loan already defaulted")

	ErrNotFound           = errors.New("not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidPrincipal   = errors.New("invalid principal")
	ErrOwnerImmutable     = errors.New("owner is immutable")
)

// Code returns the stable wire code for a domain error, or an empty string
// when err does not belong to the ledger taxonomy.
func Code(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthorized):
		return "NOT_AUTHORIZED"
	case errors.Is(err, ErrInvalidScore):
		return "INVALID_SCORE"
	case errors.Is(err, ErrUserNotFound):
		return "USER_NOT_FOUND"
	case errors.Is(err, ErrAlreadyExists):
		return "ALREADY_EXISTS"
	case errors.Is(err, ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, ErrInvalidAmount):
		return "INVALID_AMOUNT"
	case errors.Is(err, ErrLoanNotFound):
		return "LOAN_NOT_FOUND"
	case errors.Is(err, ErrLoanAlreadyRepaid):
		return "LOAN_ALREADY_REPAID"
	case errors.Is(err, ErrPaymentOverdue):
		return "PAYMENT_OVERDUE"
	case errors.Is(err, ErrLoanDefaulted):
		return "LOAN_DEFAULTED"
	case errors.Is(err, ErrInvalidPrincipal):
		return "INVALID_PRINCIPAL"
	default:
		return ""
	}
}
