package bank

import "errors"

var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrInvalidTerm        = errors.New("term must be positive")
	ErrInvalidRate        = errors.New("rate must be a finite number")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrNoFunds            = errors.New("no customer deposits available for withdrawal")
	ErrCustomerNoFunds    = errors.New("customer has no funds to withdraw")
	ErrNoCentralBankLoans = errors.New("no central bank loans outstanding")
	ErrLoanNotFound       = errors.New("loan not found")
	ErrLoanDeclined       = errors.New("loan declined")
	ErrCounterRejected    = errors.New("counter-offer rejected by customer")
	ErrApproverRequired   = errors.New("approval requested without an approver")
	ErrInvariant          = errors.New("ledger invariant violated")
)
