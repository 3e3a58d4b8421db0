package enums

import "fmt"

// TransactionType classifies entries in the account ledger.
type TransactionType string

const (
	TransactionTypeDeposit          TransactionType = "deposit"
	TransactionTypeWithdrawal       TransactionType = "withdrawal"
	TransactionTypeLoanDisbursement TransactionType = "loan_disbursement"
	TransactionTypeLoanRepayment    TransactionType = "loan_repayment"
	TransactionTypeTransfer         TransactionType = "transfer"
	TransactionTypeRegistrationFee  TransactionType = "registration_fee"
)

var validTransactionTypes = []TransactionType{
	TransactionTypeDeposit,
	TransactionTypeWithdrawal,
	TransactionTypeLoanDisbursement,
	TransactionTypeLoanRepayment,
	TransactionTypeTransfer,
	TransactionTypeRegistrationFee,
}

// String implements fmt.Stringer.
func (t TransactionType) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TransactionType.
func (t TransactionType) IsValid() bool {
	for _, candidate := range validTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// IsDebitGuarded reports whether the balance check applies: withdrawal-class
// types must not drive the balance below zero, deposit-class types always
// pass the balance check.
func (t TransactionType) IsDebitGuarded() bool {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeLoanRepayment,
		TransactionTypeTransfer, TransactionTypeRegistrationFee:
		return true
	}
	return false
}

// IsDebitOnly reports whether the type may only carry negative amounts.
// Transfer is excluded: it labels both legs of an account-to-account move.
func (t TransactionType) IsDebitOnly() bool {
	switch t {
	case TransactionTypeWithdrawal, TransactionTypeLoanRepayment,
		TransactionTypeRegistrationFee:
		return true
	}
	return false
}

// ParseTransactionType converts raw input into a TransactionType.
func ParseTransactionType(value string) (TransactionType, error) {
	for _, candidate := range validTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid transaction type %q", value)
}
