package enums

// OutboxEventType names the domain events emitted through the outbox.
type OutboxEventType string

const (
	EventLoanApplied      OutboxEventType = "loan.applied"
	EventLoanCancelled    OutboxEventType = "loan.cancelled"
	EventLoanApproved     OutboxEventType = "loan.approved"
	EventLoanDisbursed    OutboxEventType = "loan.disbursed"
	EventLoanRepaid       OutboxEventType = "loan.repaid"
	EventLoanCompleted    OutboxEventType = "loan.completed"
	EventLoanDefaulted    OutboxEventType = "loan.defaulted"
	EventLedgerPosted     OutboxEventType = "ledger.posted"
	EventMemberRegistered OutboxEventType = "member.registered"
)

var validOutboxEventTypes = []OutboxEventType{
	EventLoanApplied,
	EventLoanCancelled,
	EventLoanApproved,
	EventLoanDisbursed,
	EventLoanRepaid,
	EventLoanCompleted,
	EventLoanDefaulted,
	EventLedgerPosted,
	EventMemberRegistered,
}

// IsValid reports whether the value is a known OutboxEventType.
func (t OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// OutboxAggregateType names the aggregate a domain event belongs to.
type OutboxAggregateType string

const (
	AggregateLoan        OutboxAggregateType = "loan"
	AggregateTransaction OutboxAggregateType = "transaction"
	AggregateMember      OutboxAggregateType = "member"
)
