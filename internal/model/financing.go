package model

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Money is emitted as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// MaxInstallments is the longest financing horizon the scheduler accepts.
const MaxInstallments = 360

// FinancialInputs are the customer's desired financing terms.
type FinancialInputs struct {
	Investment decimal.Decimal    `json:"investment"`
	Periods    int                `json:"periods"`
	System     AmortizationSystem `json:"system"`
	// Spread is added to the SELIC reference, in percent per SpreadBasis.
	Spread      float64     `json:"spread"`
	SpreadBasis SpreadBasis `json:"spread_basis,omitempty"`
	// MonthlyRate overrides SELIC + spread when set, in percent per month.
	MonthlyRate    *float64        `json:"monthly_rate,omitempty"`
	DownPayment    decimal.Decimal `json:"down_payment"`
	OriginationFee decimal.Decimal `json:"origination_fee"`
	StartDate      *time.Time      `json:"start_date,omitempty"`
}

// Validate rejects terms that can never produce a schedule.
func (f FinancialInputs) Validate() error {
	if !f.Investment.IsPositive() {
		return NewFinancialConfigurationError("financial.investment", "must be positive")
	}
	if f.Periods <= 0 {
		return NewFinancialConfigurationError("financial.periods", "must be positive, got %d", f.Periods)
	}
	if f.Periods > MaxInstallments {
		return NewFinancialConfigurationError("financial.periods", "at most %d installments, got %d", MaxInstallments, f.Periods)
	}
	if !f.System.Valid() {
		return NewValidationError("financial.system", "unsupported amortization system %q", f.System)
	}
	if !f.SpreadBasis.Valid() {
		return NewValidationError("financial.spread_basis", "unknown basis %q", f.SpreadBasis)
	}
	if f.DownPayment.IsNegative() {
		return NewFinancialConfigurationError("financial.down_payment", "must not be negative")
	}
	if f.DownPayment.GreaterThan(f.Investment) {
		return NewFinancialConfigurationError("financial.down_payment", "exceeds investment")
	}
	if !f.Financed().IsPositive() {
		return NewFinancialConfigurationError("financial.down_payment", "leaves nothing to finance")
	}
	if f.OriginationFee.IsNegative() {
		return NewFinancialConfigurationError("financial.origination_fee", "must not be negative")
	}
	if f.OriginationFee.GreaterThanOrEqual(f.Financed()) {
		return NewFinancialConfigurationError("financial.origination_fee", "must be smaller than the financed amount")
	}
	if f.MonthlyRate != nil && *f.MonthlyRate <= -100 {
		return NewFinancialConfigurationError("financial.monthly_rate", "must be greater than -100%%")
	}
	return nil
}

// Financed returns investment minus down payment.
func (f FinancialInputs) Financed() decimal.Decimal {
	return f.Investment.Sub(f.DownPayment)
}

// PaymentScheduleEntry is one installment of a financing plan.
type PaymentScheduleEntry struct {
	InstallmentNumber int               `json:"installment_number"`
	DueDate           time.Time         `json:"due_date"`
	PrincipalAmount   decimal.Decimal   `json:"principal_amount"`
	InterestAmount    decimal.Decimal   `json:"interest_amount"`
	TotalAmount       decimal.Decimal   `json:"total_amount"`
	RemainingBalance  decimal.Decimal   `json:"remaining_balance"`
	Status            InstallmentStatus `json:"status"`
}

// ScheduleSummary is the cash-flow summary of a schedule.
type ScheduleSummary struct {
	FinancedAmount     decimal.Decimal `json:"financed_amount"`
	MonthlyRatePct     float64         `json:"monthly_rate_pct"`
	AnnualRatePct      float64         `json:"annual_rate_pct"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalInterest      decimal.Decimal `json:"total_interest"`
	OriginationFee     decimal.Decimal `json:"origination_fee"`
	IOF                decimal.Decimal `json:"iof"`
	CET                float64         `json:"cet"`
	CETMonthly         float64         `json:"cet_monthly"`
	FirstInstallment   decimal.Decimal `json:"first_installment"`
	LastInstallment    decimal.Decimal `json:"last_installment"`
	NetMonthlyCashFlow decimal.Decimal `json:"net_monthly_cash_flow"`
}

// FinancingSimulation is a generated schedule plus its summary.
type FinancingSimulation struct {
	System             AmortizationSystem     `json:"system"`
	Periods            int                    `json:"periods"`
	Schedule           []PaymentScheduleEntry `json:"schedule"`
	Summary            ScheduleSummary        `json:"summary"`
	NetMonthlyCashFlow decimal.Decimal        `json:"net_monthly_cash_flow"`
}
