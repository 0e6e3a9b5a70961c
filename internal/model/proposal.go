package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// FinancingProposal is a financing offer built from a viability report,
// awaiting the customer's decision.
type FinancingProposal struct {
	ID             string              `json:"id"`
	ReportID       string              `json:"report_id,omitempty"`
	Status         ProposalStatus      `json:"status"`
	Financing      FinancingSimulation `json:"financing"`
	MonthlySavings decimal.Decimal     `json:"monthly_savings"`
	CancelReason   string              `json:"cancel_reason,omitempty"`
	ExpiresAt      time.Time           `json:"expires_at"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}
