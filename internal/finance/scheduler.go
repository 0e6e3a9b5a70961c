package finance

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sells-group/solar-viability/internal/config"
	"github.com/sells-group/solar-viability/internal/model"
	"github.com/sells-group/solar-viability/internal/monitoring"
)

// Scheduler turns financing terms into a complete simulation.
type Scheduler struct {
	iof        IOFRates
	iofEnabled bool
	now        func() time.Time
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock sets the clock used when the terms carry no start date.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) { s.now = now }
}

// NewScheduler creates a Scheduler from configuration.
func NewScheduler(cfg config.FinancingConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		iof:        IOFRates{FlatPct: cfg.IOFFlatPct, DailyPct: cfg.IOFDailyPct},
		iofEnabled: cfg.IOFEnabled,
		now:        time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Simulate resolves the monthly rate against selicPct, generates the schedule
// and summarizes it against monthlySavings.
func (s *Scheduler) Simulate(in model.FinancialInputs, selicPct float64, monthlySavings decimal.Decimal) (model.FinancingSimulation, error) {
	if err := in.Validate(); err != nil {
		return model.FinancingSimulation{}, err
	}
	r, err := ResolveMonthlyRate(in, selicPct)
	if err != nil {
		return model.FinancingSimulation{}, err
	}

	start := s.startDate(in)
	financed := cents(in.Financed())
	schedule, err := GenerateSchedule(financed, r, in.Periods, in.System, start)
	if err != nil {
		return model.FinancingSimulation{}, eris.Wrap(err, "finance: generate schedule")
	}

	iof := decimal.Zero
	if s.iofEnabled {
		iof = IOF(schedule, financed, start, s.iof)
	}
	summary := Summarize(schedule, financed, monthlySavings, in.OriginationFee, iof, r)
	monitoring.IncSchedule(string(in.System))

	if summary.NetMonthlyCashFlow.IsNegative() {
		zap.L().Debug("finance: negative monthly cash flow",
			zap.String("net", summary.NetMonthlyCashFlow.String()),
			zap.Int("periods", in.Periods),
		)
	}

	return model.FinancingSimulation{
		System:             in.System,
		Periods:            in.Periods,
		Schedule:           schedule,
		Summary:            summary,
		NetMonthlyCashFlow: summary.NetMonthlyCashFlow,
	}, nil
}

func (s *Scheduler) startDate(in model.FinancialInputs) time.Time {
	if in.StartDate != nil {
		return *in.StartDate
	}
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
