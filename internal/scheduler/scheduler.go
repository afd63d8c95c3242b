package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/segyhp/loan-engine/internal/domain"
	"github.com/segyhp/loan-engine/internal/metrics"
	"github.com/segyhp/loan-engine/pkg/utils"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultScanTimeout = 5 * time.Minute

// UnpaidLoanLister is the part of the loan service the monitor reads from.
type UnpaidLoanLister interface {
	ListUnpaidLoans(ctx context.Context) ([]*domain.Loan, error)
}

// OverdueReport summarises one scan.
type OverdueReport struct {
	LoansScanned        int
	LoansOverdue        int
	InstallmentsOverdue int
	OverdueAmount       decimal.Decimal
	Loans               []OverdueLoan
}

type OverdueLoan struct {
	LoanID       uuid.UUID
	CustomerID   uuid.UUID
	Installments int
	Amount       decimal.Decimal
	OldestDue    time.Time
}

// OverdueMonitor counts unpaid installments past their due date. It only reports and
// never changes loan state.
type OverdueMonitor struct {
	loans   UnpaidLoanLister
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
	timeout time.Duration
}

func NewOverdueMonitor(loans UnpaidLoanLister, m *metrics.Metrics, logger *zap.Logger) *OverdueMonitor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OverdueMonitor{
		loans:   loans,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		timeout: defaultScanTimeout,
	}
}

// Run implements cron.Job.
func (m *OverdueMonitor) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
	defer cancel()

	if _, err := m.Scan(ctx); err != nil {
		m.logger.Error("overdue scan failed", zap.Error(err))
	}
}

func (m *OverdueMonitor) Scan(ctx context.Context) (*OverdueReport, error) {
	start := time.Now()

	loans, err := m.loans.ListUnpaidLoans(ctx)
	if err != nil {
		return nil, err
	}

	report := CountOverdue(loans, utils.DateOf(m.now()))
	m.metrics.SetOverdue(report.InstallmentsOverdue)

	for _, loan := range report.Loans {
		m.logger.Info("loan has overdue installments",
			zap.String("loan_id", loan.LoanID.String()),
			zap.String("customer_id", loan.CustomerID.String()),
			zap.Int("installments_overdue", loan.Installments),
			zap.String("overdue_amount", loan.Amount.String()),
			zap.Time("oldest_due_date", loan.OldestDue),
		)
	}

	m.logger.Info("overdue scan completed",
		zap.Int("loans_scanned", report.LoansScanned),
		zap.Int("loans_overdue", report.LoansOverdue),
		zap.Int("installments_overdue", report.InstallmentsOverdue),
		zap.String("overdue_amount", report.OverdueAmount.String()),
		zap.Duration("elapsed", time.Since(start)),
	)

	return report, nil
}

// CountOverdue tallies unpaid installments due strictly before today.
func CountOverdue(loans []*domain.Loan, today time.Time) *OverdueReport {
	report := &OverdueReport{OverdueAmount: decimal.Zero}

	for _, loan := range loans {
		report.LoansScanned++
		var overdue []*domain.Installment
		for _, installment := range loan.UnpaidInstallments() {
			if utils.DaysBetween(installment.DueDate, today) > 0 {
				overdue = append(overdue, installment)
			}
		}
		if len(overdue) > 0 {
			summary := OverdueLoan{
				LoanID:       loan.ID,
				CustomerID:   loan.CustomerID,
				Installments: len(overdue),
				Amount:       domain.NominalTotal(overdue),
				OldestDue:    overdue[0].DueDate,
			}
			for _, installment := range overdue[1:] {
				if installment.DueDate.Before(summary.OldestDue) {
					summary.OldestDue = installment.DueDate
				}
			}
			report.LoansOverdue++
			report.InstallmentsOverdue += summary.Installments
			report.OverdueAmount = report.OverdueAmount.Add(summary.Amount)
			report.Loans = append(report.Loans, summary)
		}
	}

	return report
}

// New builds a seconds-precision cron in loc. Overlapping runs are skipped and panics
// are recovered and logged.
func New(loc *time.Location, logger *zap.Logger) *cron.Cron {
	cronLogger := NewCronLogger(logger)
	return cron.New(
		cron.WithSeconds(),
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// Register schedules the monitor on c.
func Register(c *cron.Cron, spec string, monitor *OverdueMonitor) (cron.EntryID, error) {
	return c.AddJob(spec, monitor)
}

type cronLogger struct {
	sugar *zap.SugaredLogger
}

// NewCronLogger adapts a zap logger to cron.Logger.
func NewCronLogger(logger *zap.Logger) cron.Logger {
	return &cronLogger{sugar: logger.Sugar()}
}

func (l *cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
