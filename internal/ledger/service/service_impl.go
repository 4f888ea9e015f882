package service

import (
	"context"
	"time"

	auditdomain "github.com/smallbiznis/flightsurety/internal/audit/domain"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/flightsurety/internal/observability/metrics"
	"github.com/smallbiznis/flightsurety/internal/sequencer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Repo       domain.Repository
	Settings   domain.Settings
	Policy     *config.PolicyHolder
	Wallet     domain.ValueTransfer
	Sequencer  sequencer.Sequencer
	Outbox     *events.Outbox
	Clock      clock.Clock
	Dispatcher *events.Dispatcher           `optional:"true"`
	AuditSvc   auditdomain.Service          `optional:"true"`
	ObsMetrics *obsmetrics.Metrics          `optional:"true"`
	OpMetrics  *obsmetrics.OperationMetrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	settings   domain.Settings
	policy     *config.PolicyHolder
	wallet     domain.ValueTransfer
	seq        sequencer.Sequencer
	outbox     *events.Outbox
	clock      clock.Clock
	dispatcher *events.Dispatcher
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
	opMetrics  *obsmetrics.OperationMetrics
	tracer     trace.Tracer
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		repo:       p.Repo,
		settings:   p.Settings,
		policy:     p.Policy,
		wallet:     p.Wallet,
		seq:        p.Sequencer,
		outbox:     p.Outbox,
		clock:      p.Clock,
		dispatcher: p.Dispatcher,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
		opMetrics:  p.OpMetrics,
		tracer:     otel.Tracer("flightsurety/ledger"),
	}
}

type body func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error

// mutate runs one state-changing operation: sequenced, inside a single
// transaction, with its events written to the outbox before commit and
// dispatched only after commit.
func (s *Service) mutate(ctx context.Context, op string, fn body) error {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "ledger."+op, trace.WithAttributes(attribute.String("operation", op)))
	defer span.End()

	err := s.seq.Do(ctx, func(ctx context.Context) error {
		var (
			em        events.Emitter
			committed []events.Event
		)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := fn(ctx, tx, &em); err != nil {
				return err
			}
			rows, err := s.outbox.Write(ctx, tx, em.Pending(), s.clock.Now())
			if err != nil {
				return err
			}
			committed = rows
			return nil
		})
		if err != nil {
			return err
		}
		s.dispatcher.Dispatch(ctx, committed)
		return nil
	})

	s.observe(ctx, op, start, err)
	if err != nil {
		if domain.IsRejection(err) {
			span.SetAttributes(attribute.String("reason", domain.Code(err)))
		} else {
			span.RecordError(err)
			span.SetStatus(codes.Error, "operation failed")
		}
	}
	return err
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	log := logger.WithContext(ctx, s.log).With(zap.String("operation", op))
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.opMetrics.Observe(op, obsmetrics.OutcomeCommitted, "", elapsed)
		log.Info("operation committed", zap.Duration("duration", elapsed))
	case domain.IsRejection(err):
		reason := domain.Code(err)
		s.opMetrics.Observe(op, obsmetrics.OutcomeRejected, reason, elapsed)
		s.obsMetrics.RecordRejection(ctx, op, reason)
		log.Info("operation rejected", zap.String("reason", reason))
	default:
		s.opMetrics.Observe(op, obsmetrics.OutcomeFailed, "internal", elapsed)
		log.Error("operation failed", zap.Error(err))
	}
}

func (s *Service) audit(ctx context.Context, tx *gorm.DB, action, targetType, targetID string, metadata map[string]any) error {
	if s.auditSvc == nil {
		return nil
	}
	return s.auditSvc.Record(ctx, tx, action, targetType, targetID, metadata)
}
