package service

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/governance/domain"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"github.com/smallbiznis/flightsurety/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/flightsurety/internal/observability/metrics"
	"github.com/smallbiznis/flightsurety/internal/sequencer"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log        *zap.Logger
	Store      ledgerdomain.Service
	Settings   ledgerdomain.Settings
	Tally      domain.Tally
	Sequencer  sequencer.Sequencer
	Policy     *config.PolicyHolder
	ObsMetrics *obsmetrics.Metrics          `optional:"true"`
	OpMetrics  *obsmetrics.OperationMetrics `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	store      ledgerdomain.Service
	identity   common.Address
	tally      domain.Tally
	seq        sequencer.Sequencer
	policy     *config.PolicyHolder
	obsMetrics *obsmetrics.Metrics
	opMetrics  *obsmetrics.OperationMetrics
	tracer     trace.Tracer
}

func NewService(p Params) domain.Service {
	return &Service{
		log:        p.Log.Named("governance.service"),
		store:      p.Store,
		identity:   p.Settings.Controller,
		tally:      p.Tally,
		seq:        p.Sequencer,
		policy:     p.Policy,
		obsMetrics: p.ObsMetrics,
		opMetrics:  p.OpMetrics,
		tracer:     otel.Tracer("flightsurety/governance"),
	}
}

// RegisterAirline registers candidate directly while the registry is below
// the threshold; afterwards it records the caller's vote and registers once
// the candidate holds votes from at least half the registry.
func (s *Service) RegisterAirline(ctx context.Context, call ledgerdomain.Call, candidate common.Address, name string) (domain.RegistrationResult, error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "governance.register_airline",
		trace.WithAttributes(attribute.String("candidate", candidate.Hex())))
	defer span.End()

	var result domain.RegistrationResult
	err := s.seq.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = s.register(ctx, call, candidate, name)
		return err
	})
	s.observe(ctx, "governance.register_airline", start, err)
	if err != nil {
		return domain.RegistrationResult{}, err
	}

	span.SetAttributes(
		attribute.String("path", result.Path),
		attribute.Bool("registered", result.Registered),
	)
	if result.Registered {
		s.obsMetrics.RecordAirlineRegistered(ctx, result.Path)
	}
	return result, nil
}

func (s *Service) register(ctx context.Context, call ledgerdomain.Call, candidate common.Address, name string) (domain.RegistrationResult, error) {
	if err := s.checkPreconditions(ctx, call.From, candidate); err != nil {
		return domain.RegistrationResult{}, err
	}

	registry, err := s.store.MultiSigAirlines(ctx)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	result := domain.RegistrationResult{Candidate: candidate}

	if len(registry) < s.policy.Get().RegistrationThreshold {
		if _, err := s.store.RegisterAirline(ctx, s.as(), candidate, name); err != nil {
			return domain.RegistrationResult{}, err
		}
		result.Registered = true
		result.Path = domain.PathDirect
		return result, nil
	}

	voters, err := s.tally.Voters(ctx, candidate)
	if err != nil {
		return domain.RegistrationResult{}, err
	}
	for _, v := range voters {
		if v == call.From {
			return domain.RegistrationResult{}, domain.ErrDuplicateVote
		}
	}

	result.Path = domain.PathVote
	result.Votes = len(voters) + 1
	result.Required = domain.RequiredVotes(len(registry))

	if result.Votes < result.Required {
		if err := s.tally.Add(ctx, candidate, call.From); err != nil {
			return domain.RegistrationResult{}, err
		}
		s.obsMetrics.RecordVote(ctx)
		logger.WithContext(ctx, s.log).Info("vote recorded",
			zap.String("candidate", candidate.Hex()),
			zap.String("voter", call.From.Hex()),
			zap.Int("votes", result.Votes),
			zap.Int("required", result.Required),
		)
		return result, nil
	}

	if _, err := s.store.RegisterAirline(ctx, s.as(), candidate, name); err != nil {
		return domain.RegistrationResult{}, err
	}
	s.obsMetrics.RecordVote(ctx)
	if err := s.tally.Reset(ctx, candidate); err != nil {
		logger.WithContext(ctx, s.log).Warn("failed to clear vote tally",
			zap.String("candidate", candidate.Hex()),
			zap.Error(err),
		)
	}
	result.Registered = true
	return result, nil
}

func (s *Service) checkPreconditions(ctx context.Context, caller, candidate common.Address) error {
	operational, err := s.store.IsOperational(ctx)
	if err != nil {
		return err
	}
	if !operational {
		return ledgerdomain.ErrNotOperational
	}
	if candidate == (common.Address{}) {
		return ledgerdomain.ErrInvalidAddress
	}

	funds, err := s.store.CheckFunds(ctx, caller)
	if err != nil {
		return err
	}
	if funds < s.policy.Get().MinimumDeposit {
		return ledgerdomain.ErrNotFunded
	}

	authorized, err := s.store.IsAuthorizedCaller(ctx, caller)
	if err != nil {
		return err
	}
	if !authorized {
		return ledgerdomain.ErrUnauthorized
	}

	registered, err := s.store.IsAirline(ctx, candidate)
	if err != nil {
		return err
	}
	if registered {
		return ledgerdomain.ErrAlreadyRegistered
	}
	return nil
}

// as is the identity the controller presents to the store.
func (s *Service) as() ledgerdomain.Call {
	return ledgerdomain.Call{From: s.identity}
}

func (s *Service) Votes(ctx context.Context, candidate common.Address) ([]common.Address, error) {
	return s.tally.Voters(ctx, candidate)
}

func (s *Service) ResetVotes(ctx context.Context, call ledgerdomain.Call, candidate common.Address) error {
	start := time.Now()
	err := s.seq.Do(ctx, func(ctx context.Context) error {
		operational, err := s.store.IsOperational(ctx)
		if err != nil {
			return err
		}
		if !operational {
			return ledgerdomain.ErrNotOperational
		}
		authorized, err := s.store.IsAuthorizedCaller(ctx, call.From)
		if err != nil {
			return err
		}
		if !authorized {
			return ledgerdomain.ErrUnauthorized
		}
		return s.tally.Reset(ctx, candidate)
	})
	s.observe(ctx, "governance.reset_votes", start, err)
	return err
}

func (s *Service) AirlineFunding(ctx context.Context, call ledgerdomain.Call, declared int64) error {
	return s.store.Fund(ctx, call, call.From, declared)
}

func (s *Service) CheckFunds(ctx context.Context, airline common.Address) (int64, error) {
	return s.store.CheckFunds(ctx, airline)
}

func (s *Service) AuthorizeCaller(ctx context.Context, call ledgerdomain.Call, addr common.Address) error {
	return s.store.AuthorizeCaller(ctx, call, addr)
}

func (s *Service) DeauthorizeCaller(ctx context.Context, call ledgerdomain.Call, addr common.Address) error {
	return s.store.DeauthorizeCaller(ctx, call, addr)
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	log := logger.WithContext(ctx, s.log).With(zap.String("operation", op))
	elapsed := time.Since(start)

	switch {
	case err == nil:
		s.opMetrics.Observe(op, obsmetrics.OutcomeCommitted, "", elapsed)
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
