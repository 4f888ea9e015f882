package service

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Bootstrap creates the contract state, authorizes the owner, the governance
// controller and the first airline, and registers the first airline unfunded.
func (s *Service) Bootstrap(ctx context.Context) error {
	return s.mutate(ctx, "bootstrap", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		now := s.clock.Now()

		state, err := s.repo.GetState(ctx, tx)
		switch {
		case errors.Is(err, domain.ErrNotInitialized):
			if s.settings.Owner == (common.Address{}) {
				return domain.ErrInvalidAddress
			}
			state = &domain.ContractState{
				ID:          domain.ContractStateID,
				Operational: true,
				Owner:       s.settings.Owner.Hex(),
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := s.repo.CreateState(ctx, tx, state); err != nil {
				return err
			}
			if err := s.audit(ctx, tx, "contract.bootstrap", "contract", state.Owner, nil); err != nil {
				return err
			}
		case err != nil:
			return err
		case state.Owner != s.settings.Owner.Hex():
			s.log.Warn("configured owner differs from deployed owner; keeping deployed owner",
				zap.String("deployed", state.Owner),
				zap.String("configured", s.settings.Owner.Hex()),
			)
		}

		owner := common.HexToAddress(state.Owner)
		for _, addr := range []common.Address{owner, s.settings.Controller, s.settings.FirstAirline} {
			if addr == (common.Address{}) {
				continue
			}
			if err := s.ensureAuthorized(ctx, tx, em, owner, addr); err != nil {
				return err
			}
		}

		first := s.settings.FirstAirline
		if first == (common.Address{}) {
			return nil
		}
		airline, err := s.repo.GetAirline(ctx, tx, first.Hex())
		if err != nil {
			return err
		}
		if airline != nil && airline.IsRegistered {
			return nil
		}
		return s.register(ctx, tx, em, first, s.settings.FirstAirlineName)
	})
}

func (s *Service) ensureAuthorized(ctx context.Context, tx *gorm.DB, em *events.Emitter, by, addr common.Address) error {
	ok, err := s.repo.IsAuthorized(ctx, tx, addr.Hex())
	if err != nil || ok {
		return err
	}
	return s.authorize(ctx, tx, em, by, addr)
}

func (s *Service) IsOperational(ctx context.Context) (bool, error) {
	state, err := s.repo.GetState(ctx, s.db)
	if err != nil {
		return false, err
	}
	return state.Operational, nil
}

func (s *Service) SetOperatingStatus(ctx context.Context, call domain.Call, mode bool) error {
	return s.mutate(ctx, "set_operating_status", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx, s.requireOwner(call.From)); err != nil {
			return err
		}
		if err := s.repo.UpdateOperational(ctx, tx, mode); err != nil {
			return err
		}
		em.Emit(events.OperatingStatusChanged, map[string]any{
			"operational": mode,
			"changed_by":  call.From.Hex(),
		})
		return s.audit(ctx, tx, "contract.set_operating_status", "contract", "", map[string]any{
			"operational": mode,
		})
	})
}

func (s *Service) AuthorizeCaller(ctx context.Context, call domain.Call, addr common.Address) error {
	return s.mutate(ctx, "authorize_caller", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			s.requireAuthorizedCaller(call.From),
			domain.NonZeroAddress(addr),
			s.requireNotAuthorized(addr),
		); err != nil {
			return err
		}
		return s.authorize(ctx, tx, em, call.From, addr)
	})
}

func (s *Service) authorize(ctx context.Context, tx *gorm.DB, em *events.Emitter, by, addr common.Address) error {
	if err := s.repo.InsertAuthorized(ctx, tx, &domain.AuthorizedCaller{
		Address:      addr.Hex(),
		AuthorizedBy: by.Hex(),
		CreatedAt:    s.clock.Now(),
	}); err != nil {
		return err
	}
	em.Emit(events.ContractAuthorized, map[string]any{
		"address": addr.Hex(),
	})
	return s.audit(ctx, tx, "caller.authorize", "caller", addr.Hex(), map[string]any{
		"authorized_by": by.Hex(),
	})
}

func (s *Service) DeauthorizeCaller(ctx context.Context, call domain.Call, addr common.Address) error {
	return s.mutate(ctx, "deauthorize_caller", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			s.requireAuthorizedCaller(call.From),
			domain.NonZeroAddress(addr),
		); err != nil {
			return err
		}
		if err := s.repo.DeleteAuthorized(ctx, tx, addr.Hex()); err != nil {
			return err
		}
		em.Emit(events.ContractDeauthorized, map[string]any{
			"address": addr.Hex(),
		})
		return s.audit(ctx, tx, "caller.deauthorize", "caller", addr.Hex(), map[string]any{
			"deauthorized_by": call.From.Hex(),
		})
	})
}

func (s *Service) IsAuthorizedCaller(ctx context.Context, addr common.Address) (bool, error) {
	if addr == (common.Address{}) {
		return false, nil
	}
	return s.repo.IsAuthorized(ctx, s.db, addr.Hex())
}
