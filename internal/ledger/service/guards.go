package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"gorm.io/gorm"
)

func (s *Service) requireOperational() domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		state, err := s.repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		if !state.Operational {
			return domain.ErrNotOperational
		}
		return nil
	}
}

func (s *Service) requireOwner(caller common.Address) domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		state, err := s.repo.GetState(ctx, tx)
		if err != nil {
			return err
		}
		if caller == (common.Address{}) || common.HexToAddress(state.Owner) != caller {
			return domain.ErrUnauthorized
		}
		return nil
	}
}

func (s *Service) requireAuthorizedCaller(caller common.Address) domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		if caller == (common.Address{}) {
			return domain.ErrUnauthorized
		}
		ok, err := s.repo.IsAuthorized(ctx, tx, caller.Hex())
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrUnauthorized
		}
		return nil
	}
}

func (s *Service) requireNotAuthorized(addr common.Address) domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		ok, err := s.repo.IsAuthorized(ctx, tx, addr.Hex())
		if err != nil {
			return err
		}
		if ok {
			return domain.ErrAlreadyAuthorized
		}
		return nil
	}
}

func (s *Service) requireNotRegistered(addr common.Address) domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		airline, err := s.repo.GetAirline(ctx, tx, addr.Hex())
		if err != nil {
			return err
		}
		if airline != nil && airline.IsRegistered {
			return domain.ErrAlreadyRegistered
		}
		return nil
	}
}

func (s *Service) requireNotFunded(addr common.Address) domain.Guard {
	return func(ctx context.Context, tx *gorm.DB) error {
		airline, err := s.repo.GetAirline(ctx, tx, addr.Hex())
		if err != nil {
			return err
		}
		if airline != nil && airline.IsFunded {
			return domain.ErrAlreadyFunded
		}
		return nil
	}
}

// requireFundingUnit checks the attached value; a declared amount, when given, must agree with it.
func requireFundingUnit(value, declared, unit int64) domain.Guard {
	return func(context.Context, *gorm.DB) error {
		if value != unit {
			return domain.ErrWrongAmount
		}
		if declared != 0 && declared != value {
			return domain.ErrWrongAmount
		}
		return nil
	}
}
