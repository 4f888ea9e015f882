package service

import (
	"context"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"gorm.io/gorm"
)

func (s *Service) IsAirline(ctx context.Context, addr common.Address) (bool, error) {
	airline, err := s.repo.GetAirline(ctx, s.db, addr.Hex())
	if err != nil {
		return false, err
	}
	return airline != nil && airline.IsRegistered, nil
}

func (s *Service) GetAirline(ctx context.Context, addr common.Address) (domain.AirlineView, error) {
	airline, err := s.repo.GetAirline(ctx, s.db, addr.Hex())
	if err != nil {
		return domain.AirlineView{}, err
	}
	if airline == nil {
		return domain.AirlineView{}, domain.ErrNoSuchAirline
	}
	funds, err := s.repo.GetFunds(ctx, s.db, airline.Address)
	if err != nil {
		return domain.AirlineView{}, err
	}
	return domain.AirlineView{
		Address:      common.HexToAddress(airline.Address),
		Name:         airline.Name,
		IsRegistered: airline.IsRegistered,
		IsFunded:     airline.IsFunded,
		Funds:        funds,
	}, nil
}

// RegisterAirline commits a new airline. The airline keeps its funded flag if
// it funded before registering; otherwise it starts unfunded.
func (s *Service) RegisterAirline(ctx context.Context, call domain.Call, addr common.Address, name string) (bool, error) {
	err := s.mutate(ctx, "register_airline", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			s.requireAuthorizedCaller(call.From),
			domain.NonZeroAddress(addr),
			s.requireNotRegistered(addr),
		); err != nil {
			return err
		}
		if err := s.register(ctx, tx, em, addr, name); err != nil {
			return err
		}
		return s.audit(ctx, tx, "airline.register", "airline", addr.Hex(), map[string]any{
			"name":          name,
			"registered_by": call.From.Hex(),
		})
	})
	if err != nil {
		return false, err
	}
	s.obsMetrics.RecordAirlineRegistered(ctx, "store")
	return true, nil
}

func (s *Service) register(ctx context.Context, tx *gorm.DB, em *events.Emitter, addr common.Address, name string) error {
	now := s.clock.Now()
	airline, err := s.repo.GetAirline(ctx, tx, addr.Hex())
	if err != nil {
		return err
	}
	if airline == nil {
		airline = &domain.Airline{Address: addr.Hex()}
	}
	airline.Name = name
	airline.IsRegistered = true
	airline.RegisteredAt = &now
	airline.UpdatedAt = now

	if err := s.repo.SaveAirline(ctx, tx, airline); err != nil {
		return err
	}
	if err := s.repo.AppendMultiSig(ctx, tx, airline.Address); err != nil {
		return err
	}
	em.Emit(events.AirlineRegistered, map[string]any{
		"airline":       airline.Address,
		"name":          airline.Name,
		"is_funded":     airline.IsFunded,
		"is_registered": airline.IsRegistered,
	})
	return nil
}

func (s *Service) MultiSigAirlines(ctx context.Context) ([]common.Address, error) {
	addresses, err := s.repo.ListMultiSig(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toAddresses(addresses), nil
}

func (s *Service) Fund(ctx context.Context, call domain.Call, airline common.Address, declared int64) error {
	unit := s.policy.Get().FundingUnit
	err := s.mutate(ctx, "fund", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			domain.NonZeroAddress(airline),
			requireFundingUnit(call.Value, declared, unit),
			s.requireNotFunded(airline),
		); err != nil {
			return err
		}

		if err := s.wallet.Transfer(ctx, tx, call.From, s.settings.Treasury, call.Value, "fund:"+airline.Hex()); err != nil {
			return err
		}

		now := s.clock.Now()
		record, err := s.repo.GetAirline(ctx, tx, airline.Hex())
		if err != nil {
			return err
		}
		if record == nil {
			record = &domain.Airline{Address: airline.Hex()}
		}
		record.IsFunded = true
		record.FundedAt = &now
		record.UpdatedAt = now
		if err := s.repo.SaveAirline(ctx, tx, record); err != nil {
			return err
		}
		if err := s.repo.AddFunds(ctx, tx, record.Address, call.Value); err != nil {
			return err
		}
		if err := s.repo.AppendFunded(ctx, tx, record.Address); err != nil {
			return err
		}

		em.Emit(events.FundedByAirline, map[string]any{
			"airline":      record.Address,
			"amount":       strconv.FormatInt(call.Value, 10),
			"amount_ether": walletdomain.FormatEther(call.Value),
			"funded_by":    call.From.Hex(),
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.obsMetrics.RecordFunding(ctx, call.Value)
	return nil
}

func (s *Service) CheckFunds(ctx context.Context, airline common.Address) (int64, error) {
	record, err := s.repo.GetAirline(ctx, s.db, airline.Hex())
	if err != nil {
		return 0, err
	}
	if record == nil || !record.IsFunded {
		return 0, domain.ErrNotFunded
	}
	return s.repo.GetFunds(ctx, s.db, record.Address)
}

func (s *Service) GetNumOfFundedAirlines(ctx context.Context) ([]common.Address, error) {
	addresses, err := s.repo.ListFunded(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return toAddresses(addresses), nil
}

func (s *Service) ResetAirlineFunding(ctx context.Context, call domain.Call, airline common.Address) error {
	return s.mutate(ctx, "reset_airline_funding", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			s.requireOwner(call.From),
			domain.NonZeroAddress(airline),
		); err != nil {
			return err
		}

		record, err := s.repo.GetAirline(ctx, tx, airline.Hex())
		if err != nil {
			return err
		}
		if record == nil {
			return domain.ErrNoSuchAirline
		}
		record.IsFunded = false
		record.FundedAt = nil
		record.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveAirline(ctx, tx, record); err != nil {
			return err
		}
		if err := s.repo.ClearFunds(ctx, tx, record.Address); err != nil {
			return err
		}
		if err := s.repo.RemoveFunded(ctx, tx, record.Address); err != nil {
			return err
		}

		em.Emit(events.AirlineFundingReset, map[string]any{
			"airline": record.Address,
		})
		return s.audit(ctx, tx, "airline.reset_funding", "airline", record.Address, nil)
	})
}

func toAddresses(values []string) []common.Address {
	out := make([]common.Address, 0, len(values))
	for _, v := range values {
		out = append(out, common.HexToAddress(v))
	}
	return out
}
