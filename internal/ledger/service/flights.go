package service

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"gorm.io/gorm"
)

// RegisterFlight creates or overwrites the flight stored under key.
func (s *Service) RegisterFlight(ctx context.Context, call domain.Call, statusCode uint8, timestamp uint64, airline common.Address, key common.Hash) error {
	return s.mutate(ctx, "register_flight", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx, s.requireOperational()); err != nil {
			return err
		}
		if timestamp > domain.MaxFlightTimestamp {
			return domain.ErrInvalidTimestamp
		}
		if err := s.repo.SaveFlight(ctx, tx, &domain.Flight{
			Key:        key.Hex(),
			Registered: true,
			StatusCode: statusCode,
			Timestamp:  timestamp,
			Airline:    airline.Hex(),
			UpdatedAt:  s.clock.Now(),
		}); err != nil {
			return err
		}
		em.Emit(events.FlightRegistered, map[string]any{
			"flight_key":    key.Hex(),
			"airline":       airline.Hex(),
			"status_code":   int(statusCode),
			"registered_by": call.From.Hex(),
		})
		return nil
	})
}

func (s *Service) IsFlightRegistered(ctx context.Context, key common.Hash) (bool, error) {
	flight, err := s.repo.GetFlight(ctx, s.db, key.Hex())
	if err != nil {
		return false, err
	}
	return flight != nil && flight.Registered, nil
}

// GetRegisteredFlight returns the zero record for unknown keys.
func (s *Service) GetRegisteredFlight(ctx context.Context, key common.Hash) (domain.FlightView, error) {
	flight, err := s.repo.GetFlight(ctx, s.db, key.Hex())
	if err != nil {
		return domain.FlightView{}, err
	}
	if flight == nil {
		return domain.FlightView{Key: key}, nil
	}
	return domain.FlightView{
		Key:        key,
		Registered: flight.Registered,
		StatusCode: flight.StatusCode,
		Timestamp:  flight.Timestamp,
		Airline:    common.HexToAddress(flight.Airline),
	}, nil
}

// SetFlightStatus overwrites the status of a registered flight. Only
// authorized callers and the flight's own airline may report it.
func (s *Service) SetFlightStatus(ctx context.Context, call domain.Call, key common.Hash, statusCode uint8) (uint8, error) {
	err := s.mutate(ctx, "set_flight_status", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx, s.requireOperational()); err != nil {
			return err
		}

		flight, err := s.repo.GetFlight(ctx, tx, key.Hex())
		if err != nil {
			return err
		}
		if flight == nil || !flight.Registered {
			return domain.ErrNoSuchFlight
		}
		if common.HexToAddress(flight.Airline) != call.From {
			if err := domain.Check(ctx, tx, s.requireAuthorizedCaller(call.From)); err != nil {
				return err
			}
		}

		previous := flight.StatusCode
		flight.StatusCode = statusCode
		flight.UpdatedAt = s.clock.Now()
		if err := s.repo.SaveFlight(ctx, tx, flight); err != nil {
			return err
		}

		em.Emit(events.FlightStatusUpdated, map[string]any{
			"flight_key":      flight.Key,
			"status_code":     int(statusCode),
			"previous_status": int(previous),
		})
		return s.audit(ctx, tx, "flight.set_status", "flight", flight.Key, map[string]any{
			"status_code":     int(statusCode),
			"previous_status": int(previous),
		})
	})
	if err != nil {
		return 0, err
	}
	return statusCode, nil
}

func (s *Service) DeriveFlightKey(airline common.Address, flight string, timestamp uint64) common.Hash {
	return domain.DeriveFlightKey(airline, flight, timestamp)
}
