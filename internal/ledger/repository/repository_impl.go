package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) GetState(ctx context.Context, db *gorm.DB) (*domain.ContractState, error) {
	var state domain.ContractState
	err := db.WithContext(ctx).
		Where("id = ?", domain.ContractStateID).
		Take(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (r *repo) CreateState(ctx context.Context, db *gorm.DB, state *domain.ContractState) error {
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(state).Error
}

func (r *repo) UpdateOperational(ctx context.Context, db *gorm.DB, mode bool) error {
	return db.WithContext(ctx).Exec(
		`UPDATE contract_state SET operational = ?, updated_at = ? WHERE id = ?`,
		mode,
		time.Now().UTC(),
		domain.ContractStateID,
	).Error
}

func (r *repo) IsAuthorized(ctx context.Context, db *gorm.DB, address string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.AuthorizedCaller{}).
		Where("address = ?", address).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) InsertAuthorized(ctx context.Context, db *gorm.DB, caller *domain.AuthorizedCaller) error {
	return db.WithContext(ctx).Create(caller).Error
}

func (r *repo) DeleteAuthorized(ctx context.Context, db *gorm.DB, address string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM authorized_callers WHERE address = ?`,
		address,
	).Error
}

func (r *repo) GetAirline(ctx context.Context, db *gorm.DB, address string) (*domain.Airline, error) {
	var airline domain.Airline
	err := db.WithContext(ctx).
		Where("address = ?", address).
		Take(&airline).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &airline, nil
}

func (r *repo) SaveAirline(ctx context.Context, db *gorm.DB, airline *domain.Airline) error {
	return db.WithContext(ctx).Save(airline).Error
}

func (r *repo) AppendMultiSig(ctx context.Context, db *gorm.DB, address string) error {
	return db.WithContext(ctx).Create(&domain.MultiSigEntry{
		Address:   address,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func (r *repo) ListMultiSig(ctx context.Context, db *gorm.DB) ([]string, error) {
	var addresses []string
	err := db.WithContext(ctx).
		Model(&domain.MultiSigEntry{}).
		Order("position asc").
		Pluck("address", &addresses).Error
	return addresses, err
}

func (r *repo) CountMultiSig(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.MultiSigEntry{}).Count(&count).Error
	return count, err
}

func (r *repo) GetFunds(ctx context.Context, db *gorm.DB, airline string) (int64, error) {
	var funds domain.AirlineFunds
	err := db.WithContext(ctx).
		Where("airline = ?", airline).
		Take(&funds).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return funds.Amount, nil
}

func (r *repo) AddFunds(ctx context.Context, db *gorm.DB, airline string, amount int64) error {
	now := time.Now().UTC()
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "airline"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"amount":     gorm.Expr("airline_funds.amount + ?", amount),
			"updated_at": now,
		}),
	}).Create(&domain.AirlineFunds{
		Airline:   airline,
		Amount:    amount,
		UpdatedAt: now,
	}).Error
}

func (r *repo) ClearFunds(ctx context.Context, db *gorm.DB, airline string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE airline_funds SET amount = 0, updated_at = ? WHERE airline = ?`,
		time.Now().UTC(),
		airline,
	).Error
}

func (r *repo) AppendFunded(ctx context.Context, db *gorm.DB, airline string) error {
	return db.WithContext(ctx).Create(&domain.FundedEntry{
		Address:   airline,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func (r *repo) RemoveFunded(ctx context.Context, db *gorm.DB, airline string) error {
	return db.WithContext(ctx).Exec(
		`DELETE FROM funded_airlines WHERE address = ?`,
		airline,
	).Error
}

func (r *repo) ListFunded(ctx context.Context, db *gorm.DB) ([]string, error) {
	var addresses []string
	err := db.WithContext(ctx).
		Model(&domain.FundedEntry{}).
		Order("position asc").
		Pluck("address", &addresses).Error
	return addresses, err
}

func (r *repo) GetInsurance(ctx context.Context, db *gorm.DB, beneficiary string) (*domain.Insurance, error) {
	var insurance domain.Insurance
	err := db.WithContext(ctx).
		Where("beneficiary = ?", beneficiary).
		Take(&insurance).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &insurance, nil
}

func (r *repo) SaveInsurance(ctx context.Context, db *gorm.DB, insurance *domain.Insurance) error {
	return db.WithContext(ctx).Save(insurance).Error
}

func (r *repo) GetCredit(ctx context.Context, db *gorm.DB, beneficiary string) (int64, error) {
	var credit domain.PendingCredit
	err := db.WithContext(ctx).
		Where("beneficiary = ?", beneficiary).
		Take(&credit).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return credit.Amount, nil
}

func (r *repo) SaveCredit(ctx context.Context, db *gorm.DB, beneficiary string, amount int64) error {
	return db.WithContext(ctx).Save(&domain.PendingCredit{
		Beneficiary: beneficiary,
		Amount:      amount,
		UpdatedAt:   time.Now().UTC(),
	}).Error
}

func (r *repo) GetFlight(ctx context.Context, db *gorm.DB, key string) (*domain.Flight, error) {
	var flight domain.Flight
	err := db.WithContext(ctx).
		Where("flight_key = ?", key).
		Take(&flight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &flight, nil
}

func (r *repo) SaveFlight(ctx context.Context, db *gorm.DB, flight *domain.Flight) error {
	return db.WithContext(ctx).Save(flight).Error
}
