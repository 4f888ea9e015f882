package repository

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) GetBalance(ctx context.Context, db *gorm.DB, address string) (int64, error) {
	var account domain.Account
	err := db.WithContext(ctx).
		Where("address = ?", address).
		Take(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}

// Debit subtracts amount only when the balance covers it; false means insufficient funds.
func (r *repo) Debit(ctx context.Context, db *gorm.DB, address string, amount int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE wallet_accounts
		SET balance = balance - ?, updated_at = ?
		WHERE address = ? AND balance >= ?`,
		amount,
		time.Now().UTC(),
		address,
		amount,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) Credit(ctx context.Context, db *gorm.DB, address string, amount int64) error {
	account := domain.Account{
		Address:   address,
		Balance:   amount,
		UpdatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "address"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"balance":    gorm.Expr("wallet_accounts.balance + ?", amount),
			"updated_at": account.UpdatedAt,
		}),
	}).Create(&account).Error
}

func (r *repo) InsertTransfer(ctx context.Context, db *gorm.DB, transfer *domain.Transfer, lines []domain.TransferLine) error {
	if err := db.WithContext(ctx).Create(transfer).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&lines).Error
}

func (r *repo) ListLines(ctx context.Context, db *gorm.DB, address string, limit int) ([]domain.TransferLine, error) {
	var lines []domain.TransferLine
	stmt := db.WithContext(ctx).
		Where("address = ?", address).
		Order("created_at desc, id desc")
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	if err := stmt.Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
