package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/clock"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	GenID  *snowflake.Node
	Repo   domain.Repository
	Clock  clock.Clock
	Config config.Config
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     domain.Repository
	clock    clock.Clock
	rejected map[common.Address]struct{}
}

func NewService(p Params) domain.Service {
	rejected := make(map[common.Address]struct{}, len(p.Config.Contract.RejectedRecipients))
	for _, raw := range p.Config.Contract.RejectedRecipients {
		raw = strings.TrimSpace(raw)
		if !common.IsHexAddress(raw) {
			p.Log.Warn("ignoring invalid rejected recipient", zap.String("address", raw))
			continue
		}
		rejected[common.HexToAddress(raw)] = struct{}{}
	}

	return &Service{
		db:       p.DB,
		log:      p.Log.Named("wallet.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		clock:    p.Clock,
		rejected: rejected,
	}
}

func (s *Service) Transfer(ctx context.Context, tx *gorm.DB, from, to common.Address, amount int64, memo string) error {
	if amount <= 0 {
		return domain.ErrInvalidAmount
	}
	if from == (common.Address{}) || to == (common.Address{}) {
		return domain.ErrInvalidAccount
	}
	if _, ok := s.rejected[to]; ok {
		return domain.ErrRecipientRejected
	}

	if tx == nil {
		return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.transfer(ctx, tx, from.Hex(), to.Hex(), amount, domain.TransferKindTransfer, memo)
		})
	}
	return s.transfer(ctx, tx, from.Hex(), to.Hex(), amount, domain.TransferKindTransfer, memo)
}

func (s *Service) Deposit(ctx context.Context, to common.Address, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	if to == (common.Address{}) {
		return 0, domain.ErrInvalidAccount
	}

	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.credit(ctx, tx, to.Hex(), amount); err != nil {
			return err
		}
		if err := s.journal(ctx, tx, domain.ExternalAddress, to.Hex(), amount, domain.TransferKindDeposit, "deposit"); err != nil {
			return err
		}
		var err error
		balance, err = s.repo.GetBalance(ctx, tx, to.Hex())
		return err
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("deposit credited",
		zap.String("address", to.Hex()),
		zap.String("amount_ether", domain.FormatEther(amount)),
	)
	return balance, nil
}

func (s *Service) Balance(ctx context.Context, addr common.Address) (int64, error) {
	return s.repo.GetBalance(ctx, s.db, addr.Hex())
}

func (s *Service) History(ctx context.Context, addr common.Address, limit int) ([]domain.TransferLine, error) {
	if limit <= 0 || limit > 250 {
		limit = 50
	}
	return s.repo.ListLines(ctx, s.db, addr.Hex(), limit)
}

func (s *Service) transfer(ctx context.Context, tx *gorm.DB, from, to string, amount int64, kind domain.TransferKind, memo string) error {
	ok, err := s.repo.Debit(ctx, tx, from, amount)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInsufficientBalance
	}
	if err := s.credit(ctx, tx, to, amount); err != nil {
		return err
	}
	return s.journal(ctx, tx, from, to, amount, kind, memo)
}

func (s *Service) credit(ctx context.Context, tx *gorm.DB, to string, amount int64) error {
	current, err := s.repo.GetBalance(ctx, tx, to)
	if err != nil {
		return err
	}
	if current > math.MaxInt64-amount {
		return domain.ErrBalanceOverflow
	}
	return s.repo.Credit(ctx, tx, to, amount)
}

func (s *Service) journal(ctx context.Context, tx *gorm.DB, from, to string, amount int64, kind domain.TransferKind, memo string) error {
	now := s.now()
	transfer := domain.Transfer{
		ID:        s.genID.Generate(),
		Kind:      kind,
		Memo:      memo,
		Amount:    amount,
		CreatedAt: now,
	}
	lines := []domain.TransferLine{
		{
			ID:         s.genID.Generate(),
			TransferID: transfer.ID,
			Address:    from,
			Direction:  domain.DirectionDebit,
			Amount:     amount,
			CreatedAt:  now,
		},
		{
			ID:         s.genID.Generate(),
			TransferID: transfer.ID,
			Address:    to,
			Direction:  domain.DirectionCredit,
			Amount:     amount,
			CreatedAt:  now,
		},
	}
	if err := domain.ValidateBalanced(lines); err != nil {
		return err
	}
	return s.repo.InsertTransfer(ctx, tx, &transfer, lines)
}

func (s *Service) now() time.Time {
	if s.clock == nil {
		return time.Now().UTC()
	}
	return s.clock.Now()
}
