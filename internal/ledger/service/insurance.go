package service

import (
	"context"
	"math"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/events"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
	walletdomain "github.com/smallbiznis/flightsurety/internal/wallet/domain"
	"gorm.io/gorm"
)

// Buy records insurance for beneficiary, replacing any previous record. The
// attached value is the premium and moves from the caller to the treasury.
func (s *Service) Buy(ctx context.Context, call domain.Call, beneficiary common.Address, flight string) error {
	err := s.mutate(ctx, "buy", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			domain.NonZeroAddress(beneficiary),
			domain.PositiveValue(call.Value),
		); err != nil {
			return err
		}

		if err := s.wallet.Transfer(ctx, tx, call.From, s.settings.Treasury, call.Value, "premium:"+beneficiary.Hex()); err != nil {
			return err
		}
		if err := s.repo.SaveInsurance(ctx, tx, &domain.Insurance{
			Beneficiary: beneficiary.Hex(),
			Flight:      flight,
			Amount:      call.Value,
			Payer:       call.From.Hex(),
			UpdatedAt:   s.clock.Now(),
		}); err != nil {
			return err
		}

		em.Emit(events.InsuranceBought, map[string]any{
			"beneficiary":  beneficiary.Hex(),
			"flight":       flight,
			"amount":       strconv.FormatInt(call.Value, 10),
			"amount_ether": walletdomain.FormatEther(call.Value),
		})
		return nil
	})
	if err != nil {
		return err
	}
	s.obsMetrics.RecordInsuranceBought(ctx, call.Value)
	return nil
}

func (s *Service) InsuranceQuery(ctx context.Context, beneficiary common.Address) (domain.InsuranceView, error) {
	insurance, err := s.repo.GetInsurance(ctx, s.db, beneficiary.Hex())
	if err != nil {
		return domain.InsuranceView{}, err
	}
	if insurance == nil {
		return domain.InsuranceView{}, domain.ErrNoSuchInsurance
	}
	return domain.InsuranceView{
		Beneficiary: beneficiary,
		Flight:      insurance.Flight,
		Amount:      insurance.Amount,
	}, nil
}

// CreditInsurees sets the pending credit of beneficiary to the premium times
// the policy multiplier, truncated.
func (s *Service) CreditInsurees(ctx context.Context, call domain.Call, beneficiary common.Address) (int64, error) {
	policy := s.policy.Get()

	var credit int64
	err := s.mutate(ctx, "credit_insurees", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx, s.requireOperational()); err != nil {
			return err
		}

		insurance, err := s.repo.GetInsurance(ctx, tx, beneficiary.Hex())
		if err != nil {
			return err
		}
		if insurance == nil {
			return domain.ErrNoSuchInsurance
		}
		if insurance.Amount <= 0 {
			return domain.ErrZeroBalance
		}

		credit, err = multiplyCredit(insurance.Amount, policy.CreditNumerator, policy.CreditDenominator)
		if err != nil {
			return err
		}
		if err := s.repo.SaveCredit(ctx, tx, beneficiary.Hex(), credit); err != nil {
			return err
		}

		em.Emit(events.CreditIssuedToInsuree, map[string]any{
			"beneficiary":  beneficiary.Hex(),
			"amount":       strconv.FormatInt(credit, 10),
			"amount_ether": walletdomain.FormatEther(credit),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.obsMetrics.RecordCreditIssued(ctx)
	return credit, nil
}

// multiplyCredit computes amount*num/den, multiplying first.
func multiplyCredit(amount, num, den int64) (int64, error) {
	if den <= 0 || num <= 0 {
		return 0, domain.ErrAmountOverflow
	}
	if amount > math.MaxInt64/num {
		return 0, domain.ErrAmountOverflow
	}
	return amount * num / den, nil
}

// PendingCreditQuery requires an insurance record; a beneficiary without a
// computed credit reads as zero.
func (s *Service) PendingCreditQuery(ctx context.Context, beneficiary common.Address) (int64, error) {
	insurance, err := s.repo.GetInsurance(ctx, s.db, beneficiary.Hex())
	if err != nil {
		return 0, err
	}
	if insurance == nil {
		return 0, domain.ErrNoSuchInsurance
	}
	return s.repo.GetCredit(ctx, s.db, beneficiary.Hex())
}

// Pay withdraws the caller's pending credit. The credit is zeroed before the
// treasury transfer; both share the transaction so a failed transfer restores it.
func (s *Service) Pay(ctx context.Context, call domain.Call) (int64, error) {
	var amount int64
	err := s.mutate(ctx, "pay", func(ctx context.Context, tx *gorm.DB, em *events.Emitter) error {
		if err := domain.Check(ctx, tx,
			s.requireOperational(),
			domain.NonZeroAddress(call.From),
		); err != nil {
			return err
		}

		beneficiary := call.From.Hex()
		insurance, err := s.repo.GetInsurance(ctx, tx, beneficiary)
		if err != nil {
			return err
		}
		if insurance == nil {
			return domain.ErrNoSuchInsurance
		}
		amount, err = s.repo.GetCredit(ctx, tx, beneficiary)
		if err != nil {
			return err
		}
		if amount <= 0 {
			return domain.ErrZeroCredit
		}

		if err := s.repo.SaveCredit(ctx, tx, beneficiary, 0); err != nil {
			return err
		}
		if err := s.wallet.Transfer(ctx, tx, s.settings.Treasury, call.From, amount, "payout:"+beneficiary); err != nil {
			return err
		}

		em.Emit(events.InsurancePayoutPaid, map[string]any{
			"beneficiary":  beneficiary,
			"amount":       strconv.FormatInt(amount, 10),
			"amount_ether": walletdomain.FormatEther(amount),
		})
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.obsMetrics.RecordPayout(ctx, amount)
	return amount, nil
}
