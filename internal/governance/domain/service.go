package domain

import (
	"context"
	"errors"

	"github.com/ethereum/go-ethereum/common"
	ledgerdomain "github.com/smallbiznis/flightsurety/internal/ledger/domain"
)

// Registration paths reported in RegistrationResult.Path.
const (
	PathDirect = "direct"
	PathVote   = "vote"
)

// RegistrationResult describes the outcome of one registration request.
// Registered is false when the request only added a vote.
type RegistrationResult struct {
	Candidate  common.Address `json:"candidate"`
	Registered bool           `json:"registered"`
	Path       string         `json:"path"`
	Votes      int            `json:"votes"`
	Required   int            `json:"required"`
}

// Tally buffers votes per candidate until the candidate registers.
type Tally interface {
	Voters(ctx context.Context, candidate common.Address) ([]common.Address, error)
	Add(ctx context.Context, candidate, voter common.Address) error
	Reset(ctx context.Context, candidate common.Address) error
}

// Service gates airline registration behind funding, authorization and,
// past the threshold, a majority vote of the registry.
type Service interface {
	RegisterAirline(ctx context.Context, call ledgerdomain.Call, candidate common.Address, name string) (RegistrationResult, error)
	Votes(ctx context.Context, candidate common.Address) ([]common.Address, error)
	ResetVotes(ctx context.Context, call ledgerdomain.Call, candidate common.Address) error

	// AirlineFunding funds the calling airline with the attached value.
	AirlineFunding(ctx context.Context, call ledgerdomain.Call, declared int64) error
	CheckFunds(ctx context.Context, airline common.Address) (int64, error)
	AuthorizeCaller(ctx context.Context, call ledgerdomain.Call, addr common.Address) error
	DeauthorizeCaller(ctx context.Context, call ledgerdomain.Call, addr common.Address) error
}

var ErrDuplicateVote = errors.New("duplicate_vote")

// IsRejection extends the store's rejections with governance ones.
func IsRejection(err error) bool {
	return errors.Is(err, ErrDuplicateVote) || ledgerdomain.IsRejection(err)
}

func Code(err error) string {
	if errors.Is(err, ErrDuplicateVote) {
		return ErrDuplicateVote.Error()
	}
	return ledgerdomain.Code(err)
}

func Reason(err error) string {
	if errors.Is(err, ErrDuplicateVote) {
		return "caller already voted for this candidate"
	}
	return ledgerdomain.Reason(err)
}

// RequiredVotes is half the registry length, at least one.
func RequiredVotes(registered int) int {
	required := registered / 2
	if required < 1 {
		return 1
	}
	return required
}
