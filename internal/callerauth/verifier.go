package callerauth

import (
	"context"
	"errors"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/smallbiznis/flightsurety/internal/clock"
)

const DefaultMaxSkew = 5 * time.Minute

// Verifier checks that a request was signed by the account it claims to come
// from, recently, and only once.
type Verifier struct {
	clock   clock.Clock
	maxSkew time.Duration
	replay  ReplayGuard
}

func NewVerifier(clk clock.Clock, maxSkew time.Duration, replay ReplayGuard) *Verifier {
	if maxSkew <= 0 {
		maxSkew = DefaultMaxSkew
	}
	if replay == nil {
		replay = NewMemoryReplayGuard(clk)
	}
	return &Verifier{
		clock:   clk,
		maxSkew: maxSkew,
		replay:  replay,
	}
}

// Verify authenticates claimed as the signer of r. A signature is accepted
// once within the skew window on either side of the server clock.
func (v *Verifier) Verify(ctx context.Context, claimed common.Address, r Request, sig []byte) error {
	if len(sig) == 0 {
		return ErrMissingSignature
	}

	now := v.clock.Now()
	issued := time.Unix(r.Timestamp, 0)
	if issued.Before(now.Add(-v.maxSkew)) || issued.After(now.Add(v.maxSkew)) {
		return ErrStaleTimestamp
	}

	signer, err := Recover(r, sig)
	if err != nil {
		return err
	}
	if signer != claimed {
		return ErrCallerMismatch
	}

	digest := r.Digest()
	key := crypto.Keccak256Hash(signer.Bytes(), digest[:]).Hex()
	fresh, err := v.replay.Remember(ctx, key, 2*v.maxSkew)
	if err != nil {
		return err
	}
	if !fresh {
		return ErrReplayed
	}
	return nil
}

// IsAuthFailure reports whether err rejects the caller's credentials, as
// opposed to a failure of the replay store.
func IsAuthFailure(err error) bool {
	switch {
	case errors.Is(err, ErrMissingSignature),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrCallerMismatch),
		errors.Is(err, ErrStaleTimestamp),
		errors.Is(err, ErrReplayed):
		return true
	}
	return false
}
