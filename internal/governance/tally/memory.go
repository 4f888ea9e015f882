package tally

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/governance/domain"
)

type memoryTally struct {
	mu     sync.Mutex
	voters map[common.Address][]common.Address
}

// NewMemory keeps votes in process; they are lost on restart.
func NewMemory() domain.Tally {
	return &memoryTally{voters: make(map[common.Address][]common.Address)}
}

func (m *memoryTally) Voters(_ context.Context, candidate common.Address) ([]common.Address, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]common.Address, len(m.voters[candidate]))
	copy(out, m.voters[candidate])
	return out, nil
}

func (m *memoryTally) Add(_ context.Context, candidate, voter common.Address) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.voters[candidate] {
		if v == voter {
			return domain.ErrDuplicateVote
		}
	}
	m.voters[candidate] = append(m.voters[candidate], voter)
	return nil
}

func (m *memoryTally) Reset(_ context.Context, candidate common.Address) error {
	m.mu.Lock()
	delete(m.voters, candidate)
	m.mu.Unlock()
	return nil
}
