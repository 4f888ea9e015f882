package ledger

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/smallbiznis/flightsurety/internal/config"
	"github.com/smallbiznis/flightsurety/internal/ledger/domain"
)

// NewSettings resolves the deployment identities from configuration.
func NewSettings(cfg config.Config) (domain.Settings, error) {
	owner, err := parseAddress("CONTRACT_OWNER", cfg.Contract.OwnerAddress, true)
	if err != nil {
		return domain.Settings{}, err
	}
	treasury, err := parseAddress("CONTRACT_TREASURY", cfg.Contract.TreasuryAddress, true)
	if err != nil {
		return domain.Settings{}, err
	}
	controller, err := parseAddress("CONTRACT_CONTROLLER", cfg.Contract.ControllerAddress, false)
	if err != nil {
		return domain.Settings{}, err
	}
	first, err := parseAddress("FIRST_AIRLINE", cfg.Contract.FirstAirline, false)
	if err != nil {
		return domain.Settings{}, err
	}
	if treasury == owner {
		return domain.Settings{}, fmt.Errorf("CONTRACT_TREASURY must differ from CONTRACT_OWNER")
	}

	return domain.Settings{
		Owner:            owner,
		Treasury:         treasury,
		Controller:       controller,
		FirstAirline:     first,
		FirstAirlineName: strings.TrimSpace(cfg.Contract.FirstAirlineName),
	}, nil
}

func parseAddress(key, raw string, required bool) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return common.Address{}, fmt.Errorf("%s is required", key)
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, fmt.Errorf("%s: invalid address %q", key, raw)
	}
	addr := common.HexToAddress(raw)
	if required && addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("%s must not be the zero address", key)
	}
	return addr, nil
}
