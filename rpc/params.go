package rpc

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

func parseAddress(field, raw string) ([20]byte, error) {
	var addr [20]byte
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return addr, fmt.Errorf("%s required", field)
	}
	if !common.IsHexAddress(trimmed) {
		return addr, fmt.Errorf("%s: invalid address %q", field, raw)
	}
	copy(addr[:], common.HexToAddress(trimmed).Bytes())
	return addr, nil
}

func parseAmount(field, raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%s required", field)
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("%s: not a base-10 amount: %q", field, raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("%s must be non-negative", field)
	}
	return amount, nil
}

func formatAddress(addr [20]byte) string {
	return common.BytesToAddress(addr[:]).Hex()
}
