package utils

import (
	"fmt"
	"math/big"
	"strings"
)

var (
	OneEtherInWei = int64(1_000_000_000_000_000_000)
	OneGweiInWei  = int64(1_000_000_000)
)

// ParseValue converts a numeric transaction value string into wei. Both hex
// ("0x0") and decimal ("1000") forms are accepted.
func ParseValue(s string) (*big.Int, error) {
	if s == "" {
		return big.NewInt(0), nil
	}

	base := 10
	digits := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		digits = s[2:]
	}

	value, ok := new(big.Int).SetString(digits, base)
	if !ok || value.Sign() < 0 {
		return nil, fmt.Errorf("invalid transaction value %s", s)
	}

	return value, nil
}

// WeiToGwei is used for reporting gas prices in operational events.
func WeiToGwei(wei *big.Int) float64 {
	if wei == nil {
		return 0
	}

	f := new(big.Float).SetInt(wei)
	f = f.Quo(f, new(big.Float).SetInt64(OneGweiInWei))
	ret, _ := f.Float64()

	return ret
}
