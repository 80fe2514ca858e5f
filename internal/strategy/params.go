package strategy

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MJE43/roulette-strategy-sim/internal/roulette"
)

// Params carries strategy construction parameters as decoded from JSON,
// YAML or command-line key=value pairs.
type Params map[string]any

// ParseParams turns "key=value" pairs into Params. Values stay strings and
// are converted on lookup.
func ParseParams(pairs []string) (Params, error) {
	params := Params{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: parameter %q is not key=value", roulette.ErrInvalidArgument, pair)
		}
		params[key] = strings.TrimSpace(value)
	}
	return params, nil
}

func (p Params) decimalOr(key string, def decimal.Decimal) (decimal.Decimal, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case decimal.Decimal:
		return v, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case json.Number:
		return decimal.NewFromString(v.String())
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: invalid %s value %q", roulette.ErrInvalidArgument, key, v)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%w: unsupported type for %s: %T", roulette.ErrInvalidArgument, key, raw)
	}
}

func (p Params) intOr(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}

	switch v := raw.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		return int(v), nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: invalid %s value %q", roulette.ErrInvalidArgument, key, v)
		}
		return int(n), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: invalid %s value %q", roulette.ErrInvalidArgument, key, v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: unsupported type for %s: %T", roulette.ErrInvalidArgument, key, raw)
	}
}

func (p Params) stringOr(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return def, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%w: unsupported type for %s: %T", roulette.ErrInvalidArgument, key, raw)
	}
	return s, nil
}

// decimals accepts a list or a comma-separated string.
func (p Params) decimalList(key string) ([]decimal.Decimal, error) {
	raw, ok := p[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case []decimal.Decimal:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		for _, part := range strings.Split(v, ",") {
			items = append(items, part)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported type for %s: %T", roulette.ErrInvalidArgument, key, raw)
	}

	out := make([]decimal.Decimal, 0, len(items))
	for i, item := range items {
		d, err := Params{key: item}.decimalOr(key, decimal.Zero)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}
