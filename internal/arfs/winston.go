package arfs

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Winston is an integer amount of the ledger's smallest currency unit.
// Amounts are arbitrary precision and never negative.
type Winston struct {
	amount decimal.Decimal
}

// RoundingMode selects how DividedBy handles a fractional quotient.
type RoundingMode int

const (
	RoundCeil RoundingMode = iota
	RoundDown
)

// ParseWinston parses a non-negative integer string.
func ParseWinston(s string) (Winston, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Winston{}, fmt.Errorf("%w: winston %q is not a number", ErrInvalidValue, s)
	}
	return newWinston(d)
}

// NewWinston builds a Winston from an int64.
func NewWinston(n int64) (Winston, error) {
	return newWinston(decimal.NewFromInt(n))
}

func newWinston(d decimal.Decimal) (Winston, error) {
	if d.IsNegative() {
		return Winston{}, fmt.Errorf("%w: winston must be non-negative, got %s", ErrInvalidValue, d)
	}
	if !d.Equal(d.Truncate(0)) {
		return Winston{}, fmt.Errorf("%w: winston must be an integer, got %s", ErrInvalidValue, d)
	}
	return Winston{amount: d}, nil
}

func (w Winston) Plus(other Winston) Winston {
	return Winston{amount: w.amount.Add(other.amount)}
}

// Minus fails when other is larger than w.
func (w Winston) Minus(other Winston) (Winston, error) {
	return newWinston(w.amount.Sub(other.amount))
}

// Times multiplies by a non-negative factor and rounds down.
func (w Winston) Times(factor decimal.Decimal) (Winston, error) {
	return newWinston(w.amount.Mul(factor).Floor())
}

// DividedBy divides by a positive divisor. The default mode is RoundCeil.
func (w Winston) DividedBy(divisor decimal.Decimal, mode ...RoundingMode) (Winston, error) {
	if !divisor.IsPositive() {
		return Winston{}, fmt.Errorf("%w: divisor must be positive, got %s", ErrInvalidValue, divisor)
	}
	q := w.amount.DivRound(divisor, 16)
	if len(mode) > 0 && mode[0] == RoundDown {
		return newWinston(q.Floor())
	}
	return newWinston(q.Ceil())
}

func (w Winston) IsGreaterThan(other Winston) bool { return w.amount.GreaterThan(other.amount) }

func (w Winston) IsGreaterThanOrEqualTo(other Winston) bool {
	return w.amount.GreaterThanOrEqual(other.amount)
}

func (w Winston) Equals(other Winston) bool { return w.amount.Equal(other.amount) }

func (w Winston) String() string { return w.amount.String() }

// MarshalJSON encodes the amount as a JSON string to keep full precision.
func (w Winston) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.amount.String())
}

func (w *Winston) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		s = string(data)
	}
	if s == "" {
		*w = Winston{}
		return nil
	}
	parsed, err := ParseWinston(s)
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

// MaxWinston returns the largest of the given amounts, or zero for none.
func MaxWinston(amounts ...Winston) Winston {
	var largest Winston
	for _, a := range amounts {
		if a.IsGreaterThan(largest) {
			largest = a
		}
	}
	return largest
}

// WinstonDifference returns a - b, which may be negative.
func WinstonDifference(a, b Winston) string {
	return a.amount.Sub(b.amount).String()
}
