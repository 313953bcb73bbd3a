package arfs

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func mustWinston(t *testing.T, s string) Winston {
	t.Helper()
	w, err := ParseWinston(s)
	if err != nil {
		t.Fatalf("ParseWinston(%q) error = %v", s, err)
	}
	return w
}

func TestParseWinston(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		wantErr bool
	}{
		{input: "0"},
		{input: "123456789012345678901234567890"},
		{input: "-1", wantErr: true},
		{input: "1.5", wantErr: true},
		{input: "ten", wantErr: true},
	}
	for _, tt := range tests {
		_, err := ParseWinston(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseWinston(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidValue) {
			t.Errorf("ParseWinston(%q) error = %v, want ErrInvalidValue", tt.input, err)
		}
	}
}

func TestWinston_Arithmetic(t *testing.T) {
	t.Parallel()

	big := mustWinston(t, "100000000000000000000")
	one := mustWinston(t, "1")

	if got := big.Plus(one).String(); got != "100000000000000000001" {
		t.Errorf("Plus() = %s", got)
	}
	if got, err := big.Minus(one); err != nil || got.String() != "99999999999999999999" {
		t.Errorf("Minus() = %s, %v", got, err)
	}
	if _, err := one.Minus(big); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Minus() into negative error = %v, want ErrInvalidValue", err)
	}

	ten := mustWinston(t, "10")
	if got, err := ten.Times(decimal.RequireFromString("1.55")); err != nil || got.String() != "15" {
		t.Errorf("Times(1.55) = %s, %v, want 15", got, err)
	}
	if got, err := ten.DividedBy(decimal.NewFromInt(3)); err != nil || got.String() != "4" {
		t.Errorf("DividedBy(3) = %s, %v, want 4", got, err)
	}
	if got, err := ten.DividedBy(decimal.NewFromInt(3), RoundDown); err != nil || got.String() != "3" {
		t.Errorf("DividedBy(3, RoundDown) = %s, %v, want 3", got, err)
	}
	if _, err := ten.DividedBy(decimal.Zero); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("DividedBy(0) error = %v, want ErrInvalidValue", err)
	}
}

func TestWinston_Compare(t *testing.T) {
	t.Parallel()

	a := mustWinston(t, "5")
	b := mustWinston(t, "7")

	if a.IsGreaterThan(b) || !b.IsGreaterThan(a) {
		t.Error("IsGreaterThan() ordering is wrong")
	}
	if !a.IsGreaterThanOrEqualTo(mustWinston(t, "5")) {
		t.Error("IsGreaterThanOrEqualTo(equal) = false, want true")
	}
	if got := MaxWinston(a, b, mustWinston(t, "6")); !got.Equals(b) {
		t.Errorf("MaxWinston() = %s, want 7", got)
	}
	if got := MaxWinston(); got.String() != "0" {
		t.Errorf("MaxWinston() = %s, want 0", got)
	}
	if got := WinstonDifference(a, b); got != "-2" {
		t.Errorf("WinstonDifference() = %s, want -2", got)
	}
}

func TestWinston_JSON(t *testing.T) {
	t.Parallel()

	var got struct {
		Quantity Winston `json:"quantity"`
		Reward   Winston `json:"reward"`
	}
	if err := json.Unmarshal([]byte(`{"quantity":"42","reward":7}`), &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if got.Quantity.String() != "42" || got.Reward.String() != "7" {
		t.Errorf("Unmarshal() = %s, %s, want 42, 7", got.Quantity, got.Reward)
	}

	out, err := json.Marshal(got.Quantity)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(out) != `"42"` {
		t.Errorf("Marshal() = %s, want \"42\"", out)
	}
}
