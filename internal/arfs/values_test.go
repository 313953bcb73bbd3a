package arfs

import (
	"errors"
	"strings"
	"testing"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: strings.Repeat("a", 43)},
		{name: "valid with dash and underscore", input: "Ab_-" + strings.Repeat("9", 39)},
		{name: "too short", input: strings.Repeat("a", 42), wantErr: true},
		{name: "too long", input: strings.Repeat("a", 44), wantErr: true},
		{name: "invalid character", input: strings.Repeat("a", 42) + "+", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseAddress(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidValue) {
					t.Fatalf("ParseAddress(%q) error = %v, want ErrInvalidValue", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAddress(%q) error = %v", tt.input, err)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestStubTransactionID_IsValidAddress(t *testing.T) {
	t.Parallel()
	if _, err := ParseAddress(string(StubTransactionID)); err != nil {
		t.Errorf("ParseAddress(StubTransactionID) error = %v", err)
	}
}

func TestParseEntityID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "lower case uuid", input: "0f4c3b2a-1d2e-4f50-8a6b-7c8d9e0f1a2b"},
		{name: "upper case uuid", input: "0F4C3B2A-1D2E-4F50-8A6B-7C8D9E0F1A2B"},
		{name: "encrypted sentinel", input: "ENCRYPTED"},
		{name: "root folder sentinel", input: "root folder"},
		{name: "fake id", input: string(FakeEntityID)},
		{name: "missing dashes", input: "0f4c3b2a1d2e4f508a6b7c8d9e0f1a2b", wantErr: true},
		{name: "not hex", input: "zf4c3b2a-1d2e-4f50-8a6b-7c8d9e0f1a2b", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "lower case sentinel", input: "encrypted", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseEntityID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseEntityID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("ParseEntityID(%q) error = %v, want ErrInvalidValue", tt.input, err)
			}
		})
	}
}

func TestEntityID_Equals(t *testing.T) {
	t.Parallel()
	a := EntityID("0f4c3b2a-1d2e-4f50-8a6b-7c8d9e0f1a2b")
	b := EntityID("0F4C3B2A-1D2E-4F50-8A6B-7C8D9E0F1A2B")
	if !a.Equals(a) {
		t.Errorf("%s.Equals(%s) = false, want true", a, a)
	}
	if a.Equals(b) {
		t.Errorf("%s.Equals(%s) = true, want false for a case-only difference", a, b)
	}
	if a.Equals(FakeEntityID) {
		t.Errorf("%s.Equals(%s) = true, want false", a, FakeEntityID)
	}
}

func TestEntityID_Bytes(t *testing.T) {
	t.Parallel()

	id := EntityID("00010203-0405-0607-0809-0a0b0c0d0e0f")
	got, err := id.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if len(got) != 16 {
		t.Fatalf("len(Bytes()) = %d, want 16", len(got))
	}
	for i, b := range got {
		if int(b) != i {
			t.Errorf("Bytes()[%d] = %d, want %d", i, b, i)
		}
	}

	if _, err := EncryptedEntityID.Bytes(); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("EncryptedEntityID.Bytes() error = %v, want ErrInvalidValue", err)
	}
}

func TestParseUnixTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input   string
		want    UnixTime
		wantErr bool
	}{
		{input: "0", want: 0},
		{input: "1700000000", want: 1700000000},
		{input: "-1", wantErr: true},
		{input: "1.5", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseUnixTime(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseUnixTime(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseUnixTime(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestByteCount(t *testing.T) {
	t.Parallel()

	if _, err := NewByteCount(-1); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("NewByteCount(-1) error = %v, want ErrInvalidValue", err)
	}

	b := ByteCount(10)
	if got := b.Plus(5); got != 15 {
		t.Errorf("Plus(5) = %d, want 15", got)
	}
	if got, err := b.Minus(4); err != nil || got != 6 {
		t.Errorf("Minus(4) = %d, %v, want 6, nil", got, err)
	}
	if _, err := b.Minus(11); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("Minus(11) error = %v, want ErrInvalidValue", err)
	}
	if got := b.EncryptedDataSize(); got != 26 {
		t.Errorf("EncryptedDataSize() = %d, want 26", got)
	}
	if !b.IsGreaterThan(9) || b.IsGreaterThan(10) {
		t.Error("IsGreaterThan() boundary is wrong")
	}
	if !b.IsGreaterThanOrEqualTo(10) {
		t.Error("IsGreaterThanOrEqualTo(10) = false, want true")
	}
}

func TestByteCount_Format(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input ByteCount
		want  string
	}{
		{input: 0, want: "0 Bytes"},
		{input: 1023, want: "1023 Bytes"},
		{input: 1536, want: "1.500 KB"},
		{input: 3 * 1024 * 1024, want: "3.000 MB"},
		{input: 2 * 1024 * 1024 * 1024, want: "2.000 GB"},
	}
	for _, tt := range tests {
		if got := tt.input.Format(); got != tt.want {
			t.Errorf("ByteCount(%d).Format() = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestEntityKey_String(t *testing.T) {
	t.Parallel()

	key := EntityKey{0xfb, 0xff, 0x00}
	if got, want := key.String(), "-_8A"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	parsed, err := ParseEntityKey(key.String())
	if err != nil {
		t.Fatalf("ParseEntityKey() error = %v", err)
	}
	if !parsed.Equal(key) {
		t.Errorf("ParseEntityKey(String()) = %v, want %v", parsed, key)
	}

	if _, err := ParseEntityKey("not base64!"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("ParseEntityKey(invalid) error = %v, want ErrInvalidValue", err)
	}
}
