package core

import (
	"encoding/json"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "dot separator", input: "12.34", want: 1234},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "integer", input: "400", want: 40000},
		{name: "single fraction digit", input: "1.5", want: 150},
		{name: "rounds down", input: "12.344", want: 1234},
		{name: "rounds up", input: "12.346", want: 1235},
		{name: "leading dot", input: ".99", want: 99},
		{name: "zero", input: "0", want: 0},
		{name: "whitespace", input: "  7.00 ", want: 700},
		{name: "empty", input: "", wantErr: true},
		{name: "negative", input: "-3.50", wantErr: true},
		{name: "explicit plus", input: "+3.50", wantErr: true},
		{name: "non numeric", input: "abc", wantErr: true},
		{name: "two dots", input: "1.2.3", wantErr: true},
		{name: "mixed garbage", input: "12x.30", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseDecimalToCents(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Fatalf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyJSONRoundTrip(t *testing.T) {
	b, err := json.Marshal(Money{Cents: 1234})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != "12.34" {
		t.Fatalf("marshal = %s, want 12.34", b)
	}

	var m Money
	if err := json.Unmarshal([]byte("400"), &m); err != nil {
		t.Fatalf("unmarshal number: %v", err)
	}
	if m.Cents != 40000 {
		t.Fatalf("unmarshal number = %d cents, want 40000", m.Cents)
	}

	if err := json.Unmarshal([]byte(`"12,50"`), &m); err != nil {
		t.Fatalf("unmarshal quoted string: %v", err)
	}
	if m.Cents != 1250 {
		t.Fatalf("unmarshal string = %d cents, want 1250", m.Cents)
	}
}

func TestMoneyUnmarshalRejectsGarbage(t *testing.T) {
	for _, input := range []string{`"abc"`, `null`, `"-4"`, `true`} {
		var m Money
		if err := json.Unmarshal([]byte(input), &m); err == nil {
			t.Fatalf("unmarshal %s: expected error, got %+v", input, m)
		}
	}
}

func TestMoneyDecimal(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{100, "1.00"},
		{123456, "1234.56"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).Decimal(); got != tt.want {
			t.Errorf("Decimal(%d) = %s, want %s", tt.cents, got, tt.want)
		}
	}
}
