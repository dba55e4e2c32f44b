package syntax

import (
	"errors"
	"strings"
	"testing"
)

func TestParseDID_Valid(t *testing.T) {
	valid := []string{
		"did:plc:z72i7hdynmk6r22z27h6tvur",
		"did:web:example.com",
		"did:web:sub.example.com",
		"did:method:val",
		"did:key:zQ3shZc2QzApp2oymGvQbzP8eKheVshBHbU4ZYjeXqwSKEn6N",
		"did:example:123456789abcdefghi",
		"did:m:v%3A",
		"did:method:a.b_c-d:e",
	}
	for _, in := range valid {
		if _, err := ParseDID(in); err != nil {
			t.Errorf("ParseDID(%q) = %v, want ok", in, err)
		}
	}
}

func TestParseDID_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"did:",
		"did:plc",
		"did::empty-method",
		"did:PLC:z72i7hdynmk6r22z27h6tvur",
		"did:method:",
		"did:method:val:",
		"did:method:val ue",
		"did:method:val%2",
		"did:method:val%GG",
		"did:method:val%3a",
		"key:zQ3shZc2QzApp2oymGvQbzP8eKheVshBHbU4ZYjeXqwSKEn6N",
		"did:method:" + strings.Repeat("v", 2048),
	}
	for _, in := range invalid {
		if _, err := ParseDID(in); err == nil {
			t.Errorf("ParseDID(%q) = ok, want error", in)
		} else if !errors.Is(err, ErrInvalidDID) {
			t.Errorf("ParseDID(%q) error %v does not wrap ErrInvalidDID", in, err)
		}
	}
}

func TestParseDID_MethodSpecificShapes(t *testing.T) {
	// plc identifiers are exactly 24 lowercase base32 characters (15 bytes).
	for _, in := range []string{
		"did:plc:short",
		"did:plc:z72i7hdynmk6r22z27h6tvu",
		"did:plc:z72i7hdynmk6r22z27h6tvur2",
		"did:plc:Z72I7HDYNMK6R22Z27H6TVUR",
		"did:plc:z72i7hdynmk6r22z27h6tv19",
	} {
		if _, err := ParseDID(in); err == nil {
			t.Errorf("ParseDID(%q) = ok, want plc shape error", in)
		}
	}
	// web identifiers must be hostnames.
	for _, in := range []string{
		"did:web:",
		"did:web:example",
		"did:web:example.com:8080",
		"did:web:-bad.example.com",
	} {
		if _, err := ParseDID(in); err == nil {
			t.Errorf("ParseDID(%q) = ok, want web shape error", in)
		}
	}
}

func TestDID_Method(t *testing.T) {
	d, err := ParseDID("did:plc:z72i7hdynmk6r22z27h6tvur")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if d.Method() != "plc" {
		t.Fatalf("Method() = %q, want plc", d.Method())
	}
}
