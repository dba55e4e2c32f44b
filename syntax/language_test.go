package syntax

import (
	"errors"
	"testing"
)

func TestParseLanguage_Valid(t *testing.T) {
	valid := []string{
		"en",
		"en-US",
		"pt-BR",
		"zh-Hans",
		"es-419",
		"de-CH-1901",
	}
	for _, in := range valid {
		if _, err := ParseLanguage(in); err != nil {
			t.Errorf("ParseLanguage(%q) = %v, want ok", in, err)
		}
	}
}

func TestParseLanguage_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"english",
		"x",
		"en-",
		"123",
		"toolongsubtag",
	}
	for _, in := range invalid {
		if _, err := ParseLanguage(in); err == nil {
			t.Errorf("ParseLanguage(%q) = ok, want error", in)
		} else if !errors.Is(err, ErrInvalidLanguage) {
			t.Errorf("ParseLanguage(%q) error %v does not wrap ErrInvalidLanguage", in, err)
		}
	}
}

func TestParseLanguage_Canonical(t *testing.T) {
	lang, err := ParseLanguage("EN-us")
	if err != nil {
		t.Fatalf("parse err: %v", err)
	}
	if lang != "en-US" {
		t.Fatalf("canonical form = %q, want en-US", lang)
	}
	again, err := ParseLanguage(string(lang))
	if err != nil {
		t.Fatalf("reparse err: %v", err)
	}
	if again != lang {
		t.Fatalf("canonicalization not idempotent: %q != %q", again, lang)
	}
}
