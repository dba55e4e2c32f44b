package syntax

import (
	"errors"
	"testing"
)

func TestParseATURI_Valid(t *testing.T) {
	tests := []struct {
		in         string
		authority  string
		collection NSID
		key        RecordKey
	}{
		{"at://did:plc:z72i7hdynmk6r22z27h6tvur", "did:plc:z72i7hdynmk6r22z27h6tvur", "", ""},
		{"at://jay.bsky.social", "jay.bsky.social", "", ""},
		{"at://did:plc:z72i7hdynmk6r22z27h6tvur/app.bsky.feed.post", "did:plc:z72i7hdynmk6r22z27h6tvur", "app.bsky.feed.post", ""},
		{"at://jay.bsky.social/app.bsky.feed.post/3jui7kd54zh2y", "jay.bsky.social", "app.bsky.feed.post", "3jui7kd54zh2y"},
		{"at://JAY.BSKY.SOCIAL/app.bsky.feed.post/self", "jay.bsky.social", "app.bsky.feed.post", "self"},
	}
	for _, tc := range tests {
		u, err := ParseATURI(tc.in)
		if err != nil {
			t.Errorf("ParseATURI(%q) = %v, want ok", tc.in, err)
			continue
		}
		if u.Authority != tc.authority || u.Collection != tc.collection || u.Key != tc.key {
			t.Errorf("ParseATURI(%q) = %+v, want {%s %s %s}", tc.in, u, tc.authority, tc.collection, tc.key)
		}
	}
}

func TestParseATURI_Invalid(t *testing.T) {
	invalid := []string{
		"",
		"at://",
		"https://example.com",
		"at://name",
		"at://@handle.example.com",
		"at://did:plc:z72i7hdynmk6r22z27h6tvur/notansid",
		"at://jay.bsky.social/app.bsky.feed.post/key/extra",
		"at://jay.bsky.social/app.bsky.feed.post?rkey=1",
		"at://jay.bsky.social/app.bsky.feed.post#frag",
		"at://jay.bsky.social/app.bsky.feed.post/bad key",
	}
	for _, in := range invalid {
		if _, err := ParseATURI(in); err == nil {
			t.Errorf("ParseATURI(%q) = ok, want error", in)
		} else if !errors.Is(err, ErrInvalidATURI) {
			t.Errorf("ParseATURI(%q) error %v does not wrap ErrInvalidATURI", in, err)
		}
	}
}

func TestATURI_String(t *testing.T) {
	tests := []struct {
		in, out string
	}{
		{"at://jay.bsky.social", "at://jay.bsky.social"},
		{"at://JAY.bsky.social/app.bsky.feed.post", "at://jay.bsky.social/app.bsky.feed.post"},
		{"at://jay.bsky.social/app.bsky.feed.post/3jui7kd54zh2y", "at://jay.bsky.social/app.bsky.feed.post/3jui7kd54zh2y"},
	}
	for _, tc := range tests {
		u, err := ParseATURI(tc.in)
		if err != nil {
			t.Fatalf("ParseATURI(%q) err: %v", tc.in, err)
		}
		if got := u.String(); got != tc.out {
			t.Errorf("String() = %q, want %q", got, tc.out)
		}
	}
}
