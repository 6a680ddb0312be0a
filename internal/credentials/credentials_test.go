package credentials

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.yaml")
	blob := "ssid: home-network\npass: 1234\napiKey: abcdef\n"
	if err := os.WriteFile(path, []byte(blob), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := Credentials{SSID: "home-network", Password: "1234", APIKey: "abcdef"}
	if got := s.Credentials(); got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if m := s.Missing(); len(m) != 0 {
		t.Errorf("expected nothing missing, got %v", m)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("missing file must not fail: %v", err)
	}
	if got := s.Get(KeySSID); got != "" {
		t.Errorf("expected empty ssid, got %q", got)
	}
	if m := s.Missing(); !reflect.DeepEqual(m, []string{KeySSID, KeyPassword, KeyAPIKey}) {
		t.Errorf("unexpected missing list: %v", m)
	}
}

func TestParsePartial(t *testing.T) {
	s, err := Parse([]byte("ssid: cafe\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if s.Get(KeyAPIKey) != "" {
		t.Error("absent key must read as empty")
	}
	if !reflect.DeepEqual(s.Missing(), []string{KeyPassword, KeyAPIKey}) {
		t.Errorf("unexpected missing list: %v", s.Missing())
	}
}

func TestParseMalformed(t *testing.T) {
	if _, err := Parse([]byte("ssid: [unterminated\n")); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
