// Package credentials reads the device's credential blob.
//
// The blob is a flat YAML mapping provisioned out of band:
//
//	ssid: home-network
//	pass: hunter2
//	apiKey: 0123456789abcdef
//
// It is read once at boot and never written.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// Keys
const (
	KeySSID     = "ssid"
	KeyPassword = "pass"
	KeyAPIKey   = "apiKey"
)

// Credentials are the values the device uses.
type Credentials struct {
	SSID     string
	Password string
	APIKey   string
}

// Store is a read-only key/value view of the blob.
type Store struct {
	values map[string]string
}

// Load reads the blob at path. A missing file yields an empty store so the
// device can still boot (it will fail to join or to fetch weather).
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Store{values: map[string]string{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML blob.
func Parse(data []byte) (*Store, error) {
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode credentials: %w", err)
	}
	return &Store{values: values}, nil
}

// Get returns the value for key, or "" when absent.
func (s *Store) Get(key string) string {
	return s.values[key]
}

// Credentials returns the three known values.
func (s *Store) Credentials() Credentials {
	return Credentials{
		SSID:     s.Get(KeySSID),
		Password: s.Get(KeyPassword),
		APIKey:   s.Get(KeyAPIKey),
	}
}

// Missing lists the known keys that have no value.
func (s *Store) Missing() []string {
	var out []string
	for _, k := range []string{KeySSID, KeyPassword, KeyAPIKey} {
		if s.Get(k) == "" {
			out = append(out, k)
		}
	}
	return out
}
