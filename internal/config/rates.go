package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/hydro-assess-service/internal/domain"
)

// LoadRates returns the built-in rate table, overlaid with the YAML file at
// path when path is non-empty. Keys missing from the file keep their default.
func LoadRates(path string) (domain.Rates, error) {
	rates := domain.DefaultRates()
	if path == "" {
		return rates, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Rates{}, fmt.Errorf("read rates file: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&rates); err != nil && !errors.Is(err, io.EOF) {
		return domain.Rates{}, fmt.Errorf("parse rates file %s: %w", path, err)
	}

	if err := rates.Validate(); err != nil {
		return domain.Rates{}, fmt.Errorf("validate rates file %s: %w", path, err)
	}
	return rates, nil
}

// EncodeRates renders a rate table as YAML.
func EncodeRates(w io.Writer, rates domain.Rates) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rates); err != nil {
		return fmt.Errorf("encode rates: %w", err)
	}
	return enc.Close()
}
