package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/avecnous/shipclass/shipclass-backend/internal/domain"
	"github.com/avecnous/shipclass/shipclass-backend/internal/exclusion"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// RawConfig is an exclusion config file as written, keyed by class slug
type RawConfig map[string]map[string]any

// ReadRawConfig reads a YAML or JSON(C) exclusion config. Keys may be class
// slugs or full option keys; option keys are reduced to their slug.
func ReadRawConfig(path string) (RawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var entries map[string]map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &entries)
	default:
		err = json.Unmarshal(jsonc.ToJSON(data), &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	raw := make(RawConfig, len(entries))
	for key, value := range entries {
		slug := key
		if s, ok := domain.ClassSlugFromOptionKey(key); ok {
			slug = s
		}
		if value == nil {
			value = map[string]any{}
		}
		raw[slug] = value
	}
	return raw, nil
}

// LoadConfig reads an exclusion config file and decodes its flags
func LoadConfig(path string) (domain.ExclusionConfig, error) {
	raw, err := ReadRawConfig(path)
	if err != nil {
		return nil, err
	}
	return exclusion.DecodeConfig(raw), nil
}

// Validate lists every problem of a raw config. Values other than yes/no and
// booleans are reported because the engine silently treats them as off.
func (r RawConfig) Validate() []error {
	var problems []error
	for _, slug := range sortedKeys(r) {
		if strings.TrimSpace(slug) == "" {
			problems = append(problems, errors.Join(domain.ErrSlugRequired, errors.New("empty shipping class slug")))
			continue
		}
		if len(slug) > domain.MaxClassSlugLength {
			problems = append(problems, fmt.Errorf("%w: slug %.20q... exceeds %d characters", domain.ErrInvalidInput, slug, domain.MaxClassSlugLength))
		}
		for _, instanceKey := range sortedKeys(r[slug]) {
			if _, _, err := domain.ParseInstanceKey(instanceKey); err != nil {
				problems = append(problems, fmt.Errorf("%s: %w", slug, err))
				continue
			}
			if !isFlagValue(r[slug][instanceKey]) {
				problems = append(problems, fmt.Errorf("%w: %s[%s] has value %v, expected yes or no", domain.ErrInvalidInput, slug, instanceKey, r[slug][instanceKey]))
			}
		}
	}
	return problems
}

// CartFile is the input of the filter command
type CartFile struct {
	Items []domain.LineItem `json:"items"`
}

// ReadCart reads cart line items from a JSON(C) file. Both {"items": [...]}
// and a bare array are accepted.
func ReadCart(path string) ([]domain.LineItem, error) {
	data, err := readJSONC(path)
	if err != nil {
		return nil, err
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err == nil {
		return items, nil
	}
	var cart CartFile
	if err := json.Unmarshal(data, &cart); err != nil {
		return nil, fmt.Errorf("failed to parse cart %s: %w", path, err)
	}
	return cart.Items, nil
}

// ReadRates reads candidate rates from a JSON(C) array
func ReadRates(path string) ([]domain.Rate, error) {
	data, err := readJSONC(path)
	if err != nil {
		return nil, err
	}

	var rates []domain.Rate
	if err := json.Unmarshal(data, &rates); err != nil {
		return nil, fmt.Errorf("failed to parse rates %s: %w", path, err)
	}
	for i, rate := range rates {
		if rate.ID == "" {
			return nil, fmt.Errorf("%w: rate %d has no id", domain.ErrInvalidInput, i)
		}
	}
	return rates, nil
}

func readJSONC(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return jsonc.ToJSON(data), nil
}

func isFlagValue(v any) bool {
	switch val := v.(type) {
	case bool:
		return true
	case string:
		s := strings.ToLower(strings.TrimSpace(val))
		return s == domain.FlagYes || s == domain.FlagNo || s == ""
	default:
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}
