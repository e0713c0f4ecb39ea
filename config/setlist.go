package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

// SetList maps a set key (e.g. "DM22-RP1") or an era name to its wiki page URL.
type SetList map[string]string

// SetEntry is one selected set.
type SetEntry struct {
	Key string
	URL string
}

// ReadSetList reads name and merges an optional <base>.local.<ext> next to it,
// the local file winning on conflicts. Both files accept JSON5. When neither
// exists the returned error wraps os.ErrNotExist.
func ReadSetList(name string) (SetList, error) {
	out := SetList{}
	found := false

	base, err := readJSON5(name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		out = base
		found = true
	}

	localName := localVariant(name)
	local, err := readJSON5(localName)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	if err == nil {
		if err := mergo.Merge(&out, local, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("merge %s: %w", localName, err)
		}
		slog.Info("merging set list with local overrides", slog.String("local", localName))
		found = true
	}

	if !found {
		return nil, fmt.Errorf("read set list %s: %w", name, os.ErrNotExist)
	}
	return out, nil
}

func readJSON5(name string) (SetList, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	out := SetList{}
	if len(bytes.TrimSpace(data)) == 0 {
		return out, nil
	}
	if err := json5.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	return out, nil
}

func localVariant(name string) string {
	dir := filepath.Dir(name)
	base := filepath.Base(name)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, stem+".local"+ext)
}

// Keys returns the set keys in sorted order.
func (s SetList) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Match selects every set whose key starts with the upper-cased prefix.
// An empty prefix selects all sets.
func (s SetList) Match(prefix string) []SetEntry {
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	var out []SetEntry
	for _, k := range s.Keys() {
		if strings.HasPrefix(k, prefix) {
			out = append(out, SetEntry{Key: k, URL: s[k]})
		}
	}
	return out
}

// Lookup finds a key case-insensitively.
func (s SetList) Lookup(key string) (string, bool) {
	if url, ok := s[key]; ok {
		return url, true
	}
	for k, url := range s {
		if strings.EqualFold(k, key) {
			return url, true
		}
	}
	return "", false
}

// Merge copies every entry of other into s, replacing existing keys.
func (s SetList) Merge(other SetList) {
	for k, v := range other {
		s[k] = v
	}
}

// WriteSetList writes s as JSON indented by four spaces.
func WriteSetList(name string, s SetList) error {
	if dir := filepath.Dir(name); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create set list dir: %w", err)
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode set list: %w", err)
	}
	if err := os.WriteFile(name, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write set list %s: %w", name, err)
	}
	return nil
}

// UpdateSetList merges found into the set list file at name, creating it when
// missing, and reports how many keys were new. Local overrides are left alone.
func UpdateSetList(name string, found SetList) (int, error) {
	current, err := readJSON5(name)
	if errors.Is(err, os.ErrNotExist) {
		current = SetList{}
	} else if err != nil {
		return 0, err
	}

	added := 0
	for k := range found {
		if _, ok := current[k]; !ok {
			added++
		}
	}
	current.Merge(found)
	if err := WriteSetList(name, current); err != nil {
		return 0, err
	}
	return added, nil
}
