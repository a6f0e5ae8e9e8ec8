package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// ErrUnknownKey is returned by Apply when a key names no rig setting.
var ErrUnknownKey = errors.New("unknown rig config key")

// keyAliases maps flat keys used by remote updates onto their table path.
var keyAliases = map[string]string{
	"num_pixels": "pixels.count",
}

// Store persists a rig file.
type Store struct {
	path string
	mu   sync.Mutex
}

// NewStore creates a store for the rig file at path.
func NewStore(path string) *Store {
	if path == "" {
		path = "rig.toml"
	}
	return &Store{path: path}
}

// Path returns the rig file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads and validates the rig file.
func (s *Store) Load() (RigConfig, error) {
	return LoadRig(s.path)
}

// Save validates cfg and replaces the rig file with it.
func (s *Store) Save(cfg RigConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(cfg)
}

func (s *Store) save(cfg RigConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal rig config: %w", err)
	}

	// Write then rename so the watcher never loads a half-written file.
	tmp, err := os.CreateTemp(dir, ".rig-*.toml")
	if err != nil {
		return fmt.Errorf("failed to create temp rig config: %w", err)
	}
	if _, writeErr := tmp.Write(data); writeErr != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write rig config: %w", writeErr)
	}
	if closeErr := tmp.Close(); closeErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write rig config: %w", closeErr)
	}
	if renameErr := os.Rename(tmp.Name(), s.path); renameErr != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace rig config: %w", renameErr)
	}
	return nil
}

// Apply sets one setting and saves the file. Key is either a dotted table path
// ("tree.brightness_high") or a bare name looked up in the active rig's table,
// then its overrides, then the pixels and sensor tables. The resolved path is
// returned.
func (s *Store) Apply(key, value string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, err := s.Load()
	if err != nil {
		return "", err
	}

	path, field, err := resolveKey(&cfg, key)
	if err != nil {
		return "", err
	}
	if err := assign(field, value); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	if err := s.save(cfg); err != nil {
		return "", err
	}
	return path, nil
}

// resolveKey finds the settable field for key within cfg.
func resolveKey(cfg *RigConfig, key string) (string, reflect.Value, error) {
	key = strings.TrimSpace(key)
	if alias, ok := keyAliases[key]; ok {
		key = alias
	}

	root := reflect.ValueOf(cfg).Elem()

	var candidates []string
	if strings.Contains(key, ".") {
		candidates = []string{key}
	} else {
		candidates = []string{cfg.Kind + "." + key}
		if cfg.Kind == KindTree {
			candidates = append(candidates, "tree.overrides."+key)
		}
		candidates = append(candidates, "pixels."+key, "sensor."+key)
	}

	for _, c := range candidates {
		if field, ok := lookupField(root, strings.Split(c, ".")); ok {
			return c, field, nil
		}
	}
	return "", reflect.Value{}, fmt.Errorf("%w: %q", ErrUnknownKey, key)
}

func lookupField(v reflect.Value, path []string) (reflect.Value, bool) {
	for _, part := range path {
		if v.Kind() != reflect.Struct {
			return reflect.Value{}, false
		}
		found := false
		t := v.Type()
		for i := 0; i < t.NumField(); i++ {
			name, _, _ := strings.Cut(t.Field(i).Tag.Get("toml"), ",")
			if name == part {
				v = v.Field(i)
				found = true
				break
			}
		}
		if !found {
			return reflect.Value{}, false
		}
	}
	return v, v.Kind() != reflect.Struct
}

// assign parses value into field. Unlike setFieldValueFromString it reports
// values that do not parse.
func assign(field reflect.Value, value string) error {
	value = strings.TrimSpace(value)

	if field.Kind() == reflect.Pointer {
		elem := reflect.New(field.Type().Elem())
		if err := assign(elem.Elem(), value); err != nil {
			return err
		}
		field.Set(elem)
		return nil
	}

	switch field.Kind() {
	case reflect.String:
		field.SetString(strings.Trim(value, `"'`))
	case reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid bool %q", value)
		}
		field.SetBool(b)
	case reflect.Int:
		i, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid integer %q", value)
		}
		field.SetInt(i)
	case reflect.Float64:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid number %q", value)
		}
		field.SetFloat(f)
	case reflect.Slice:
		if field.Type().Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported list type %s", field.Type())
		}
		var items []string
		if strings.HasPrefix(value, "[") {
			if err := json.Unmarshal([]byte(value), &items); err != nil {
				return fmt.Errorf("invalid list %q: %w", value, err)
			}
		} else {
			for _, part := range strings.Split(value, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
		}
		field.Set(reflect.ValueOf(items))
	default:
		return fmt.Errorf("unsupported setting type %s", field.Type())
	}
	return nil
}
