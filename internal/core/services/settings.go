package services

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/custodia-labs/pdfcut/internal/core/domain"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driven"
	"github.com/custodia-labs/pdfcut/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyLimit      = "split.limit"
	keyOutputDir  = "split.output_dir"
	keyScratch    = "split.scratch"
	keyScratchDir = "split.scratch_dir"
	keyHistory    = "history.enabled"
	keySettle     = "watch.settle"
)

// settingDef describes one known key.
type settingDef struct {
	key         string
	description string
	// parse validates a CLI value and returns what is stored.
	parse func(string) (any, error)
	// show renders the default for display.
	show func(domain.SplitOptions) string
}

var settingDefs = []settingDef{
	{
		key:         keyLimit,
		description: "Maximum size of a normal fragment (e.g. 4.8MiB, 10MB, 5033164)",
		parse: func(v string) (any, error) {
			if _, err := ParseSizeLimit(v); err != nil {
				return nil, err
			}
			return strings.TrimSpace(v), nil
		},
		show: func(o domain.SplitOptions) string { return FormatSizeLimit(o.Limit) },
	},
	{
		key:         keyOutputDir,
		description: "Directory for fragments (empty: next to the input)",
		parse:       func(v string) (any, error) { return strings.TrimSpace(v), nil },
		show:        func(o domain.SplitOptions) string { return o.OutputDir },
	},
	{
		key:         keyScratch,
		description: "Measurement buffer: memory or disk",
		parse: func(v string) (any, error) {
			kind := domain.ScratchKind(strings.TrimSpace(v))
			if !kind.IsValid() {
				return nil, fmt.Errorf("%w: scratch must be memory or disk, got %q", domain.ErrInvalidInput, v)
			}
			return kind.String(), nil
		},
		show: func(o domain.SplitOptions) string { return o.Scratch.String() },
	},
	{
		key:         keyScratchDir,
		description: "Directory for disk scratch files (empty: system temp dir)",
		parse:       func(v string) (any, error) { return strings.TrimSpace(v), nil },
		show:        func(o domain.SplitOptions) string { return o.ScratchDir },
	},
	{
		key:         keyHistory,
		description: "Record split runs in the history database",
		parse: func(v string) (any, error) {
			b, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				return nil, fmt.Errorf("%w: history.enabled must be true or false", domain.ErrInvalidInput)
			}
			return b, nil
		},
		show: func(o domain.SplitOptions) string { return strconv.FormatBool(o.History) },
	},
	{
		key:         keySettle,
		description: "Quiet period before a watched file is split (e.g. 2s)",
		parse: func(v string) (any, error) {
			if _, err := parseSettle(v); err != nil {
				return nil, err
			}
			return strings.TrimSpace(v), nil
		},
		show: func(o domain.SplitOptions) string { return o.WatchSettle.String() },
	},
}

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get resolves split options from configuration, falling back to defaults
// for unset keys.
func (s *SettingsService) Get() (domain.SplitOptions, error) {
	opts := domain.DefaultSplitOptions()
	if s.configStore == nil {
		return opts, nil
	}

	if v, ok := s.configStore.Get(keyLimit); ok {
		limit, err := limitFromValue(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", keyLimit, err)
		}
		opts.Limit = limit
	}

	opts.OutputDir = s.configStore.GetString(keyOutputDir)
	opts.ScratchDir = s.configStore.GetString(keyScratchDir)

	if v := s.configStore.GetString(keyScratch); v != "" {
		kind := domain.ScratchKind(v)
		if !kind.IsValid() {
			return opts, fmt.Errorf("%s: %w: %q", keyScratch, domain.ErrInvalidInput, v)
		}
		opts.Scratch = kind
	}

	if _, ok := s.configStore.Get(keyHistory); ok {
		opts.History = s.configStore.GetBool(keyHistory)
	}

	if v := s.configStore.GetString(keySettle); v != "" {
		settle, err := parseSettle(v)
		if err != nil {
			return opts, fmt.Errorf("%s: %w", keySettle, err)
		}
		opts.WatchSettle = settle
	}

	return opts, nil
}

// Set validates and stores a value for a known key.
func (s *SettingsService) Set(key, value string) error {
	def, ok := lookupSetting(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	v, err := def.parse(value)
	if err != nil {
		return err
	}
	if err := s.configStore.Set(key, v); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Unset removes a key so its default applies again.
func (s *SettingsService) Unset(key string) error {
	if _, ok := lookupSetting(key); !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	if err := s.configStore.Unset(key); err != nil {
		return fmt.Errorf("unset %s: %w", key, err)
	}
	return nil
}

// Entries lists every known key with its effective value.
func (s *SettingsService) Entries() ([]driving.SettingEntry, error) {
	defaults := domain.DefaultSplitOptions()
	entries := make([]driving.SettingEntry, 0, len(settingDefs))
	for _, def := range settingDefs {
		entry := driving.SettingEntry{
			Key:         def.key,
			Description: def.description,
			Value:       def.show(defaults),
			IsDefault:   true,
		}
		if s.configStore != nil {
			if v, ok := s.configStore.Get(def.key); ok {
				entry.Value = fmt.Sprint(v)
				entry.IsDefault = false
			}
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Path returns the configuration file path.
func (s *SettingsService) Path() string {
	if s.configStore == nil {
		return ""
	}
	return s.configStore.Path()
}

func lookupSetting(key string) (settingDef, bool) {
	for _, def := range settingDefs {
		if def.key == key {
			return def, true
		}
	}
	return settingDef{}, false
}

// ParseSizeLimit parses a human size such as "4.8MiB", "10 MB" or "5033164".
// Fractional byte counts are rounded down.
func ParseSizeLimit(s string) (domain.SizeLimit, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", domain.ErrInvalidLimit)
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", domain.ErrInvalidLimit, s, err)
	}
	if n == 0 || n > math.MaxInt64 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidLimit, s)
	}
	return domain.SizeLimit(n), nil
}

// FormatSizeLimit renders a limit in binary units, e.g. "4.8 MiB".
func FormatSizeLimit(l domain.SizeLimit) string {
	if l <= 0 {
		return strconv.FormatInt(int64(l), 10)
	}
	return humanize.IBytes(uint64(l))
}

// limitFromValue converts a stored config value to a limit. TOML files may
// hold either a human string or a plain integer.
func limitFromValue(v any) (domain.SizeLimit, error) {
	var limit domain.SizeLimit
	switch val := v.(type) {
	case string:
		return ParseSizeLimit(val)
	case int64:
		limit = domain.SizeLimit(val)
	case int:
		limit = domain.SizeLimit(val)
	case float64:
		limit = domain.SizeLimit(val)
	default:
		return 0, fmt.Errorf("%w: unsupported value %v", domain.ErrInvalidLimit, v)
	}
	if err := limit.Validate(); err != nil {
		return 0, err
	}
	return limit, nil
}

func parseSettle(v string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: settle must be a positive duration, got %q", domain.ErrInvalidInput, v)
	}
	return d, nil
}
