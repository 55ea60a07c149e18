package driving

import "github.com/custodia-labs/pdfcut/internal/core/domain"

// SettingEntry is one configurable key with its effective value.
type SettingEntry struct {
	// Key is the dot-notation config key.
	Key string

	// Value is the effective value, rendered for display.
	Value string

	// IsDefault is true when the key is not set in the config file.
	IsDefault bool

	// Description explains the key.
	Description string
}

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves split options from configuration and defaults.
	Get() (domain.SplitOptions, error)

	// Set validates and stores a value for a known key.
	Set(key, value string) error

	// Unset removes a key so its default applies again.
	Unset(key string) error

	// Entries lists every known key with its effective value.
	Entries() ([]SettingEntry, error)

	// Path returns the configuration file path.
	Path() string
}
