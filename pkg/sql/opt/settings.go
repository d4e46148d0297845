// Copyright 2025 The Cockroach Authors.
//
// Use of this software is governed by the CockroachDB Software License
// included in the /LICENSE file.

package opt

import (
	"io"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/optprops/pkg/util/log"
	"gopkg.in/yaml.v3"
)

// Settings are the knobs that control optimizer diagnostics. They are usually
// loaded once from a YAML document and shared, read-only, by every Context.
//
// Example:
//
//	verbosity: 2
//	check_invariants: true
//	explain:
//	  hide_func_deps: true
type Settings struct {
	// Verbosity is the log verbosity applied by Apply. Messages logged with
	// log.VEventf at a level above it are dropped.
	Verbosity int32 `yaml:"verbosity"`

	// CheckInvariants enables consistency checks on column mappings and
	// derived properties even in non-test builds.
	CheckInvariants bool `yaml:"check_invariants"`

	// RedactableLogs attaches a copy of each message with redaction markers.
	RedactableLogs bool `yaml:"redactable_logs"`

	// Explain controls which properties plan diagnostics print.
	Explain ExplainSettings `yaml:"explain"`
}

// ExplainSettings selects the properties shown by plan formatting.
type ExplainSettings struct {
	HideTypes     bool `yaml:"hide_types"`
	HideKeys      bool `yaml:"hide_keys"`
	HideFuncDeps  bool `yaml:"hide_func_deps"`
	HideOrderings bool `yaml:"hide_orderings"`
}

// DefaultSettings returns the settings used when none are configured.
func DefaultSettings() Settings {
	return Settings{Verbosity: 0}
}

// LoadSettings decodes YAML settings from r on top of DefaultSettings. Unknown
// keys are rejected. An empty document yields the defaults.
func LoadSettings(r io.Reader) (Settings, error) {
	s := DefaultSettings()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return Settings{}, errors.Wrap(err, "decoding optimizer settings")
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate returns an error if any setting is out of range.
func (s Settings) Validate() error {
	if s.Verbosity < 0 || s.Verbosity > MaxVerbosity {
		return errors.Newf("verbosity %d out of range [0, %d]", s.Verbosity, MaxVerbosity)
	}
	return nil
}

// Apply installs the logging related settings process-wide. It returns a
// function that restores the previous verbosity.
func (s Settings) Apply() (restore func()) {
	log.SetRedactableLogs(s.RedactableLogs)
	return log.SetVerbosity(s.Verbosity)
}
