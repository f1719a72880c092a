// Copyright © 2025 Texelcast contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/types.go
// Summary: Typed access helpers for config store data.

package config

// Section returns the named section or nil if missing.
func (c Config) Section(sectionName string) Section {
	if c == nil {
		return nil
	}
	if sectionName == "" {
		return Section(c)
	}
	if raw, ok := c[sectionName]; ok {
		switch v := raw.(type) {
		case Section:
			return v
		case map[string]interface{}:
			return Section(v)
		}
	}
	return nil
}

// EnsureSection returns the named section, creating it when missing.
func (c Config) EnsureSection(sectionName string) Section {
	if c == nil {
		return nil
	}
	if section := c.Section(sectionName); section != nil {
		return section
	}
	section := make(Section)
	c[sectionName] = section
	return section
}

// RegisterDefaults ensures a section has defaults without overwriting existing keys.
func (c Config) RegisterDefaults(sectionName string, defaults Section) {
	if c == nil || defaults == nil {
		return
	}
	section := c.EnsureSection(sectionName)
	for key, value := range defaults {
		if _, ok := section[key]; !ok {
			section[key] = value
		}
	}
}

// GetString retrieves a string value from the section.
func (s Section) GetString(key, defaultValue string) string {
	if s == nil {
		return defaultValue
	}
	if val, ok := s[key]; ok {
		if strVal, ok := val.(string); ok {
			return strVal
		}
	}
	return defaultValue
}

// GetBool retrieves a boolean value from the section.
func (s Section) GetBool(key string, defaultValue bool) bool {
	if s == nil {
		return defaultValue
	}
	if val, ok := s[key]; ok {
		if boolVal, ok := val.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}

// GetInt retrieves an integer value from the section. JSON numbers decode as
// float64, so both forms are accepted.
func (s Section) GetInt(key string, defaultValue int) int {
	if s == nil {
		return defaultValue
	}
	if val, ok := s[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case float64:
			return int(v)
		}
	}
	return defaultValue
}

// Set stores a value in the section.
func (s Section) Set(key string, value interface{}) {
	if s == nil {
		return
	}
	s[key] = value
}

// Clone returns a shallow copy of the section. Handing copies to sources
// keeps host-side settings maps from aliasing instance state.
func (s Section) Clone() Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
