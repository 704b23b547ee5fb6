package config

import (
	"strconv"
	"strings"
	"time"

	"github.com/glorpus-work/upkeep/pkg/errors"
	"github.com/glorpus-work/upkeep/pkg/phase"
)

// Keys lists the settings reachable through GetValue and SetValue.
func Keys() []string {
	return []string{
		"http_timeout",
		"descriptor_timeout",
		"user_agent",
		"user_data_dir",
		"system_data_dir",
		"cache_dir",
		"default_phase",
		"updates_disabled",
		"allow_continuous",
		"non_deferred_delay",
		"platform.os",
		"platform.arch",
		"output_format",
		"color_output",
		"log_level",
		"log_file",
	}
}

// SetValue sets a configuration value by key. The result is not validated;
// call Validate before saving.
func (c *Config) SetValue(key, value string) error {
	s := &c.Settings
	var err error
	switch key {
	case "http_timeout":
		s.HTTPTimeout, err = time.ParseDuration(value)
	case "descriptor_timeout":
		s.DescriptorTimeout, err = time.ParseDuration(value)
	case "user_agent":
		s.UserAgent = value
	case "user_data_dir":
		s.UserDataDir = value
	case "system_data_dir":
		s.SystemDataDir = value
	case "cache_dir":
		s.CacheDir = value
	case "default_phase":
		var p phase.Phase
		if p, err = phase.Parse(value); err == nil {
			s.DefaultPhase = p.String()
		}
	case "updates_disabled":
		s.UpdatesDisabled, err = strconv.ParseBool(value)
	case "allow_continuous":
		s.AllowContinuous, err = strconv.ParseBool(value)
	case "non_deferred_delay":
		s.NonDeferredDelay, err = time.ParseDuration(value)
	case "platform.os":
		s.Platform.OS = value
	case "platform.arch":
		s.Platform.Arch = value
	case "output_format":
		s.OutputFormat = strings.ToLower(value)
	case "color_output":
		s.ColorOutput, err = strconv.ParseBool(value)
	case "log_level":
		s.LogLevel = strings.ToLower(value)
	case "log_file":
		s.LogFile = value
	default:
		return errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
	}
	if err != nil {
		return errors.Wrapf(errors.ErrConfigValidation, "%s: %v", key, err)
	}
	return nil
}

// GetValue returns the value of a setting as a string.
func (c *Config) GetValue(key string) (string, error) {
	s := c.Settings
	switch key {
	case "http_timeout":
		return s.HTTPTimeout.String(), nil
	case "descriptor_timeout":
		return s.DescriptorTimeout.String(), nil
	case "user_agent":
		return s.UserAgent, nil
	case "user_data_dir":
		return s.UserDataDir, nil
	case "system_data_dir":
		return s.SystemDataDir, nil
	case "cache_dir":
		return s.CacheDir, nil
	case "default_phase":
		return s.DefaultPhase, nil
	case "updates_disabled":
		return strconv.FormatBool(s.UpdatesDisabled), nil
	case "allow_continuous":
		return strconv.FormatBool(s.AllowContinuous), nil
	case "non_deferred_delay":
		return s.NonDeferredDelay.String(), nil
	case "platform.os":
		return s.Platform.OS, nil
	case "platform.arch":
		return s.Platform.Arch, nil
	case "output_format":
		return s.OutputFormat, nil
	case "color_output":
		return strconv.FormatBool(s.ColorOutput), nil
	case "log_level":
		return s.LogLevel, nil
	case "log_file":
		return s.LogFile, nil
	}
	return "", errors.Wrapf(errors.ErrUnknownConfigKey, "%s", key)
}

// ToMap returns every setting keyed as in Keys. Useful for display.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string, len(Keys()))
	for _, k := range Keys() {
		v, _ := c.GetValue(k)
		result[k] = v
	}
	return result
}
