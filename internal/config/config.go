// Package config holds the knobs for an enforcement run. Values come from
// defaults, then a .env file if present, then real environment variables,
// each layer overriding the last.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	// Cadence of the enforcement loop.
	PollInterval  time.Duration
	WarningWindow time.Duration

	// Pause between context-menu steps so the UI can keep up.
	MenuDelay time.Duration

	ScrollToLastPage bool
	WindowGoneAfter  int

	// Window title substring used to find the meeting.
	TargetTitle string

	// Template images for panel recognition.
	IconDir            string
	IconCameraOff      string
	IconCameraOffLight string
	IconMultiPin       string
	IconCoHost         string

	CameraConfidence float64
	BadgeConfidence  float64

	LogLevel string
	DryRun   bool
}

func Default() Config {
	return Config{
		PollInterval:       3 * time.Second,
		WarningWindow:      30 * time.Second,
		MenuDelay:          250 * time.Millisecond,
		ScrollToLastPage:   true,
		WindowGoneAfter:    5,
		TargetTitle:        "Zoom",
		IconDir:            "icons",
		IconCameraOff:      "cam_off_dark.png",
		IconCameraOffLight: "cam_off_light.png",
		IconMultiPin:       "multi_pin.png",
		IconCoHost:         "co_host.png",
		CameraConfidence:   0.8,
		BadgeConfidence:    0.85,
		LogLevel:           "info",
		DryRun:             false,
	}
}

// FromEnv layers ZOOMNOCAM_* environment variables over the defaults and
// validates the result.
func FromEnv() (Config, error) {
	c := Default()

	var err error
	if c.PollInterval, err = envSeconds("ZOOMNOCAM_POLL_SECONDS", c.PollInterval); err != nil {
		return Config{}, err
	}
	if c.WarningWindow, err = envSeconds("ZOOMNOCAM_WARNING_SECONDS", c.WarningWindow); err != nil {
		return Config{}, err
	}
	if c.MenuDelay, err = envSeconds("ZOOMNOCAM_MENU_DELAY_SECONDS", c.MenuDelay); err != nil {
		return Config{}, err
	}
	if c.ScrollToLastPage, err = envBool("ZOOMNOCAM_SCROLL_TO_LAST_PAGE", c.ScrollToLastPage); err != nil {
		return Config{}, err
	}
	if c.WindowGoneAfter, err = envInt("ZOOMNOCAM_WINDOW_GONE_AFTER", c.WindowGoneAfter); err != nil {
		return Config{}, err
	}
	c.TargetTitle = envString("ZOOMNOCAM_TARGET_TITLE", c.TargetTitle)
	c.IconDir = envString("ZOOMNOCAM_ICON_DIR", c.IconDir)
	c.IconCameraOff = envString("ZOOMNOCAM_ICON_CAMERA_OFF", c.IconCameraOff)
	c.IconCameraOffLight = envString("ZOOMNOCAM_ICON_CAMERA_OFF_LIGHT", c.IconCameraOffLight)
	c.IconMultiPin = envString("ZOOMNOCAM_ICON_MULTI_PIN", c.IconMultiPin)
	c.IconCoHost = envString("ZOOMNOCAM_ICON_CO_HOST", c.IconCoHost)
	if c.CameraConfidence, err = envFloat("ZOOMNOCAM_CAMERA_CONFIDENCE", c.CameraConfidence); err != nil {
		return Config{}, err
	}
	if c.BadgeConfidence, err = envFloat("ZOOMNOCAM_BADGE_CONFIDENCE", c.BadgeConfidence); err != nil {
		return Config{}, err
	}
	c.LogLevel = envString("ZOOMNOCAM_LOG_LEVEL", c.LogLevel)
	if c.DryRun, err = envBool("ZOOMNOCAM_DRY_RUN", c.DryRun); err != nil {
		return Config{}, err
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.PollInterval <= 0 {
		return fmt.Errorf("%w: poll interval must be positive, got %v", ErrInvalid, c.PollInterval)
	}
	if c.WarningWindow <= c.PollInterval {
		return fmt.Errorf("%w: warning window %v must exceed poll interval %v",
			ErrInvalid, c.WarningWindow, c.PollInterval)
	}
	if c.MenuDelay < 0 {
		return fmt.Errorf("%w: menu delay must not be negative, got %v", ErrInvalid, c.MenuDelay)
	}
	if c.WindowGoneAfter < 1 {
		return fmt.Errorf("%w: window gone threshold must be at least 1, got %d",
			ErrInvalid, c.WindowGoneAfter)
	}
	if c.TargetTitle == "" {
		return fmt.Errorf("%w: target window title must not be empty", ErrInvalid)
	}
	if c.CameraConfidence <= 0 || c.CameraConfidence > 1 {
		return fmt.Errorf("%w: camera confidence must be in (0, 1], got %v",
			ErrInvalid, c.CameraConfidence)
	}
	if c.BadgeConfidence <= 0 || c.BadgeConfidence > 1 {
		return fmt.Errorf("%w: badge confidence must be in (0, 1], got %v",
			ErrInvalid, c.BadgeConfidence)
	}
	return nil
}

// IconPath resolves an icon file name against the configured icon directory.
func (c Config) IconPath(name string) string {
	return filepath.Join(c.IconDir, name)
}

func envString(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: %s=%q is not a boolean", ErrInvalid, key, v)
	}
	return b, nil
}

func envInt(key string, def int) (int, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrInvalid, key, v)
	}
	return n, nil
}

func envFloat(key string, def float64) (float64, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number", ErrInvalid, key, v)
	}
	return f, nil
}

// envSeconds reads a duration expressed as seconds, fractions allowed, the
// way the knob files write them.
func envSeconds(key string, def time.Duration) (time.Duration, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a number of seconds", ErrInvalid, key, v)
	}
	return time.Duration(f * float64(time.Second)), nil
}
