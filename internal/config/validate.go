package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var hexColorPattern = regexp.MustCompile(`^0x([0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTools(); err != nil {
		return err
	}
	if err := c.validateCaption(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validateTools() error {
	if c.Tools.FFmpeg == "" {
		return errors.New("tools.ffmpeg must be set")
	}
	if c.Tools.FFprobe == "" {
		return errors.New("tools.ffprobe must be set")
	}
	return nil
}

func (c *Config) validateCaption() error {
	if err := ensureNonNegativeMap(map[string]int{
		"caption.margin":          c.Caption.Margin,
		"caption.size":            c.Caption.Size,
		"caption.display_seconds": c.Caption.DisplaySeconds,
	}); err != nil {
		return err
	}
	if c.Caption.BorderWidthRatio < 0 || c.Caption.BorderWidthRatio > 1 {
		return errors.New("caption.border_width_ratio must be between 0 and 1")
	}
	if !hexColorPattern.MatchString(c.Caption.Color) {
		return fmt.Errorf("caption.color %q must be a 0x-prefixed 6 or 8 digit hex value", c.Caption.Color)
	}
	if !hexColorPattern.MatchString(c.Caption.BorderColor) {
		return fmt.Errorf("caption.border_color %q must be a 0x-prefixed 6 or 8 digit hex value", c.Caption.BorderColor)
	}
	if c.Caption.TimezoneOffsetHours < -12 || c.Caption.TimezoneOffsetHours > 14 {
		return errors.New("caption.timezone_offset_hours must be between -12 and 14")
	}
	return nil
}

func (c *Config) validateOutput() error {
	if !hexColorPattern.MatchString(c.Output.BackgroundColor) {
		return fmt.Errorf("output.background_color %q must be a 0x-prefixed 6 or 8 digit hex value", c.Output.BackgroundColor)
	}
	switch c.Output.Codec {
	case "h264", "hevc":
	default:
		return fmt.Errorf("output.codec %q must be h264 or hevc", c.Output.Codec)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic %q must be an http(s) URL", topic)
	}
	return nil
}

func ensureNonNegativeMap(values map[string]int) error {
	for key, value := range values {
		if value < 0 {
			return fmt.Errorf("%s must be >= 0", key)
		}
	}
	return nil
}
