// Package ffprobe queries ffprobe for the clip metadata the composer needs.
//
// Every query degrades instead of failing: duration falls back to 0, audio
// presence to false, creation time to absent, and stream properties to
// 1920x1080 at 60 fps with 48 kHz audio. StreamInfo reports which values were
// observed and which were filled in so callers can surface fallbacks.
package ffprobe
