package compose

import (
	"strings"
	"time"

	"videomixer/internal/filtergraph"
)

const captionLayout = "Mon,01.02.2006\n15:04:05"

// CaptionText formats a clip's creation time for drawtext. The result is
// already escaped for the filter graph. A missing timestamp yields "".
func CaptionText(created time.Time, ok bool) string {
	if !ok {
		return ""
	}
	return filtergraph.EscapeText(created.Format(captionLayout))
}

// ChapterLabel turns caption text back into plain single-line text.
func ChapterLabel(caption string) string {
	return filtergraph.UnescapeText(strings.ReplaceAll(caption, "\n", " "))
}
