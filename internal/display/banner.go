package display

import (
	_ "embed"
	"os"
	"strings"

	"github.com/charmbracelet/x/term"
)

//go:embed banner.txt
var bannerRaw string

// RenderBanner returns the banner art with an optional subtitle, both
// horizontally centred for the current terminal width.
func RenderBanner(subtitle string) string {
	width := termWidth()

	lines := strings.Split(strings.TrimRight(bannerRaw, "\n"), "\n")
	maxW := 0
	for _, l := range lines {
		maxW = max(maxW, len(l))
	}

	var b strings.Builder
	for _, l := range lines {
		b.WriteString(centre(width, maxW))
		b.WriteString(BannerStyle.Render(l))
		b.WriteByte('\n')
	}
	if subtitle != "" {
		b.WriteByte('\n')
		b.WriteString(centre(width, len(subtitle)))
		b.WriteString(stepStyle.Render(subtitle))
		b.WriteByte('\n')
	}
	return b.String()
}

func centre(width, w int) string {
	if width <= w {
		return ""
	}
	return strings.Repeat(" ", (width-w)/2)
}

// termWidth returns the current terminal column count, or 80 as fallback.
func termWidth() int {
	if w, _, err := term.GetSize(os.Stdout.Fd()); err == nil && w > 0 {
		return w
	}
	return 80
}
