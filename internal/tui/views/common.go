// common.go holds small helpers shared across the views.
package views

import (
	"errors"

	"github.com/pvlab-dev/pvlab/internal/api"
)

// maxBoxWidth caps the content box so wide terminals don't stretch the
// forms edge to edge.
const maxBoxWidth = 90

// boxWidth fits the content box into the terminal width.
func boxWidth(termWidth int) int {
	w := maxBoxWidth
	if termWidth-4 < w {
		w = termWidth - 4
	}
	return w
}

// errText renders an error with the gateway's category-stable message
// when one is available.
func errText(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	return err.Error()
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
