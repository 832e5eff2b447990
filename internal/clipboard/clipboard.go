// Package clipboard provides access to the local clipboard text.
//
// The OS adapter uses the Win32 clipboard on Windows and shells out to the
// platform's helpers elsewhere (pbcopy/pbpaste, wl-copy/wl-paste, xclip, xsel).
// Memory is an in-process clipboard for headless runs and tests.
//
// Both report failures as syncerr AccessDenied or Unavailable errors so a
// failed read is never confused with an empty clipboard.
package clipboard

import "context"

// Clipboard reads and writes the local clipboard text.
type Clipboard interface {
	// Read returns the current clipboard text.
	Read(ctx context.Context) (string, error)

	// Write replaces the clipboard text.
	Write(ctx context.Context, text string) error
}
