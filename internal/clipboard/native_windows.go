//go:build windows

package clipboard

import winclip "github.com/atotto/clipboard"

// nativeClipboard uses the Win32 clipboard, which exchanges UTF-16 text and
// so skips the console code page.
func nativeClipboard() *native {
	return &native{read: winclip.ReadAll, write: winclip.WriteAll}
}
