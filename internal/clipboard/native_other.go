//go:build !windows

package clipboard

func nativeClipboard() *native {
	return nil
}
