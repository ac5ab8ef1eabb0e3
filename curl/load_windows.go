//go:build windows

package curl

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func openLibrary(name string) (uintptr, error) {
	handle, err := windows.LoadLibrary(name)
	if err != nil {
		return 0, fmt.Errorf("LoadLibrary %s: %w", name, err)
	}
	return uintptr(handle), nil
}
