package curl

import (
	"fmt"

	"github.com/ebitengine/purego"
)

// registerSymbol binds fptr to a named symbol in the loaded library.
// purego panics on a missing symbol; that is converted to an error so
// optional symbols (and clearer diagnostics) are possible.
func registerSymbol(fptr any, handle uintptr, name string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("resolving symbol %s: %v", name, r)
		}
	}()
	purego.RegisterLibFunc(fptr, handle, name)
	return nil
}
