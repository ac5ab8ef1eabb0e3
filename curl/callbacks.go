package curl

import (
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

// Callback types accepted by [Easy.SetOpt] for the function-valued
// option slots.
type (
	// WriteFunc receives a chunk of response body and returns the number
	// of bytes it consumed. Returning less than len(data) aborts the
	// transfer with a native write error.
	WriteFunc func(data []byte) int

	// HeaderFunc receives one raw response-header line, including the
	// trailing CRLF, and returns the number of bytes consumed.
	HeaderFunc func(line []byte) int

	// ReadFunc fills buf with request-body bytes and returns how many
	// were written. Returning 0 signals end of body.
	ReadFunc func(buf []byte) int

	// ProgressFunc observes transfer progress. A non-zero return aborts
	// the transfer.
	ProgressFunc func(dlTotal, dlNow, ulTotal, ulNow int64) int
)

// timerFunc is the closure shape the Multi registers for native timer
// requests. timeoutMS < 0 means "no timer wanted right now".
type timerFunc func(timeoutMS int64)

// bridge keeps closures reachable from native callback invocations. The
// native engine is handed a shared per-signature trampoline plus the
// registration id as its userdata; the trampoline looks the closure back
// up by id. Release is explicit: native invocation timing is not tied to
// Go scope, so nothing here frees on scope exit.
var bridge = struct {
	mu   sync.Mutex
	next uintptr
	fns  map[uintptr]any
}{
	next: 1,
	fns:  make(map[uintptr]any),
}

func bridgeRegister(fn any) uintptr {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	id := bridge.next
	bridge.next++
	bridge.fns[id] = fn
	return id
}

func bridgeLookup(id uintptr) any {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	return bridge.fns[id]
}

// bridgeRelease forgets a registration. Unknown ids are a no-op so that
// shutdown paths may double-release safely.
func bridgeRelease(id uintptr) {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	delete(bridge.fns, id)
}

func bridgeCount() int {
	bridge.mu.Lock()
	defer bridge.mu.Unlock()
	return len(bridge.fns)
}

// One native-callable trampoline per signature, created once for the
// process. A panic inside a bridged closure must never unwind into
// native code; each trampoline converts it to the native abort value.
var (
	writeTrampoline    = purego.NewCallback(writeThunk)
	headerTrampoline   = purego.NewCallback(headerThunk)
	readTrampoline     = purego.NewCallback(readThunk)
	progressTrampoline = purego.NewCallback(progressThunk)
	timerTrampoline    = purego.NewCallback(timerThunk)
)

func writeThunk(ptr, size, nmemb, userdata uintptr) uintptr {
	fn, ok := bridgeLookup(userdata).(WriteFunc)
	if !ok {
		return 0
	}
	return uintptr(safeConsume(func() int { return fn(nativeBytes(ptr, size*nmemb)) }))
}

func headerThunk(ptr, size, nmemb, userdata uintptr) uintptr {
	fn, ok := bridgeLookup(userdata).(HeaderFunc)
	if !ok {
		return 0
	}
	return uintptr(safeConsume(func() int { return fn(nativeBytes(ptr, size*nmemb)) }))
}

func readThunk(ptr, size, nitems, userdata uintptr) uintptr {
	fn, ok := bridgeLookup(userdata).(ReadFunc)
	if !ok {
		return 0
	}
	return uintptr(safeConsume(func() int { return fn(nativeBytes(ptr, size*nitems)) }))
}

func progressThunk(userdata uintptr, dlTotal, dlNow, ulTotal, ulNow int64) int32 {
	fn, ok := bridgeLookup(userdata).(ProgressFunc)
	if !ok {
		return 0
	}
	aborted := 1
	func() {
		defer func() { _ = recover() }()
		aborted = fn(dlTotal, dlNow, ulTotal, ulNow)
	}()
	return int32(aborted)
}

func timerThunk(multi uintptr, timeoutMS int64, userdata uintptr) int32 {
	fn, ok := bridgeLookup(userdata).(timerFunc)
	if !ok {
		return 0
	}
	func() {
		defer func() { _ = recover() }()
		fn(timeoutMS)
	}()
	return 0
}

// safeConsume runs a byte-consuming closure, reporting 0 bytes consumed
// if it panics.
func safeConsume(fn func() int) (n int) {
	defer func() {
		if r := recover(); r != nil {
			n = 0
		}
	}()
	return fn()
}

func nativeBytes(ptr, n uintptr) []byte {
	if ptr == 0 || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), n)
}
