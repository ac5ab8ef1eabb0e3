package curl

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"
)

// libcurl is the resolved native function table. Every call into the
// native engine goes through this table; unit tests install a scripted
// fake here instead of loading the real library.
type libcurl struct {
	globalInit func(flags int64) int32
	version    func() string

	easyInit          func() uintptr
	easyCleanup       func(h uintptr)
	easyReset         func(h uintptr)
	easyPerform       func(h uintptr) int32
	easySetoptLong    func(h uintptr, opt int64, v int64) int32
	easySetoptStr     func(h uintptr, opt int64, v string) int32
	easySetoptPtr     func(h uintptr, opt int64, v uintptr) int32
	easyGetinfoPtr    func(h uintptr, info int64, out *uintptr) int32
	easyGetinfoLong   func(h uintptr, info int64, out *int64) int32
	easyGetinfoDouble func(h uintptr, info int64, out *float64) int32
	easyStrerror      func(code int32) string
	easyImpersonate   func(h uintptr, target string, defaultHeaders int64) int32

	slistAppend  func(list uintptr, s string) uintptr
	slistFreeAll func(list uintptr)

	multiInit       func() uintptr
	multiCleanup    func(h uintptr) int32
	multiAdd        func(h, easy uintptr) int32
	multiRemove     func(h, easy uintptr) int32
	multiSetoptLong func(h uintptr, opt int64, v int64) int32
	multiSetoptPtr  func(h uintptr, opt int64, v uintptr) int32
	multiPerform    func(h uintptr, running *int32) int32
	multiInfoRead   func(h uintptr, remaining *int32) uintptr
	multiStrerror   func(code int32) string
}

var (
	libMu   sync.Mutex
	lib     *libcurl
	loadErr error
)

// Load resolves the native library at path and registers all symbols.
// An empty path tries the default candidate names for the platform,
// preferring libcurl-impersonate over stock libcurl. Load is a no-op if
// a library is already loaded.
func Load(path string) error {
	libMu.Lock()
	defer libMu.Unlock()
	if lib != nil {
		return nil
	}

	candidates := libraryCandidates()
	if path != "" {
		candidates = []string{path}
	}

	var errs []error
	for _, name := range candidates {
		handle, err := openLibrary(name)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		l, err := registerSymbols(handle)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}

		if code := l.globalInit(globalDefault); code != 0 {
			return fmt.Errorf("curl_global_init returned %d: %w", code, ErrInit)
		}

		lib = l
		loadErr = nil
		return nil
	}

	loadErr = fmt.Errorf("loading libcurl: %w", errors.Join(errs...))
	return loadErr
}

// load is the lazy entry point used by NewEasy and NewMulti.
func load() error {
	libMu.Lock()
	ready := lib != nil
	libMu.Unlock()
	if ready {
		return nil
	}
	return Load("")
}

// Version returns the native engine's version string, e.g.
// "libcurl/8.1.1 BoringSSL zlib/1.2.13 brotli/1.0.9 nghttp2/1.56.0".
// It returns an empty string when no library can be loaded.
func Version() string {
	if err := load(); err != nil {
		return ""
	}
	return lib.version()
}

// Strerror returns the native human-readable string for a result code.
func Strerror(code Code) string {
	if err := load(); err != nil {
		return fmt.Sprintf("curl code %d", code)
	}
	return lib.easyStrerror(int32(code))
}

func registerSymbols(handle uintptr) (*libcurl, error) {
	l := &libcurl{}

	required := []struct {
		fptr any
		name string
	}{
		{&l.globalInit, "curl_global_init"},
		{&l.version, "curl_version"},
		{&l.easyInit, "curl_easy_init"},
		{&l.easyCleanup, "curl_easy_cleanup"},
		{&l.easyReset, "curl_easy_reset"},
		{&l.easyPerform, "curl_easy_perform"},
		{&l.easySetoptLong, "curl_easy_setopt"},
		{&l.easySetoptStr, "curl_easy_setopt"},
		{&l.easySetoptPtr, "curl_easy_setopt"},
		{&l.easyGetinfoPtr, "curl_easy_getinfo"},
		{&l.easyGetinfoLong, "curl_easy_getinfo"},
		{&l.easyGetinfoDouble, "curl_easy_getinfo"},
		{&l.easyStrerror, "curl_easy_strerror"},
		{&l.slistAppend, "curl_slist_append"},
		{&l.slistFreeAll, "curl_slist_free_all"},
		{&l.multiInit, "curl_multi_init"},
		{&l.multiCleanup, "curl_multi_cleanup"},
		{&l.multiAdd, "curl_multi_add_handle"},
		{&l.multiRemove, "curl_multi_remove_handle"},
		{&l.multiSetoptLong, "curl_multi_setopt"},
		{&l.multiSetoptPtr, "curl_multi_setopt"},
		{&l.multiPerform, "curl_multi_perform"},
		{&l.multiInfoRead, "curl_multi_info_read"},
		{&l.multiStrerror, "curl_multi_strerror"},
	}

	for _, sym := range required {
		if err := registerSymbol(sym.fptr, handle, sym.name); err != nil {
			return nil, err
		}
	}

	// curl_easy_impersonate only exists in libcurl-impersonate builds.
	if err := registerSymbol(&l.easyImpersonate, handle, "curl_easy_impersonate"); err != nil {
		l.easyImpersonate = nil
	}

	return l, nil
}

// multiMsg mirrors the native completion record: a message-kind tag, the
// originating easy session pointer, and a union holding the result code.
// Field alignment matches the C struct on both 32- and 64-bit targets.
type multiMsg struct {
	kind int32
	easy uintptr
	data uintptr
}

// decodeMsgAt and cString indirect the raw-memory reads behind the
// addresses the native engine hands back. The scripted test engine
// substitutes map lookups here; its records live on the Go heap, where
// reconstructing pointers from integers is not legal.
var (
	decodeMsgAt = decodeMsg
	cString     = goString
)

// decodeMsg reads a completion record from the pointer handed back by
// the native message reader. The result code occupies the low 32 bits of
// the union on little-endian targets, which is every platform the native
// engine ships for.
func decodeMsg(p uintptr) (kind int32, easy uintptr, code Code) {
	msg := (*multiMsg)(unsafe.Pointer(p))
	return msg.kind, msg.easy, Code(int32(uint32(msg.data)))
}

// goString copies a NUL-terminated native string.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Pointer(p + uintptr(n))) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
