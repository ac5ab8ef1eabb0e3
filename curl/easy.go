package curl

import (
	"bytes"
	"fmt"
	"runtime"
	"strings"
	"unsafe"
)

// Easy wraps one native transfer session. It owns its option state, the
// callback registrations and native lists it allocates, and the response
// accumulators filled by write/header callbacks during a transfer.
//
// An Easy is not safe for concurrent use, and its options must not be
// mutated while it is registered with a running [Multi].
type Easy struct {
	raw      uintptr
	slists   []uintptr
	bridges  map[Option]uintptr
	retained [][]byte

	body        bytes.Buffer
	headerLines []string
}

// NewEasy allocates a native transfer session.
func NewEasy() (*Easy, error) {
	if err := load(); err != nil {
		return nil, err
	}

	raw := lib.easyInit()
	if raw == 0 {
		return nil, fmt.Errorf("easy session: %w", ErrInit)
	}

	e := &Easy{
		raw:     raw,
		bridges: make(map[Option]uintptr),
	}

	// Multi-driven transfers run on arbitrary goroutines; signal-based
	// DNS timeouts are unsafe there.
	lib.easySetoptLong(raw, int64(OptNoSignal), 1)

	return e, nil
}

// Raw returns the native session pointer. It is the handle's identity in
// a [Multi] registry and is stable for the handle's lifetime.
func (e *Easy) Raw() uintptr { return e.raw }

// funcDataOpts pairs each function-valued option slot with the userdata
// option the bridge id is delivered through.
var funcDataOpts = map[Option]Option{
	OptWriteFunction:    OptWriteData,
	OptHeaderFunction:   OptHeaderData,
	OptReadFunction:     OptReadData,
	OptXferInfoFunction: OptXferInfoData,
}

var funcTrampolines = map[Option]uintptr{
	OptWriteFunction:    writeTrampoline,
	OptHeaderFunction:   headerTrampoline,
	OptReadFunction:     readTrampoline,
	OptXferInfoFunction: progressTrampoline,
}

// SetOpt sets one option, dispatching on the value's type: numeric and
// boolean values use the long setter, strings the string setter, string
// slices become a native list retained until Close, byte slices are
// posted as a copied raw buffer or retained, callback values are routed
// through the callback bridge, and uintptr values use the pointer setter.
func (e *Easy) SetOpt(opt Option, value any) error {
	if e.raw == 0 {
		return &OptionError{Option: opt.String(), Detail: ErrClosed.Error()}
	}

	var code Code
	switch v := value.(type) {
	case int:
		code = Code(lib.easySetoptLong(e.raw, int64(opt), int64(v)))
	case int64:
		code = Code(lib.easySetoptLong(e.raw, int64(opt), v))
	case Code:
		code = Code(lib.easySetoptLong(e.raw, int64(opt), int64(v)))
	case bool:
		var n int64
		if v {
			n = 1
		}
		code = Code(lib.easySetoptLong(e.raw, int64(opt), n))
	case string:
		code = Code(lib.easySetoptStr(e.raw, int64(opt), v))
	case []string:
		list, err := e.appendSlist(v)
		if err != nil {
			return &OptionError{Option: opt.String(), Detail: err.Error()}
		}
		code = Code(lib.easySetoptPtr(e.raw, int64(opt), list))
	case []byte:
		code = e.setBytes(opt, v)
	case WriteFunc:
		return e.setCallback(opt, v)
	case HeaderFunc:
		return e.setCallback(opt, v)
	case ReadFunc:
		return e.setCallback(opt, v)
	case ProgressFunc:
		if err := e.setCallback(opt, v); err != nil {
			return err
		}
		// Progress callbacks are ignored while NOPROGRESS is set.
		return e.SetOpt(OptNoProgress, false)
	case uintptr:
		code = Code(lib.easySetoptPtr(e.raw, int64(opt), v))
	case nil:
		code = Code(lib.easySetoptPtr(e.raw, int64(opt), 0))
	default:
		return &OptionError{Option: opt.String(), Detail: fmt.Sprintf("unsupported value type %T", value)}
	}

	if code != CodeOK {
		return &OptionError{Option: opt.String(), Code: code, Detail: lib.easyStrerror(int32(code))}
	}
	return nil
}

// setBytes posts a raw byte buffer. The postfields options copy on the
// native side; every other pointer-shaped option needs the buffer kept
// reachable for the handle's lifetime.
func (e *Easy) setBytes(opt Option, v []byte) Code {
	if opt == OptPostFields || opt == OptCopyPostFields {
		if code := Code(lib.easySetoptLong(e.raw, int64(OptPostFieldSizeLarge), int64(len(v)))); code != CodeOK {
			return code
		}
		var p uintptr
		if len(v) > 0 {
			p = uintptr(unsafe.Pointer(&v[0]))
		}
		code := Code(lib.easySetoptPtr(e.raw, int64(OptCopyPostFields), p))
		runtime.KeepAlive(v)
		return code
	}

	e.retained = append(e.retained, v)
	var p uintptr
	if len(v) > 0 {
		p = uintptr(unsafe.Pointer(&v[0]))
	}
	return Code(lib.easySetoptPtr(e.raw, int64(opt), p))
}

// setCallback registers fn with the bridge and wires the shared
// trampoline plus the bridge id into the native option pair, replacing
// and releasing any prior registration for the same slot.
func (e *Easy) setCallback(opt Option, fn any) error {
	dataOpt, ok := funcDataOpts[opt]
	if !ok {
		return &OptionError{Option: opt.String(), Detail: fmt.Sprintf("option does not accept a %T", fn)}
	}

	id := bridgeRegister(fn)
	if code := Code(lib.easySetoptPtr(e.raw, int64(opt), funcTrampolines[opt])); code != CodeOK {
		bridgeRelease(id)
		return &OptionError{Option: opt.String(), Code: code, Detail: lib.easyStrerror(int32(code))}
	}
	if code := Code(lib.easySetoptPtr(e.raw, int64(dataOpt), id)); code != CodeOK {
		bridgeRelease(id)
		return &OptionError{Option: dataOpt.String(), Code: code, Detail: lib.easyStrerror(int32(code))}
	}

	if prior, ok := e.bridges[opt]; ok {
		bridgeRelease(prior)
	}
	e.bridges[opt] = id
	return nil
}

func (e *Easy) appendSlist(values []string) (uintptr, error) {
	var list uintptr
	for _, v := range values {
		next := lib.slistAppend(list, v)
		if next == 0 {
			if list != 0 {
				lib.slistFreeAll(list)
			}
			return 0, fmt.Errorf("native list append: %w", ErrInit)
		}
		list = next
	}
	e.slists = append(e.slists, list)
	return list, nil
}

// CaptureResponse installs write and header callbacks that accumulate
// the response into the handle. Body bytes are readable afterwards via
// ResponseBody, header lines via ResponseHeaders.
func (e *Easy) CaptureResponse() error {
	if err := e.SetOpt(OptWriteFunction, WriteFunc(func(data []byte) int {
		e.body.Write(data)
		return len(data)
	})); err != nil {
		return err
	}
	return e.SetOpt(OptHeaderFunction, HeaderFunc(func(line []byte) int {
		e.headerLines = append(e.headerLines, strings.TrimRight(string(line), "\r\n"))
		return len(line)
	}))
}

// ResponseBody returns the accumulated response body.
func (e *Easy) ResponseBody() []byte { return e.body.Bytes() }

// ResponseHeaders returns every accumulated header line, CRLF-stripped.
// A transfer with intermediate responses (redirects, 100-continue)
// yields multiple blocks separated by empty lines.
func (e *Easy) ResponseHeaders() []string { return e.headerLines }

// ResetCapture drops accumulated response data, keeping the callbacks
// in place. Used between redirect hops that reuse a handle.
func (e *Easy) ResetCapture() {
	e.body.Reset()
	e.headerLines = e.headerLines[:0]
}

// Perform runs the transfer synchronously and returns the native result
// code. Callers inspect the code; a non-zero code is not an error value.
func (e *Easy) Perform() Code {
	if e.raw == 0 {
		return CodeFailedInit
	}
	return Code(lib.easyPerform(e.raw))
}

// GetInfo reads a post-transfer info field, selecting the decode path by
// the type tag embedded in the key. Decode failures yield the type's
// zero value; many fields are legitimately unset around failed
// transfers and callers routinely probe optional ones.
func (e *Easy) GetInfo(info Info) any {
	if e.raw == 0 {
		return nil
	}
	switch info & infoTypeMask {
	case InfoTypeString:
		var p uintptr
		if lib.easyGetinfoPtr(e.raw, int64(info), &p) != 0 {
			return ""
		}
		return cString(p)
	case InfoTypeLong, InfoTypeOffT:
		var n int64
		if lib.easyGetinfoLong(e.raw, int64(info), &n) != 0 {
			return int64(0)
		}
		return n
	case InfoTypeDouble:
		var f float64
		if lib.easyGetinfoDouble(e.raw, int64(info), &f) != 0 {
			return float64(0)
		}
		return f
	default:
		var p uintptr
		if lib.easyGetinfoPtr(e.raw, int64(info), &p) != 0 {
			return uintptr(0)
		}
		return p
	}
}

// InfoString reads a string-typed info field, empty on failure.
func (e *Easy) InfoString(info Info) string {
	s, _ := e.GetInfo(info).(string)
	return s
}

// InfoLong reads an integer-typed info field, zero on failure.
func (e *Easy) InfoLong(info Info) int64 {
	n, _ := e.GetInfo(info).(int64)
	return n
}

// InfoDouble reads a double-typed info field, zero on failure.
func (e *Easy) InfoDouble(info Info) float64 {
	f, _ := e.GetInfo(info).(float64)
	return f
}

// Impersonate applies a browser profile ("chrome116", "firefox109", ...)
// to the session via the native impersonation primitive.
// defaultHeaders controls whether the profile's stock header set is
// installed as well.
func (e *Easy) Impersonate(profile string, defaultHeaders bool) error {
	if e.raw == 0 {
		return fmt.Errorf("impersonate: %w", ErrClosed)
	}
	if lib.easyImpersonate == nil {
		return fmt.Errorf("impersonate: %w", ErrNotSupported)
	}

	var headers int64
	if defaultHeaders {
		headers = 1
	}
	if code := Code(lib.easyImpersonate(e.raw, profile, headers)); code != CodeOK {
		return &TransferError{Code: code, Detail: lib.easyStrerror(int32(code))}
	}
	return nil
}

// Reset restores the session to its freshly-created option state and
// clears the response accumulators. Callback registrations are released;
// re-install them before the next transfer.
func (e *Easy) Reset() {
	if e.raw == 0 {
		return
	}
	lib.easyReset(e.raw)
	lib.easySetoptLong(e.raw, int64(OptNoSignal), 1)
	e.releaseOwned()
	e.body.Reset()
	e.headerLines = nil
}

// Close frees all retained native lists, releases callback bridge
// entries, and frees the native session. Calling Close on an
// already-closed handle is a no-op.
func (e *Easy) Close() {
	if e.raw == 0 {
		return
	}
	e.releaseOwned()
	lib.easyCleanup(e.raw)
	e.raw = 0
}

func (e *Easy) releaseOwned() {
	for _, list := range e.slists {
		lib.slistFreeAll(list)
	}
	e.slists = nil

	for _, id := range e.bridges {
		bridgeRelease(id)
	}
	e.bridges = make(map[Option]uintptr)
	e.retained = nil
}
