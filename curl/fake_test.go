package curl

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

// fakeEngine is a scripted native function table. It records every call,
// errors on double frees, and lets tests enqueue completion messages and
// fire the registered timer callback in arbitrary order.
//
// Addresses the fake hands across the table are synthetic: message and
// string records are resolved back through the decodeMsgAt/cString
// seams, never by reinterpreting the integer as a Go pointer.
type fakeEngine struct {
	t *testing.T

	mu          sync.Mutex
	nextEasy    uintptr
	easies      map[uintptr]*fakeEasy
	multiHandle uintptr
	cleanups    int
	attached    map[uintptr]bool
	msgs        []*multiMsg
	running     int32
	addCode     int32
	nextSlist   uintptr
	slists      map[uintptr][]string
	freedSlists map[uintptr]bool

	nextNative uintptr
	msgRecords map[uintptr]*multiMsg
	cstrings   map[uintptr]string

	driveSteps  int
	nativeCalls int
	timerData   uintptr
}

type fakeEasy struct {
	freed    bool
	longs    map[int64]int64
	strs     map[int64]string
	ptrs     map[int64]uintptr
	infoStrs map[int64][]byte
	infoLong map[int64]int64
	infoDbl  map[int64]float64

	impersonated   string
	defaultHeaders int64
}

// install replaces the package-wide native table with the fake for the
// duration of the test.
func installFake(t *testing.T) *fakeEngine {
	t.Helper()

	fe := &fakeEngine{
		t:           t,
		nextEasy:    0x1000,
		easies:      make(map[uintptr]*fakeEasy),
		multiHandle: 0x9000,
		attached:    make(map[uintptr]bool),
		nextSlist:   0x7000,
		slists:      make(map[uintptr][]string),
		freedSlists: make(map[uintptr]bool),
		nextNative:  0x5000,
		msgRecords:  make(map[uintptr]*multiMsg),
		cstrings:    make(map[uintptr]string),
	}

	libMu.Lock()
	prev := lib
	lib = fe.table()
	libMu.Unlock()

	prevDecode, prevCString := decodeMsgAt, cString
	decodeMsgAt = fe.decodeMsg
	cString = fe.cstring

	t.Cleanup(func() {
		decodeMsgAt = prevDecode
		cString = prevCString
		libMu.Lock()
		lib = prev
		libMu.Unlock()
	})

	return fe
}

// intern assigns a fresh synthetic address for a record the table hands
// back by pointer. Callers hold mu.
func (fe *fakeEngine) intern() uintptr {
	p := fe.nextNative
	fe.nextNative += 0x10
	return p
}

func (fe *fakeEngine) decodeMsg(p uintptr) (kind int32, easy uintptr, code Code) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	msg, ok := fe.msgRecords[p]
	if !ok {
		fe.t.Errorf("message decode for unknown address %#x", p)
		return 0, 0, CodeOK
	}
	delete(fe.msgRecords, p)
	return msg.kind, msg.easy, Code(int32(uint32(msg.data)))
}

func (fe *fakeEngine) cstring(p uintptr) string {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	s, ok := fe.cstrings[p]
	if !ok {
		fe.t.Errorf("string read from unknown address %#x", p)
		return ""
	}
	return s
}

func (fe *fakeEngine) table() *libcurl {
	return &libcurl{
		globalInit: func(int64) int32 { return 0 },
		version:    func() string { return "libcurl-fake/1.0" },

		easyInit: func() uintptr {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			h := fe.nextEasy
			fe.nextEasy += 0x10
			fe.easies[h] = &fakeEasy{
				longs:    make(map[int64]int64),
				strs:     make(map[int64]string),
				ptrs:     make(map[int64]uintptr),
				infoStrs: make(map[int64][]byte),
				infoLong: make(map[int64]int64),
				infoDbl:  make(map[int64]float64),
			}
			return h
		},
		easyCleanup: func(h uintptr) {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			e, ok := fe.easies[h]
			if !ok || e.freed {
				fe.t.Errorf("double free of easy handle %#x", h)
				return
			}
			e.freed = true
		},
		easyReset:   func(uintptr) {},
		easyPerform: func(uintptr) int32 { return 0 },
		easySetoptLong: func(h uintptr, opt, v int64) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			fe.easies[h].longs[opt] = v
			return 0
		},
		easySetoptStr: func(h uintptr, opt int64, v string) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			fe.easies[h].strs[opt] = v
			return 0
		},
		easySetoptPtr: func(h uintptr, opt int64, v uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			fe.easies[h].ptrs[opt] = v
			return 0
		},
		easyGetinfoPtr: func(h uintptr, info int64, out *uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			buf, ok := fe.easies[h].infoStrs[info]
			if !ok {
				return 1
			}
			p := fe.intern()
			fe.cstrings[p] = strings.TrimRight(string(buf), "\x00")
			*out = p
			return 0
		},
		easyGetinfoLong: func(h uintptr, info int64, out *int64) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			v, ok := fe.easies[h].infoLong[info]
			if !ok {
				return 1
			}
			*out = v
			return 0
		},
		easyGetinfoDouble: func(h uintptr, info int64, out *float64) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			v, ok := fe.easies[h].infoDbl[info]
			if !ok {
				return 1
			}
			*out = v
			return 0
		},
		easyStrerror: func(code int32) string {
			switch Code(code) {
			case CodeOK:
				return "No error"
			case CodeCouldntResolveHost:
				return "Couldn't resolve host name"
			case CodeOperationTimedout:
				return "Timeout was reached"
			default:
				return fmt.Sprintf("Error code %d", code)
			}
		},
		easyImpersonate: func(h uintptr, target string, defaultHeaders int64) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.easies[h].impersonated = target
			fe.easies[h].defaultHeaders = defaultHeaders
			return 0
		},

		slistAppend: func(list uintptr, s string) uintptr {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			if list == 0 {
				list = fe.nextSlist
				fe.nextSlist += 0x10
			}
			fe.slists[list] = append(fe.slists[list], s)
			return list
		},
		slistFreeAll: func(list uintptr) {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			if fe.freedSlists[list] {
				fe.t.Errorf("double free of slist %#x", list)
			}
			fe.freedSlists[list] = true
		},

		multiInit: func() uintptr {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			return fe.multiHandle
		},
		multiCleanup: func(h uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			fe.cleanups++
			if fe.cleanups > 1 {
				fe.t.Errorf("multi engine cleaned up %d times", fe.cleanups)
			}
			return 0
		},
		multiAdd: func(h, easy uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			if fe.addCode != 0 {
				return fe.addCode
			}
			fe.attached[easy] = true
			return 0
		},
		multiRemove: func(h, easy uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			delete(fe.attached, easy)
			return 0
		},
		multiSetoptLong: func(h uintptr, opt, v int64) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			return 0
		},
		multiSetoptPtr: func(h uintptr, opt int64, v uintptr) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			if MultiOption(opt) == MultiOptTimerData {
				fe.timerData = v
			}
			return 0
		},
		multiPerform: func(h uintptr, running *int32) int32 {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			fe.nativeCalls++
			fe.driveSteps++
			*running = fe.running
			return 0
		},
		multiInfoRead: func(h uintptr, remaining *int32) uintptr {
			fe.mu.Lock()
			defer fe.mu.Unlock()
			if len(fe.msgs) == 0 {
				*remaining = 0
				return 0
			}
			msg := fe.msgs[0]
			fe.msgs = fe.msgs[1:]
			*remaining = int32(len(fe.msgs))
			p := fe.intern()
			fe.msgRecords[p] = msg
			return p
		},
		multiStrerror: func(code int32) string {
			return fmt.Sprintf("Multi error code %d", code)
		},
	}
}

// queueDone enqueues a completion message for easy and drops the
// reported running count accordingly.
func (fe *fakeEngine) queueDone(easy uintptr, code Code) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.msgs = append(fe.msgs, &multiMsg{kind: msgDone, easy: easy, data: uintptr(uint32(int32(code)))})
	if fe.running > 0 {
		fe.running--
	}
}

// queueMsg enqueues a raw message with an arbitrary kind tag.
func (fe *fakeEngine) queueMsg(kind int32, easy uintptr, code Code) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.msgs = append(fe.msgs, &multiMsg{kind: kind, easy: easy, data: uintptr(uint32(int32(code)))})
}

func (fe *fakeEngine) setRunning(n int32) {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	fe.running = n
}

// fireTimer simulates the native engine invoking the registered timer
// callback with the given delay request.
func (fe *fakeEngine) fireTimer(timeoutMS int64) {
	fe.mu.Lock()
	data := fe.timerData
	fe.mu.Unlock()

	fn, ok := bridgeLookup(data).(timerFunc)
	if !ok {
		fe.t.Fatalf("no timer callback registered (userdata %#x)", data)
	}
	fn(timeoutMS)
}

func (fe *fakeEngine) calls() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.nativeCalls
}

func (fe *fakeEngine) drives() int {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.driveSteps
}
