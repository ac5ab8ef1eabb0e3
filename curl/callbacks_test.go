package curl

import (
	"testing"
	"unsafe"
)

func TestBridge_RegisterLookupRelease(t *testing.T) {
	fn := WriteFunc(func(b []byte) int { return len(b) })

	id := bridgeRegister(fn)
	if _, ok := bridgeLookup(id).(WriteFunc); !ok {
		t.Fatal("registered closure not found")
	}

	bridgeRelease(id)
	if got := bridgeLookup(id); got != nil {
		t.Errorf("released closure still reachable: %T", got)
	}

	// Double release and unknown ids are no-ops.
	bridgeRelease(id)
	bridgeRelease(0xdeadbeef)
}

func TestBridge_IDsAreNotReused(t *testing.T) {
	a := bridgeRegister(WriteFunc(func(b []byte) int { return len(b) }))
	bridgeRelease(a)
	b := bridgeRegister(WriteFunc(func(b []byte) int { return len(b) }))
	defer bridgeRelease(b)

	if a == b {
		t.Errorf("bridge id %d reused after release", a)
	}
}

func TestWriteThunk_DeliversBytes(t *testing.T) {
	var got []byte
	id := bridgeRegister(WriteFunc(func(b []byte) int {
		got = append(got, b...)
		return len(b)
	}))
	defer bridgeRelease(id)

	data := []byte("chunk")
	n := writeThunk(uintptr(unsafe.Pointer(&data[0])), 1, uintptr(len(data)), id)
	if int(n) != len(data) {
		t.Errorf("expected %d bytes consumed, got %d", len(data), n)
	}
	if string(got) != "chunk" {
		t.Errorf("delivered bytes mismatch: %q", got)
	}
}

func TestWriteThunk_PanicBecomesSentinel(t *testing.T) {
	id := bridgeRegister(WriteFunc(func(b []byte) int {
		panic("callback exploded")
	}))
	defer bridgeRelease(id)

	data := []byte("x")
	n := writeThunk(uintptr(unsafe.Pointer(&data[0])), 1, 1, id)
	if n != 0 {
		t.Errorf("panicking callback must consume 0 bytes, got %d", n)
	}
}

func TestWriteThunk_UnknownIDIsSentinel(t *testing.T) {
	data := []byte("x")
	if n := writeThunk(uintptr(unsafe.Pointer(&data[0])), 1, 1, 0xfeed); n != 0 {
		t.Errorf("unknown id must consume 0 bytes, got %d", n)
	}
}

func TestProgressThunk_PanicAborts(t *testing.T) {
	id := bridgeRegister(ProgressFunc(func(dlTotal, dlNow, ulTotal, ulNow int64) int {
		panic("progress exploded")
	}))
	defer bridgeRelease(id)

	if rc := progressThunk(id, 100, 50, 0, 0); rc == 0 {
		t.Error("panicking progress callback must abort the transfer")
	}
}

func TestTimerThunk_PanicContained(t *testing.T) {
	id := bridgeRegister(timerFunc(func(timeoutMS int64) {
		panic("timer exploded")
	}))
	defer bridgeRelease(id)

	if rc := timerThunk(0x9000, 10, id); rc != 0 {
		t.Errorf("timer thunk must report success to native code, got %d", rc)
	}
}
