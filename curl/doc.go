// Package curl binds libcurl-impersonate (or stock libcurl) at runtime
// and exposes the two primitives the rest of the module is built on: the
// [Easy] transfer handle and the [Multi] asynchronous transfer coordinator.
//
// The library is loaded lazily via dlopen on first use, or explicitly:
//
//	if err := curl.Load("/usr/lib/libcurl-impersonate-chrome.so"); err != nil {
//		log.Fatal(err)
//	}
//	fmt.Println(curl.Version())
//
// # Single Transfers
//
// An [Easy] wraps one native transfer session. Options are set with a
// single variant-dispatching setter, and the response is captured into
// handle-owned buffers:
//
//	e, err := curl.NewEasy()
//	defer e.Close()
//	e.SetOpt(curl.OptURL, "https://example.com")
//	e.CaptureResponse()
//	if code := e.Perform(); code != curl.CodeOK {
//		log.Fatal(curl.Strerror(code))
//	}
//	body := e.ResponseBody()
//
// # Concurrent Transfers
//
// A [Multi] owns one native multi engine and drives any number of easy
// handles to completion without blocking the caller. [Multi.AddHandle]
// returns a [Completion] future that resolves exactly once:
//
//	m, err := curl.NewMulti()
//	defer m.Close()
//	comp, err := m.AddHandle(e)
//	easy, err := comp.Wait(ctx)
//
// The engine is driven by timer-scheduled perform steps, capped at the
// fallback tick while transfers are in flight; completion is determined
// solely by draining the native message queue, never inferred from
// running-count deltas.
package curl
