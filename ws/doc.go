// Package ws dials WebSocket connections with a browser TLS
// fingerprint.
//
// Unlike regular HTTP transfers, WebSocket upgrades cannot go through
// the native engine, so this package performs its own dial: TCP
// (optionally through an HTTP CONNECT or SOCKS5 proxy), a uTLS
// handshake shaped by a fingerprint profile or raw JA3 string, then
// the upgrade via gorilla/websocket.
//
// # Usage
//
//	conn, err := ws.Dial(ctx, "wss://example.com/feed",
//		ws.WithProfile("chrome-120"),
//		ws.WithProxy("socks5://127.0.0.1:1080"),
//	)
//	if err != nil {
//		return err
//	}
//	defer conn.Close()
//
//	for {
//		_, msg, err := conn.ReadMessage()
//		...
//	}
//
// A ping loop keeps the connection alive; disable it with
// WithPingInterval(0).
package ws
