// Package fingerprint translates browser TLS/HTTP fingerprint
// descriptions into concrete protocol parameters.
//
// A [Profile] bundles everything needed to mimic one browser: the native
// engine impersonation target, the JA3 TLS fingerprint, the Akamai
// HTTP/2 fingerprint, and the User-Agent string. [ParseJA3] and
// [ParseAkamai] decode the raw fingerprint strings into structured
// specs; [Spec.ClientHelloSpec] builds the uTLS ClientHello used by
// transports that dial their own TLS connections.
//
// This package is pure data transformation: no I/O, no lifecycle.
package fingerprint
