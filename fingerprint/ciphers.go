package fingerprint

import "strings"

// cipherNames maps TLS cipher suite ids to the OpenSSL names the
// native engine accepts in its cipher list option. TLS 1.3 suites are
// excluded: the engine configures those separately and rejects them in
// the 1.2 list.
var cipherNames = map[uint16]string{
	0xc02b: "ECDHE-ECDSA-AES128-GCM-SHA256",
	0xc02f: "ECDHE-RSA-AES128-GCM-SHA256",
	0xc02c: "ECDHE-ECDSA-AES256-GCM-SHA384",
	0xc030: "ECDHE-RSA-AES256-GCM-SHA384",
	0xcca9: "ECDHE-ECDSA-CHACHA20-POLY1305",
	0xcca8: "ECDHE-RSA-CHACHA20-POLY1305",
	0xc013: "ECDHE-RSA-AES128-SHA",
	0xc014: "ECDHE-RSA-AES256-SHA",
	0xc009: "ECDHE-ECDSA-AES128-SHA",
	0xc00a: "ECDHE-ECDSA-AES256-SHA",
	0x009c: "AES128-GCM-SHA256",
	0x009d: "AES256-GCM-SHA384",
	0x002f: "AES128-SHA",
	0x0035: "AES256-SHA",
	0x000a: "DES-CBC3-SHA",
}

// CipherList renders the TLS 1.2 cipher suites as the colon-separated
// list the native engine expects. GREASE values and suites without an
// OpenSSL name are skipped.
func (s Spec) CipherList() string {
	names := make([]string, 0, len(s.CipherSuites))
	for _, suite := range s.CipherSuites {
		if name, ok := cipherNames[suite]; ok {
			names = append(names, name)
		}
	}
	return strings.Join(names, ":")
}
