package fingerprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	utls "github.com/refraction-networking/utls"
)

// ErrInvalidJA3 is returned when a JA3 string cannot be decoded.
var ErrInvalidJA3 = errors.New("invalid JA3 fingerprint")

// Spec is a decoded JA3 TLS fingerprint:
// "version,ciphers,extensions,curves,pointFormats".
type Spec struct {
	TLSVersion   uint16
	CipherSuites []uint16
	Extensions   []uint16
	Curves       []uint16
	PointFormats []uint8
}

// IsJA3 reports whether s looks like a JA3 string rather than a
// profile name. The first comma-separated field must be a TLS version
// number such as 771.
func IsJA3(s string) bool {
	parts := strings.Split(s, ",")
	if len(parts) < 3 {
		return false
	}
	_, err := strconv.ParseUint(parts[0], 10, 16)
	return err == nil
}

// ParseJA3 decodes a JA3 string. The curve and point-format fields are
// optional; ciphers and extensions are not.
func ParseJA3(ja3 string) (Spec, error) {
	parts := strings.Split(ja3, ",")
	if len(parts) < 3 {
		return Spec{}, fmt.Errorf("%w: expected at least 3 fields, got %d", ErrInvalidJA3, len(parts))
	}

	version, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: bad TLS version %q", ErrInvalidJA3, parts[0])
	}

	ciphers, err := parseUint16List(parts[1])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: ciphers: %v", ErrInvalidJA3, err)
	}
	if len(ciphers) == 0 {
		return Spec{}, fmt.Errorf("%w: empty cipher list", ErrInvalidJA3)
	}

	extensions, err := parseUint16List(parts[2])
	if err != nil {
		return Spec{}, fmt.Errorf("%w: extensions: %v", ErrInvalidJA3, err)
	}

	spec := Spec{
		TLSVersion:   uint16(version),
		CipherSuites: ciphers,
		Extensions:   extensions,
	}

	if len(parts) > 3 && parts[3] != "" {
		curves, err := parseUint16List(parts[3])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: curves: %v", ErrInvalidJA3, err)
		}
		spec.Curves = curves
	}

	if len(parts) > 4 && parts[4] != "" {
		formats, err := parseUint16List(parts[4])
		if err != nil {
			return Spec{}, fmt.Errorf("%w: point formats: %v", ErrInvalidJA3, err)
		}
		for _, f := range formats {
			spec.PointFormats = append(spec.PointFormats, uint8(f))
		}
	}

	return spec, nil
}

// String re-encodes the spec in JA3 form.
func (s Spec) String() string {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(s.TLSVersion), 10))
	b.WriteByte(',')
	b.WriteString(joinUint16(s.CipherSuites))
	b.WriteByte(',')
	b.WriteString(joinUint16(s.Extensions))
	b.WriteByte(',')
	b.WriteString(joinUint16(s.Curves))
	b.WriteByte(',')

	formats := make([]uint16, len(s.PointFormats))
	for i, f := range s.PointFormats {
		formats[i] = uint16(f)
	}
	b.WriteString(joinUint16(formats))
	return b.String()
}

// ClientHelloSpec builds the uTLS ClientHello matching the fingerprint.
// Unrecognized extension ids become generic empty extensions so the
// wire order is preserved.
func (s Spec) ClientHelloSpec() (*utls.ClientHelloSpec, error) {
	versMax := s.TLSVersion
	if versMax < utls.VersionTLS12 {
		versMax = utls.VersionTLS12
	}

	spec := &utls.ClientHelloSpec{
		TLSVersMin:         utls.VersionTLS10,
		TLSVersMax:         versMax,
		CipherSuites:       append([]uint16(nil), s.CipherSuites...),
		CompressionMethods: []uint8{0},
		Extensions:         s.buildExtensions(),
	}
	return spec, nil
}

func (s Spec) buildExtensions() []utls.TLSExtension {
	curves := make([]utls.CurveID, 0, len(s.Curves))
	for _, c := range s.Curves {
		curves = append(curves, utls.CurveID(c))
	}
	if len(curves) == 0 {
		curves = []utls.CurveID{utls.X25519, utls.CurveP256, utls.CurveP384}
	}

	points := s.PointFormats
	if len(points) == 0 {
		points = []uint8{0}
	}

	exts := make([]utls.TLSExtension, 0, len(s.Extensions))
	for _, id := range s.Extensions {
		switch id {
		case 0:
			exts = append(exts, &utls.SNIExtension{})
		case 5:
			exts = append(exts, &utls.StatusRequestExtension{})
		case 10:
			exts = append(exts, &utls.SupportedCurvesExtension{Curves: curves})
		case 11:
			exts = append(exts, &utls.SupportedPointsExtension{SupportedPoints: points})
		case 13:
			exts = append(exts, &utls.SignatureAlgorithmsExtension{
				SupportedSignatureAlgorithms: []utls.SignatureScheme{
					utls.ECDSAWithP256AndSHA256,
					utls.PSSWithSHA256,
					utls.PKCS1WithSHA256,
					utls.ECDSAWithP384AndSHA384,
					utls.PSSWithSHA384,
					utls.PKCS1WithSHA384,
					utls.PSSWithSHA512,
					utls.PKCS1WithSHA512,
				},
			})
		case 16:
			exts = append(exts, &utls.ALPNExtension{
				AlpnProtocols: []string{"h2", "http/1.1"},
			})
		case 18:
			exts = append(exts, &utls.SCTExtension{})
		case 21:
			exts = append(exts, &utls.UtlsPaddingExtension{GetPaddingLen: utls.BoringPaddingStyle})
		case 23:
			exts = append(exts, &utls.ExtendedMasterSecretExtension{})
		case 27:
			exts = append(exts, &utls.UtlsCompressCertExtension{
				Algorithms: []utls.CertCompressionAlgo{utls.CertCompressionBrotli},
			})
		case 28:
			exts = append(exts, &utls.FakeRecordSizeLimitExtension{Limit: 0x4001})
		case 35:
			exts = append(exts, &utls.SessionTicketExtension{})
		case 43:
			exts = append(exts, &utls.SupportedVersionsExtension{
				Versions: []uint16{utls.VersionTLS13, utls.VersionTLS12},
			})
		case 45:
			exts = append(exts, &utls.PSKKeyExchangeModesExtension{
				Modes: []uint8{utls.PskModeDHE},
			})
		case 51:
			exts = append(exts, &utls.KeyShareExtension{
				KeyShares: []utls.KeyShare{{Group: utls.X25519}},
			})
		case 17513:
			exts = append(exts, &utls.ApplicationSettingsExtension{
				SupportedProtocols: []string{"h2"},
			})
		case 65281:
			exts = append(exts, &utls.RenegotiationInfoExtension{
				Renegotiation: utls.RenegotiateOnceAsClient,
			})
		default:
			exts = append(exts, &utls.GenericExtension{Id: id})
		}
	}
	return exts
}

func parseUint16List(s string) ([]uint16, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "-")
	out := make([]uint16, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("bad value %q", p)
		}
		out = append(out, uint16(n))
	}
	return out, nil
}

func joinUint16(vals []uint16) string {
	if len(vals) == 0 {
		return ""
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatUint(uint64(v), 10)
	}
	return strings.Join(parts, "-")
}
