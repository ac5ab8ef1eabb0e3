package fingerprint

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidAkamai is returned when an Akamai HTTP/2 fingerprint
// string cannot be decoded.
var ErrInvalidAkamai = errors.New("invalid Akamai fingerprint")

// HTTP2Setting is one SETTINGS frame entry.
type HTTP2Setting struct {
	ID    uint16
	Value uint32
}

// HTTP2Priority is one PRIORITY frame entry:
// streamID:exclusive:dependsOn:weight.
type HTTP2Priority struct {
	StreamID  uint32
	Exclusive bool
	DependsOn uint32
	Weight    uint8
}

// HTTP2Fingerprint is a decoded Akamai HTTP/2 fingerprint:
// "settings|windowUpdate|priorities|pseudoHeaderOrder".
type HTTP2Fingerprint struct {
	Settings          []HTTP2Setting
	WindowUpdate      uint32
	Priorities        []HTTP2Priority
	PseudoHeaderOrder []string
}

// pseudoHeaders maps the fingerprint's single-letter codes to the
// HTTP/2 pseudo-header names.
var pseudoHeaders = map[string]string{
	"m": ":method",
	"a": ":authority",
	"s": ":scheme",
	"p": ":path",
}

// ParseAkamai decodes an Akamai HTTP/2 fingerprint string such as
// "1:65536;4:6291456|15663105|0|m,a,s,p". A priorities field of "0"
// means no PRIORITY frames are sent.
func ParseAkamai(fp string) (HTTP2Fingerprint, error) {
	parts := strings.Split(fp, "|")
	if len(parts) != 4 {
		return HTTP2Fingerprint{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrInvalidAkamai, len(parts))
	}

	var out HTTP2Fingerprint

	if parts[0] != "" && parts[0] != "0" {
		for _, entry := range strings.Split(parts[0], ";") {
			id, value, ok := strings.Cut(entry, ":")
			if !ok {
				return HTTP2Fingerprint{}, fmt.Errorf("%w: bad setting %q", ErrInvalidAkamai, entry)
			}
			idN, err := strconv.ParseUint(id, 10, 16)
			if err != nil {
				return HTTP2Fingerprint{}, fmt.Errorf("%w: bad setting id %q", ErrInvalidAkamai, id)
			}
			valueN, err := strconv.ParseUint(value, 10, 32)
			if err != nil {
				return HTTP2Fingerprint{}, fmt.Errorf("%w: bad setting value %q", ErrInvalidAkamai, value)
			}
			out.Settings = append(out.Settings, HTTP2Setting{ID: uint16(idN), Value: uint32(valueN)})
		}
	}

	window, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return HTTP2Fingerprint{}, fmt.Errorf("%w: bad window update %q", ErrInvalidAkamai, parts[1])
	}
	out.WindowUpdate = uint32(window)

	if parts[2] != "" && parts[2] != "0" {
		for _, entry := range strings.Split(parts[2], ",") {
			prio, err := parsePriority(entry)
			if err != nil {
				return HTTP2Fingerprint{}, err
			}
			out.Priorities = append(out.Priorities, prio)
		}
	}

	for _, code := range strings.Split(parts[3], ",") {
		name, ok := pseudoHeaders[code]
		if !ok {
			return HTTP2Fingerprint{}, fmt.Errorf("%w: unknown pseudo-header code %q", ErrInvalidAkamai, code)
		}
		out.PseudoHeaderOrder = append(out.PseudoHeaderOrder, name)
	}
	if len(out.PseudoHeaderOrder) != 4 {
		return HTTP2Fingerprint{}, fmt.Errorf("%w: expected 4 pseudo-headers, got %d", ErrInvalidAkamai, len(out.PseudoHeaderOrder))
	}

	return out, nil
}

func parsePriority(entry string) (HTTP2Priority, error) {
	fields := strings.Split(entry, ":")
	if len(fields) != 4 {
		return HTTP2Priority{}, fmt.Errorf("%w: bad priority %q", ErrInvalidAkamai, entry)
	}

	nums := make([]uint64, 4)
	for i, f := range fields {
		n, err := strconv.ParseUint(f, 10, 32)
		if err != nil {
			return HTTP2Priority{}, fmt.Errorf("%w: bad priority field %q", ErrInvalidAkamai, f)
		}
		nums[i] = n
	}
	if nums[3] > 255 {
		return HTTP2Priority{}, fmt.Errorf("%w: priority weight %d out of range", ErrInvalidAkamai, nums[3])
	}

	return HTTP2Priority{
		StreamID:  uint32(nums[0]),
		Exclusive: nums[1] == 1,
		DependsOn: uint32(nums[2]),
		Weight:    uint8(nums[3]),
	}, nil
}
