package format

import (
	"fmt"
	"strings"
)

type (
	CompressionType      uint8
	EncodingType         uint8
	MPACompressionMethod uint8
	Precision            uint8
	ReuseMethod          uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	EncodingRaw     EncodingType = 0x1 // EncodingRaw stores float64 values as 8 bytes each.
	EncodingGorilla EncodingType = 0x2 // EncodingGorilla XORs each value with its predecessor.

	NoCompression     MPACompressionMethod = 0x1 // NoCompression stores table entries at their true iteration.
	LittleCompression MPACompressionMethod = 0x2 // LittleCompression stores entries at their pulled index.
	Strongest         MPACompressionMethod = 0x3 // Strongest folds repeated period blocks onto the first one.

	PrecisionAuto  Precision = 0x0 // PrecisionAuto picks the tier from the zoom depth.
	PrecisionLight Precision = 0x1 // PrecisionLight uses float64 coefficients.
	PrecisionDeep  Precision = 0x2 // PrecisionDeep uses extended-range coefficients.

	ReuseDisabled         ReuseMethod = 0x1 // ReuseDisabled always recomputes the reference.
	ReuseCurrentReference ReuseMethod = 0x2 // ReuseCurrentReference keeps a matching reference and rebuilds only the table.
)

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (e EncodingType) String() string {
	switch e {
	case EncodingRaw:
		return "Raw"
	case EncodingGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

func (m MPACompressionMethod) String() string {
	switch m {
	case NoCompression:
		return "NoCompression"
	case LittleCompression:
		return "LittleCompression"
	case Strongest:
		return "Strongest"
	default:
		return "Unknown"
	}
}

func (p Precision) String() string {
	switch p {
	case PrecisionAuto:
		return "Auto"
	case PrecisionLight:
		return "Light"
	case PrecisionDeep:
		return "Deep"
	default:
		return "Unknown"
	}
}

func (r ReuseMethod) String() string {
	switch r {
	case ReuseDisabled:
		return "Disabled"
	case ReuseCurrentReference:
		return "CurrentReference"
	default:
		return "Unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (c CompressionType) MarshalText() ([]byte, error) { return marshalName(c) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CompressionType) UnmarshalText(text []byte) error {
	return unmarshalName(c, text, []CompressionType{CompressionNone, CompressionZstd, CompressionS2, CompressionLZ4})
}

// MarshalText implements encoding.TextMarshaler.
func (e EncodingType) MarshalText() ([]byte, error) { return marshalName(e) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EncodingType) UnmarshalText(text []byte) error {
	return unmarshalName(e, text, []EncodingType{EncodingRaw, EncodingGorilla})
}

// MarshalText implements encoding.TextMarshaler.
func (m MPACompressionMethod) MarshalText() ([]byte, error) { return marshalName(m) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *MPACompressionMethod) UnmarshalText(text []byte) error {
	return unmarshalName(m, text, []MPACompressionMethod{NoCompression, LittleCompression, Strongest})
}

// MarshalText implements encoding.TextMarshaler.
func (p Precision) MarshalText() ([]byte, error) { return marshalName(p) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Precision) UnmarshalText(text []byte) error {
	return unmarshalName(p, text, []Precision{PrecisionAuto, PrecisionLight, PrecisionDeep})
}

// MarshalText implements encoding.TextMarshaler.
func (r ReuseMethod) MarshalText() ([]byte, error) { return marshalName(r) }

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *ReuseMethod) UnmarshalText(text []byte) error {
	return unmarshalName(r, text, []ReuseMethod{ReuseDisabled, ReuseCurrentReference})
}

func marshalName[T fmt.Stringer](v T) ([]byte, error) {
	name := v.String()
	if name == "Unknown" {
		return nil, fmt.Errorf("cannot marshal unknown %T value", v)
	}

	return []byte(name), nil
}

// unmarshalName matches text case-insensitively against the names of candidates.
func unmarshalName[T fmt.Stringer](dst *T, text []byte, candidates []T) error {
	name := strings.TrimSpace(string(text))
	for _, c := range candidates {
		if strings.EqualFold(c.String(), name) {
			*dst = c
			return nil
		}
	}

	return fmt.Errorf("invalid %T: %q", *dst, name)
}
