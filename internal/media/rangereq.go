package media

import (
	"errors"
	"strings"

	"github.com/valyala/fasthttp"
)

var ErrUnsatisfiable = errors.New("range not satisfiable")

// ByteRange is an inclusive slice of a payload.
type ByteRange struct {
	Start int
	End   int
}

func (r ByteRange) Length() int {
	return r.End - r.Start + 1
}

// ParseRange interprets a single "bytes=" range against size. It returns nil
// when the header should be ignored (absent, other units, multiple ranges).
func ParseRange(header string, size int) (*ByteRange, error) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(header, "bytes=") || strings.Contains(header, ",") {
		return nil, nil
	}
	if size <= 0 {
		return nil, ErrUnsatisfiable
	}

	start, end, err := fasthttp.ParseByteRange([]byte(header), size)
	if err != nil || start < 0 || end < start || end >= size {
		return nil, ErrUnsatisfiable
	}
	return &ByteRange{Start: start, End: end}, nil
}
