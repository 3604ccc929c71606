package retrieval

import (
	"strconv"
	"strings"

	"github.com/feral-file/ff-media-library/internal/storage"
)

// ParseRange parses a single "bytes=start-end" range against an object of size bytes.
// end defaults to size-1. Multiple ranges, suffix ranges and out-of-bounds ranges are rejected.
func ParseRange(header string, size int64) (*storage.ByteRange, bool) {
	header = strings.TrimSpace(header)
	if header == "" || size <= 0 {
		return nil, false
	}

	span, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(span, ",") {
		return nil, false
	}

	startStr, endStr, ok := strings.Cut(span, "-")
	if !ok {
		return nil, false
	}
	startStr, endStr = strings.TrimSpace(startStr), strings.TrimSpace(endStr)
	if startStr == "" {
		return nil, false
	}

	start, err := strconv.ParseInt(startStr, 10, 64)
	if err != nil || start < 0 {
		return nil, false
	}

	end := size - 1
	if endStr != "" {
		end, err = strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return nil, false
		}
	}

	if start >= size || end >= size || start > end {
		return nil, false
	}
	return &storage.ByteRange{Start: start, End: end}, true
}
