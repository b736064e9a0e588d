package media

import (
	"errors"
	"fmt"
	"io"
)

const (
	// ExternalSizeLimit is the max declared size accepted for media the
	// search API is asked to fetch itself. Matches the trace.moe limit.
	ExternalSizeLimit int64 = 25_000_000
)

// ReadAllWithLimit reads r fully and rejects payloads larger than maxBytes.
func ReadAllWithLimit(r io.Reader, maxBytes int64) ([]byte, error) {
	if r == nil {
		return nil, errors.New("reader is required")
	}
	if maxBytes <= 0 {
		return nil, errors.New("max bytes must be greater than 0")
	}
	// Read one byte past the cap so an oversized payload is detectable
	// without buffering it whole.
	data, err := io.ReadAll(io.LimitReader(r, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrAssetTooLarge, maxBytes)
	}
	return data, nil
}
