// Package dedup computes content-addressed identities for datasets and
// forecast requests: file checksums, canonical parameter forms and the
// derived dedup key.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// DefaultWindow is the moving-average window used when the request
// does not supply one.
const DefaultWindow = 20

const fileChunkSize = 1 << 20 // 1 MiB

// FileChecksum streams the file through SHA-256 in fixed-size chunks
// and returns the bare hex digest. Identical byte content always
// yields the identical checksum regardless of path or chunking.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	buf := make([]byte, fileChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("checksum read %s: %w", path, err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChecksumBytes hashes an in-memory canonical series. The "sha256:"
// prefix distinguishes it from a raw-file checksum.
func ChecksumBytes(b []byte) string {
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// NormalizeParams reduces a parameter map to its canonical form for
// the given model type: only recognized fields survive, with types
// coerced and defaults applied. Two maps that differ only in key
// order, extra fields or numeric representation normalize to the same
// form and therefore the same dedup key.
func NormalizeParams(modelType string, params map[string]any) (map[string]any, error) {
	if params == nil {
		params = map[string]any{}
	}

	switch modelType {
	case "moving_average":
		window := DefaultWindow
		if raw, ok := params["window"]; ok {
			w, err := coerceInt(raw)
			if err != nil {
				return nil, fmt.Errorf("invalid params.window: %w", err)
			}
			if w < 1 {
				return nil, fmt.Errorf("invalid params.window: must be at least 1, got %d", w)
			}
			window = w
		}
		return map[string]any{"window": window}, nil
	}

	// Unknown model types pass through untouched; JSON key sorting in
	// canonicalJSON still keeps the serialization deterministic.
	return params, nil
}

// DedupKey derives the stable content-addressed key for a forecast
// request: dd_ + hex sha256 of checksum|modelType|canonicalParams|horizon.
func DedupKey(dataChecksum, modelType string, normalizedParams map[string]any, horizon int) (string, error) {
	canonical, err := canonicalJSON(normalizedParams)
	if err != nil {
		return "", err
	}
	raw := fmt.Sprintf("%s|%s|%s|%d", dataChecksum, modelType, canonical, horizon)
	sum := sha256.Sum256([]byte(raw))
	return "dd_" + hex.EncodeToString(sum[:]), nil
}

// canonicalJSON serializes with stable key ordering and no incidental
// whitespace. encoding/json sorts map keys, which is exactly the
// determinism needed here.
func canonicalJSON(m map[string]any) (string, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("canonicalize params: %w", err)
	}
	return string(b), nil
}

func coerceInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, err
		}
		return int(i), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(n, "%d", &i); err != nil {
			return 0, fmt.Errorf("not an integer: %q", n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("not an integer: %v", v)
	}
}
