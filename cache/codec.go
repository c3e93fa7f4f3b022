package cache

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/flate"
)

// encoded is the output of the value codec: a JSON payload, possibly
// wrapped in a URL-safe compressed form.
type encoded struct {
	data         json.RawMessage
	compressed   bool
	originalSize int
}

// encodeValue serializes a value and compresses it when the serialized form
// crosses the threshold. Compression failure is never fatal: the payload is
// stored uncompressed instead. Only serialization failure aborts.
func encodeValue(value any, threshold int) (encoded, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return encoded{}, err
	}

	if threshold <= 0 || len(raw) < threshold {
		return encoded{data: raw}, nil
	}

	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return encoded{data: raw}, nil
	}
	if _, err := w.Write(raw); err != nil {
		return encoded{data: raw}, nil
	}
	if err := w.Close(); err != nil {
		return encoded{data: raw}, nil
	}

	packed, err := json.Marshal(base64.RawURLEncoding.EncodeToString(buf.Bytes()))
	if err != nil {
		return encoded{data: raw}, nil
	}

	return encoded{
		data:         packed,
		compressed:   true,
		originalSize: len(raw),
	}, nil
}

// decodeEntry returns the original serialized payload of an entry. If the
// stored blob cannot be decoded, it is returned unchanged; callers must be
// tolerant of that.
func decodeEntry(entry *Entry) json.RawMessage {
	if !entry.Compressed {
		return entry.Data
	}

	var blob string
	if err := json.Unmarshal(entry.Data, &blob); err != nil {
		return entry.Data
	}

	packed, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return entry.Data
	}

	r := flate.NewReader(bytes.NewReader(packed))
	defer r.Close()

	raw, err := io.ReadAll(r)
	if err != nil {
		return entry.Data
	}
	return raw
}
