package httpapi

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/cespare/xxhash/v2"
	hex "github.com/tmthrgd/go-hex"
	"github.com/vmihailenco/msgpack/v5"
)

// Media types understood by the API.
const (
	ContentTypeJSON    = "application/json"
	ContentTypeMsgpack = "application/msgpack"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// negotiate picks the response media type from the Accept header.
func negotiate(r *http.Request) string {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mt, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mt {
		case ContentTypeMsgpack, "application/x-msgpack":
			return ContentTypeMsgpack
		case ContentTypeJSON:
			return ContentTypeJSON
		}
	}
	return ContentTypeJSON
}

func encode(contentType string, v any) ([]byte, error) {
	if contentType == ContentTypeMsgpack {
		return msgpack.Marshal(v)
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode reads the request body using its Content-Type, JSON when unset.
func decode(r *http.Request, v any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)

	mt := ContentTypeJSON
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, _, err := mime.ParseMediaType(ct)
		if err != nil {
			return fmt.Errorf("%w: %v", errMalformedBody, err)
		}
		mt = parsed
	}

	switch mt {
	case ContentTypeMsgpack, "application/x-msgpack":
		if err := msgpack.NewDecoder(body).Decode(v); err != nil {
			return fmt.Errorf("%w: %v", errMalformedBody, err)
		}
	case ContentTypeJSON:
		if err := json.NewDecoder(body).Decode(v); err != nil {
			return fmt.Errorf("%w: %v", errMalformedBody, err)
		}
	default:
		return fmt.Errorf("%w: %s", errUnsupportedMediaType, mt)
	}
	return nil
}

// etag returns a strong validator derived from the encoded body.
func etag(body []byte) string {
	sum := binary.BigEndian.AppendUint64(nil, xxhash.Sum64(body))
	return `"` + hex.EncodeToString(sum) + `"`
}

// etagMatches implements the If-None-Match comparison for GET.
func etagMatches(header, tag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

// write encodes v with the negotiated media type.
func write(w http.ResponseWriter, r *http.Request, status int, v any) {
	ct := negotiate(r)
	body, err := encode(ct, v)
	if err != nil {
		loggerFrom(r).Error().Err(err).Msg("response encoding failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", ct)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeCacheable writes v with an ETag, answering 304 when the client
// already holds the same representation.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	ct := negotiate(r)
	body, err := encode(ct, v)
	if err != nil {
		loggerFrom(r).Error().Err(err).Msg("response encoding failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	tag := etag(body)
	w.Header().Set("ETag", tag)
	w.Header().Set("Vary", "Accept")

	if etagMatches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", ct)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
