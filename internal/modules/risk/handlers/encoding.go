package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	contentTypeJSON    = "application/json"
	contentTypeMsgpack = "application/msgpack"

	maxBodyBytes = 10 << 20
)

// wantsMsgpack reports whether the client asked for msgpack.
func wantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err == nil && (mediaType == contentTypeMsgpack || mediaType == "application/x-msgpack") {
			return true
		}
	}
	return false
}

// decodeBody reads a JSON or msgpack request body into v, depending on Content-Type.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer body.Close()

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case contentTypeMsgpack, "application/x-msgpack":
		dec := msgpack.NewDecoder(body)
		dec.SetCustomStructTag("json")
		if err := dec.Decode(v); err != nil {
			return fmt.Errorf("invalid msgpack body: %w", err)
		}
	default:
		dec := json.NewDecoder(body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			if err == io.EOF {
				return fmt.Errorf("request body is empty")
			}
			return fmt.Errorf("invalid JSON body: %w", err)
		}
	}
	return nil
}

// encode writes v as msgpack or JSON.
func encode(w io.Writer, asMsgpack bool, v interface{}) error {
	if asMsgpack {
		enc := msgpack.NewEncoder(w)
		enc.SetCustomStructTag("json")
		return enc.Encode(v)
	}
	return json.NewEncoder(w).Encode(v)
}
