package server

import (
	"encoding/json"
	"net/http"

	"github.com/vmihailenco/msgpack/v5"
)

// Formatter encodes API responses as JSON or MessagePack. JSON is the
// default; MessagePack is selected with the format=msgpack query
// parameter.
type Formatter struct{}

// NewFormatter creates a new response formatter
func NewFormatter() *Formatter {
	return &Formatter{}
}

// WriteResponse writes data with a 200 status in the requested format.
func (f *Formatter) WriteResponse(w http.ResponseWriter, req *http.Request, data any) error {
	return f.WriteResponseStatus(w, req, http.StatusOK, data)
}

// WriteResponseStatus writes data with an explicit status code. The
// Content-Type header is set before the status is committed.
func (f *Formatter) WriteResponseStatus(w http.ResponseWriter, req *http.Request, status int, data any) error {
	if req.URL.Query().Get("format") == "msgpack" {
		w.Header().Set("Content-Type", "application/msgpack")
		w.WriteHeader(status)
		raw, err := msgpack.Marshal(data)
		if err != nil {
			return err
		}
		_, err = w.Write(raw)
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}
