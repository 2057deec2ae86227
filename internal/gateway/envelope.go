package gateway

import (
	"encoding/json"
	"net/http"
)

// Envelope is the uniform response contract returned to the browser.
// Every gateway response, success or failure, conforms to this shape.
type Envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// writeEnvelope serializes an envelope with its code mirrored as the HTTP status.
func writeEnvelope(w http.ResponseWriter, env Envelope) {
	body, err := json.Marshal(env)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	status := env.Code
	if status < 100 || status > 599 {
		status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body)
}

// ok writes a success envelope.
func ok(w http.ResponseWriter, message string, data any) {
	writeEnvelope(w, Envelope{Code: http.StatusOK, Message: message, Data: data})
}

// fail writes an error envelope with a null data payload.
func fail(w http.ResponseWriter, code int, message string) {
	writeEnvelope(w, Envelope{Code: code, Message: message, Data: nil})
}

// probe mirrors Envelope with pointer fields so conformance can be detected
// rather than defaulted.
type probe struct {
	Code    *int            `json:"code"`
	Message *string         `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NormalizeUpstream reshapes an upstream response body into an Envelope,
// deciding once at the gateway edge which of three shapes it is:
//
//  1. Already conformant ({code, message, data}): passed through unchanged.
//  2. Some other JSON value (legacy shape): wrapped, carrying the upstream
//     status as the code and any message/error/detail field as the message.
//  3. Not JSON at all: a generic 500; the raw body is never echoed to the
//     client.
func NormalizeUpstream(status int, body []byte) Envelope {
	var p probe
	if err := json.Unmarshal(body, &p); err == nil && p.Code != nil && p.Message != nil {
		var data any
		if len(p.Data) > 0 {
			json.Unmarshal(p.Data, &data)
		}
		return Envelope{Code: *p.Code, Message: *p.Message, Data: data}
	}

	var legacy any
	if err := json.Unmarshal(body, &legacy); err != nil {
		return Envelope{Code: http.StatusInternalServerError, Message: "upstream returned an invalid response", Data: nil}
	}

	message := legacyMessage(legacy)
	if message == "" {
		message = http.StatusText(status)
	}

	return Envelope{Code: status, Message: message, Data: legacy}
}

// legacyMessage pulls a human-readable message out of a non-conformant JSON
// object, trying the field names older backend revisions used.
func legacyMessage(value any) string {
	obj, isObject := value.(map[string]any)
	if !isObject {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		if s, isString := obj[key].(string); isString && s != "" {
			return s
		}
	}

	return ""
}
