package contextio

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

const contentTypeJSON = "application/json"

// Response holds the outcome of one API call.
type Response struct {
	StatusCode int

	// RequestHeaders are the signed request's headers. Only recorded when
	// header saving is enabled on the client.
	RequestHeaders http.Header

	ResponseHeaders http.Header

	// ContentType is the raw Content-Type response header.
	ContentType string

	// Body is the undecoded response body.
	Body []byte

	// HasError is set when StatusCode is not 200 or the content type is not
	// application/json.
	HasError bool
}

func newResponse(code int, requestHeaders, responseHeaders http.Header, body []byte) *Response {
	r := &Response{
		StatusCode:      code,
		RequestHeaders:  requestHeaders,
		ResponseHeaders: responseHeaders,
		ContentType:     responseHeaders.Get("Content-Type"),
		Body:            body,
	}
	r.decodeResponse()
	return r
}

// decodeResponse sets the error flag. API error payloads are not inspected;
// see Messages.
func (r *Response) decodeResponse() {
	r.HasError = r.StatusCode != http.StatusOK || !isJSON(r.ContentType)
}

// isJSON reports whether contentType names application/json, ignoring
// parameters such as charset.
func isJSON(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == contentTypeJSON
}

// Raw returns the body as a string.
func (r *Response) Raw() string {
	return string(r.Body)
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v interface{}) error {
	if r.HasError {
		return fmt.Errorf("status %d, content type %q: %w", r.StatusCode, r.ContentType, ErrResponseError)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Messages returns the entries of the "messages" array the API uses to report
// problems with a request. String entries are returned as is; object entries
// contribute their "value" field, or their JSON text when they have none.
// Non-JSON and array bodies yield no messages.
func (r *Response) Messages() ([]string, error) {
	if !isJSON(r.ContentType) {
		return nil, nil
	}

	var payload struct {
		Messages []json.RawMessage `json:"messages"`
	}
	if err := json.Unmarshal(r.Body, &payload); err != nil {
		if strings.HasPrefix(strings.TrimSpace(string(r.Body)), "[") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode messages: %w", err)
	}

	messages := make([]string, 0, len(payload.Messages))
	for _, raw := range payload.Messages {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			messages = append(messages, s)
			continue
		}

		var obj struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &obj); err == nil && obj.Value != "" {
			messages = append(messages, obj.Value)
			continue
		}

		messages = append(messages, string(raw))
	}

	return messages, nil
}

func (r *Response) String() string {
	return fmt.Sprintf("Response{code=%d, contentType=%q, hasError=%t, requestHeaders=%v, responseHeaders=%v, body=%q}",
		r.StatusCode, r.ContentType, r.HasError, r.RequestHeaders, r.ResponseHeaders, r.Body)
}
