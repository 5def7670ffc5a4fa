package httpclient

import (
	"net/http"
	"net/url"
	"time"
)

// Method is an HTTP method supported by the transports. The surface is
// deliberately narrowed to GET and POST; every collaborator tool in the
// suite speaks one of the two.
type Method string

const (
	MethodGet  Method = http.MethodGet
	MethodPost Method = http.MethodPost
)

// RequestSpec is an immutable description of one logical HTTP call. Specs
// are constructed through RequestBuilder and never mutated afterwards, so a
// single spec is safe to share across retries and concurrent calls.
type RequestSpec struct {
	method   Method
	target   string
	headers  map[string]string
	query    url.Values
	jsonBody interface{}
	formBody url.Values
	stream   bool
	timeout  time.Duration
}

// Method returns the HTTP method.
func (s RequestSpec) Method() Method { return s.method }

// Target returns the URL or path the spec addresses. Relative targets are
// resolved against the session's base URL at execution time.
func (s RequestSpec) Target() string { return s.target }

// Stream reports whether the response body should be returned as a lazy
// stream instead of being buffered eagerly.
func (s RequestSpec) Stream() bool { return s.stream }

// Timeout returns the per-request timeout override, or zero if the session
// default applies.
func (s RequestSpec) Timeout() time.Duration { return s.timeout }

// Header returns the value of a request-level header, if set.
func (s RequestSpec) Header(key string) string { return s.headers[key] }

// RequestBuilder builds RequestSpec values with a fluent interface.
type RequestBuilder struct {
	spec RequestSpec
}

// NewRequest creates a builder for the given method and target.
func NewRequest(method Method, target string) *RequestBuilder {
	return &RequestBuilder{
		spec: RequestSpec{
			method: method,
			target: target,
		},
	}
}

// Get creates a builder for a GET request.
func Get(target string) *RequestBuilder {
	return NewRequest(MethodGet, target)
}

// Post creates a builder for a POST request.
func Post(target string) *RequestBuilder {
	return NewRequest(MethodPost, target)
}

// WithHeader sets a request-level header. Request headers override session
// default headers on conflict.
func (b *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	if b.spec.headers == nil {
		b.spec.headers = make(map[string]string)
	}
	b.spec.headers[key] = value
	return b
}

// WithHeaders sets multiple request-level headers.
func (b *RequestBuilder) WithHeaders(headers map[string]string) *RequestBuilder {
	for k, v := range headers {
		b.WithHeader(k, v)
	}
	return b
}

// WithQueryParam adds a query parameter.
func (b *RequestBuilder) WithQueryParam(key, value string) *RequestBuilder {
	if b.spec.query == nil {
		b.spec.query = make(url.Values)
	}
	b.spec.query.Add(key, value)
	return b
}

// WithJSONBody sets a JSON request body. The value is marshalled fresh for
// every attempt, so it must not be mutated while a call is in flight.
func (b *RequestBuilder) WithJSONBody(body interface{}) *RequestBuilder {
	b.spec.jsonBody = body
	return b
}

// WithFormBody sets a form-encoded request body.
func (b *RequestBuilder) WithFormBody(form url.Values) *RequestBuilder {
	b.spec.formBody = form
	return b
}

// WithStream marks the response body for lazy streaming consumption.
func (b *RequestBuilder) WithStream(stream bool) *RequestBuilder {
	b.spec.stream = stream
	return b
}

// WithTimeout overrides the session default timeout for this request.
func (b *RequestBuilder) WithTimeout(timeout time.Duration) *RequestBuilder {
	b.spec.timeout = timeout
	return b
}

// Build validates and returns the immutable spec.
func (b *RequestBuilder) Build() (RequestSpec, error) {
	spec := b.spec

	switch spec.method {
	case MethodGet, MethodPost:
	default:
		return RequestSpec{}, NewConfigError("method", string(spec.method), "unsupported HTTP method, only GET and POST are supported")
	}

	if spec.target == "" {
		return RequestSpec{}, NewConfigError("target", spec.target, "request target must not be empty")
	}

	if spec.jsonBody != nil && spec.formBody != nil {
		return RequestSpec{}, NewConfigError("body", nil, "JSON body and form body are mutually exclusive")
	}

	if spec.timeout < 0 {
		return RequestSpec{}, NewConfigError("timeout", spec.timeout, "timeout must not be negative")
	}

	// Built specs must not alias builder state.
	if len(spec.headers) > 0 {
		headers := make(map[string]string, len(spec.headers))
		for k, v := range spec.headers {
			headers[k] = v
		}
		spec.headers = headers
	}
	if len(spec.query) > 0 {
		query := make(url.Values, len(spec.query))
		for k, vs := range spec.query {
			query[k] = append([]string(nil), vs...)
		}
		spec.query = query
	}

	return spec, nil
}
