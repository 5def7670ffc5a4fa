package httpclient

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

const snippetLimit = 256

// ResponseEnvelope is the uniform result of a completed request. HTTP error
// statuses are not errors from the transport's point of view; callers
// inspect StatusCode and decide for themselves.
type ResponseEnvelope struct {
	StatusCode int
	Headers    map[string]string
	Body       []byte // nil when the request was streamed

	// Attempts records how many tries the terminal outcome took.
	Attempts int

	stream *BodyStream
}

// JSONFallback is returned by DecodedJSON when the body is not valid JSON,
// so callers always have something to inspect instead of an error.
type JSONFallback struct {
	Error      bool   `json:"error"`
	Message    string `json:"message"`
	RawSnippet string `json:"raw_snippet"`
}

// Streaming reports whether this envelope wraps a lazy body stream.
func (e *ResponseEnvelope) Streaming() bool {
	return e.stream != nil
}

// Stream returns the lazy body stream for streaming envelopes, or nil. The
// caller must fully consume or Close the stream to release the underlying
// connection.
func (e *ResponseEnvelope) Stream() *BodyStream {
	return e.stream
}

// DecodedJSON lazily decodes the buffered body as JSON. It never fails:
// malformed payloads yield a JSONFallback carrying the parser error and the
// first bytes of the body as text. Gzip-compressed bodies are decompressed
// transparently before decoding.
func (e *ResponseEnvelope) DecodedJSON() interface{} {
	body, err := e.decompressed()
	if err != nil {
		return &JSONFallback{
			Error:      true,
			Message:    "failed to decompress response body: " + err.Error(),
			RawSnippet: decodeSnippet(e.Body),
		}
	}

	var decoded interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return &JSONFallback{
			Error:      true,
			Message:    "failed to parse response as JSON: " + err.Error(),
			RawSnippet: decodeSnippet(body),
		}
	}
	return decoded
}

// Text returns the buffered body as text, decompressing gzip content and
// falling back from UTF-8 to Latin-1 to lossy UTF-8 decoding.
func (e *ResponseEnvelope) Text() string {
	body, err := e.decompressed()
	if err != nil {
		body = e.Body
	}
	return decodeText(body)
}

func (e *ResponseEnvelope) decompressed() ([]byte, error) {
	if !strings.EqualFold(e.Headers["Content-Encoding"], "gzip") || len(e.Body) == 0 {
		return e.Body, nil
	}
	reader, err := gzip.NewReader(bytes.NewReader(e.Body))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func decodeSnippet(body []byte) string {
	if len(body) > snippetLimit {
		// Never cut a multi-byte rune in half at the limit.
		cut := snippetLimit
		for cut > snippetLimit-utf8.UTFMax && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut]
	}
	return decodeText(body)
}

func decodeText(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}
	if decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(body); err == nil {
		return string(decoded)
	}
	return strings.ToValidUTF8(string(body), "�")
}

// BodyStream is a finite, single-consumption byte stream over a streaming
// response body. Reading past the end or closing the stream releases the
// underlying connection; any further read fails with ErrStreamConsumed.
type BodyStream struct {
	mu       sync.Mutex
	reader   *bufio.Reader
	body     io.ReadCloser
	release  func()
	consumed bool
}

func newBodyStream(body io.ReadCloser, gzipped bool, release func()) (*BodyStream, error) {
	var reader io.Reader = body
	if gzipped {
		gz, err := gzip.NewReader(body)
		if err != nil {
			release()
			_ = body.Close()
			return nil, err
		}
		reader = gz
	}
	return &BodyStream{
		reader:  bufio.NewReader(reader),
		body:    body,
		release: release,
	}, nil
}

// Read implements io.Reader. Once the stream has been exhausted or closed,
// Read returns ErrStreamConsumed.
func (s *BodyStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return 0, ErrStreamConsumed
	}

	n, err := s.reader.Read(p)
	if err == io.EOF {
		s.finish()
	}
	return n, err
}

// NextEvent reads the next server-sent event from the stream and returns
// its decoded JSON payload. Lines that do not carry a "data:" prefix are
// skipped. The "[DONE]" sentinel and the end of the stream both return
// io.EOF; a further call returns ErrStreamConsumed.
func (s *BodyStream) NextEvent() (json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return nil, ErrStreamConsumed
	}

	for {
		line, err := s.reader.ReadString('\n')
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "data:") {
			payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if payload == "[DONE]" {
				s.finish()
				return nil, io.EOF
			}
			if payload != "" && json.Valid([]byte(payload)) {
				return json.RawMessage(payload), nil
			}
		}

		if err != nil {
			s.finish()
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}
	}
}

// Close releases the stream's connection without consuming the remainder.
// Idempotent.
func (s *BodyStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.consumed {
		return nil
	}
	s.finish()
	return nil
}

// finish marks the stream consumed and returns the connection to the pool.
// Callers must hold s.mu.
func (s *BodyStream) finish() {
	s.consumed = true
	if s.release != nil {
		s.release()
		s.release = nil
	}
	_ = s.body.Close()
}
