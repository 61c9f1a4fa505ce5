package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
)

const maxHeadSize = 64 * 1024

type HeaderLine struct {
	Name  string
	Value string
}

// RequestHead is the request line and ordered header list of one
// HTTP request, as received. When captured off the wire, raw holds
// the exact bytes so the backend gets a byte-for-byte replay.
type RequestHead struct {
	Method  string
	Path    string
	Proto   string
	Headers []HeaderLine

	raw []byte
}

// ReadRequestHead consumes one request head (request line, headers,
// terminating blank line) from br. Whatever follows the blank line
// stays in br untouched.
func ReadRequestHead(br *bufio.Reader) (*RequestHead, error) {
	var raw bytes.Buffer
	var h RequestHead

	line, err := readHeadLine(br, &raw)
	if err != nil {
		return nil, err
	}

	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return nil, fmt.Errorf("malformed request line: %q", line)
	}

	h.Method, h.Path, h.Proto = parts[0], parts[1], parts[2]

	for {
		line, err := readHeadLine(br, &raw)
		if err != nil {
			return nil, err
		}

		if len(line) < 1 {
			break
		}

		name, value, ok := strings.Cut(line, ":")
		if !ok {
			// not a header, keep it only in the raw replay
			continue
		}

		h.Headers = append(h.Headers, HeaderLine{
			Name:  name,
			Value: strings.TrimLeft(value, " \t"),
		})
	}

	h.raw = raw.Bytes()
	return &h, nil
}

// readHeadLine appends one line to raw and returns it without the
// trailing CRLF. The head cap is enforced here, per buffered chunk,
// so a single endless line cannot grow memory past the cap.
func readHeadLine(br *bufio.Reader, raw *bytes.Buffer) (string, error) {
	start := raw.Len()

	for {
		chunk, err := br.ReadSlice('\n')
		raw.Write(chunk)

		if raw.Len() > maxHeadSize {
			return "", fmt.Errorf("request head exceeds %d bytes", maxHeadSize)
		}

		if err == nil {
			break
		}

		if err != bufio.ErrBufferFull {
			return "", err
		}
	}

	line := string(raw.Bytes()[start:])
	return strings.TrimRight(line, "\r\n"), nil
}

// HeadFromRequest rebuilds a head from an already-parsed request.
// net/http does not keep the original header order or casing, so
// this is only used when the socket was taken over after parsing;
// headers come out in sorted-key order, values in received order.
func HeadFromRequest(r *http.Request) *RequestHead {
	h := &RequestHead{
		Method:  r.Method,
		Path:    r.RequestURI,
		Proto:   r.Proto,
		Headers: []HeaderLine{{Name: "Host", Value: r.Host}},
	}

	names := make([]string, 0, len(r.Header))
	for name := range r.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range r.Header[name] {
			h.Headers = append(h.Headers, HeaderLine{Name: name, Value: value})
		}
	}

	return h
}

// Get returns the value of the first header matching name,
// case-insensitively. Empty string when absent.
func (h *RequestHead) Get(name string) string {
	for _, hl := range h.Headers {
		if strings.EqualFold(hl.Name, name) {
			return hl.Value
		}
	}

	return ""
}

// Bytes returns the head as it goes onto the wire: the captured
// bytes when available, otherwise CRLF-serialized from the parts.
func (h *RequestHead) Bytes() []byte {
	if len(h.raw) > 0 {
		return h.raw
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s %s\r\n", h.Method, h.Path, h.Proto)

	for _, hl := range h.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", hl.Name, hl.Value)
	}

	b.WriteString("\r\n")
	return b.Bytes()
}

func (h *RequestHead) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(h.Bytes())
	return int64(n), err
}
