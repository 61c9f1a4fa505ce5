package main

import (
	"fmt"
	"io"
)

// Relay-classified connections are never under net/http, so error
// responses go onto the wire by hand.

func writeRawResponse(w io.Writer, status string, body string) {
	fmt.Fprintf(w, "HTTP/1.1 %s\r\nContent-Type: text/plain\r\nContent-Length: %d\r\nConnection: close\r\n\r\n%s", status, len(body), body)
}

func BadGateway(w io.Writer) {
	writeRawResponse(w, "502 Bad Gateway", "The backend is not reachable right now. Try again later.")
}

func TooManyRequests(w io.Writer) {
	writeRawResponse(w, "429 Too Many Requests", "Too many open connections from this IP. Close an existing open socket and try again.")
}
