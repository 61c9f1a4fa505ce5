package main

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"wsgate/relay"
)

const BackendDialTimeout = 5 * time.Second

var dialBackend = func(addr string) (net.Conn, error) {
	return net.DialTimeout("tcp", addr, BackendDialTimeout)
}

// readConn routes reads through a reader that already consumed part
// of the stream, while writes, closes and deadlines go straight to
// the socket.
type readConn struct {
	net.Conn
	r io.Reader
}

func (c readConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// handleConn classifies one accepted connection by its first request
// head and dispatches it.
func handleConn(ctx context.Context, conn net.Conn, plain *connQueue) {
	br := bufio.NewReader(conn)

	head, err := ReadRequestHead(br)
	if err != nil {
		conn.Close()
		return
	}

	ip := ClientIP(head.Get("X-Forwarded-For"), conn.RemoteAddr().String())
	ua := head.Get("User-Agent")

	if strings.EqualFold(head.Get("Upgrade"), "websocket") {
		client := readConn{Conn: conn, r: br}
		Accept_Websocket(ctx, client, head, ip, ua)
		return
	}

	// not an upgrade. Put the consumed head back in front of the
	// stream and let net/http serve the whole connection.
	replay := io.MultiReader(bytes.NewReader(head.Bytes()), br)
	plain.Deliver(readConn{Conn: conn, r: replay})
}

// Accept_Websocket relays one upgrade connection: dial the backend,
// replay the handshake head to it, then pump raw bytes both ways
// until either side goes away. The backend answers the handshake
// itself through the relay; no frames are parsed here.
func Accept_Websocket(ctx context.Context, client io.ReadWriteCloser, head *RequestHead, ip string, ua string) {
	if pass := ConnPerIPRateLimit_Pass(ip); !pass {
		log.Printf("%s rejected: Too many open connections", ip)
		TooManyRequests(client)
		client.Close()
		return
	}

	defer ConnPerIPRateLimit_OnDisconnect(ip)

	backend, err := dialBackend(config.Backend)
	if err != nil {
		log.Printf("%s: backend %s unreachable: %v", ip, config.Backend, err)
		BadGateway(client)
		client.Close()
		return
	}

	if _, err := head.WriteTo(backend); err != nil {
		log.Printf("%s: handshake forward failed: %v", ip, err)
		BadGateway(client)
		backend.Close()
		client.Close()
		return
	}

	log.Printf("%s connected (%s)", ip, ua)
	defer log.Printf("%s disconnect (%s)", ip, ua)

	s := relay.NewSession(client, backend)
	s.Run(ctx)
}

// Hijack_Websocket handles the rare upgrade request arriving on a
// connection net/http already owns.
func Hijack_Websocket(ctx context.Context, w http.ResponseWriter, r *http.Request, ip string, ua string) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	conn, bufrw, err := hj.Hijack()
	if err != nil {
		log.Printf("%s: hijack failed: %v", ip, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	client := readConn{Conn: conn, r: bufrw.Reader}
	Accept_Websocket(ctx, client, HeadFromRequest(r), ip, ua)
}
