package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"
)

var config Config
var Config_Filename string
var FaviconBytes []byte

func LoadConfig() {
	log.Printf("Reading config file %s....\n", Config_Filename)

	ReadConfig(Config_Filename, &config)
}

func LoadFavicon() {
	if len(config.Favicon) < 1 {
		return
	}

	bytes, err := os.ReadFile(config.Favicon)

	if err != nil {
		log.Printf("Failed to load favicon (%s) into memory: %v", config.Favicon, err)
		return
	}

	FaviconBytes = bytes
	log.Printf("Loaded favicon (%s) into memory", config.Favicon)
}

func ClientIP(xff string, remoteAddr string) string {
	ip := strings.TrimSpace(strings.Split(xff, ",")[0])

	if len(ip) < 1 {
		ip, _, _ = net.SplitHostPort(remoteAddr)
	}

	if len(ip) < 1 {
		ip = remoteAddr
	}

	return ip
}

// asset requests would drown everything else out of the log
func quietPath(p string) bool {
	if strings.HasPrefix(p, "/pkg/") || strings.HasPrefix(p, "/assets/") {
		return true
	}

	return strings.HasSuffix(p, ".js") || strings.HasSuffix(p, ".wasm")
}

func handleStatic(w http.ResponseWriter, r *http.Request, files http.Handler) {
	xff := r.Header.Get("X-Forwarded-For")
	ua := r.Header.Get("User-Agent")
	ip := ClientIP(xff, r.RemoteAddr)

	if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		// an upgrade showed up on a connection that already served
		// plain requests. Take the socket back from net/http and
		// relay it like any other.
		Hijack_Websocket(r.Context(), w, r, ip, ua)
		return
	}

	if !quietPath(r.URL.Path) {
		log.Println(ip, r.Method, r.URL, ua)
	}

	// HUH??
	if len(r.Header.Get("Upgrade")) > 0 {
		http.Error(w, "Invalid Upgrade Header", 400)
		return
	}

	if r.URL.Path == "/favicon.ico" && FaviconBytes != nil {
		var header = w.Header()
		header.Set("Content-Type", "image/vnd.microsoft.icon")
		header.Set("Access-Control-Allow-Origin", "*")

		w.Write(FaviconBytes)
		return
	}

	files.ServeHTTP(w, r)
}

// connQueue feeds connections classified as plain HTTP into the
// static file server. It is the net.Listener that net/http sees.
type connQueue struct {
	ch   chan net.Conn
	done chan struct{}
	addr net.Addr
	once sync.Once
}

func newConnQueue(addr net.Addr) *connQueue {
	return &connQueue{
		ch:   make(chan net.Conn),
		done: make(chan struct{}),
		addr: addr,
	}
}

func (q *connQueue) Deliver(c net.Conn) {
	select {
	case q.ch <- c:
	case <-q.done:
		c.Close()
	}
}

func (q *connQueue) Accept() (net.Conn, error) {
	select {
	case c := <-q.ch:
		return c, nil
	case <-q.done:
		return nil, net.ErrClosed
	}
}

func (q *connQueue) Close() error {
	q.once.Do(func() {
		close(q.done)
	})

	return nil
}

func (q *connQueue) Addr() net.Addr {
	return q.addr
}

// Serve accepts connections from ln until ln is closed. Each
// connection is classified once by its first request head: websocket
// upgrades get relayed to the backend, everything else is handed to
// the static file server.
func Serve(ln net.Listener) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	plain := newConnQueue(ln.Addr())
	defer plain.Close()

	httpServer := &http.Server{
		Handler: StaticHandler(),
	}

	go httpServer.Serve(plain)
	defer httpServer.Close()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}

			log.Printf("accept: %v", err)
			continue
		}

		go handleConn(ctx, conn, plain)
	}
}

func StaticHandler() http.Handler {
	files := http.FileServer(http.Dir(config.StaticDir))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleStatic(w, r, files)
	})
}
