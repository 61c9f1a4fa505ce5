package main

import (
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	flag.StringVar(&Config_Filename, "configfile", "config.yaml", "Path to YAML config file")
	flag.Parse()

	fmt.Println("wsgate - static files & websocket relay on one port")

	LoadConfig()
	LoadFavicon()

	ln, err := net.Listen("tcp", config.Listen)
	if err != nil {
		panic(err)
	}

	log.Printf("Listening on %s....\n", config.Listen)
	log.Printf("Serving static files from %s", config.StaticDir)
	log.Printf("Relaying websocket connections to %s", config.Backend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Println("Shutting down....")
		ln.Close()
	}()

	Serve(ln)
}
