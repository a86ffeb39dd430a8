// Command cacheserver runs one development cache replica.
package main

import (
	"flag"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"cachequorum/internal/cacheserver"
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func main() {
	host := flag.String("host", "127.0.0.1", "listen host")
	port := flag.Int("port", 3000, "listen port")
	protocol := flag.String("transport", "http", "protocol to serve: http or grpc")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	lvl, err := log.ParseLevel(*level)
	if err != nil {
		log.Fatalf("invalid log level: %v", err)
	}
	log.SetLevel(lvl)
	if lvl < log.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	addr := net.JoinHostPort(*host, strconv.Itoa(*port))
	srv, err := cacheserver.NewServer(addr, *protocol, nil)
	if err != nil {
		log.Fatalf("failed to create replica: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		srv.Stop()
	}()

	if err := srv.Start(); err != nil {
		log.Fatalf("replica stopped: %v", err)
	}
}
