package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"static-webserver/docroot"
	httpx "static-webserver/http"
	"static-webserver/nfs"
	"static-webserver/tftp"
	"static-webserver/utils"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5050", "HTTP listen address")
	rootDir := flag.String("root", ".", "document root directory")
	dialect := flag.String("dialect", "strict", "response header layout: strict or compat")
	serverName := flag.String("server-name", "", "value of the Server header (default \"webserver\", or \"Windows PC\" with -dialect compat)")
	maxConns := flag.Int("max-conns", 0, "maximum concurrent connections (0 = unbounded)")
	readTimeout := flag.Duration("read-timeout", 0, "per-connection read deadline (0 = none)")
	reusePort := flag.Bool("reuseport", false, "set SO_REUSEPORT on the HTTP listener")
	// Optional mirrors of the document root
	tftpAddr := flag.String("tftp", "", "TFTP listen address, e.g. :69 (empty = disabled)")
	nfsAddr := flag.String("nfs", "", "NFS listen address, e.g. :2049 (empty = disabled)")
	flag.Parse()

	d, err := httpx.ParseDialect(*dialect)
	if err != nil {
		log.Fatalf("invalid -dialect: %v", err)
	}
	root, err := docroot.Open(*rootDir)
	if err != nil {
		log.Fatalf("open document root: %v", err)
	}

	loggerHTTP := log.New(os.Stdout, "http ", log.LstdFlags)
	cfg := httpx.Config{
		Root:        root,
		Identity:    httpx.NewIdentity(),
		ServerName:  *serverName,
		Dialect:     d,
		ReadTimeout: *readTimeout,
	}
	srv, err := httpx.StartHTTPServer(*addr, cfg, utils.ListenOptions{MaxConns: *maxConns, ReusePort: *reusePort}, loggerHTTP)
	if err != nil {
		log.Fatalf("start http failure: %v", err)
	}
	loggerHTTP.Printf("serving %q, dialect=%s, etag=%q", root.Dir(), d, cfg.Identity)

	if *tftpAddr != "" {
		loggerTFTP := log.New(os.Stdout, "tftp ", log.LstdFlags)
		tsrv, err := tftp.StartTFTPServer(*tftpAddr, root, loggerTFTP)
		if err != nil {
			log.Fatalf("start tftp failure: %v", err)
		}
		defer tsrv.Shutdown()
	}

	if *nfsAddr != "" {
		loggerNFS := log.New(os.Stdout, "nfs ", log.LstdFlags)
		ln, err := nfs.StartNFSD(*nfsAddr, root, loggerNFS)
		if err != nil {
			log.Fatalf("start nfs failure: %v", err)
		}
		defer ln.Close()
	}

	// Block until termination signal to keep goroutine servers alive
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop
	log.Printf("received signal %s, exiting", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
}
