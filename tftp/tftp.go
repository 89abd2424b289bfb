package tftp

import (
	"bytes"
	"errors"
	"io"
	"log"
	"net"
	"time"

	tftp "github.com/pin/tftp/v3"

	"static-webserver/docroot"
)

func readHandler(root *docroot.Root, logger *log.Logger) func(string, io.ReaderFrom) error {
	return func(filename string, rf io.ReaderFrom) error {
		data, err := root.ReadFile(filename)
		if err != nil {
			logger.Printf("RRQ %q: %v", filename, err)
			return err
		}
		if ot, ok := rf.(tftp.OutgoingTransfer); ok {
			ot.SetSize(int64(len(data)))
		}
		n, err := rf.ReadFrom(bytes.NewReader(data))
		logger.Printf("RRQ %q -> %d bytes", filename, n)
		return err
	}
}

// NewServer returns a TFTP server exporting root read-only. Write requests are refused.
func NewServer(root *docroot.Root, logger *log.Logger) *tftp.Server {
	srv := tftp.NewServer(readHandler(root, logger), nil)
	srv.SetTimeout(5 * time.Second)
	return srv
}

// StartTFTPServer serves root read-only over TFTP on addr.
func StartTFTPServer(addr string, root *docroot.Root, logger *log.Logger) (*tftp.Server, error) {
	if root == nil {
		return nil, errors.New("tftp: no document root")
	}
	if addr == "" {
		addr = ":69"
	}
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	srv := NewServer(root, logger)

	go func() {
		logger.Printf("TFTP server listening on %s, root=%q", pc.LocalAddr(), root.Dir())
		if err := srv.Serve(pc); err != nil {
			logger.Printf("TFTP server error: %v", err)
		}
	}()
	return srv, nil
}
