package nfs

import (
	"errors"
	"log"
	"net"

	nfs "github.com/willscott/go-nfs"
	nfshelper "github.com/willscott/go-nfs/helpers"

	"static-webserver/docroot"
)

// handleCacheSize bounds the file handles the caching handler remembers.
const handleCacheSize = 1024

func newHandler(root *docroot.Root) nfs.Handler {
	h := nfshelper.NewNullAuthHandler(docroot.ReadOnly(root.FS()))
	return nfshelper.NewCachingHandler(h, handleCacheSize)
}

// StartNFSD exports root read-only over NFSv3 (TCP) on addr.
// Closing the returned listener stops the server.
func StartNFSD(addr string, root *docroot.Root, logger *log.Logger) (net.Listener, error) {
	if root == nil {
		return nil, errors.New("nfs: no document root")
	}
	if addr == "" {
		addr = ":2049"
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	handler := newHandler(root)
	go func() {
		logger.Printf("nfsd v3 listening on %s root=%q (read-only)", ln.Addr(), root.Dir())
		if err := nfs.Serve(ln, handler); err != nil && !errors.Is(err, net.ErrClosed) {
			logger.Printf("nfsd serve error: %v", err)
		}
	}()
	return ln, nil
}
