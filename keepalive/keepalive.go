// Package keepalive exposes the liveness endpoint hosting platforms
// poll to keep the process from being idled.
package keepalive

import (
	"fmt"
	"log"
	"net/http"
)

// Start serves the liveness endpoint in the background.
func Start(port int) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "Raid Prevention Bot is running.")
	})

	go func() {
		addr := fmt.Sprintf(":%d", port)
		log.Printf("[KEEP-ALIVE] Web server running on port %d", port)
		if err := http.ListenAndServe(addr, mux); err != nil {
			log.Printf("[KEEP-ALIVE] Server stopped: %v", err)
		}
	}()
}
