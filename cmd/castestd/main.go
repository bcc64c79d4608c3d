// Command castestd runs a standalone fake CAS server for manual testing.
// Usage: go run ./cmd/castestd -port 8444 -user testuser
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/philiph/go-cas-sp/testfixtures/casserver"
)

func main() {
	port := flag.Int("port", 8444, "Port to listen on")
	user := flag.String("user", "testuser", "Principal every issued ticket authenticates as")
	attrs := flag.String("attrs", "mail=testuser@example.edu", "Comma-separated name=value attribute pairs")
	gateway := flag.Bool("gateway", false, "Answer gateway login attempts with a ticket")
	flag.Parse()

	core := casserver.New()
	if *gateway {
		core.GatewayUser = *user
	}

	attributes := parseAttrs(*attrs)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Manual ticket minting for driving a client by hand:
	// curl "http://localhost:8444/issue?service=http://localhost:9080/"
	r.Get("/issue", func(w http.ResponseWriter, req *http.Request) {
		service := req.URL.Query().Get("service")
		if service == "" {
			http.Error(w, "service required", http.StatusBadRequest)
			return
		}
		ticket := core.IssueTicket(*user, service, attributes)
		fmt.Fprintln(w, ticket)
	})
	r.Mount("/", core.Handler())

	addr := fmt.Sprintf(":%d", *port)
	log.Printf("fake CAS server listening on %s (user %q)", addr, *user)
	log.Fatal(http.ListenAndServe(addr, r))
}

func parseAttrs(spec string) map[string][]string {
	attributes := make(map[string][]string)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		attributes[name] = append(attributes[name], value)
	}
	return attributes
}
