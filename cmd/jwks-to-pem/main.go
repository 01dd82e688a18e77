package main

import (
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"formation/internal/util"
)

// Prints the upstream API's signing key as PEM, ready for JWT_SECRET.
func main() {
	url := flag.String("url", "http://127.0.0.1:8000/.well-known/jwks.json", "JWKS endpoint of the upstream API")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(*url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching JWKS: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Error fetching JWKS: status %d\n", resp.StatusCode)
		os.Exit(1)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading response: %v\n", err)
		os.Exit(1)
	}

	key, err := util.ParseJWKS(body)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	pemKey, err := key.PEM()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error converting key: %v\n", err)
		os.Exit(1)
	}
	fmt.Print(pemKey)
}
