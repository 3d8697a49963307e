// Package main provides the entry point for torhsd.
//
// torhsd launches a bundled Tor daemon, authenticates to its control
// port, and publishes a v3 onion hidden service whose private key is
// persisted locally.
//
// Usage:
//
//	torhsd start --target 80:127.0.0.1:8080
//	torhsd status
//
// See --help for all available options.
package main

// main is the entry point for torhsd.
func main() {
	Execute()
}
