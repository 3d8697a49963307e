// Package config holds torhsd's runtime configuration: where the bundled
// Tor binary and its data directory live, where the hidden service's
// identity is persisted, which targets it forwards to, and how the
// optional friend-server requester is reached. Values are populated from
// CLI flags first and a YAML config file second, with the flags always
// winning where both set the same value.
package config
