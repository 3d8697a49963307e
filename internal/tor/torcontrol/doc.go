// Package torcontrol implements the high-level state machine driving one
// Tor control connection: authentication method negotiation, event
// subscription, bootstrap-phase tracking, and hidden-service publication.
//
// Control talks to Tor through an internal/tor/ctrlsocket.Socket and the
// concrete commands in internal/tor/ctrlcmd; it never reads or writes the
// wire protocol itself. It satisfies internal/tor/hiddenservice.Controller
// so a hiddenservice.Service can publish itself without either package
// importing the other.
package torcontrol
