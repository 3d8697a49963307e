// Package hiddenservice holds one onion-service identity together with its
// target list and publication status, and drives the status machine that
// publication and HS_DESC events push it through.
//
// A Service never talks to a control connection directly: Publish takes a
// Controller, a small interface satisfied by *torcontrol.Control, so this
// package has no dependency on the control-protocol machinery it rides on
// top of.
package hiddenservice
