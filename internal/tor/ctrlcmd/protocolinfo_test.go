package ctrlcmd

import "testing"

func TestProtocolInfoParsesAuthAndVersion(t *testing.T) {
	t.Parallel()

	cmd := NewProtocolInfo(nil)
	cmd.Complete([]ReplyLine{
		{Status: 250, Sep: '-', Text: "PROTOCOLINFO 1"},
		{Status: 250, Sep: '-', Text: `AUTH METHODS=COOKIE,SAFECOOKIE COOKIEFILE="/run/tor/control.authcookie"`},
		{Status: 250, Sep: '-', Text: `VERSION Tor="0.4.8.10"`},
		{Status: 250, Sep: ' ', Text: "OK"},
	})

	if cmd.Err() != nil {
		t.Fatalf("unexpected error: %v", cmd.Err())
	}
	if cmd.PIVersion != "1" {
		t.Errorf("PIVersion = %q, want %q", cmd.PIVersion, "1")
	}
	if !cmd.SupportsMethod("SAFECOOKIE") {
		t.Error("expected SAFECOOKIE to be supported")
	}
	if cmd.CookieFile != "/run/tor/control.authcookie" {
		t.Errorf("CookieFile = %q", cmd.CookieFile)
	}
	if cmd.TorVersion != "0.4.8.10" {
		t.Errorf("TorVersion = %q", cmd.TorVersion)
	}
}

func TestProtocolInfoFailureStatus(t *testing.T) {
	t.Parallel()

	cmd := NewProtocolInfo(nil)
	cmd.Complete([]ReplyLine{{Status: 513, Sep: ' ', Text: "Unrecognized command argument"}})
	if cmd.Err() == nil {
		t.Fatal("expected error for 513 status")
	}
}
