package torcontrol

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net"
	"os"
	"testing"
	"time"

	"github.com/torhsd/torhsd/internal/tor/ctrlcmd"
	"github.com/torhsd/torhsd/internal/tor/ctrlsocket"
	"github.com/torhsd/torhsd/internal/tor/cryptokey"
)

var (
	safecookieClientToServerKey = []byte("Tor safe cookie authentication controller-to-server hash")
	safecookieServerToClientKey = []byte("Tor safe cookie authentication server-to-controller hash")
)

func newPipeControl(t *testing.T, handlers Handlers) (*Control, *bufio.Reader, net.Conn) {
	t.Helper()
	client, server := net.Pipe()
	t.Cleanup(func() { client.Close(); server.Close() })

	sock := ctrlsocket.New(client)
	ctrl := New(sock, handlers)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go sock.Run(ctx)

	return ctrl, bufio.NewReader(server), server
}

// readLine reads one CRLF-terminated request line from the server side,
// trimmed of its terminator.
func readLine(t *testing.T, r *bufio.Reader) string {
	t.Helper()
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("read request line: %v", err)
	}
	return line[:len(line)-2]
}

func TestConnectNullAuthRunsFullSetupSequence(t *testing.T) {
	t.Parallel()

	var configCalls int
	var bootstraps []ctrlcmd.BootstrapPhase
	var torTransitions [][2]TorStatus
	ctrl, r, server := newPipeControl(t, Handlers{
		OnConfigurationNeeded: func() { configCalls++ },
		OnBootstrapProgress:   func(p ctrlcmd.BootstrapPhase) { bootstraps = append(bootstraps, p) },
		OnTorStatusChange:     func(old, new TorStatus) { torTransitions = append(torTransitions, [2]TorStatus{old, new}) },
	})

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- ctrl.Connect(ctx, AuthConfig{})
	}()

	if got := readLine(t, r); got != "PROTOCOLINFO 1" {
		t.Fatalf("request = %q", got)
	}
	server.Write([]byte("250-PROTOCOLINFO 1\r\n250-AUTH METHODS=NULL\r\n250-VERSION Tor=\"0.4.8.9\"\r\n250 OK\r\n"))

	if got := readLine(t, r); got != "AUTHENTICATE" {
		t.Fatalf("request = %q", got)
	}
	server.Write([]byte("250 OK\r\n"))

	if got := readLine(t, r); got != "SETEVENTS STATUS_CLIENT STATUS_GENERAL HS_DESC" {
		t.Fatalf("request = %q", got)
	}
	server.Write([]byte("250 OK\r\n"))

	if got := readLine(t, r); got != "GETINFO status/bootstrap-phase" {
		t.Fatalf("request = %q", got)
	}
	server.Write([]byte("250-status/bootstrap-phase=TAG=done PROGRESS=100 SUMMARY=\"Done\"\r\n250 OK\r\n"))

	if got := readLine(t, r); got != "GETCONF DisableNetwork SocksPort" {
		t.Fatalf("request = %q", got)
	}
	server.Write([]byte("250-DisableNetwork=0\r\n250-SocksPort=127.0.0.1:9050\r\n250 OK\r\n"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect never returned")
	}

	if ctrl.ConnStatus() != Connected {
		t.Errorf("ConnStatus() = %v, want Connected", ctrl.ConnStatus())
	}
	if ctrl.TorStatus() != TorReady {
		t.Errorf("TorStatus() = %v, want TorReady", ctrl.TorStatus())
	}
	if ctrl.ConfigurationNeeded() {
		t.Error("ConfigurationNeeded() = true, want false")
	}
	if configCalls != 0 {
		t.Errorf("OnConfigurationNeeded called %d times, want 0", configCalls)
	}
	if ctrl.SocksAddr() != "127.0.0.1:9050" {
		t.Errorf("SocksAddr() = %q", ctrl.SocksAddr())
	}
	if len(bootstraps) != 1 || !bootstraps[0].Done() {
		t.Errorf("bootstraps = %+v", bootstraps)
	}
	if len(torTransitions) != 1 || torTransitions[0] != [2]TorStatus{TorUnknown, TorReady} {
		t.Errorf("torTransitions = %v", torTransitions)
	}
}

func TestConnectSafecookieAuthComputesMatchingToken(t *testing.T) {
	t.Parallel()

	cookie := make([]byte, 32)
	if _, err := rand.Read(cookie); err != nil {
		t.Fatalf("generate cookie: %v", err)
	}
	cookieFile, err := os.CreateTemp(t.TempDir(), "control_auth_cookie")
	if err != nil {
		t.Fatalf("create cookie file: %v", err)
	}
	if _, err := cookieFile.Write(cookie); err != nil {
		t.Fatalf("write cookie file: %v", err)
	}
	cookieFile.Close()

	var configCalls int
	ctrl, r, server := newPipeControl(t, Handlers{
		OnConfigurationNeeded: func() { configCalls++ },
	})

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- ctrl.Connect(ctx, AuthConfig{})
	}()

	readLine(t, r) // PROTOCOLINFO 1
	server.Write([]byte("250-PROTOCOLINFO 1\r\n250-AUTH METHODS=SAFECOOKIE COOKIEFILE=\"" + cookieFile.Name() + "\"\r\n250 OK\r\n"))

	challengeLine := readLine(t, r)
	const prefix = "AUTHCHALLENGE SAFECOOKIE "
	if len(challengeLine) <= len(prefix) || challengeLine[:len(prefix)] != prefix {
		t.Fatalf("request = %q", challengeLine)
	}
	clientNonce, err := hex.DecodeString(challengeLine[len(prefix):])
	if err != nil {
		t.Fatalf("decode client nonce: %v", err)
	}

	serverNonce := make([]byte, 32)
	if _, err := rand.Read(serverNonce); err != nil {
		t.Fatalf("generate server nonce: %v", err)
	}
	serverHash := computeHMAC(safecookieServerToClientKey, cookie, clientNonce, serverNonce)
	server.Write([]byte("250 AUTHCHALLENGE SERVERHASH=" + hex.EncodeToString(serverHash) +
		" SERVERNONCE=" + hex.EncodeToString(serverNonce) + "\r\n"))

	authLine := readLine(t, r)
	wantToken := computeHMAC(safecookieClientToServerKey, cookie, clientNonce, serverNonce)
	if authLine != "AUTHENTICATE "+hex.EncodeToString(wantToken) {
		t.Fatalf("AUTHENTICATE token mismatch: %q", authLine)
	}
	server.Write([]byte("250 OK\r\n"))

	readLine(t, r) // SETEVENTS ...
	server.Write([]byte("250 OK\r\n"))
	readLine(t, r) // GETINFO status/bootstrap-phase
	server.Write([]byte("250-status/bootstrap-phase=TAG=starting PROGRESS=10 SUMMARY=\"Starting\"\r\n250 OK\r\n"))
	readLine(t, r) // GETCONF DisableNetwork SocksPort
	server.Write([]byte("250-DisableNetwork=1\r\n250-SocksPort=\r\n250 OK\r\n"))

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Connect: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect never returned")
	}

	if ctrl.ConnStatus() != Connected {
		t.Errorf("ConnStatus() = %v, want Connected", ctrl.ConnStatus())
	}
	if !ctrl.ConfigurationNeeded() {
		t.Error("ConfigurationNeeded() = false, want true")
	}
	if configCalls != 1 {
		t.Errorf("OnConfigurationNeeded called %d times, want 1", configCalls)
	}
}

func TestConnectFailsWhenNoSupportedAuthMethodOffered(t *testing.T) {
	t.Parallel()

	var gotErr error
	ctrl, r, server := newPipeControl(t, Handlers{
		OnError: func(err error) { gotErr = err },
	})

	done := make(chan error, 1)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		done <- ctrl.Connect(ctx, AuthConfig{})
	}()

	readLine(t, r)
	server.Write([]byte("250-PROTOCOLINFO 1\r\n250-AUTH METHODS=MYSTERIOUS\r\n250 OK\r\n"))

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Connect never returned")
	}

	if ctrl.ConnStatus() != StatusError {
		t.Errorf("ConnStatus() = %v, want StatusError", ctrl.ConnStatus())
	}
	if gotErr == nil {
		t.Error("OnError was never invoked")
	}
}

type fakeRegistrant struct {
	id     string
	events [][2]string
}

func (f *fakeRegistrant) ID() string { return f.id }

func (f *fakeRegistrant) HandleEvent(action, address string) {
	f.events = append(f.events, [2]string{action, address})
}

func TestHandleHSDescRoutesOnlyToMatchingOwnedService(t *testing.T) {
	t.Parallel()

	ctrl, _, _ := newPipeControl(t, Handlers{})

	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	id, _ := key.ServiceID()

	hs := &fakeRegistrant{id: id}
	other := &fakeRegistrant{id: "other-service-id"}
	ctrl.Own(hs)
	ctrl.Own(other)

	ctrl.handleHSDesc([]ctrlcmd.ReplyLine{{
		Status: 650, Sep: ' ',
		Text: "HS_DESC UPLOADED " + id + " NO_AUTH somehsdir",
	}})

	if len(hs.events) != 1 || hs.events[0] != [2]string{"UPLOADED", id} {
		t.Errorf("hs.events = %v", hs.events)
	}
	if len(other.events) != 0 {
		t.Errorf("other.events = %v, want none", other.events)
	}
}

func TestHandleStatusClientTogglesTorStatus(t *testing.T) {
	t.Parallel()

	var transitions [][2]TorStatus
	ctrl, _, _ := newPipeControl(t, Handlers{
		OnTorStatusChange: func(old, new TorStatus) { transitions = append(transitions, [2]TorStatus{old, new}) },
	})

	ctrl.handleStatusClient([]ctrlcmd.ReplyLine{{Status: 650, Sep: ' ', Text: "STATUS_CLIENT NOTICE CIRCUIT_ESTABLISHED"}})
	ctrl.handleStatusClient([]ctrlcmd.ReplyLine{{Status: 650, Sep: ' ', Text: "STATUS_CLIENT NOTICE CIRCUIT_NOT_ESTABLISHED REASON=FOO"}})

	want := [][2]TorStatus{
		{TorUnknown, TorReady},
		{TorReady, TorOffline},
	}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transitions[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

// computeHMAC mirrors the SAFECOOKIE construction in
// internal/tor/ctrlcmd: HMAC-SHA256(key, cookie||clientNonce||serverNonce).
func computeHMAC(key, cookie, clientNonce, serverNonce []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(cookie)
	mac.Write(clientNonce)
	mac.Write(serverNonce)
	return mac.Sum(nil)
}
