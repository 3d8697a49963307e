package ctrlcmd

import (
	"strings"
	"testing"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
)

func TestOnionTargetString(t *testing.T) {
	t.Parallel()

	if got := (OnionTarget{VirtPort: 80}).String(); got != "80" {
		t.Errorf("OnionTarget{80}.String() = %q", got)
	}
	if got := (OnionTarget{VirtPort: 80, Target: "127.0.0.1:8080"}).String(); got != "80,127.0.0.1:8080" {
		t.Errorf("OnionTarget.String() = %q", got)
	}
}

func TestAddOnionNewKeyParsesGeneratedKeyAndServiceID(t *testing.T) {
	t.Parallel()

	cmd := NewAddOnionNewKey([]OnionTarget{{VirtPort: 80, Target: "127.0.0.1:8080"}}, []string{"DiscardPK"}, nil)
	if !strings.Contains(string(cmd.Serialize()), "NEW:ED25519-V3") {
		t.Fatalf("Serialize() = %q, expected NEW:ED25519-V3", cmd.Serialize())
	}

	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	serviceID, err := key.ServiceID()
	if err != nil {
		t.Fatalf("ServiceID: %v", err)
	}
	fullKey := string(key.Bytes())

	cmd.Complete([]ReplyLine{
		{Status: 250, Sep: '-', Text: "ServiceID=" + serviceID},
		{Status: 250, Sep: '-', Text: "PrivateKey=" + fullKey},
		{Status: 250, Sep: ' ', Text: "OK"},
	})

	if cmd.Err() != nil {
		t.Fatalf("unexpected error: %v", cmd.Err())
	}
	if cmd.ServiceID != serviceID {
		t.Errorf("ServiceID = %q, want %q", cmd.ServiceID, serviceID)
	}
	if cmd.PrivateKey == nil {
		t.Fatal("expected PrivateKey to be populated")
	}
	if string(cmd.PrivateKey.Bytes()) != fullKey {
		t.Errorf("PrivateKey.Bytes() = %q, want %q", cmd.PrivateKey.Bytes(), fullKey)
	}
}

func TestAddOnionExistingKeyRejectsServiceIDMismatch(t *testing.T) {
	t.Parallel()

	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	other, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	otherID, err := other.ServiceID()
	if err != nil {
		t.Fatalf("ServiceID: %v", err)
	}

	cmd := NewAddOnionExistingKey(key, []OnionTarget{{VirtPort: 80}}, nil, nil)
	cmd.Complete([]ReplyLine{
		{Status: 250, Sep: '-', Text: "ServiceID=" + otherID},
		{Status: 250, Sep: ' ', Text: "OK"},
	})

	if cmd.Err() == nil {
		t.Fatal("expected service id mismatch to be rejected")
	}
}

func TestAddOnionFailureStatus(t *testing.T) {
	t.Parallel()

	cmd := NewAddOnionNewKey([]OnionTarget{{VirtPort: 80}}, nil, nil)
	cmd.Complete([]ReplyLine{{Status: 552, Sep: ' ', Text: "Invalid onion service descriptor"}})
	if cmd.Err() == nil {
		t.Fatal("expected error for 552 status")
	}
}
