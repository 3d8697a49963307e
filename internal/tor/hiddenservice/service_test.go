package hiddenservice

import (
	"context"
	"errors"
	"testing"

	"github.com/torhsd/torhsd/internal/tor/cryptokey"
	"github.com/torhsd/torhsd/internal/tor/torerr"
)

type fakeController struct {
	serviceID string
	generated *cryptokey.Key
	err       error
	owned     []Registrant
}

func (f *fakeController) AddOnion(_ context.Context, key *cryptokey.Key, _ []Target, _ []string) (string, *cryptokey.Key, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	if key != nil {
		return f.serviceID, nil, nil
	}
	return f.serviceID, f.generated, nil
}

func (f *fakeController) Own(hs Registrant) {
	f.owned = append(f.owned, hs)
}

func TestPublishNewKey(t *testing.T) {
	t.Parallel()

	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	id, err := key.ServiceID()
	if err != nil {
		t.Fatalf("ServiceID: %v", err)
	}

	var transitions [][2]Status
	svc := New([]Target{{ServicePort: 80, TargetAddress: "127.0.0.1", TargetPort: 8080}},
		WithStatusChangeFunc(func(old, new Status) { transitions = append(transitions, [2]Status{old, new}) }))

	ctrl := &fakeController{serviceID: id, generated: key}
	if err := svc.Publish(context.Background(), ctrl); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if svc.ID() != id {
		t.Errorf("ID() = %q, want %q", svc.ID(), id)
	}
	if svc.Hostname() != id+".onion" {
		t.Errorf("Hostname() = %q", svc.Hostname())
	}
	if svc.Status() != StatusOffline {
		t.Errorf("Status() = %v, want StatusOffline", svc.Status())
	}
	if svc.Key() != key {
		t.Error("expected generated key to be captured")
	}
	if len(ctrl.owned) != 1 || ctrl.owned[0] != svc {
		t.Error("expected service to register itself as owned")
	}
	if len(transitions) != 1 || transitions[0] != [2]Status{StatusNotCreated, StatusOffline} {
		t.Errorf("transitions = %v", transitions)
	}
}

func TestPublishExistingKeyKeepsKeyOnController(t *testing.T) {
	t.Parallel()

	key, err := cryptokey.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	id, _ := key.ServiceID()

	svc := New(nil)
	svc.SetKey(key)

	ctrl := &fakeController{serviceID: id}
	if err := svc.Publish(context.Background(), ctrl); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if svc.Key() != key {
		t.Error("expected existing key to remain unchanged")
	}
}

func TestPublishFailurePropagatesAsServicePublishFailed(t *testing.T) {
	t.Parallel()

	svc := New(nil)
	ctrl := &fakeController{err: errors.New("ADD_ONION refused")}
	err := svc.Publish(context.Background(), ctrl)
	if err == nil {
		t.Fatal("expected error")
	}
	if !torerr.Is(err, torerr.KindServicePublishFailed) {
		t.Errorf("Publish() = %v, want kind ServicePublishFailed", err)
	}
	if svc.Status() != StatusNotCreated {
		t.Errorf("Status() = %v, want StatusNotCreated after failed publish", svc.Status())
	}
}

func TestHandleEventUploadedTransitionsOnlyMatchingID(t *testing.T) {
	t.Parallel()

	key, _ := cryptokey.GenerateKey()
	id, _ := key.ServiceID()
	svc := New(nil)
	ctrl := &fakeController{serviceID: id, generated: key}
	if err := svc.Publish(context.Background(), ctrl); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	svc.HandleEvent("UPLOADED", "some-other-id")
	if svc.Status() != StatusOffline {
		t.Fatalf("Status() = %v after mismatched id, want StatusOffline", svc.Status())
	}

	svc.HandleEvent("UPLOADED", id)
	if svc.Status() != StatusOnline {
		t.Fatalf("Status() = %v, want StatusOnline", svc.Status())
	}
}

func TestHandleEventFailedDoesNotChangeStatus(t *testing.T) {
	t.Parallel()

	key, _ := cryptokey.GenerateKey()
	id, _ := key.ServiceID()
	svc := New(nil)
	ctrl := &fakeController{serviceID: id, generated: key}
	if err := svc.Publish(context.Background(), ctrl); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	svc.HandleEvent("FAILED", id)
	if svc.Status() != StatusOffline {
		t.Errorf("Status() = %v, want StatusOffline", svc.Status())
	}
}
