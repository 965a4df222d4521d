package execution

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	tmp := t.TempDir()
	store, err := OpenStore(filepath.Join(tmp, "attempts.db"), filepath.Join(tmp, "attempts.lock"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAttemptLifecyclePersists(t *testing.T) {
	store := testStore(t)

	attempt := NewAttempt("agent-7")
	attempt.SourceKey = "43113"
	attempt.DestinationKey = "11155111"
	attempt.Plan = model.TransactionPlan{Kind: model.PlanKindCrossChainSend, ChainKey: "43113"}
	if err := store.Save(attempt); err != nil {
		t.Fatalf("save pending: %v", err)
	}

	attempt.SetStatus(StatusBuilt)
	if err := store.Save(attempt); err != nil {
		t.Fatalf("save built: %v", err)
	}
	attempt.Simulation = model.SimulationResult{OK: true, MessageID: "0xabc"}
	attempt.SetStatus(StatusSimulatedOK)
	if err := store.Save(attempt); err != nil {
		t.Fatalf("save simulated: %v", err)
	}

	got, err := store.Get(attempt.AttemptID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusSimulatedOK {
		t.Fatalf("status = %s", got.Status)
	}
	if got.AgentID != "agent-7" || got.SourceKey != "43113" {
		t.Fatalf("attempt = %+v", got)
	}
	if !got.Simulation.OK || got.Simulation.MessageID != "0xabc" {
		t.Fatalf("simulation = %+v", got.Simulation)
	}
}

func TestAttemptListFiltersByStatus(t *testing.T) {
	store := testStore(t)

	confirmed := NewAttempt("agent-1")
	confirmed.SetStatus(StatusConfirmed)
	if err := store.Save(confirmed); err != nil {
		t.Fatalf("save confirmed: %v", err)
	}
	unconfirmed := NewAttempt("agent-2")
	unconfirmed.SetStatus(StatusUnconfirmed)
	if err := store.Save(unconfirmed); err != nil {
		t.Fatalf("save unconfirmed: %v", err)
	}

	all, err := store.List("", 10)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(all))
	}

	only, err := store.List(string(StatusUnconfirmed), 10)
	if err != nil {
		t.Fatalf("list filtered: %v", err)
	}
	if len(only) != 1 || only[0].AttemptID != unconfirmed.AttemptID {
		t.Fatalf("filtered = %+v", only)
	}
}

func TestStoreGetMissingAttempt(t *testing.T) {
	store := testStore(t)
	if _, err := store.Get("pay_missing"); err == nil {
		t.Fatal("expected missing attempt error")
	}
}

func TestNewAttemptIDFormat(t *testing.T) {
	id := NewAttemptID()
	if !strings.HasPrefix(id, "pay_") || len(id) != len("pay_")+32 {
		t.Fatalf("attempt id = %q", id)
	}
	if id == NewAttemptID() {
		t.Fatal("attempt ids must be unique")
	}
}
