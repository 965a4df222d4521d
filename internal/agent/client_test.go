package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/cache"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/httpx"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/logging"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
)

const profileJSON = `{
	"agentId": "agent-7",
	"name": "Cube Guide",
	"recipientAddress": "0x2222222222222222222222222222222222222222",
	"tokenSymbol": "USDC",
	"amountDecimal": "1.25",
	"chainKey": "11155111"
}`

func testClient(t *testing.T, baseURL string, store *cache.Store) *Client {
	t.Helper()
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	return NewClient(httpx.New(2*time.Second, 0), reg, ClientOptions{
		BaseURL: baseURL,
		Cache:   store,
		TTL:     time.Minute,
	}, logging.Nop())
}

func TestProfileFetchAndCacheHit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/api/agents/agent-7/payment-profile" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(profileJSON))
	}))
	defer srv.Close()

	tmp := t.TempDir()
	store, err := cache.Open(filepath.Join(tmp, "profiles.db"), filepath.Join(tmp, "profiles.lock"))
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	defer store.Close()

	c := testClient(t, srv.URL, store)

	profile, status, err := c.Profile(context.Background(), "agent-7")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.AgentID != "agent-7" || profile.ChainKey != "11155111" {
		t.Fatalf("profile = %+v", profile)
	}
	if status.Status != "miss" {
		t.Fatalf("first read must miss, got %s", status.Status)
	}

	_, status, err = c.Profile(context.Background(), "agent-7")
	if err != nil {
		t.Fatalf("cached profile: %v", err)
	}
	if status.Status != "hit" {
		t.Fatalf("second read must hit, got %s", status.Status)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("marketplace called %d times", calls)
	}
}

func TestProfileInvalidRecipientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"agentId": "agent-7",
			"name": "Cube Guide",
			"recipientAddress": "not-an-address",
			"tokenSymbol": "USDC",
			"amountDecimal": "1.25",
			"chainKey": "11155111"
		}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, _, err := c.Profile(context.Background(), "agent-7")
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeUnavailable {
		t.Fatalf("expected invalid profile rejection, got %v", err)
	}
}

func TestProfileUnknownNetworkRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"agentId": "agent-7",
			"name": "Cube Guide",
			"recipientAddress": "0x2222222222222222222222222222222222222222",
			"tokenSymbol": "USDC",
			"amountDecimal": "1.25",
			"chainKey": "31337"
		}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, nil)
	_, _, err := c.Profile(context.Background(), "agent-7")
	cerr, ok := clierr.As(err)
	if !ok || cerr.Code != clierr.CodeUnsupportedRoute {
		t.Fatalf("expected unknown network rejection, got %v", err)
	}
}

func TestProfileMissingFieldsRejected(t *testing.T) {
	reg, err := registry.Load("", nil)
	if err != nil {
		t.Fatalf("load registry: %v", err)
	}
	p := Profile{AgentID: "agent-7", ChainKey: "11155111"}
	if err := p.Validate(reg); err == nil {
		t.Fatal("expected missing fields to be rejected")
	}
}
