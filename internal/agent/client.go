package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/cache"
	clierr "github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/errors"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/httpx"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/model"
	"github.com/petrkrulis2022/cube-pay-hackathons-sub002/internal/registry"
	"github.com/rs/zerolog"
)

type Client struct {
	http     *httpx.Client
	registry *registry.Registry
	cache    *cache.Store
	ttl      time.Duration
	baseURL  string
	apiKey   string
	log      zerolog.Logger
}

type ClientOptions struct {
	BaseURL string
	APIKey  string
	Cache   *cache.Store
	TTL     time.Duration
}

func NewClient(httpClient *httpx.Client, reg *registry.Registry, opts ClientOptions, log zerolog.Logger) *Client {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Client{
		http:     httpClient,
		registry: reg,
		cache:    opts.Cache,
		ttl:      ttl,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		apiKey:   opts.APIKey,
		log:      log,
	}
}

// Profile returns the agent's payment profile, from the cache when a
// fresh entry exists. A stale entry is only served when the
// marketplace itself is unreachable.
func (c *Client) Profile(ctx context.Context, agentID string) (Profile, model.CacheStatus, error) {
	agentID = strings.TrimSpace(agentID)
	if agentID == "" {
		return Profile{}, cacheMiss(), clierr.New(clierr.CodeUsage, "agent id is required")
	}

	if c.cache != nil {
		cached, err := c.cache.Profile(agentID, 0)
		if err == nil && cached.Found && !cached.Stale {
			var profile Profile
			if json.Unmarshal(cached.Payload, &profile) == nil && profile.Validate(c.registry) == nil {
				return profile, model.CacheStatus{Status: "hit", AgeMS: cached.Age.Milliseconds()}, nil
			}
		}
	}

	profile, err := c.fetch(ctx, agentID)
	if err != nil {
		if stale, ok := c.staleProfile(agentID); ok {
			c.log.Warn().Str("agent", agentID).Err(err).Msg("marketplace unreachable, serving stale profile")
			return stale.profile, model.CacheStatus{Status: "hit", AgeMS: stale.ageMS, Stale: true}, nil
		}
		return Profile{}, cacheMiss(), err
	}
	if err := profile.Validate(c.registry); err != nil {
		return Profile{}, cacheMiss(), err
	}

	if c.cache != nil {
		if buf, err := json.Marshal(profile); err == nil {
			if err := c.cache.PutProfile(agentID, buf, c.ttl); err != nil {
				c.log.Debug().Err(err).Msg("profile cache write failed")
			}
		}
	}
	return profile, cacheMiss(), nil
}

func (c *Client) fetch(ctx context.Context, agentID string) (Profile, error) {
	if c.baseURL == "" {
		return Profile{}, clierr.New(clierr.CodeUsage, "marketplace base URL is not configured")
	}
	endpoint := c.baseURL + "/api/agents/" + url.PathEscape(agentID) + "/payment-profile"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Profile{}, clierr.Wrap(clierr.CodeInternal, "build profile request", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	var profile Profile
	if _, err := c.http.DoJSON(ctx, req, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

type staleEntry struct {
	profile Profile
	ageMS   int64
}

func (c *Client) staleProfile(agentID string) (staleEntry, bool) {
	if c.cache == nil {
		return staleEntry{}, false
	}
	cached, err := c.cache.Profile(agentID, c.ttl)
	if err != nil || !cached.Found || cached.Exhausted {
		return staleEntry{}, false
	}
	var profile Profile
	if json.Unmarshal(cached.Payload, &profile) != nil || profile.Validate(c.registry) != nil {
		return staleEntry{}, false
	}
	return staleEntry{profile: profile, ageMS: cached.Age.Milliseconds()}, true
}

func cacheMiss() model.CacheStatus {
	return model.CacheStatus{Status: "miss"}
}
