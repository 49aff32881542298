package pubg

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/ruprime/tournament-bot/internal/platform/logging"
	"github.com/ruprime/tournament-bot/internal/platform/resilience"
	"github.com/ruprime/tournament-bot/internal/usecase"
)

const defaultBaseURL = "https://api.pubg.report"

var errLookupTransient = crerr.New("pubg.report transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client verifies game nicknames against the pubg.report search API and
// returns the canonical casing the provider knows the player by.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		logger:         logger,
		breaker:        resilience.NewCircuitBreaker(cfg.CircuitBreaker),
		circuitEnabled: cfg.CircuitBreaker.Enabled,
	}
}

// LookupNickname reports whether the nickname exists and, when it does, the
// provider's canonical spelling of it. An empty search result means the
// nickname is unknown, not an error.
func (c *Client) LookupNickname(ctx context.Context, nickname string) (bool, string, error) {
	if c.circuitEnabled {
		if err := c.breaker.Allow(); err != nil {
			c.logger.WarnContext(ctx, "pubg circuit breaker rejected request", "state", c.breaker.State())
			return false, "", fmt.Errorf("%w: nickname lookup is temporarily unavailable", usecase.ErrDependencyUnavailable)
		}
	}

	raw, err := c.search(ctx, nickname)
	if c.circuitEnabled {
		if err != nil && crerr.Is(err, errLookupTransient) {
			c.breaker.RecordFailure()
		} else {
			c.breaker.RecordSuccess()
		}
	}
	if err != nil {
		return false, "", err
	}

	var players []struct {
		Nickname string `json:"nickname"`
	}
	if err := sonic.Unmarshal(raw, &players); err != nil {
		return false, "", crerr.Wrap(err, "decode pubg.report payload")
	}
	if len(players) == 0 || players[0].Nickname == "" {
		return false, nickname, nil
	}
	return true, players[0].Nickname, nil
}

func (c *Client) search(ctx context.Context, nickname string) ([]byte, error) {
	fullURL := c.baseURL + "/search/" + url.PathEscape(nickname)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, crerr.Wrap(err, "build pubg.report request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "call pubg.report"), errLookupTransient)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, crerr.Mark(crerr.Wrap(err, "read pubg.report response"), errLookupTransient)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := crerr.Newf("pubg.report status %d", resp.StatusCode)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			err = crerr.Mark(err, errLookupTransient)
		}
		return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	}
	return body, nil
}
