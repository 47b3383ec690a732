/*
Package solcbin downloads released compiler binaries from the binaries
server, so external tests can be run against a published release
instead of a local build.
*/
package solcbin

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/docker/go-units"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/debug"
	"github.com/gocolly/colly/v2/extensions"
	"go.uber.org/zap"
)

// DefaultBaseURL is the binaries server used when Client.BaseURL is empty.
const DefaultBaseURL = "https://binaries.soliditylang.org"

// The Client is used to retrieve compiler binaries from the binaries server.
// It is backed by a Colly collector, which provides response caching.
type Client struct {
	// BaseURL of the binaries server. Defaults to DefaultBaseURL.
	BaseURL string
	// CacheDir specifies a location where downloaded lists and binaries
	// are cached as files. Caching is disabled if not provided.
	CacheDir string
	// Debugger is an optional debugger implementation used by the collector.
	Debugger debug.Debugger
	// RoundTripper is, if defined, a custom roundtripper used by the collector.
	RoundTripper http.RoundTripper
	// Timeout is the request timeout. Defaults to no timeout.
	Timeout time.Duration
	// Logger is optional.
	Logger *zap.Logger

	collector     *colly.Collector
	collectorInit sync.Once
}

func (c *Client) getCollector(ctx context.Context) *colly.Collector {
	c.collectorInit.Do(func() {
		col := colly.NewCollector()
		col.CacheDir = c.CacheDir
		col.AllowURLRevisit = true
		// Binaries are tens of megabytes.
		col.MaxBodySize = 0
		if c.Debugger != nil {
			col.SetDebugger(c.Debugger)
		}
		if c.RoundTripper != nil {
			col.WithTransport(c.RoundTripper)
		}
		if c.Timeout > 0 {
			col.SetRequestTimeout(c.Timeout)
		}
		extensions.RandomUserAgent(col)

		c.collector = col
	})

	col := c.collector.Clone()
	col.Context = ctx
	return col
}

func (c *Client) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Client) url(platform, path string) string {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return strings.TrimRight(base, "/") + "/" + platform + "/" + path
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	col := c.getCollector(ctx)

	var body []byte
	col.OnResponse(func(r *colly.Response) {
		body = r.Body
	})

	if err := col.Visit(url); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, fmt.Errorf("empty response")
	}

	return body, nil
}

// List returns the index of the builds published for the given platform.
func (c *Client) List(ctx context.Context, platform string) (*List, error) {
	data, err := c.get(ctx, c.url(platform, "list.json"))
	if err != nil {
		return nil, fmt.Errorf("solcbin: failed to list %s builds: %w", platform, err)
	}

	var l List
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, fmt.Errorf("solcbin: invalid %s build list: %w", platform, err)
	}

	return &l, nil
}

// Download retrieves the build with the given version for the given platform,
// checks its checksum and writes it to dest as an executable file.
// See List.Find for the accepted version formats.
func (c *Client) Download(ctx context.Context, platform, version, dest string) (*Build, error) {
	l, err := c.List(ctx, platform)
	if err != nil {
		return nil, err
	}

	b, err := l.Find(version)
	if err != nil {
		return nil, err
	}

	start := time.Now()

	data, err := c.get(ctx, c.url(platform, b.Path))
	if err != nil {
		return nil, fmt.Errorf("solcbin: failed to download %s: %w", b.Path, err)
	}

	if err := verifyChecksum(data, b.SHA256); err != nil {
		return nil, fmt.Errorf("solcbin: %s: %w", b.Path, err)
	}

	if err := os.WriteFile(dest, data, 0o755); err != nil {
		return nil, fmt.Errorf("solcbin: %w", err)
	}

	c.logger().Info("compiler downloaded",
		zap.String("build", b.Path),
		zap.String("size", units.HumanSize(float64(len(data)))),
		zap.String("took", units.HumanDuration(time.Since(start))),
		zap.String("dest", dest),
	)

	return b, nil
}

func verifyChecksum(data []byte, expected string) error {
	want, err := hex.DecodeString(strings.TrimPrefix(expected, "0x"))
	if err != nil || len(want) != sha256.Size {
		return fmt.Errorf("invalid sha256 %q in build list", expected)
	}

	got := sha256.Sum256(data)
	if !bytes.Equal(got[:], want) {
		return fmt.Errorf("checksum mismatch: expected %s, got 0x%x", expected, got)
	}

	return nil
}
