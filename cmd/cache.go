package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"carcat/internal/cache"
	catalogerrors "carcat/internal/errors"
	"carcat/internal/retry"
	"carcat/internal/utils"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the server's response cache",
	Long: `Manage the response cache of a running 'carcat serve' process.

The cache lives in the server's memory and holds read API responses with a
TTL. These commands talk to the server's admin routes, so the server must be
reachable and, when server.admin_token is set, the token must match.`,
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cache statistics",
	Long:  `Display entry count, approximate size, entry ages and hit/miss counters.`,
	RunE:  runCacheStats,
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Clear cached responses",
	Long:  `Remove all cached responses, or a single entry with --key (e.g. "GET:/api/cars?make=honda").`,
	RunE:  runCacheClear,
}

var cacheCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove expired cache entries",
	Long:  `Sweep expired entries now. The server also does this on its cleanup interval.`,
	RunE:  runCacheCleanup,
}

var (
	cacheServer string
	cacheToken  string
	cacheKey    string
)

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)

	cacheCmd.PersistentFlags().StringVar(&cacheServer, "server", "", "server base URL (default derived from server.addr)")
	cacheCmd.PersistentFlags().StringVar(&cacheToken, "token", "", "admin token (default server.admin_token)")
	cacheClearCmd.Flags().StringVar(&cacheKey, "key", "", "delete only this cache key")
}

// adminClient calls the admin routes of a running server
type adminClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func newAdminClient(server, token string) *adminClient {
	if server == "" {
		server = serverURL(cfg.Server.Addr)
	}
	if token == "" {
		token = cfg.Server.AdminToken
	}
	return &adminClient{
		baseURL: strings.TrimSuffix(server, "/"),
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// serverURL turns a listen address into a URL a local client can dial
func serverURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

// do sends one admin request with quick retries and decodes the JSON reply
func (c *adminClient) do(ctx context.Context, method, path string, out any) error {
	target := c.baseURL + path

	return retry.WithQuickRetry(ctx, method+" "+path, func() error {
		req, err := http.NewRequestWithContext(ctx, method, target, nil)
		if err != nil {
			return err
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return catalogerrors.WrapNetworkError(err, target)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			_, _ = io.Copy(io.Discard, resp.Body)
			return catalogerrors.WrapHTTPStatus(resp.StatusCode, target)
		}

		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", target, err)
		}
		return nil
	})
}

// cacheStatsReply mirrors cache.Stats as served over JSON
type cacheStatsReply struct {
	TotalItems          int    `json:"totalItems"`
	TotalSize           int64  `json:"totalSize"`
	OldestItemAgeMillis *int64 `json:"oldestItemAgeMillis"`
	NewestItemAgeMillis *int64 `json:"newestItemAgeMillis"`
	Hits                uint64 `json:"hits"`
	Misses              uint64 `json:"misses"`
}

func (r cacheStatsReply) stats() cache.Stats {
	age := func(ms *int64) *time.Duration {
		if ms == nil {
			return nil
		}
		d := time.Duration(*ms) * time.Millisecond
		return &d
	}
	return cache.Stats{
		TotalItems:    r.TotalItems,
		TotalSize:     r.TotalSize,
		OldestItemAge: age(r.OldestItemAgeMillis),
		NewestItemAge: age(r.NewestItemAgeMillis),
		Hits:          r.Hits,
		Misses:        r.Misses,
	}
}

func (c *adminClient) Stats(ctx context.Context) (cache.Stats, error) {
	var reply cacheStatsReply
	if err := c.do(ctx, http.MethodGet, "/api/cache/stats", &reply); err != nil {
		return cache.Stats{}, err
	}
	return reply.stats(), nil
}

func (c *adminClient) Clear(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/cache", nil)
}

func (c *adminClient) Delete(ctx context.Context, key string) (bool, error) {
	var reply struct {
		Deleted bool `json:"deleted"`
	}
	err := c.do(ctx, http.MethodDelete, "/api/cache?key="+url.QueryEscape(key), &reply)
	return reply.Deleted, err
}

func (c *adminClient) Cleanup(ctx context.Context) (int, error) {
	var reply struct {
		Removed int `json:"removed"`
	}
	err := c.do(ctx, http.MethodPost, "/api/cache/cleanup", &reply)
	return reply.Removed, err
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	client := newAdminClient(cacheServer, cacheToken)

	stats, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Cache Statistics (%s):\n", client.baseURL)
	fmt.Fprintf(out, "  Total entries:   %d\n", stats.TotalItems)
	fmt.Fprintf(out, "  Approx. size:    %s\n", utils.FormatBytes(stats.TotalSize))
	fmt.Fprintf(out, "  Oldest entry:    %s\n", utils.FormatAge(stats.OldestItemAge))
	fmt.Fprintf(out, "  Newest entry:    %s\n", utils.FormatAge(stats.NewestItemAge))

	if lookups := stats.Hits + stats.Misses; lookups > 0 {
		fmt.Fprintf(out, "  Hit rate:        %.1f%% (%d/%d)\n", float64(stats.Hits)/float64(lookups)*100, stats.Hits, lookups)
	}

	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	client := newAdminClient(cacheServer, cacheToken)
	out := cmd.OutOrStdout()

	if cacheKey != "" {
		deleted, err := client.Delete(cmd.Context(), cacheKey)
		if err != nil {
			return fmt.Errorf("failed to delete cache entry: %w", err)
		}
		if deleted {
			fmt.Fprintf(out, "Deleted cache entry %s\n", cacheKey)
		} else {
			fmt.Fprintf(out, "No cache entry %s\n", cacheKey)
		}
		return nil
	}

	stats, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	if stats.TotalItems == 0 {
		fmt.Fprintln(out, "Cache is already empty")
		return nil
	}

	if err := client.Clear(cmd.Context()); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintf(out, "Cleared %d cache entries\n", stats.TotalItems)
	return nil
}

func runCacheCleanup(cmd *cobra.Command, args []string) error {
	client := newAdminClient(cacheServer, cacheToken)
	out := cmd.OutOrStdout()

	before, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats: %w", err)
	}

	removed, err := client.Cleanup(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to cleanup cache: %w", err)
	}

	after, err := client.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to get cache stats after cleanup: %w", err)
	}

	if removed > 0 {
		fmt.Fprintf(out, "Removed %d expired cache entries\n", removed)
		fmt.Fprintf(out, "Cache size reduced by %s\n", utils.FormatBytes(before.TotalSize-after.TotalSize))
	} else {
		fmt.Fprintln(out, "No expired entries to clean up")
	}

	return nil
}
