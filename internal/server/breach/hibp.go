// Package breach checks passwords against the Have I Been Pwned range API
// using k-anonymity: only the first five hex characters of SHA-1(password)
// leave the process.
package breach

import (
	"bufio"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/logging"
)

const (
	DefaultRangeURL = "https://api.pwnedpasswords.com/range/"
	userAgent       = "gophvault"
)

type Result struct {
	Breached bool
	Count    int
}

type Checker interface {
	Check(ctx context.Context, password string) (Result, error)
}

// HIBPClient queries the range endpoint at baseURL.
type HIBPClient struct {
	baseURL string
	http    *http.Client
	logger  logging.Logger
}

func NewHIBPClient(baseURL string, timeout time.Duration, l logging.Logger) *HIBPClient {
	if baseURL == "" {
		baseURL = DefaultRangeURL
	}
	return &HIBPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  l.With("module", "hibp"),
	}
}

// Query performs the range lookup and reports transport, status and parse
// failures to the caller.
func (c *HIBPClient) Query(ctx context.Context, password string) (Result, error) {
	var result Result

	sum := sha1.Sum([]byte(password))
	hashHex := strings.ToUpper(hex.EncodeToString(sum[:]))
	prefix, suffix := hashHex[:5], hashHex[5:]

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+prefix, nil)
	if err != nil {
		return result, fmt.Errorf("hibp request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Add-Padding", "true")

	resp, err := c.http.Do(req)
	if err != nil {
		return result, fmt.Errorf("hibp query: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return result, fmt.Errorf("hibp query: unexpected status %s", resp.Status)
	}

	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		lineSuffix, countStr, ok := strings.Cut(strings.TrimSpace(scanner.Text()), ":")
		if !ok || !strings.EqualFold(lineSuffix, suffix) {
			continue
		}

		count, err := strconv.Atoi(strings.TrimSpace(countStr))
		if err != nil {
			return result, fmt.Errorf("hibp parse count: %w", err)
		}
		// padding entries carry a zero count
		if count == 0 {
			continue
		}
		return Result{Breached: true, Count: count}, nil
	}
	if err := scanner.Err(); err != nil {
		return result, fmt.Errorf("hibp read response: %w", err)
	}

	return result, nil
}

// Check is Query that fails open: any lookup failure is logged and reported
// as not breached.
func (c *HIBPClient) Check(ctx context.Context, password string) (Result, error) {
	if password == "" {
		return Result{}, nil
	}
	r, err := c.Query(ctx, password)
	if err != nil {
		c.logger.Warn(ctx, "breach lookup failed", "error", err.Error())
		return Result{}, nil
	}
	return r, nil
}
