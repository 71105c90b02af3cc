// internal/common/webpage/fetcher.go
package webpage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/RaDu88253/LocalCommerceAi/internal/common/errors"
	"golang.org/x/net/html"
)

// maxBodyBytes caps how much of a page we read. Product pages don't need
// more than this to answer a stock question.
const maxBodyBytes = 1 << 20

// maxTextRunes caps the extracted text passed downstream to the model.
const maxTextRunes = 8000

// Fetcher retrieves a page and reduces it to visible text.
type Fetcher interface {
	FetchText(ctx context.Context, pageURL string) (string, error)
}

// Client fetches pages with a browser user agent so storefronts that block
// default Go clients still answer.
type Client struct {
	httpClient *http.Client
	userAgent  string
}

func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		userAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36",
	}
}

// FetchText downloads pageURL and returns its visible text, truncated.
func (c *Client) FetchText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", apperrors.NewPageFetchFailedError(pageURL, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewPageFetchFailedError(pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apperrors.NewPageFetchFailedError(pageURL, fmt.Errorf("status %d", resp.StatusCode))
	}

	text, err := ExtractText(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", apperrors.NewPageFetchFailedError(pageURL, err)
	}
	return text, nil
}

// ExtractText walks an HTML document and collects visible text, skipping
// script and style subtrees.
func ExtractText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "iframe":
				return
			}
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	text := sb.String()
	runes := []rune(text)
	if len(runes) > maxTextRunes {
		text = string(runes[:maxTextRunes])
	}
	return text, nil
}
