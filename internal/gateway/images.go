package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipe-finder/internal/recipe"

	"github.com/PuerkitoBio/goquery"
)

// ImageResolver finds an image reference for a recipe. An empty result with
// a nil error means no image was found.
type ImageResolver interface {
	ResolveImage(ctx context.Context, r recipe.Recipe) (string, error)
}

// PageImageResolver looks the recipe name up on an HTML search page and uses
// the page's og:image, falling back to the first <img>.
type PageImageResolver struct {
	searchURL  string
	httpClient *http.Client
}

// NewPageImageResolver creates a resolver. searchURL is the search page URL
// the escaped recipe name is appended to, e.g. "https://example.com/busca?q=".
func NewPageImageResolver(searchURL string) *PageImageResolver {
	return &PageImageResolver{
		searchURL:  searchURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// ResolveImage implements ImageResolver.
func (p *PageImageResolver) ResolveImage(ctx context.Context, r recipe.Recipe) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.searchURL+url.QueryEscape(r.Name), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch image page: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse image page: %w", err)
	}

	src, _ := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if strings.TrimSpace(src) == "" {
		src, _ = doc.Find("img[src]").First().Attr("src")
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return "", nil
	}

	ref, err := url.Parse(src)
	if err != nil {
		return "", fmt.Errorf("invalid image reference %q: %w", src, err)
	}
	return resp.Request.URL.ResolveReference(ref).String(), nil
}
