package hub

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type ModelInfo struct {
	ID           string     `json:"id"`
	Author       string     `json:"author,omitempty"`
	SHA          string     `json:"sha,omitempty"`
	LastModified *time.Time `json:"lastModified,omitempty"`
	CreatedAt    *time.Time `json:"createdAt,omitempty"`
	Private      bool       `json:"private"`
	Gated        any        `json:"gated,omitempty"`
	Downloads    int        `json:"downloads"`
	Likes        int        `json:"likes"`
	LibraryName  string     `json:"library_name,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	PipelineTag  string     `json:"pipeline_tag,omitempty"`
}

type ModelFilter struct {
	Search string
	Author string
	// Limit caps the number of models returned. Zero fetches the first page
	// the hub hands back and stops.
	Limit int
}

func (f ModelFilter) query() url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if f.Author != "" {
		q.Set("author", f.Author)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}

// ListModels lists public models, following the hub's Link pagination until
// the filter's limit is reached.
func (c *Client) ListModels(ctx context.Context, filter ModelFilter) ([]ModelInfo, error) {
	next, err := c.resolve("/api/models", filter.query())
	if err != nil {
		return nil, err
	}

	models := make([]ModelInfo, 0)
	for next != "" {
		var page []ModelInfo
		header, err := c.sendRequest(ctx, http.MethodGet, next, &page)
		if err != nil {
			return nil, err
		}
		models = append(models, page...)

		if filter.Limit <= 0 || len(models) >= filter.Limit || len(page) == 0 {
			break
		}

		link := parseNextLink(header.Get("Link"))
		if link == "" {
			break
		}
		if next, err = c.resolve(link, nil); err != nil {
			return nil, err
		}
	}

	if filter.Limit > 0 && len(models) > filter.Limit {
		models = models[:filter.Limit]
	}
	return models, nil
}

// parseNextLink extracts the rel="next" target from an RFC 8288 Link header.
func parseNextLink(header string) string {
	for _, part := range strings.Split(header, ",") {
		segments := strings.Split(part, ";")
		if len(segments) < 2 {
			continue
		}
		target := strings.TrimSpace(segments[0])
		if !strings.HasPrefix(target, "<") || !strings.HasSuffix(target, ">") {
			continue
		}
		for _, param := range segments[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
				continue
			}
			for _, rel := range strings.Fields(strings.Trim(strings.TrimSpace(value), `"`)) {
				if strings.EqualFold(rel, "next") {
					return strings.TrimSuffix(strings.TrimPrefix(target, "<"), ">")
				}
			}
		}
	}
	return ""
}
