package wordpress

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/iguv/weekly"
	"github.com/iguv/weekly/fragment"
)

// EndpointPath is the route of the site plugin that owns the weekly region.
const EndpointPath = "/wp-json/iguv/v1/weekly"

// Ensure publishers implement weekly.Publisher at compile time.
var (
	_ weekly.Publisher = (*EndpointPublisher)(nil)
	_ weekly.Publisher = (*PagePublisher)(nil)
	_ weekly.Publisher = (*ElementorPublisher)(nil)
)

// EndpointPublisher hands the fragment to the site plugin, which replaces
// the region server-side.
type EndpointPublisher struct {
	client *Client
}

// NewEndpointPublisher creates a new EndpointPublisher.
func NewEndpointPublisher(client *Client) *EndpointPublisher {
	return &EndpointPublisher{client: client}
}

// Publish posts {"html": fragment}.
func (p *EndpointPublisher) Publish(ctx context.Context, frag string) (*weekly.PublishResult, error) {
	html := strings.TrimSpace(frag)
	payload := map[string]string{"html": html}
	if err := p.client.post(ctx, EndpointPath, payload, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &weekly.PublishResult{
		Replacement: weekly.Replacement{Mode: weekly.ReplaceRemote},
		Target:      p.client.URL(EndpointPath),
		Bytes:       len(html),
	}, nil
}

// page is the subset of a REST page in edit context used here.
type page struct {
	ID      int `json:"id"`
	Content struct {
		Raw string `json:"raw"`
	} `json:"content"`
	Meta struct {
		ElementorData string `json:"_elementor_data"`
	} `json:"meta"`
}

func pagePath(id int) string {
	return fmt.Sprintf("/wp-json/wp/v2/pages/%d", id)
}

func readPage(ctx context.Context, c *Client, id int) (*page, error) {
	if id <= 0 {
		return nil, weekly.Errorf(weekly.EINVALID, "page ID required")
	}
	var pg page
	if err := c.get(ctx, pagePath(id)+"?context=edit", &pg); err != nil {
		return nil, err
	}
	return &pg, nil
}

// PagePublisher replaces the region inside the raw content of a page.
type PagePublisher struct {
	client *Client
	pageID int
	anchor weekly.Anchor
}

// NewPagePublisher creates a new PagePublisher.
func NewPagePublisher(client *Client, pageID int, anchor weekly.Anchor) *PagePublisher {
	return &PagePublisher{client: client, pageID: pageID, anchor: anchor}
}

// Publish reads the page, replaces the region and writes the content back.
func (p *PagePublisher) Publish(ctx context.Context, frag string) (*weekly.PublishResult, error) {
	pg, err := readPage(ctx, p.client, p.pageID)
	if err != nil {
		return nil, err
	}

	updated, r := fragment.Replace(pg.Content.Raw, p.anchor, frag)

	path := pagePath(p.pageID)
	if err := p.client.post(ctx, path, map[string]string{"content": updated}, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &weekly.PublishResult{
		Replacement: r,
		Target:      p.client.URL(path),
		Bytes:       len(updated),
	}, nil
}

// ElementorPublisher replaces the region inside the HTML widget of a page
// built with Elementor.
type ElementorPublisher struct {
	client *Client
	pageID int
	anchor weekly.Anchor
	force  bool
}

// NewElementorPublisher creates a new ElementorPublisher. With force set, a
// page without the anchor gets its first HTML widget overwritten.
func NewElementorPublisher(client *Client, pageID int, anchor weekly.Anchor, force bool) *ElementorPublisher {
	return &ElementorPublisher{client: client, pageID: pageID, anchor: anchor, force: force}
}

// Publish reads the Elementor data, replaces the region and writes the data
// back as page meta.
func (p *ElementorPublisher) Publish(ctx context.Context, frag string) (*weekly.PublishResult, error) {
	pg, err := readPage(ctx, p.client, p.pageID)
	if err != nil {
		return nil, err
	}
	if pg.Meta.ElementorData == "" {
		return nil, weekly.Errorf(weekly.ENOTFOUND, "page %d has no elementor data", p.pageID)
	}

	data, r, err := fragment.ReplaceElementor([]byte(pg.Meta.ElementorData), p.anchor, frag, p.force)
	if err != nil {
		return nil, err
	}

	path := pagePath(p.pageID)
	payload := map[string]any{
		"meta": map[string]string{"_elementor_data": string(data)},
	}
	if err := p.client.post(ctx, path, payload, http.StatusOK, http.StatusCreated); err != nil {
		return nil, err
	}
	return &weekly.PublishResult{
		Replacement: r,
		Target:      p.client.URL(path),
		Bytes:       len(data),
	}, nil
}
