// Package remote implements the pagination-aware client for the workspace
// service: collection queries, block children, page creation and archival.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/starford/raido/internal/models"
)

const (
	// ChildPageSize is the page_size for block-children fetches.
	ChildPageSize = 100
	// AppendChunkSize bounds how many child blocks one append call carries.
	AppendChunkSize = 10
	// DefaultTitleProperty is used when the collection schema does not
	// reveal which property is the title.
	DefaultTitleProperty = "Name"
)

// Client talks to the workspace service. All operations return *Error on
// failure, classified per the sync queue's taxonomy.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	logger     *slog.Logger

	titleProp string // resolved lazily per client, collections rarely change schema
}

// NewClient creates a Client for the service at baseURL.
func NewClient(baseURL, token string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
}

type queryResponse struct {
	Results    []models.RemoteDocument `json:"results"`
	NextCursor string                  `json:"next_cursor"`
	HasMore    bool                    `json:"has_more"`
}

// QueryCollection returns every document in the collection, following the
// pagination cursor until exhausted. Results missing an id or title fail the
// shape check and are discarded.
func (c *Client) QueryCollection(ctx context.Context, collectionID string) ([]models.RemoteDocument, error) {
	if collectionID == "" {
		return nil, validationError("collection id is required")
	}
	var out []models.RemoteDocument
	cursor := ""
	for {
		var page queryResponse
		err := c.do(ctx, http.MethodPost, "/v1/collections/"+collectionID+"/query",
			queryRequest{StartCursor: cursor}, &page)
		if err != nil {
			return nil, err
		}
		for _, doc := range page.Results {
			if doc.ID == "" || doc.Title == "" {
				c.logger.Warn("remote: discarding malformed result",
					slog.String("id", doc.ID))
				continue
			}
			out = append(out, doc)
		}
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

type childrenResponse struct {
	Results    []models.Block `json:"results"`
	NextCursor string         `json:"next_cursor"`
	HasMore    bool           `json:"has_more"`
}

// GetChildren fetches the child blocks of a block (or page), aggregating all
// pages before returning. Idempotent for a given id absent remote changes.
func (c *Client) GetChildren(ctx context.Context, blockID string) ([]models.Block, error) {
	if blockID == "" {
		return nil, validationError("block id is required")
	}
	var out []models.Block
	cursor := ""
	for {
		path := fmt.Sprintf("/v1/blocks/%s/children?page_size=%d", blockID, ChildPageSize)
		if cursor != "" {
			path += "&start_cursor=" + cursor
		}
		var page childrenResponse
		if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		out = append(out, page.Results...)
		if !page.HasMore || page.NextCursor == "" {
			return out, nil
		}
		cursor = page.NextCursor
	}
}

type collectionSchema struct {
	Properties map[string]struct {
		Type string `json:"type"`
	} `json:"properties"`
}

// resolveTitleProperty looks up which schema property is the collection's
// title field, falling back to DefaultTitleProperty when undiscoverable.
// Collections are not guaranteed to use a fixed title field name.
func (c *Client) resolveTitleProperty(ctx context.Context, collectionID string) string {
	if c.titleProp != "" {
		return c.titleProp
	}
	var schema collectionSchema
	if err := c.do(ctx, http.MethodGet, "/v1/collections/"+collectionID, nil, &schema); err != nil {
		c.logger.Warn("remote: schema lookup failed, using default title property",
			slog.String("error", err.Error()))
		return DefaultTitleProperty
	}
	for name, prop := range schema.Properties {
		if prop.Type == "title" {
			c.titleProp = name
			return name
		}
	}
	return DefaultTitleProperty
}

type titleProperty struct {
	Title []models.RichTextSpan `json:"title"`
}

type createPageRequest struct {
	Parent struct {
		CollectionID string `json:"collection_id"`
	} `json:"parent"`
	Properties map[string]titleProperty `json:"properties"`
	Children   []models.Block           `json:"children,omitempty"`
}

// CreateDocument creates a page in the collection with the given title and
// initial blocks. Blocks beyond the first append chunk are sent in follow-up
// append calls to respect payload limits.
func (c *Client) CreateDocument(ctx context.Context, collectionID, title string, blocks []models.Block) (string, error) {
	if title == "" {
		return "", validationError("title is required")
	}
	prop := c.resolveTitleProperty(ctx, collectionID)

	req := createPageRequest{
		Properties: map[string]titleProperty{
			prop: {Title: []models.RichTextSpan{{Text: title}}},
		},
	}
	req.Parent.CollectionID = collectionID
	if len(blocks) > AppendChunkSize {
		req.Children = blocks[:AppendChunkSize]
	} else {
		req.Children = blocks
	}

	var resp struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/pages", req, &resp); err != nil {
		return "", err
	}
	if len(blocks) > AppendChunkSize {
		if err := c.AppendChildren(ctx, resp.ID, blocks[AppendChunkSize:]); err != nil {
			return resp.ID, err
		}
	}
	return resp.ID, nil
}

// UpdateTitle rewrites the page's title property.
func (c *Client) UpdateTitle(ctx context.Context, id, title string) error {
	if title == "" {
		return validationError("title is required")
	}
	prop := c.titleProp
	if prop == "" {
		prop = DefaultTitleProperty
	}
	body := map[string]any{
		"properties": map[string]titleProperty{
			prop: {Title: []models.RichTextSpan{{Text: title}}},
		},
	}
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+id, body, nil)
}

// AppendChildren appends blocks to a page, chunked to AppendChunkSize per
// call to stay inside payload and rate limits.
func (c *Client) AppendChildren(ctx context.Context, id string, blocks []models.Block) error {
	for len(blocks) > 0 {
		n := len(blocks)
		if n > AppendChunkSize {
			n = AppendChunkSize
		}
		body := map[string]any{"children": blocks[:n]}
		if err := c.do(ctx, http.MethodPatch, "/v1/blocks/"+id+"/children", body, nil); err != nil {
			return err
		}
		blocks = blocks[n:]
	}
	return nil
}

// ClearChildren fetches the page's current children and deletes them in
// reverse order, so no delete ever references an already-removed sibling.
func (c *Client) ClearChildren(ctx context.Context, id string) error {
	children, err := c.GetChildren(ctx, id)
	if err != nil {
		return err
	}
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].ID == "" {
			continue
		}
		if err := c.do(ctx, http.MethodDelete, "/v1/blocks/"+children[i].ID, nil, nil); err != nil {
			return err
		}
	}
	return nil
}

// ArchiveDocument soft-deletes a page. The service has no hard delete.
func (c *Client) ArchiveDocument(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPatch, "/v1/pages/"+id, map[string]any{"archived": true}, nil)
}

// do executes one JSON request. Failures are classified: transport errors
// are network-class; non-2xx responses are API-class with the message
// extracted from the body when the service supplies one.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return validationError("encode request: " + err.Error())
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return validationError("build request: " + err.Error())
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return networkError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return networkError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		var errResp struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Message != "" {
			msg = errResp.Message
		}
		return &Error{Class: ClassAPI, Status: resp.StatusCode, Message: msg}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return &Error{Class: ClassAPI, Status: resp.StatusCode, Message: "decode response: " + err.Error()}
		}
	}
	return nil
}
