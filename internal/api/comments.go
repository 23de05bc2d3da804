package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type ListCommentsParams struct {
	Cursor string
	Limit  int
}

func (c *Client) ListComments(ctx context.Context, eventID string, p ListCommentsParams) (events.ListCommentsResult, error) {
	q := url.Values{}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	var out events.ListCommentsResult
	err := c.doJSON(ctx, http.MethodGet, "/api/events/"+pathEscape(eventID)+"/comments", q, nil, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, eventID, content string) (events.Comment, error) {
	var out events.Comment
	err := c.doJSON(ctx, http.MethodPost, "/api/events/"+pathEscape(eventID)+"/comments", nil, events.CommentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, commentID, content string) (events.Comment, error) {
	var out events.Comment
	err := c.doJSON(ctx, http.MethodPatch, "/api/comments/"+pathEscape(commentID), nil, events.CommentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, commentID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/comments/"+pathEscape(commentID), nil, nil, nil)
}
