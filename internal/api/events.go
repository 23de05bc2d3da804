package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"

	"github.com/wafflestudio/23-5-team7-web/pkg/contracts/events"
)

type ListEventsParams struct {
	Status events.EventStatus // "" = todos
	Liked  bool
	Cursor string
	Limit  int
}

// ListEvents busca uma página de eventos. Aceita as formas
// {events|items|data: [...], next_cursor, has_more} e um array puro.
func (c *Client) ListEvents(ctx context.Context, p ListEventsParams) (events.ListEventsResult, error) {
	q := url.Values{}
	if p.Status != "" {
		q.Set("status", string(p.Status))
	}
	if p.Liked {
		q.Set("liked", "true")
	}
	if p.Cursor != "" {
		q.Set("cursor", p.Cursor)
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}

	var raw json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/events", q, nil, &raw); err != nil {
		return events.ListEventsResult{}, err
	}
	return decodeEventList(raw)
}

func decodeEventList(raw json.RawMessage) (events.ListEventsResult, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return events.ListEventsResult{}, nil
	}
	if raw[0] == '[' {
		var list []events.Event
		if err := json.Unmarshal(raw, &list); err != nil {
			return events.ListEventsResult{}, fmt.Errorf("decode event list: %w", err)
		}
		return events.ListEventsResult{Events: list}, nil
	}

	var obj struct {
		Events     []events.Event `json:"events"`
		Items      []events.Event `json:"items"`
		Data       []events.Event `json:"data"`
		NextCursor *string        `json:"next_cursor"`
		HasMore    *bool          `json:"has_more"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return events.ListEventsResult{}, fmt.Errorf("decode event list: %w", err)
	}
	out := events.ListEventsResult{HasMore: obj.HasMore}
	switch {
	case obj.Events != nil:
		out.Events = obj.Events
	case obj.Items != nil:
		out.Events = obj.Items
	default:
		out.Events = obj.Data
	}
	if obj.NextCursor != nil {
		out.NextCursor = *obj.NextCursor
	}
	return out, nil
}

func (c *Client) GetEvent(ctx context.Context, eventID string) (events.Event, error) {
	var ev events.Event
	err := c.doJSON(ctx, http.MethodGet, "/api/events/"+pathEscape(eventID), nil, nil, &ev)
	return ev, err
}

// File é um arquivo anexado ao multipart de criação de evento
type File struct {
	Name    string
	Content io.Reader
}

// CreateEvent envia multipart/form-data: "data" (JSON) + "image_files" (N arquivos).
// Uma resposta sem event_id indica que o POST caiu no handler errado.
func (c *Client) CreateEvent(ctx context.Context, req events.CreateEventRequest, files []File) (events.CreateEventResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	data, err := json.Marshal(req)
	if err != nil {
		return events.CreateEventResponse{}, err
	}
	if err := mw.WriteField("data", string(data)); err != nil {
		return events.CreateEventResponse{}, err
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("image_files", f.Name)
		if err != nil {
			return events.CreateEventResponse{}, err
		}
		if _, err := io.Copy(part, f.Content); err != nil {
			return events.CreateEventResponse{}, fmt.Errorf("attach %s: %w", f.Name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return events.CreateEventResponse{}, err
	}

	hreq, err := c.newRequest(ctx, http.MethodPost, "/api/events", nil, &buf, mw.FormDataContentType())
	if err != nil {
		return events.CreateEventResponse{}, err
	}
	var out events.CreateEventResponse
	if err := c.do(hreq, &out); err != nil {
		return events.CreateEventResponse{}, err
	}
	if out.EventID == "" {
		return events.CreateEventResponse{}, fmt.Errorf("create event: response has no event_id (server returned a list instead)")
	}
	return out, nil
}

// UpdateEventStatus faz o PATCH e relê o evento, já que o backend pode responder sem corpo
func (c *Client) UpdateEventStatus(ctx context.Context, eventID string, status events.EventStatus) (events.Event, error) {
	body := events.UpdateEventStatusRequest{Status: status}
	if err := c.doJSON(ctx, http.MethodPatch, "/api/events/"+pathEscape(eventID)+"/status", nil, body, nil); err != nil {
		return events.Event{}, err
	}
	return c.GetEvent(ctx, eventID)
}

// SettleEvent marca as opções vencedoras e relê o evento
func (c *Client) SettleEvent(ctx context.Context, eventID string, winners []string) (events.Event, error) {
	body := events.SettleEventRequest{WinnerOptionIDs: winners}
	if err := c.doJSON(ctx, http.MethodPost, "/api/events/"+pathEscape(eventID)+"/settle", nil, body, nil); err != nil {
		return events.Event{}, err
	}
	return c.GetEvent(ctx, eventID)
}

func (c *Client) LikeEvent(ctx context.Context, eventID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/events/"+pathEscape(eventID)+"/likes", nil, nil, nil)
}

func (c *Client) UnlikeEvent(ctx context.Context, eventID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/events/"+pathEscape(eventID)+"/likes", nil, nil, nil)
}

// CreateBet registra a aposta. O cliente nunca calcula odds ou payout localmente.
func (c *Client) CreateBet(ctx context.Context, eventID string, req events.CreateBetRequest) (events.CreateBetResponse, error) {
	var out events.CreateBetResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/events/"+pathEscape(eventID)+"/bets", nil, req, &out)
	return out, err
}
