package events

type Comment struct {
	CommentID string  `json:"comment_id"`
	EventID   string  `json:"event_id"`
	UserID    string  `json:"user_id"`
	Nickname  string  `json:"nickname"`
	Content   string  `json:"content"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt *string `json:"updated_at"`
}

type ListCommentsResult struct {
	Comments   []Comment `json:"comments"`
	NextCursor *string   `json:"next_cursor"`
	HasMore    bool      `json:"has_more"`
}

type CommentRequest struct {
	Content string `json:"content"`
}
