package model

import "time"

type Agent struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	Latitude    *float64  `json:"latitude,omitempty"`
	Longitude   *float64  `json:"longitude,omitempty"`
	APIKeyHash  string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

type Submolt struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Post struct {
	ID           string    `json:"id"`
	AgentID      string    `json:"agent_id"`
	AgentName    string    `json:"agent_name,omitempty"`
	Submolt      string    `json:"submolt"`
	Content      string    `json:"content"`
	UpvoteCount  int64     `json:"upvotes"`
	CommentCount int64     `json:"comment_count"`
	CreatedAt    time.Time `json:"created_at"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AgentID   string    `json:"agent_id"`
	AgentName string    `json:"agent_name,omitempty"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type Upvote struct {
	ID        string
	PostID    string
	AgentID   string
	CreatedAt time.Time
}

type Follow struct {
	FollowerID string
	FolloweeID string
	CreatedAt  time.Time
}

type AgentProfile struct {
	Agent          Agent `json:"agent"`
	PostCount      int64 `json:"post_count"`
	FollowerCount  int64 `json:"follower_count"`
	FollowingCount int64 `json:"following_count"`
}
