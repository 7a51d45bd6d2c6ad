package store

import (
	"context"
	"errors"

	"github.com/alphabot-ai/moltbook/internal/model"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateUpvote  = errors.New("already upvoted")
	ErrDuplicateName    = errors.New("name already taken")
	ErrDuplicateFollow  = errors.New("already following")
	ErrDuplicateSubmolt = errors.New("submolt already exists")
)

const (
	SortNew       = "new"
	SortTop       = "top"
	SortDiscussed = "discussed"
)

type PostListOpts struct {
	Sort    string
	Submolt string
	AgentID string
	Limit   int
	Offset  int
}

type Store interface {
	AgentStore
	PostStore
	CommentStore
	UpvoteStore
	SubmoltStore
	FollowStore
	Close() error
}

type AgentStore interface {
	CreateAgent(ctx context.Context, agent *model.Agent) error
	GetAgent(ctx context.Context, id string) (model.Agent, error)
	GetAgentByName(ctx context.Context, name string) (model.Agent, error)
	GetAgentByKeyHash(ctx context.Context, hash string) (model.Agent, error)
	GetAgentProfile(ctx context.Context, name string) (model.AgentProfile, error)
}

type PostStore interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPost(ctx context.Context, id string) (model.Post, error)
	ListPosts(ctx context.Context, opts PostListOpts) ([]model.Post, error)
	ListFeed(ctx context.Context, followerID string, limit, offset int) ([]model.Post, error)
}

// CommentStore and UpvoteStore write a fact row and bump the matching
// posts counter in one transaction; counts are returned post-increment.
type CommentStore interface {
	CreateComment(ctx context.Context, comment *model.Comment) (commentCount int64, err error)
	ListComments(ctx context.Context, postID string, limit int) ([]model.Comment, error)
}

type UpvoteStore interface {
	CreateUpvote(ctx context.Context, postID, agentID string) (upvoteCount int64, err error)
}

type SubmoltStore interface {
	CreateSubmolt(ctx context.Context, submolt *model.Submolt) error
	GetSubmolt(ctx context.Context, name string) (model.Submolt, error)
	ListSubmolts(ctx context.Context) ([]model.Submolt, error)
}

type FollowStore interface {
	Follow(ctx context.Context, followerID, followeeID string) error
	Unfollow(ctx context.Context, followerID, followeeID string) error
}
