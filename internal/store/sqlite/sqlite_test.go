package sqlite

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alphabot-ai/moltbook/internal/model"
	"github.com/alphabot-ai/moltbook/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	st, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return st
}

func createAgent(t *testing.T, st *Store, name string) model.Agent {
	t.Helper()
	agent := model.Agent{Name: name, APIKeyHash: "hash-" + name}
	if err := st.CreateAgent(context.Background(), &agent); err != nil {
		t.Fatalf("create agent %s: %v", name, err)
	}
	return agent
}

func createPost(t *testing.T, st *Store, agentID string) model.Post {
	t.Helper()
	post := model.Post{AgentID: agentID, Submolt: "m/general", Content: "hello molt"}
	if err := st.CreatePost(context.Background(), &post); err != nil {
		t.Fatalf("create post: %v", err)
	}
	return post
}

func countRows(t *testing.T, st *Store, table, postID string) int64 {
	t.Helper()
	var n int64
	if err := st.db.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE post_id = ?`, postID).Scan(&n); err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}

func TestAgentLifecycle(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	lat := 52.52
	agent := model.Agent{Name: "ByteBuilder", City: "Berlin", Country: "Germany", Latitude: &lat, APIKeyHash: "h1"}
	if err := st.CreateAgent(ctx, &agent); err != nil {
		t.Fatalf("create agent: %v", err)
	}
	if agent.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := st.GetAgentByName(ctx, "bytebuilder")
	if err != nil {
		t.Fatalf("get by name: %v", err)
	}
	if got.ID != agent.ID || got.City != "Berlin" || got.Latitude == nil || *got.Latitude != lat || got.Longitude != nil {
		t.Fatalf("unexpected agent %+v", got)
	}

	byKey, err := st.GetAgentByKeyHash(ctx, "h1")
	if err != nil || byKey.ID != agent.ID {
		t.Fatalf("get by key hash: %+v %v", byKey, err)
	}

	dup := model.Agent{Name: "BYTEBUILDER", APIKeyHash: "h2"}
	if err := st.CreateAgent(ctx, &dup); !errors.Is(err, store.ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}

	if _, err := st.GetAgent(ctx, "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDefaultSubmolts(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()

	submolts, err := st.ListSubmolts(context.Background())
	if err != nil {
		t.Fatalf("list submolts: %v", err)
	}
	want := map[string]bool{"m/general": true, "m/showandtell": true, "m/shipping": true, "m/agentskills": true}
	if len(submolts) != len(want) {
		t.Fatalf("expected %d submolts, got %d", len(want), len(submolts))
	}
	for _, sm := range submolts {
		if !want[sm.Name] {
			t.Fatalf("unexpected submolt %q", sm.Name)
		}
	}

	custom := model.Submolt{Name: "m/gopher", DisplayName: "Gopher"}
	if err := st.CreateSubmolt(context.Background(), &custom); err != nil {
		t.Fatalf("create submolt: %v", err)
	}
	if err := st.CreateSubmolt(context.Background(), &model.Submolt{Name: "m/gopher", DisplayName: "x"}); !errors.Is(err, store.ErrDuplicateSubmolt) {
		t.Fatalf("expected ErrDuplicateSubmolt, got %v", err)
	}
}

func TestCreatePostUnknownSubmolt(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	agent := createAgent(t, st, "poster")

	post := model.Post{AgentID: agent.ID, Submolt: "m/nowhere", Content: "hi"}
	if err := st.CreatePost(context.Background(), &post); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpvoteCountMatchesFacts(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	author := createAgent(t, st, "author")
	post := createPost(t, st, author.ID)

	const voters = 7
	for i := 0; i < voters; i++ {
		voter := createAgent(t, st, fmt.Sprintf("voter%d", i))
		count, err := st.CreateUpvote(ctx, post.ID, voter.ID)
		if err != nil {
			t.Fatalf("upvote %d: %v", i, err)
		}
		if count != int64(i+1) {
			t.Fatalf("expected count %d, got %d", i+1, count)
		}
	}

	got, err := st.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.UpvoteCount != voters {
		t.Fatalf("expected upvote_count %d, got %d", voters, got.UpvoteCount)
	}
	if n := countRows(t, st, "upvotes", post.ID); n != voters {
		t.Fatalf("expected %d upvote rows, got %d", voters, n)
	}
}

func TestDuplicateUpvoteRejected(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	author := createAgent(t, st, "author")
	voter := createAgent(t, st, "voter")
	post := createPost(t, st, author.ID)

	first, err := st.CreateUpvote(ctx, post.ID, voter.ID)
	if err != nil || first != 1 {
		t.Fatalf("first upvote: count=%d err=%v", first, err)
	}
	if _, err := st.CreateUpvote(ctx, post.ID, voter.ID); !errors.Is(err, store.ErrDuplicateUpvote) {
		t.Fatalf("expected ErrDuplicateUpvote, got %v", err)
	}

	got, _ := st.GetPost(ctx, post.ID)
	if got.UpvoteCount != 1 {
		t.Fatalf("duplicate changed count: %d", got.UpvoteCount)
	}
	if n := countRows(t, st, "upvotes", post.ID); n != 1 {
		t.Fatalf("expected 1 upvote row, got %d", n)
	}
}

func TestUpvoteUnknownPost(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	voter := createAgent(t, st, "voter")

	if _, err := st.CreateUpvote(context.Background(), "no-such-post", voter.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentUpvotesSameAgent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	author := createAgent(t, st, "author")
	voter := createAgent(t, st, "voter")
	post := createPost(t, st, author.ID)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var ok, dup int
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := st.CreateUpvote(ctx, post.ID, voter.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, store.ErrDuplicateUpvote):
				dup++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if ok != 1 || dup != 9 {
		t.Fatalf("expected 1 success and 9 conflicts, got %d/%d", ok, dup)
	}
	got, _ := st.GetPost(ctx, post.ID)
	if got.UpvoteCount != 1 || countRows(t, st, "upvotes", post.ID) != 1 {
		t.Fatalf("count drifted: %d", got.UpvoteCount)
	}
}

func TestCommentCountMatchesFacts(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	author := createAgent(t, st, "author")
	commenter := createAgent(t, st, "commenter")
	post := createPost(t, st, author.ID)

	// Same agent, same text: every comment counts.
	for i := 1; i <= 4; i++ {
		c := model.Comment{PostID: post.ID, AgentID: commenter.ID, Content: "same words"}
		count, err := st.CreateComment(ctx, &c)
		if err != nil {
			t.Fatalf("comment %d: %v", i, err)
		}
		if count != int64(i) || c.ID == "" {
			t.Fatalf("comment %d: count=%d id=%q", i, count, c.ID)
		}
	}

	got, _ := st.GetPost(ctx, post.ID)
	if got.CommentCount != 4 || countRows(t, st, "comments", post.ID) != 4 {
		t.Fatalf("expected 4 comments, post says %d", got.CommentCount)
	}

	comments, err := st.ListComments(ctx, post.ID, 0)
	if err != nil {
		t.Fatalf("list comments: %v", err)
	}
	if len(comments) != 4 || comments[0].AgentName != "commenter" {
		t.Fatalf("unexpected comments %+v", comments)
	}
}

func TestRecordFactRollsBackWhenCounterMisses(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	author := createAgent(t, st, "author")
	post := createPost(t, st, author.ID)

	_, err := st.recordFact(ctx,
		statement{
			query: `INSERT INTO comments (id, post_id, agent_id, content, created_at) VALUES (?, ?, ?, ?, ?)`,
			args:  []any{"c-orphan", post.ID, author.ID, "x", formatTime(time.Now())},
		},
		statement{
			query: `UPDATE posts SET comment_count = comment_count + 1 WHERE id = ? RETURNING comment_count`,
			args:  []any{"some-other-post"},
		},
	)
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := countRows(t, st, "comments", post.ID); n != 0 {
		t.Fatalf("fact insert leaked: %d rows", n)
	}
}

func TestListPostsSorting(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	author := createAgent(t, st, "author")
	voter := createAgent(t, st, "voter")

	var ids []string
	for i, submolt := range []string{"m/general", "m/shipping", "m/general"} {
		p := model.Post{AgentID: author.ID, Submolt: submolt, Content: fmt.Sprintf("post %d", i), CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := st.CreatePost(ctx, &p); err != nil {
			t.Fatalf("create post: %v", err)
		}
		ids = append(ids, p.ID)
	}
	if _, err := st.CreateUpvote(ctx, ids[0], voter.ID); err != nil {
		t.Fatalf("upvote: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := st.CreateComment(ctx, &model.Comment{PostID: ids[1], AgentID: voter.ID, Content: "c"}); err != nil {
			t.Fatalf("comment: %v", err)
		}
	}

	cases := []struct {
		opts  store.PostListOpts
		first string
		n     int
	}{
		{store.PostListOpts{Sort: store.SortNew}, ids[2], 3},
		{store.PostListOpts{Sort: store.SortTop}, ids[0], 3},
		{store.PostListOpts{Sort: store.SortDiscussed}, ids[1], 3},
		{store.PostListOpts{Submolt: "m/general"}, ids[2], 2},
		{store.PostListOpts{Limit: 1, Offset: 1}, ids[1], 1},
	}
	for _, tc := range cases {
		posts, err := st.ListPosts(ctx, tc.opts)
		if err != nil {
			t.Fatalf("list %+v: %v", tc.opts, err)
		}
		if len(posts) != tc.n || posts[0].ID != tc.first {
			t.Fatalf("list %+v: got %d posts, first %q", tc.opts, len(posts), posts[0].ID)
		}
	}

	got, _ := st.GetPost(ctx, ids[0])
	if !got.CreatedAt.Equal(base) || got.AgentName != "author" {
		t.Fatalf("unexpected post %+v", got)
	}
}

func TestFollowAndFeed(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	ctx := context.Background()

	reader := createAgent(t, st, "reader")
	followed := createAgent(t, st, "followed")
	other := createAgent(t, st, "other")
	mine := createPost(t, st, followed.ID)
	createPost(t, st, other.ID)

	if err := st.Follow(ctx, reader.ID, followed.ID); err != nil {
		t.Fatalf("follow: %v", err)
	}
	if err := st.Follow(ctx, reader.ID, followed.ID); !errors.Is(err, store.ErrDuplicateFollow) {
		t.Fatalf("expected ErrDuplicateFollow, got %v", err)
	}
	if err := st.Follow(ctx, reader.ID, "ghost"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	feed, err := st.ListFeed(ctx, reader.ID, 10, 0)
	if err != nil {
		t.Fatalf("feed: %v", err)
	}
	if len(feed) != 1 || feed[0].ID != mine.ID {
		t.Fatalf("unexpected feed %+v", feed)
	}

	profile, err := st.GetAgentProfile(ctx, "followed")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.PostCount != 1 || profile.FollowerCount != 1 || profile.FollowingCount != 0 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	if err := st.Unfollow(ctx, reader.ID, followed.ID); err != nil {
		t.Fatalf("unfollow: %v", err)
	}
	if err := st.Unfollow(ctx, reader.ID, followed.ID); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	st := newTestStore(t)
	defer st.Close()
	if err := applySchema(st.db); err != nil {
		t.Fatalf("reapply schema: %v", err)
	}
	var version int
	if err := st.db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&version); err != nil {
		t.Fatalf("version: %v", err)
	}
	if version != len(migrations) {
		t.Fatalf("expected version %d, got %d", len(migrations), version)
	}
}
