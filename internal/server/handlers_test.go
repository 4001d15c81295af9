package server

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	s := testServer(t)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Status string `json:"status"`
		Checks struct {
			Database string `json:"database"`
		} `json:"checks"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks.Database)
}

func TestLoginFlow(t *testing.T) {
	s := testServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/auth/login", "", map[string]string{
		"wallet_address": walletAlice,
		"username":       "alice",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode, "first login creates the account")

	var body struct {
		Token string `json:"token"`
		New   bool   `json:"new"`
	}
	decode(t, resp, &body)
	assert.True(t, body.New)
	assert.NotEmpty(t, body.Token)

	// Second login with the same wallet is a plain 200.
	resp = doJSON(t, s, "POST", "/api/v1/auth/login", "", map[string]string{
		"wallet_address": walletAlice,
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLoginRejectsBadWallet(t *testing.T) {
	s := testServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/auth/login", "", map[string]string{
		"wallet_address": "0xnope",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCurrentUser(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	resp := doJSON(t, s, "GET", "/api/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
		ProfileCompletion int `json:"profile_completion"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "alice", body.User.Username)
	// Only the username is filled in at this point.
	assert.Equal(t, 25, body.ProfileCompletion)
}

func TestCreateAndGetPost(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	resp := doJSON(t, s, "POST", "/api/v1/posts", token, map[string]string{
		"title":   "hello liber",
		"content": "first post #gm",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var post struct {
		ID    uint   `json:"id"`
		Title string `json:"title"`
	}
	decode(t, resp, &post)
	assert.Equal(t, "hello liber", post.Title)

	resp = doJSON(t, s, "GET", "/api/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var posts []struct {
		ID uint `json:"id"`
	}
	decode(t, resp, &posts)
	assert.Len(t, posts, 1)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	s := testServer(t)

	resp := doJSON(t, s, "POST", "/api/v1/posts", "", map[string]string{
		"title": "x", "content": "y",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVoteFlow(t *testing.T) {
	s := testServer(t)
	authorToken, _ := login(t, s, walletAlice, "alice")
	voterToken, _ := login(t, s, walletBob, "bob")

	resp := doJSON(t, s, "POST", "/api/v1/posts", authorToken, map[string]string{
		"title": "votable", "content": "vote me",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var post struct {
		ID uint `json:"id"`
	}
	decode(t, resp, &post)

	// First upvote.
	resp = doJSON(t, s, "POST", "/api/v1/posts/1/vote", voterToken, map[string]string{
		"direction": "up",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var result struct {
		MyVote    string `json:"my_vote"`
		Upvotes   int    `json:"upvotes"`
		Downvotes int    `json:"downvotes"`
	}
	decode(t, resp, &result)
	assert.Equal(t, "up", result.MyVote)
	assert.Equal(t, 1, result.Upvotes)

	// Switch to downvote.
	resp = doJSON(t, s, "POST", "/api/v1/posts/1/vote", voterToken, map[string]string{
		"direction": "down",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &result)
	assert.Equal(t, "down", result.MyVote)
	assert.Equal(t, 0, result.Upvotes)
	assert.Equal(t, 1, result.Downvotes)

	// Toggle off.
	resp = doJSON(t, s, "POST", "/api/v1/posts/1/vote", voterToken, map[string]string{
		"direction": "down",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &result)
	assert.Empty(t, result.MyVote)
	assert.Equal(t, 0, result.Downvotes)
}

func TestVoteInvalidDirection(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	resp := doJSON(t, s, "POST", "/api/v1/posts", token, map[string]string{
		"title": "t", "content": "c",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "POST", "/api/v1/posts/1/vote", token, map[string]string{
		"direction": "sideways",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestVoteMissingPost(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	resp := doJSON(t, s, "POST", "/api/v1/posts/999/vote", token, map[string]string{
		"direction": "up",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestShareFlow(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	resp := doJSON(t, s, "POST", "/api/v1/posts", token, map[string]string{
		"title": "sharable", "content": "share me",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	for range [2]struct{}{} {
		resp = doJSON(t, s, "POST", "/api/v1/posts/1/share", token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var result struct {
		Shares int `json:"shares"`
	}
	decode(t, resp, &result)
	assert.Equal(t, 2, result.Shares)
}

func TestCommentFlow(t *testing.T) {
	s := testServer(t)
	authorToken, _ := login(t, s, walletAlice, "alice")
	commenterToken, _ := login(t, s, walletBob, "bob")

	resp := doJSON(t, s, "POST", "/api/v1/posts", authorToken, map[string]string{
		"title": "commentable", "content": "talk to me",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "POST", "/api/v1/posts/1/comments", commenterToken, map[string]string{
		"content": "great post",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "GET", "/api/v1/posts/1/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var comments []struct {
		Content string `json:"content"`
	}
	decode(t, resp, &comments)
	require.Len(t, comments, 1)
	assert.Equal(t, "great post", comments[0].Content)

	// The commenter's profile lists the comment too.
	resp = doJSON(t, s, "GET", "/api/v1/users/2/comments", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &comments)
	require.Len(t, comments, 1)

	// The comment produced a notification for the author.
	resp = doJSON(t, s, "GET", "/api/v1/notifications", authorToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var notifications []struct {
		ID   uint   `json:"id"`
		Kind string `json:"kind"`
	}
	decode(t, resp, &notifications)
	require.Len(t, notifications, 1)
	assert.Equal(t, "comment", notifications[0].Kind)

	// Read state round trips through the read and unread endpoints.
	notifPath := fmt.Sprintf("/api/v1/notifications/%d", notifications[0].ID)
	resp = doJSON(t, s, "PUT", notifPath+"/read", authorToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var unread struct {
		Unread int64 `json:"unread"`
	}
	resp = doJSON(t, s, "GET", "/api/v1/notifications/unread-count", authorToken, nil)
	decode(t, resp, &unread)
	assert.Zero(t, unread.Unread)

	resp = doJSON(t, s, "PUT", notifPath+"/unread", authorToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, s, "GET", "/api/v1/notifications/unread-count", authorToken, nil)
	decode(t, resp, &unread)
	assert.Equal(t, int64(1), unread.Unread)
}

func TestTrendingEndpoint(t *testing.T) {
	s := testServer(t)
	token, _ := login(t, s, walletAlice, "alice")

	for _, title := range []string{"one", "two", "three"} {
		resp := doJSON(t, s, "POST", "/api/v1/posts", token, map[string]string{
			"title": title, "content": "body of " + title,
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := doJSON(t, s, "GET", "/api/v1/posts/trending", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ranked []struct {
		Score float64 `json:"score"`
		Post  struct {
			ID uint `json:"id"`
		} `json:"post"`
	}
	decode(t, resp, &ranked)
	assert.Len(t, ranked, 3)
}

func TestFollowFlow(t *testing.T) {
	s := testServer(t)
	aliceToken, _ := login(t, s, walletAlice, "alice")
	bobToken, bobID := login(t, s, walletBob, "bob")
	_ = bobToken

	resp := doJSON(t, s, "POST", "/api/v1/users/2/follow", aliceToken, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, s, "GET", "/api/v1/users/2/followers", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var followers []struct {
		Username string `json:"username"`
	}
	decode(t, resp, &followers)
	require.Len(t, followers, 1)
	assert.Equal(t, "alice", followers[0].Username)

	_ = bobID
	resp = doJSON(t, s, "DELETE", "/api/v1/users/2/follow", aliceToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestMessageFlow(t *testing.T) {
	s := testServer(t)
	aliceToken, _ := login(t, s, walletAlice, "alice")
	bobToken, bobID := login(t, s, walletBob, "bob")

	resp := doJSON(t, s, "POST", "/api/v1/messages", aliceToken, map[string]interface{}{
		"recipient_id": bobID,
		"content":      "hey bob",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "GET", "/api/v1/messages/unread-count", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var unread struct {
		Unread int64 `json:"unread"`
	}
	decode(t, resp, &unread)
	assert.Equal(t, int64(1), unread.Unread)

	// Reading the conversation marks it read.
	resp = doJSON(t, s, "GET", "/api/v1/messages/with/1", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "GET", "/api/v1/messages/unread-count", bobToken, nil)
	decode(t, resp, &unread)
	assert.Zero(t, unread.Unread)
}

func TestDeletePostOwnership(t *testing.T) {
	s := testServer(t)
	authorToken, _ := login(t, s, walletAlice, "alice")
	otherToken, _ := login(t, s, walletBob, "bob")

	resp := doJSON(t, s, "POST", "/api/v1/posts", authorToken, map[string]string{
		"title": "mine", "content": "hands off",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = doJSON(t, s, "DELETE", "/api/v1/posts/1", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = doJSON(t, s, "DELETE", "/api/v1/posts/1", authorToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestExploreSearch(t *testing.T) {
	s := testServer(t)
	login(t, s, walletAlice, "alice")
	login(t, s, walletBob, "bob")

	resp := doJSON(t, s, "GET", "/api/v1/explore/search?q=ali", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var results struct {
		Users []struct {
			Username string `json:"username"`
		} `json:"users"`
	}
	decode(t, resp, &results)
	require.Len(t, results.Users, 1)
	assert.Equal(t, "alice", results.Users[0].Username)
}

func TestWebsocketUpgradeRequiresToken(t *testing.T) {
	s := testServer(t)

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	resp, err := s.App().Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
