package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-service/internal/kvstore"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, handler http.Handler) (*Service, *kvstore.Store, *Client) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	kv := kvstore.NewStoreWithClient(rdb)

	client := NewClient(server.URL, 5*time.Second)
	svc, err := NewService(context.Background(), client, kv)
	require.NoError(t, err)

	return svc, kv, client
}

func TestLoginPersistsSession(t *testing.T) {
	svc, kv, client := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		fmt.Fprint(w, `{"id":1,"username":"emilys","firstName":"Emily","token":"abc123"}`)
	}))
	ctx := context.Background()

	user, err := svc.Login(ctx, "emilys", "emilyspass")
	require.NoError(t, err)

	assert.Equal(t, "emilys", user.Username)
	assert.True(t, svc.IsAuthenticated())
	assert.Equal(t, "abc123", svc.Token())
	assert.Empty(t, svc.Err())

	// a fresh service restores the session from the store
	restored, err := NewService(ctx, client, kv)
	require.NoError(t, err)
	assert.True(t, restored.IsAuthenticated())
	assert.Equal(t, "abc123", restored.Token())
	require.NotNil(t, restored.User())
	assert.Equal(t, "emilys", restored.User().Username)
}

func TestLoginFailureKeepsUpstreamMessage(t *testing.T) {
	svc, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"message":"Invalid credentials"}`)
	}))

	_, err := svc.Login(context.Background(), "emilys", "wrong")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid credentials")
	assert.False(t, svc.IsAuthenticated())
	assert.Contains(t, svc.Err(), "Invalid credentials")

	svc.ClearError()
	assert.Empty(t, svc.Err())
}

func TestLoginFailureWithoutBodyFallsBackToStatus(t *testing.T) {
	svc, _, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := svc.Login(context.Background(), "emilys", "emilyspass")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestLoginPersistFailureIsReadable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"username":"emilys","token":"abc123"}`)
	}))
	t.Cleanup(server.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	kv := kvstore.NewStoreWithClient(rdb)

	svc, err := NewService(context.Background(), NewClient(server.URL, 5*time.Second), kv)
	require.NoError(t, err)

	// store goes away between the remote login and the session write
	mr.Close()

	_, err = svc.Login(context.Background(), "emilys", "emilyspass")

	require.Error(t, err)
	assert.False(t, svc.IsAuthenticated())
	assert.NotEmpty(t, svc.Err())
}

func TestLogoutRemovesSession(t *testing.T) {
	svc, kv, _ := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"username":"emilys","token":"abc123"}`)
	}))
	ctx := context.Background()

	_, err := svc.Login(ctx, "emilys", "emilyspass")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx))

	assert.False(t, svc.IsAuthenticated())
	assert.Nil(t, svc.User())

	var token string
	found, err := kv.ReadJSON(ctx, kvstore.KeyToken, &token)
	require.NoError(t, err)
	assert.False(t, found)
}
