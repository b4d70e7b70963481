package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestSessions(t *testing.T) (*SessionManager, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "farmdesk_session", "test-secret", time.Hour, false), mr
}

func TestSessionRoundTripKeepsUser(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	require.Empty(t, sess.User())
	sess.SetUser("42")

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, rec, sess))
	require.True(t, mr.Exists("farmdesk:session:"+sess.ID))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	loaded, err := sessions.Load(ctx, req)
	require.NoError(t, err)
	require.Equal(t, sess.ID, loaded.ID)
	require.Equal(t, "42", loaded.User())
}

func TestAnonymousSessionIsNotPersisted(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, rec, sess))
	require.Empty(t, mr.Keys())
	require.Empty(t, rec.Result().Cookies())
}

func TestUnknownCookieYieldsFreshSession(t *testing.T) {
	sessions, _ := newTestSessions(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: sessions.CookieName(), Value: "stale"})
	sess, err := sessions.Load(context.Background(), req)
	require.NoError(t, err)
	require.NotEqual(t, "stale", sess.ID)
	require.Empty(t, sess.User())
}

func TestDestroyRemovesKeyAndExpiresCookie(t *testing.T) {
	sessions, mr := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("7")
	require.NoError(t, sessions.Commit(ctx, httptest.NewRecorder(), sess))

	sessions.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, rec, sess))
	require.False(t, mr.Exists("farmdesk:session:"+sess.ID))
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Less(t, cookies[0].MaxAge, 0)
}

func TestTamperedCookieYieldsFreshSession(t *testing.T) {
	sessions, _ := newTestSessions(t)
	ctx := context.Background()

	sess, err := sessions.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser("1")
	rec := httptest.NewRecorder()
	require.NoError(t, sessions.Commit(ctx, rec, sess))
	cookie := rec.Result().Cookies()[0]
	require.True(t, strings.HasPrefix(cookie.Value, sess.ID+"."))

	forged := httptest.NewRequest(http.MethodGet, "/", nil)
	forged.AddCookie(&http.Cookie{Name: cookie.Name, Value: sess.ID + ".AAAA"})
	loaded, err := sessions.Load(ctx, forged)
	require.NoError(t, err)
	require.NotEqual(t, sess.ID, loaded.ID)
	require.Empty(t, loaded.User())

	other := NewSessionManager(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "farmdesk_session", "another-secret", time.Hour, false)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	loaded, err = other.Load(ctx, req)
	require.NoError(t, err)
	require.NotEqual(t, sess.ID, loaded.ID)
}
