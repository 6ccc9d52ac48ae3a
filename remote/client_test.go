package remote_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/faculty-cache/auth"
	"github.com/krisalay/faculty-cache/internal/devserver"
	"github.com/krisalay/faculty-cache/remote"
	"github.com/krisalay/faculty-cache/types"
)

func seeded(t *testing.T, opts ...devserver.Option) (*devserver.Server, *httptest.Server) {
	t.Helper()
	api := devserver.New(opts...)
	api.Seed("prof@inst.edu", types.Document{
		"education": types.List(types.Record{"id": "e1", "degree": "PhD"}),
		"profile":   types.Singleton(types.Record{"name": "Ada"}),
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return api, srv
}

//
// ================= FETCH =================
//

func TestFetchDecodesDocument(t *testing.T) {
	_, srv := seeded(t)
	c := remote.NewClient(srv.URL + "/")

	doc, err := c.Fetch(context.Background(), "prof@inst.edu")
	require.NoError(t, err)

	assert.Equal(t, types.KindList, doc["education"].Kind)
	assert.Equal(t, 1, doc["education"].Len())
	rec, ok := doc["profile"].Single()
	require.True(t, ok)
	assert.Equal(t, "Ada", rec["name"])
}

func TestFetchMissingIsNotFound(t *testing.T) {
	_, srv := seeded(t)
	c := remote.NewClient(srv.URL)

	_, err := c.Fetch(context.Background(), "ghost@inst.edu")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestFetchServerErrorIsStatusError(t *testing.T) {
	api, srv := seeded(t)
	api.FailNext("prof@inst.edu", 1)
	c := remote.NewClient(srv.URL)

	_, err := c.Fetch(context.Background(), "prof@inst.edu")
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusServiceUnavailable, se.Code)
	assert.Contains(t, se.Body, "unavailable")
	assert.False(t, errors.Is(err, types.ErrNotFound))

	_, err = c.Fetch(context.Background(), "prof@inst.edu")
	assert.NoError(t, err)
	assert.Equal(t, 2, api.Fetches("prof@inst.edu"))
}

func TestFetchHonoursContext(t *testing.T) {
	_, srv := seeded(t)
	c := remote.NewClient(srv.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Fetch(ctx, "prof@inst.edu")
	assert.ErrorIs(t, err, context.Canceled)
}

//
// ================= PERSIST =================
//

func TestPersistSectionRoundTrip(t *testing.T) {
	api, srv := seeded(t)
	c := remote.NewClient(srv.URL)
	patents := types.List(types.Record{"id": "p1", "title": "Widget"})

	require.NoError(t, c.PersistSection(context.Background(), "prof@inst.edu", "patents", patents))

	doc, ok := api.Document("prof@inst.edu")
	require.True(t, ok)
	assert.Equal(t, patents, doc["patents"])
	assert.Equal(t, 1, doc["education"].Len(), "other sections untouched")
}

//
// ================= AUTH =================
//

func TestBearerTokenIsSentAndChecked(t *testing.T) {
	p, err := auth.NewJWTProvider("s3cret", "", nil)
	require.NoError(t, err)
	verify := func(token string) (string, error) {
		claims, err := p.Validate(token)
		if err != nil {
			return "", err
		}
		return claims.Email, nil
	}
	_, srv := seeded(t, devserver.WithVerifier(verify))
	c := remote.NewClient(srv.URL, remote.WithToken(p.Token))

	_, err = c.Fetch(context.Background(), "prof@inst.edu")
	var se *remote.StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)

	token, err := p.Sign("prof@inst.edu", time.Hour)
	require.NoError(t, err)
	require.NoError(t, p.SetToken(token))

	_, err = c.Fetch(context.Background(), "prof@inst.edu")
	assert.NoError(t, err)

	err = c.PersistSection(context.Background(), "other@inst.edu", "patents", types.List())
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.Code)
}

//
// ================= BREAKER =================
//

func TestBreakerTripsOnTransportFailures(t *testing.T) {
	boom := errors.New("connection refused")
	calls := 0
	next := types.FetcherFunc(func(context.Context, string) (types.Document, error) {
		calls++
		return nil, boom
	})
	cfg := remote.DefaultBreakerConfig("faculty-api")
	cfg.ConsecutiveFailures = 3
	b := remote.NewBreaker(next, cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Fetch(context.Background(), "prof@inst.edu")
		assert.ErrorIs(t, err, boom)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Fetch(context.Background(), "prof@inst.edu")
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 3, calls)
}

func TestBreakerIgnoresNotFound(t *testing.T) {
	_, srv := seeded(t)
	cfg := remote.DefaultBreakerConfig("faculty-api")
	cfg.ConsecutiveFailures = 1
	b := remote.NewBreaker(remote.NewClient(srv.URL), cfg, nil)

	for i := 0; i < 3; i++ {
		_, err := b.Fetch(context.Background(), "ghost@inst.edu")
		assert.ErrorIs(t, err, types.ErrNotFound)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())

	doc, err := b.Fetch(context.Background(), "prof@inst.edu")
	require.NoError(t, err)
	assert.Len(t, doc, 2)
}
