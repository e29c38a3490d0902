package router

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/sustc/cookbook/appview/storage"
)

type session bool

func (s session) IsAuthenticated() bool { return bool(s) }

// recorder stands in for the timer and records every wait asked for.
type recorder struct {
	waits []time.Duration
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return nil
}

func TestResolve(t *testing.T) {
	r := New(Routes())

	tests := []struct {
		path       string
		wantName   string
		wantParams map[string]string
		wantFull   string
	}{
		{"/", Home, map[string]string{}, "/"},
		{"", Home, map[string]string{}, "/"},
		{"/login?redirect=%2Fcreate", Login, map[string]string{}, "/login?redirect=%2Fcreate"},
		{"/register", Register, map[string]string{}, "/register"},
		{"/recipe/17", RecipeDetail, map[string]string{"id": "17"}, "/recipe/17"},
		{"/profile", Profile, map[string]string{}, "/profile"},
		{"/profile/3/", Profile, map[string]string{"id": "3"}, "/profile/3"},
		{"/create", CreateRecipe, map[string]string{}, "/create"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			loc, err := r.Resolve(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.wantName, loc.Name())
			assert.Equal(t, tt.wantParams, loc.Params)
			assert.Equal(t, tt.wantFull, loc.FullPath)
		})
	}

	_, err := r.Resolve("/recipes/all/of/them")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHref(t *testing.T) {
	r := New(Routes())

	href, err := r.Href(Profile, map[string]string{"id": "5"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "/profile/5", href)

	href, err = r.Href(Profile, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "/profile", href)

	href, err = r.Href(Login, nil, url.Values{"redirect": {"/create"}})
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=%2Fcreate", href)

	_, err = r.Href(RecipeDetail, nil, nil)
	assert.ErrorIs(t, err, ErrMissingParams)

	_, err = r.Href("Nowhere", nil, nil)
	assert.ErrorIs(t, err, ErrUnknownRoute)
}

func TestCreateRequiresAuth(t *testing.T) {
	ctx := context.Background()
	r := NewDefault((&recorder{}).sleep)

	loc, err := r.Navigate(ctx, Navigation{To: "/create", Session: session(false)})
	require.NoError(t, err)
	assert.Equal(t, Login, loc.Name())
	assert.Equal(t, "/create", loc.Query.Get("redirect"))
	require.NotNil(t, loc.RedirectedFrom)
	assert.Equal(t, CreateRecipe, loc.RedirectedFrom.Name())

	// a nil session reads as signed out
	loc, err = r.Navigate(ctx, Navigation{To: "/create?draft=1"})
	require.NoError(t, err)
	assert.Equal(t, Login, loc.Name())
	assert.Equal(t, "/create?draft=1", loc.Query.Get("redirect"))

	loc, err = r.Navigate(ctx, Navigation{To: "/create", Session: session(true)})
	require.NoError(t, err)
	assert.Equal(t, CreateRecipe, loc.Name())
	assert.Nil(t, loc.RedirectedFrom)
}

func TestOpenRoutesNeedNoSession(t *testing.T) {
	ctx := context.Background()
	r := NewDefault((&recorder{}).sleep)

	for _, path := range []string{"/", "/login", "/register", "/recipe/1", "/profile", "/profile/9"} {
		loc, err := r.Navigate(ctx, Navigation{To: path, Session: session(false)})
		require.NoError(t, err, path)
		assert.Nil(t, loc.RedirectedFrom, path)
	}
}

func TestEnvelopeDelay(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		from      string
		to        string
		hint      *Hint
		wantWaits []time.Duration
	}{
		{
			name:      "recipe to home while envelope closes",
			from:      "/recipe/4",
			to:        "/",
			hint:      &Hint{ShowEnvelope: true},
			wantWaits: []time.Duration{800 * time.Millisecond},
		},
		{
			name: "recipe to home without hint",
			from: "/recipe/4",
			to:   "/",
		},
		{
			name: "recipe to home with finished animation",
			from: "/recipe/4",
			to:   "/",
			hint: &Hint{ShowEnvelope: false},
		},
		{
			name: "recipe to profile",
			from: "/recipe/4",
			to:   "/profile",
			hint: &Hint{ShowEnvelope: true},
		},
		{
			name: "login to home",
			from: "/login",
			to:   "/",
			hint: &Hint{ShowEnvelope: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			r := NewDefault(rec.sleep)

			from, err := r.Resolve(tt.from)
			require.NoError(t, err)

			state := &State{Hint: tt.hint}
			loc, err := r.Navigate(ctx, Navigation{To: tt.to, From: from, State: state})
			require.NoError(t, err)

			assert.Equal(t, tt.to, loc.FullPath)
			assert.Equal(t, tt.wantWaits, rec.waits)
		})
	}
}

func TestEnvelopeDelayRealTimer(t *testing.T) {
	r := New(Routes())
	r.BeforeEach(EnvelopeDelay(30*time.Millisecond, nil))

	from, err := r.Resolve("/recipe/4")
	require.NoError(t, err)
	state := &State{Hint: &Hint{ShowEnvelope: true}}

	start := time.Now()
	_, err = r.Navigate(context.Background(), Navigation{To: "/", From: from, State: state})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Navigate(ctx, Navigation{To: "/", From: from, State: &State{Hint: &Hint{ShowEnvelope: true}}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAfterHooks(t *testing.T) {
	ctx := context.Background()
	r := NewDefault((&recorder{}).sleep)
	state := &State{}

	loc, err := r.Navigate(ctx, Navigation{To: "/recipe/2", State: state})
	require.NoError(t, err)
	assert.Equal(t, "/recipe/2", state.Last)

	// the page sets its hint; staying on a recipe keeps it
	state.SetHint(Hint{ShowEnvelope: true})
	loc, err = r.Navigate(ctx, Navigation{To: "/recipe/3", From: loc, State: state})
	require.NoError(t, err)
	assert.True(t, state.ShowEnvelope())

	_, err = r.Navigate(ctx, Navigation{To: "/", From: loc, State: state})
	require.NoError(t, err)
	assert.Nil(t, state.Hint)
	assert.Equal(t, "/", state.Last)
}

func TestRedirectedNavigationRecordsLoginAsLast(t *testing.T) {
	r := NewDefault((&recorder{}).sleep)
	state := &State{}

	_, err := r.Navigate(context.Background(), Navigation{To: "/create", State: state})
	require.NoError(t, err)
	assert.Equal(t, "/login?redirect=%2Fcreate", state.Last)
}

func TestRedirectLoop(t *testing.T) {
	r := New(Routes())
	r.BeforeEach(func(context.Context, *Transition) (*Redirect, error) {
		return &Redirect{Name: Home}, nil
	})

	_, err := r.Navigate(context.Background(), Navigation{To: "/"})
	assert.ErrorIs(t, err, ErrRedirectLoop)
}

func TestGuardErrorAbortsNavigation(t *testing.T) {
	boom := errors.New("boom")
	r := New(Routes())
	called := false
	r.BeforeEach(func(context.Context, *Transition) (*Redirect, error) { return nil, boom })
	r.AfterEach(func(context.Context, *Transition) { called = true })

	_, err := r.Navigate(context.Background(), Navigation{To: "/"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, called)
}

func TestStatePersistence(t *testing.T) {
	st := storage.NewMemory()

	s, err := LoadState(st)
	require.NoError(t, err)
	assert.Equal(t, &State{}, s)

	s.Last = "/recipe/8"
	s.SetHint(Hint{ShowEnvelope: true})
	require.NoError(t, SaveState(st, s))

	loaded, err := LoadState(st)
	require.NoError(t, err)
	assert.Equal(t, s, loaded)

	require.NoError(t, st.SetItem("cookbook-nav", "{nope"))
	loaded, err = LoadState(st)
	require.NoError(t, err)
	assert.Equal(t, &State{}, loaded)
}
