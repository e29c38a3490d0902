package router

import (
	"context"
	"net/url"
	"time"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/log"
)

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequireAuth sends signed-out users heading for a protected route to
// the login page, remembering where they were going.
func RequireAuth(ctx context.Context, t *Transition) (*Redirect, error) {
	if !t.To.Route.Meta.RequiresAuth || t.authenticated() {
		return nil, nil
	}

	log.FromContext(ctx).Debug("not logged in, redirecting", "to", t.To.FullPath)
	return &Redirect{
		Name:  Login,
		Query: url.Values{appview.RedirectParam: {t.To.FullPath}},
	}, nil
}

// EnvelopeDelay holds a navigation from a recipe back home for d while
// the recipe page's closing animation is still playing. A nil Sleeper
// waits on a real timer.
func EnvelopeDelay(d time.Duration, wait Sleeper) Guard {
	if wait == nil {
		wait = sleep
	}

	return func(ctx context.Context, t *Transition) (*Redirect, error) {
		if t.From.Name() != RecipeDetail || t.To.Name() != Home || !t.State.ShowEnvelope() {
			return nil, nil
		}

		return nil, wait(ctx, d)
	}
}

// ClearHint forgets page hints once the user has left the recipe page.
func ClearHint(_ context.Context, t *Transition) {
	if t.To.Name() != RecipeDetail {
		t.State.ClearHint()
	}
}

// Remember records the completed navigation as the origin of the next.
func Remember(_ context.Context, t *Transition) {
	t.State.Last = t.To.FullPath
}

// NewDefault is the router the frontend runs: the page table with auth
// gating, the envelope delay, and hint bookkeeping.
func NewDefault(wait Sleeper) *Router {
	r := New(Routes())
	r.BeforeEach(RequireAuth)
	r.BeforeEach(EnvelopeDelay(appview.EnvelopeDelay, wait))
	r.AfterEach(ClearHint)
	r.AfterEach(Remember)
	return r
}
