package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/tracker"
)

type stubSource struct {
	alerts []domain.Alert
	err    error
	hook   func()
}

func (s *stubSource) FetchActive(context.Context) ([]domain.Alert, error) {
	if s.hook != nil {
		s.hook()
	}
	return s.alerts, s.err
}

type stubRenderer struct {
	failOn map[string]bool
	calls  []string
}

func (r *stubRenderer) RenderMap(_ context.Context, alert domain.Alert) (string, error) {
	r.calls = append(r.calls, alert.ID)
	if r.failOn[alert.ID] {
		return "", errors.New("renderer exploded")
	}
	return "/tmp/" + alert.ID + ".png", nil
}

type stubDeliverer struct {
	failOn    map[string]bool
	delivered []string
}

func (d *stubDeliverer) Deliver(_ context.Context, _ string, alert domain.Alert) error {
	if d.failOn[alert.ID] {
		return errors.New("webhook unreachable")
	}
	d.delivered = append(d.delivered, alert.ID)
	return nil
}

type stubStore struct {
	saved   [][]string
	saveErr error
}

func (s *stubStore) Load(context.Context) ([]string, error) { return nil, nil }

func (s *stubStore) Save(_ context.Context, ids []string) error {
	s.saved = append(s.saved, ids)
	return s.saveErr
}

func polyAlert(id string) domain.Alert {
	return domain.Alert{
		ID:    id,
		Event: "Severe Thunderstorm Warning",
		Polygon: []domain.Point{
			{Lat: 37.0, Lon: -87.0},
			{Lat: 37.2, Lon: -87.0},
			{Lat: 37.2, Lon: -87.2},
		},
	}
}

func TestRunCycleCountsNewAndSeen(t *testing.T) {
	t.Parallel()

	tr := tracker.New()
	tr.Seed([]string{"seen-1"})

	renderer := &stubRenderer{}
	deliverer := &stubDeliverer{}
	c := NewController(ControllerDeps{
		Source:    &stubSource{alerts: []domain.Alert{polyAlert("new-1"), polyAlert("seen-1"), polyAlert("new-2")}},
		Renderer:  renderer,
		Deliverer: deliverer,
		Tracker:   tr,
	})

	res, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if res.Fetched != 3 || res.New != 2 || res.AlreadySeen != 1 {
		t.Fatalf("unexpected diff counts: %+v", res)
	}
	if res.Rendered != 2 || res.Delivered != 2 {
		t.Fatalf("unexpected render/deliver counts: %+v", res)
	}
	if len(renderer.calls) != 2 {
		t.Fatalf("renderer called for seen alert: %v", renderer.calls)
	}
}

func TestRunCycleFetchFailureLeavesStateUntouched(t *testing.T) {
	t.Parallel()

	tr := tracker.New()
	store := &stubStore{}
	c := NewController(ControllerDeps{
		Source:  &stubSource{err: errors.New("connection refused")},
		Tracker: tr,
		Store:   store,
	})

	_, err := c.RunCycle(context.Background())
	if !errors.Is(err, domain.ErrFetch) {
		t.Fatalf("expected ErrFetch, got %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("failed fetch must not mutate the seen set")
	}
	if len(store.saved) != 0 {
		t.Fatalf("failed fetch must not persist state")
	}
}

func TestPartialFailureIsolation(t *testing.T) {
	t.Parallel()

	tr := tracker.New()
	renderer := &stubRenderer{failOn: map[string]bool{"a2": true}}
	deliverer := &stubDeliverer{}
	src := &stubSource{alerts: []domain.Alert{polyAlert("a1"), polyAlert("a2"), polyAlert("a3")}}

	c := NewController(ControllerDeps{Source: src, Renderer: renderer, Deliverer: deliverer, Tracker: tr})

	res, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	if res.Rendered != 2 || res.RenderFailed != 1 {
		t.Fatalf("unexpected render counts: %+v", res)
	}
	if len(deliverer.delivered) != 2 || deliverer.delivered[0] != "a1" || deliverer.delivered[1] != "a3" {
		t.Fatalf("expected a1 and a3 delivered, got %v", deliverer.delivered)
	}
	for _, id := range []string{"a1", "a2", "a3"} {
		if tr.IsNew(id) {
			t.Fatalf("%s must end the cycle in the seen set", id)
		}
	}
}

func TestNoPolygonSkippedButCommitted(t *testing.T) {
	t.Parallel()

	tr := tracker.New()
	renderer := &stubRenderer{}
	c := NewController(ControllerDeps{
		Source:   &stubSource{alerts: []domain.Alert{{ID: "bare", Event: "Special Weather Statement"}}},
		Renderer: renderer,
		Tracker:  tr,
	})

	res, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.NoPolygon != 1 || res.Rendered != 0 || res.RenderFailed != 0 {
		t.Fatalf("unexpected counts: %+v", res)
	}
	if len(renderer.calls) != 0 {
		t.Fatalf("renderer must not be called without polygon data")
	}
	if tr.IsNew("bare") {
		t.Fatalf("polygon-less alert must still be marked seen")
	}
}

func TestAtMostOnceRenderAttemptPerIdentifier(t *testing.T) {
	t.Parallel()

	renderer := &stubRenderer{failOn: map[string]bool{"bad": true}}
	src := &stubSource{alerts: []domain.Alert{polyAlert("good"), polyAlert("bad")}}
	c := NewController(ControllerDeps{Source: src, Renderer: renderer, Deliverer: &stubDeliverer{}, Tracker: tracker.New()})
	ctx := context.Background()

	if _, err := c.RunCycle(ctx); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	// Same snapshot again: identical identifiers yield zero new alerts, and
	// even the permanently failing one is never re-rendered.
	res, err := c.RunCycle(ctx)
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if res.New != 0 || res.AlreadySeen != 2 {
		t.Fatalf("diff must be idempotent: %+v", res)
	}
	if len(renderer.calls) != 2 {
		t.Fatalf("render attempted again for committed ids: %v", renderer.calls)
	}
}

func TestDeliveryFailureDoesNotRollBackCommit(t *testing.T) {
	t.Parallel()

	tr := tracker.New()
	c := NewController(ControllerDeps{
		Source:    &stubSource{alerts: []domain.Alert{polyAlert("a1")}},
		Renderer:  &stubRenderer{},
		Deliverer: &stubDeliverer{failOn: map[string]bool{"a1": true}},
		Tracker:   tr,
	})

	res, err := c.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if res.Delivered != 0 || res.DeliveryFailed != 1 {
		t.Fatalf("unexpected delivery counts: %+v", res)
	}
	if tr.IsNew("a1") {
		t.Fatalf("delivery failure must not keep the id out of the seen set")
	}
}

func TestCommitPersistsSnapshot(t *testing.T) {
	t.Parallel()

	store := &stubStore{}
	c := NewController(ControllerDeps{
		Source:   &stubSource{alerts: []domain.Alert{polyAlert("a1"), polyAlert("a2")}},
		Renderer: &stubRenderer{},
		Tracker:  tracker.New(),
		Store:    store,
	})

	if _, err := c.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(store.saved) != 1 {
		t.Fatalf("expected one snapshot save, got %d", len(store.saved))
	}
	got := store.saved[0]
	if len(got) != 2 || got[0] != "a1" || got[1] != "a2" {
		t.Fatalf("unexpected snapshot: %v", got)
	}
}

func TestCommitStoreFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	store := &stubStore{saveErr: fmt.Errorf("disk full")}
	c := NewController(ControllerDeps{
		Source:   &stubSource{alerts: []domain.Alert{polyAlert("a1")}},
		Renderer: &stubRenderer{},
		Tracker:  tracker.New(),
		Store:    store,
	})

	if _, err := c.RunCycle(context.Background()); err != nil {
		t.Fatalf("store failure must not fail the cycle: %v", err)
	}
}

func TestCancellationAbortsWithoutCommit(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	tr := tracker.New()
	src := &stubSource{alerts: []domain.Alert{polyAlert("a1")}, hook: cancel}

	c := NewController(ControllerDeps{Source: src, Renderer: &stubRenderer{}, Tracker: tr})

	_, err := c.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if tr.Len() != 0 {
		t.Fatalf("aborted cycle must not commit; alerts reappear as new on restart")
	}
}
