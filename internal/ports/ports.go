package ports

import (
	"context"
	"time"

	"github.com/zachcoudlntcode/Visual-Warnings-Beta/internal/domain"
)

// AlertSource pulls the current set of active alerts from the upstream feed.
type AlertSource interface {
	FetchActive(ctx context.Context) ([]domain.Alert, error)
}

// Renderer turns one alert's polygon into an image artifact on disk and
// returns the artifact path.
type Renderer interface {
	RenderMap(ctx context.Context, alert domain.Alert) (string, error)
}

// Deliverer posts a rendered artifact plus descriptive text to the
// configured webhook endpoint.
type Deliverer interface {
	Deliver(ctx context.Context, imagePath string, alert domain.Alert) error
}

// SeenStore persists the set of already-processed alert identifiers across
// restarts. Implementations must tolerate a missing store on first Load.
type SeenStore interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, ids []string) error
}

// Scheduler drives a recurring job.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
