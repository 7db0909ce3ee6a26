package webhooks

import (
	"context"
	"net/http"

	"github.com/partsdeskhq/partsdesk-backend/api/responses"
	pkgerrors "github.com/partsdeskhq/partsdesk-backend/pkg/errors"
	"github.com/partsdeskhq/partsdesk-backend/pkg/logger"
)

type leadSweeper interface {
	Sweep(ctx context.Context) (int, error)
}

// GmailPush is the push-notification fallback for environments that do not
// run the leads worker. The push body is only a trigger; the sweep pulls
// fresh messages through the Gmail API itself.
func GmailPush(ingestor leadSweeper, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if ingestor == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "lead ingestor unavailable"))
			return
		}

		stored, err := ingestor.Sweep(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sweep gmail leads"))
			return
		}

		if stored > 0 {
			logg.Info(logg.WithField(ctx, "stored", stored), "gmail push ingested new leads")
		}
		responses.WriteSuccess(w, map[string]int{"stored": stored})
	}
}
