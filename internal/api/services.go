package api

import (
	"github.com/albumduel/albumduel-server/internal/service"
)

// Services groups the business logic services used by the API server.
type Services struct {
	Auth       *service.AuthService
	Comparison *service.ComparisonService
	Ranking    *service.RankingService
	Library    *service.LibraryService
	Reconcile  *service.ReconcileService
	Link       *service.LinkService
}
