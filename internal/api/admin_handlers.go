package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/service"
)

func (s *Server) registerAdminRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "reconcileDuplicates",
		Method:      http.MethodPost,
		Path:        "/api/v1/admin/reconcile",
		Summary:     "Reconcile duplicate albums",
		Description: "Runs one maintenance pass merging albums that describe the same release. Comparisons wait while it runs.",
		Tags:        []string{"Admin"},
		Security:    bearerAuth,
	}, s.handleReconcile)
}

// ReconcileOutput wraps a reconcile report for Huma.
type ReconcileOutput struct {
	Body *service.ReconcileReport
}

func (s *Server) handleReconcile(ctx context.Context, _ *struct{}) (*ReconcileOutput, error) {
	admin, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("reconcile requested", "user_id", admin.ID)
	report, err := s.services.Reconcile.ReconcileDuplicates(ctx)
	if err != nil {
		return nil, s.fail(ctx, "reconcile", err)
	}
	return &ReconcileOutput{Body: report}, nil
}
