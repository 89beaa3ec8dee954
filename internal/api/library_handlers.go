package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/albumduel/albumduel-server/internal/service"
	"github.com/albumduel/albumduel-server/internal/store"
)

func (s *Server) registerLibraryRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listLibrary",
		Method:      http.MethodGet,
		Path:        "/api/v1/library",
		Summary:     "List library",
		Description: "Returns every album in the user's library with its current rating",
		Tags:        []string{"Library"},
		Security:    bearerAuth,
	}, s.handleListLibrary)

	huma.Register(s.api, huma.Operation{
		OperationID: "importAlbums",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/import",
		Summary:     "Import albums",
		Description: "Finds or creates each album, adds it to the library and resolves missing covers",
		Tags:        []string{"Library"},
		Security:    bearerAuth,
	}, s.handleImportAlbums)

	huma.Register(s.api, huma.Operation{
		OperationID: "importDemoAlbums",
		Method:      http.MethodPost,
		Path:        "/api/v1/library/import/demo",
		Summary:     "Import demo albums",
		Tags:        []string{"Library"},
		Security:    bearerAuth,
	}, s.handleImportDemo)
}

// LibraryOutput wraps one page of the library, in the order albums were
// added.
type LibraryOutput struct {
	Body *store.PaginatedResult[service.LibraryAlbum]
}

func (s *Server) handleListLibrary(ctx context.Context, input *PageInput) (*LibraryOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	albums, err := s.services.Library.ListLibrary(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "list library", err)
	}

	page, err := store.Paginate(albums, input.params())
	if err != nil {
		return nil, s.fail(ctx, "paginate library", err)
	}
	return &LibraryOutput{Body: page}, nil
}

// ImportAlbumsRequest is the body of an import.
type ImportAlbumsRequest struct {
	Source string                `json:"source" doc:"Provider the albums came from" enum:"spotify,lastfm,aoty,manual"`
	Albums []service.AlbumUpsert `json:"albums" doc:"Albums to find or create" minItems:"1" maxItems:"500"`
}

// ImportAlbumsInput wraps the import request for Huma.
type ImportAlbumsInput struct {
	Body ImportAlbumsRequest
}

// ImportOutput wraps an import result for Huma.
type ImportOutput struct {
	Body *service.ImportResult
}

func (s *Server) handleImportAlbums(ctx context.Context, input *ImportAlbumsInput) (*ImportOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Library.ImportAlbums(ctx, user.ID, input.Body.Source, input.Body.Albums)
	if err != nil {
		return nil, s.fail(ctx, "import albums", err)
	}
	return &ImportOutput{Body: res}, nil
}

func (s *Server) handleImportDemo(ctx context.Context, _ *struct{}) (*ImportOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.Library.ImportDemo(ctx, user.ID)
	if err != nil {
		return nil, s.fail(ctx, "import demo", err)
	}
	return &ImportOutput{Body: res}, nil
}
