package server

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/ragchat/internal/docstore"
	"github.com/mohammad-safakhou/ragchat/models"
)

// uploadDocument ingests one file: extract, store, chunk, embed, index.
func (s *Server) uploadDocument(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "file is required")
	}
	resp, ingestErr := s.ingest(c, fh)
	if !resp.Success {
		documentUploads.WithLabelValues("error").Inc()
		code := http.StatusInternalServerError
		if errors.Is(ingestErr, docstore.ErrTooLarge) || errors.Is(ingestErr, docstore.ErrUnsupportedType) {
			code = http.StatusBadRequest
		}
		return echo.NewHTTPError(code, resp.Error)
	}
	documentUploads.WithLabelValues("ok").Inc()
	return c.JSON(http.StatusOK, resp)
}

// uploadMultiple ingests a batch; per-file failures are reported in
// the result list instead of failing the batch.
func (s *Server) uploadMultiple(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart form required")
	}
	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	results := make([]models.UploadResponse, 0, len(files))
	for _, fh := range files {
		resp, _ := s.ingest(c, fh)
		if resp.Success {
			documentUploads.WithLabelValues("ok").Inc()
		} else {
			documentUploads.WithLabelValues("error").Inc()
		}
		results = append(results, resp)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) ingest(c echo.Context, fh *multipart.FileHeader) (models.UploadResponse, error) {
	ctx := c.Request().Context()
	fail := func(err error) (models.UploadResponse, error) {
		s.logger.Printf("upload %s: %v", fh.Filename, err)
		return models.UploadResponse{Filename: fh.Filename, Error: err.Error()}, err
	}

	f, err := fh.Open()
	if err != nil {
		return fail(err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fail(err)
	}

	info, err := s.docs.Upload(ctx, data, fh.Filename)
	if err != nil {
		return fail(err)
	}

	doc, ok := s.docs.Get(ctx, info.ID)
	if !ok {
		return fail(errors.New("stored document not found"))
	}
	metas := make([]models.ChunkMeta, len(doc.Chunks))
	for i := range doc.Chunks {
		metas[i] = models.ChunkMeta{DocumentID: doc.ID, Filename: doc.Filename, ChunkIndex: i}
	}
	if err := s.index.Add(ctx, doc.Chunks, metas); err != nil {
		// The document stays searchable by keyword even when
		// embedding fails.
		s.logger.Printf("index %s: %v", doc.Filename, err)
	} else if err := s.index.Save(); err != nil {
		s.logger.Printf("save index: %v", err)
	}

	s.logger.Printf("document uploaded: %s (%d chunks)", doc.Filename, len(doc.Chunks))
	return models.UploadResponse{
		Success:    true,
		DocumentID: doc.ID,
		Filename:   doc.Filename,
		Type:       doc.Type,
	}, nil
}

func (s *Server) listDocuments(c echo.Context) error {
	docs := s.docs.List(c.Request().Context())
	if docs == nil {
		docs = []models.DocumentInfo{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": docs})
}

// searchDocuments is keyword search over stored documents, distinct
// from chat-time semantic retrieval.
func (s *Server) searchDocuments(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "q is required")
	}
	k := 10
	if raw := c.QueryParam("k"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			k = n
		}
	}
	results, err := s.docs.Search(c.Request().Context(), q, k)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if results == nil {
		results = []models.DocumentInfo{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"documents": results})
}

func (s *Server) deleteDocument(c echo.Context) error {
	id := c.Param("id")
	ok := s.docs.Delete(c.Request().Context(), id)
	if ok {
		removed := s.index.RemoveDocument(id)
		if removed > 0 {
			if err := s.index.Save(); err != nil {
				s.logger.Printf("save index after delete: %v", err)
			}
		}
		s.logger.Printf("document %s deleted (%d chunks pruned)", id, removed)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": ok})
}
