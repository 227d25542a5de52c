package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path"
	"strconv"

	"github.com/JaimeStill/weles/internal/workspace"
	"github.com/JaimeStill/weles/pkg/handlers"
	"github.com/JaimeStill/weles/pkg/openapi"
	"github.com/JaimeStill/weles/pkg/routes"
	"github.com/JaimeStill/weles/pkg/storage"
)

// archiveHandler serves archived model files and datasets by blob key,
// for example models/iris_rf/requirements.txt.
type archiveHandler struct {
	archive workspace.Archive
	logger  *slog.Logger
}

func newArchiveHandler(archive workspace.Archive, logger *slog.Logger) *archiveHandler {
	return &archiveHandler{
		archive: archive,
		logger:  logger.With("handler", "archive"),
	}
}

var downloadDoc = &openapi.Operation{
	Summary:     "Download an archived file",
	Description: "Keys are models/<name>/<file> or datasets/<hash>. The Digest header carries the recorded content digest.",
	Tags:        []string{"Archive"},
	Parameters:  []*openapi.Parameter{openapi.PathParam("key", "Blob key")},
	Responses: map[int]*openapi.Response{
		200: openapi.ResponseText("File content", "application/octet-stream"),
		400: openapi.ResponseRef("BadRequest"),
		404: openapi.ResponseRef("NotFound"),
		503: openapi.ResponseRef("ServiceUnavailable"),
	},
}

func (h *archiveHandler) routes() routes.Group {
	return routes.Group{
		Prefix: "/archive",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "/{key...}", Handler: h.download, Doc: downloadDoc},
		},
	}
}

func (h *archiveHandler) download(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	blob, err := h.archive.Open(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer blob.Body.Close()

	contentType := blob.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if blob.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	if d, ok := blob.Metadata[workspace.DigestKey]; ok {
		w.Header().Set("Digest", d)
	}
	w.Header().Set(
		"Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", path.Base(key)),
	)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, blob.Body); err != nil {
		h.logger.Warn("archive download interrupted", "key", key, "error", err)
	}
}
