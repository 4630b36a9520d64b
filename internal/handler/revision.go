package handler

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"wbuilder/internal/domain/models"
	"wbuilder/internal/domain/services"
	"wbuilder/internal/handler/sse"
	"wbuilder/internal/httputil"
)

// RevisionHandler handles revision and rollback requests
type RevisionHandler struct {
	revisions  services.RevisionService
	rollback   services.RollbackService
	authorizer services.ResourceAuthorizer
	sseConfig  *sse.Config
	logger     *slog.Logger
}

// NewRevisionHandler creates a new revision handler
func NewRevisionHandler(
	revisions services.RevisionService,
	rollback services.RollbackService,
	authorizer services.ResourceAuthorizer,
	sseConfig *sse.Config,
	logger *slog.Logger,
) *RevisionHandler {
	if sseConfig == nil {
		sseConfig = sse.DefaultConfig()
	}
	return &RevisionHandler{
		revisions:  revisions,
		rollback:   rollback,
		authorizer: authorizer,
		sseConfig:  sseConfig,
		logger:     logger,
	}
}

type reviseRequest struct {
	Message string `json:"message"`
}

// Revise handles POST /api/projects/{id}/revisions
func (h *RevisionHandler) Revise(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRevision(w, r)
	if !ok {
		return
	}

	result, err := h.revisions.Revise(r.Context(), req)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// ReviseStream handles POST /api/projects/{id}/revisions/stream.
// Precondition failures are plain error responses; once the saga has started,
// progress is streamed as entry and chunk events followed by done or error.
// A client disconnect cancels the request context and the attempt is refunded.
func (h *RevisionHandler) ReviseStream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.parseRevision(w, r)
	if !ok {
		return
	}

	// Authorize before anything is streamed
	if err := h.authorizer.CanAccessProject(r.Context(), req.UserID, req.ProjectID); err != nil {
		handleError(w, err)
		return
	}

	clientID := uuid.NewString()
	log := h.logger.With("project_id", req.ProjectID, "client_id", clientID)

	var (
		writer    *sse.Writer
		keepAlive *sse.TickerKeepAlive
		openErr   error
	)
	// The stream opens on the first observed event, after preconditions passed
	open := func() bool {
		if writer != nil || openErr != nil {
			return writer != nil
		}
		writer, openErr = sse.NewWriter(w)
		if openErr != nil {
			log.Error("SSE not supported by response writer", "error", openErr)
			return false
		}
		keepAlive = sse.NewTickerKeepAlive(h.sseConfig.KeepAliveInterval)
		keepAlive.Start(writer, log)
		log.Debug("SSE stream established")
		return true
	}
	defer func() {
		if keepAlive != nil {
			keepAlive.Stop()
		}
		if writer != nil {
			writer.Close()
		}
	}()

	observer := &services.StreamObserver{
		OnEntry: func(entry models.ConversationEntry) {
			if open() {
				if err := writer.WriteEvent(sse.EventEntry, entry); err != nil {
					log.Debug("entry event not delivered", "error", err)
				}
			}
		},
		OnChunk: func(text string) {
			if open() {
				if err := writer.WriteEvent(sse.EventChunk, map[string]string{"text": text}); err != nil {
					log.Debug("chunk event not delivered", "error", err)
				}
			}
		},
	}

	result, err := h.revisions.ReviseStreaming(r.Context(), req, observer)
	if writer == nil {
		// Nothing was streamed: answer like the buffered endpoint
		if err != nil {
			handleError(w, err)
			return
		}
		httputil.RespondJSON(w, http.StatusOK, result)
		return
	}

	if err != nil {
		if werr := writer.WriteEvent(sse.EventError, newErrorEvent(err)); werr != nil {
			log.Info("client gone before error event", "error", werr)
		}
		return
	}
	if werr := writer.WriteEvent(sse.EventDone, result); werr != nil {
		log.Info("client gone before done event", "error", werr)
	}
}

// Rollback handles POST /api/projects/{id}/rollback/{versionId}
func (h *RevisionHandler) Rollback(w http.ResponseWriter, r *http.Request) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return
	}
	versionID, ok := PathParam(w, r, "versionId", "Version ID")
	if !ok {
		return
	}

	project, err := h.rollback.Rollback(r.Context(), httputil.GetUserID(r), projectID, versionID)
	if err != nil {
		handleError(w, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, project)
}

func (h *RevisionHandler) parseRevision(w http.ResponseWriter, r *http.Request) (*services.RevisionRequest, bool) {
	projectID, ok := PathParam(w, r, "id", "Project ID")
	if !ok {
		return nil, false
	}
	var body reviseRequest
	if !parseBody(w, r, &body) {
		return nil, false
	}
	return &services.RevisionRequest{
		UserID:      httputil.GetUserID(r),
		ProjectID:   projectID,
		Instruction: body.Message,
	}, true
}
