package api

import (
	"context"
	"net/http"

	"github.com/okian/vidtag/internal/domain/labels"
)

// LabelDependencies defines the interface for label vocabularies.
type LabelDependencies interface {
	Labels(ctx context.Context) (labels.Vocabulary, error)
	SaveLabels(ctx context.Context, v labels.Vocabulary) error
}

// LabelsHandler handles label vocabulary requests.
type LabelsHandler struct {
	deps LabelDependencies
}

// NewLabelsHandler creates a new labels handler.
func NewLabelsHandler(deps LabelDependencies) *LabelsHandler {
	return &LabelsHandler{deps: deps}
}

// HandleLabels handles GET and PUT /labels requests.
func (h *LabelsHandler) HandleLabels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPut:
		var v labels.Vocabulary
		if err := decodeJSON(r, &v); err != nil {
			writeServiceError(w, err)
			return
		}
		if err := h.deps.SaveLabels(r.Context(), v); err != nil {
			writeServiceError(w, err)
			return
		}
	default:
		http.NotFound(w, r)
		return
	}

	v, err := h.deps.Labels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if v.Events == nil {
		v.Events = []string{}
	}
	if v.Teams == nil {
		v.Teams = []string{}
	}
	writeJSON(w, http.StatusOK, v)
}
