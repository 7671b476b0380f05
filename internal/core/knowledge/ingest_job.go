package knowledge

import (
	"context"

	"github.com/essenzadelsur/support-agent-be/internal/core/jobs"
)

// JobTypeIngest is the job type for catalog re-ingestion runs.
const JobTypeIngest = "knowledge_ingest"

// IngestJobHandler runs scheduled re-ingestion through the job queue, so
// every run leaves an observable completed/failed record.
type IngestJobHandler struct {
	ingestor *Ingestor
}

func NewIngestJobHandler(ingestor *Ingestor) *IngestJobHandler {
	return &IngestJobHandler{ingestor: ingestor}
}

func (h *IngestJobHandler) GetType() string {
	return JobTypeIngest
}

func (h *IngestJobHandler) Handle(ctx context.Context, _ *jobs.Job) (interface{}, error) {
	count, err := h.ingestor.Run(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]int{"chunks": count}, nil
}
