package dto

type IngestDocumentRequest struct {
	GroupScope string `json:"group_scope" validate:"required,max=128"`
	Title      string `json:"title" validate:"required,max=255"`
	Content    string `json:"content" validate:"required"`
}

// PublishIngestDocumentMessage is the event-bus payload consumed by the ingest worker.
type PublishIngestDocumentMessage struct {
	GroupScope string `json:"group_scope"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

type IngestDocumentResponse struct {
	Accepted bool `json:"accepted"`
}
