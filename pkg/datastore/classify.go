package datastore

import "github.com/google/uuid"

// Classify maps a requested kind to its payload classification and
// validates that the fields required for that classification are present.
// It is a pure function of its inputs: no store is touched, so a
// ValidationError here guarantees zero side effects.
func Classify(kind Kind, title string, projectID uuid.UUID, content string, file *FileUpload) (PayloadKind, error) {
	if title == "" {
		return "", &ValidationError{Field: "title", Reason: "title is required"}
	}
	if projectID == uuid.Nil {
		return "", &ValidationError{Field: "projectId", Reason: "project ID is required"}
	}

	payload, ok := kind.PayloadKind()
	if !ok {
		return "", &ValidationError{Field: "kind", Reason: "unrecognized content kind"}
	}

	switch payload {
	case PayloadText:
		if content == "" {
			return "", &ValidationError{Field: "content", Reason: "content is required for Text kind"}
		}
	case PayloadFile:
		if file == nil || file.Reader == nil {
			return "", &ValidationError{Field: "contentFile", Reason: "file upload is required for " + string(kind) + " kind"}
		}
	case PayloadExternalLink:
		if content == "" {
			return "", &ValidationError{Field: "content", Reason: "URL is required for " + string(kind) + " kind"}
		}
	}

	return payload, nil
}
