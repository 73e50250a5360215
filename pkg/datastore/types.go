package datastore

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind is the user-facing content type of a record.
type Kind string

// Recognized content kinds.
const (
	KindText    Kind = "Text"
	KindImage   Kind = "Image"
	KindVideo   Kind = "Video"
	KindYouTube Kind = "YouTube"
	KindLink    Kind = "Link"
	KindWebsite Kind = "Website"
	KindPDF     Kind = "PDF"
)

// PayloadKind classifies how a record's payload is stored: raw text in the
// blob store, an uploaded file in the blob store, or a literal URL kept on
// the record itself.
type PayloadKind string

const (
	PayloadText         PayloadKind = "text"
	PayloadFile         PayloadKind = "file"
	PayloadExternalLink PayloadKind = "external_link"
)

// IsValid returns true if k is one of the recognized content kinds.
func (k Kind) IsValid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindYouTube, KindLink, KindWebsite, KindPDF:
		return true
	}
	return false
}

// PayloadKind maps a content kind to its payload classification. The second
// return value is false for unrecognized kinds.
func (k Kind) PayloadKind() (PayloadKind, bool) {
	switch k {
	case KindText:
		return PayloadText, true
	case KindImage, KindVideo, KindPDF:
		return PayloadFile, true
	case KindYouTube, KindLink, KindWebsite:
		return PayloadExternalLink, true
	}
	return "", false
}

// IsBlobBacked returns true when records of this kind hold a blob-store key
// in PayloadRef (Text and file kinds).
func (k Kind) IsBlobBacked() bool {
	pk, ok := k.PayloadKind()
	return ok && pk != PayloadExternalLink
}

// Category returns the key-path segment used when storing blobs of this
// kind ("text", "image", "video", "pdf").
func (k Kind) Category() string {
	return strings.ToLower(string(k))
}

// ProjectStatus is the domain type for project lifecycle states.
type ProjectStatus string

// Project status constants (typed).
const (
	ProjectStatusActive    ProjectStatus = "active"
	ProjectStatusArchived  ProjectStatus = "archived"
	ProjectStatusCompleted ProjectStatus = "completed"
)

// IsValid returns true if s is a recognized project status.
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusActive, ProjectStatusArchived, ProjectStatusCompleted:
		return true
	}
	return false
}

// Metadata keys used on blob-backed and link-backed records.
const (
	MetaFileName = "fileName"
	MetaMimeType = "mimeType"
	MetaSize     = "size"
	MetaURL      = "url"
)

// ContentRecord represents a registered content item. For Text and file
// kinds PayloadRef is the blob-store key; for external-link kinds it is the
// literal URL.
type ContentRecord struct {
	ID         uuid.UUID              `json:"id"`
	TenantID   string                 `json:"tenant_id"`
	ProjectID  uuid.UUID              `json:"project_id"`
	Kind       Kind                   `json:"kind"`
	Title      string                 `json:"title"`
	PayloadRef string                 `json:"payload_ref"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
	UpdatedAt  time.Time              `json:"updated_at"`
	DeletedAt  *time.Time             `json:"deleted_at,omitempty"`
}

// Project groups content records under a tenant.
type Project struct {
	ID          uuid.UUID     `json:"id"`
	TenantID    string        `json:"tenant_id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Status      ProjectStatus `json:"status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
	DeletedAt   *time.Time    `json:"deleted_at,omitempty"`
}

// ListContentParams filters a tenant-scoped content listing.
type ListContentParams struct {
	TenantID  string
	ProjectID *uuid.UUID
}

// SearchContentParams filters a tenant-scoped content search. When Query is
// set the repository ranks results by text relevance; otherwise results are
// filtered by Kind only.
type SearchContentParams struct {
	TenantID string
	Query    string
	Kind     *Kind
}
