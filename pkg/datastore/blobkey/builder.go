// Package blobkey derives blob-store keys for content payloads. Keys are
// namespaced per tenant and per content category so that cross-tenant
// collisions are impossible and bulk cleanup by tenant or category stays a
// prefix operation.
package blobkey

import (
	"fmt"
	"strings"
	"time"
)

// Builder defines the interface for blob key generation strategies.
type Builder interface {
	// Build derives a storage key from tenant, content category, the
	// original file name, and an upload timestamp. Implementations must be
	// pure: same inputs, same key.
	Build(tenantID, category, originalName string, at time.Time) string
}

// TenantPrefixBuilder produces keys of the form
//
//	{tenant}/{root}/{category}/{unix-millis}-{filename}
//
// The millisecond timestamp keeps repeated uploads of identically named
// files from colliding, and gives retries of a failed request a fresh key.
type TenantPrefixBuilder struct {
	// Root is the path segment between tenant and category (default
	// "uploads").
	Root string
}

// NewTenantPrefixBuilder returns the default key builder.
func NewTenantPrefixBuilder() *TenantPrefixBuilder {
	return &TenantPrefixBuilder{Root: "uploads"}
}

func (b *TenantPrefixBuilder) Build(tenantID, category, originalName string, at time.Time) string {
	root := b.Root
	if root == "" {
		root = "uploads"
	}
	name := sanitizeFilename(originalName)
	if name == "" {
		name = "blob"
	}
	return fmt.Sprintf("%s/%s/%s/%d-%s",
		sanitizePathComponent(tenantID), root, sanitizePathComponent(category), at.UnixMilli(), name)
}

// CustomFuncBuilder allows callers to provide their own key generation
// function.
type CustomFuncBuilder struct {
	BuildFunc func(tenantID, category, originalName string, at time.Time) string
}

func NewCustomFuncBuilder(fn func(tenantID, category, originalName string, at time.Time) string) *CustomFuncBuilder {
	return &CustomFuncBuilder{BuildFunc: fn}
}

func (b *CustomFuncBuilder) Build(tenantID, category, originalName string, at time.Time) string {
	return b.BuildFunc(tenantID, category, originalName, at)
}

// Helper functions for path sanitization

func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "_",
	)
	return replacer.Replace(filename)
}

func sanitizePathComponent(component string) string {
	return strings.ToLower(sanitizeFilename(component))
}
