// Package library wraps the media-management backend's REST API: quality
// profile enumeration, library listing, item detail, and profile assignment.
// It supports both series (Sonarr-style) and movie (Radarr-style) endpoint
// layouts.
package library
