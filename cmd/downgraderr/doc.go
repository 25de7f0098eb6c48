// Command downgraderr classifies Sonarr/Radarr library items into quality
// tiers using TMDB ratings and pushes the matching quality profile back to
// the backend.
package main
