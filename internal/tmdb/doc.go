// Package tmdb talks to The Movie Database: title search, detail lookup, and
// the cache-mediated rating resolution used by the sweep.
package tmdb
