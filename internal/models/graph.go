// Package models defines the domain types shared across protweight packages.
package models

import "time"

// GraphMetadata describes one graph file of the graph directory.
type GraphMetadata struct {
	Accession string    `json:"accession"`
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QueryResult is one verified path of a weight query.
type QueryResult struct {
	Path     []int   `json:"path"`
	Weight   float64 `json:"weight"`
	Sequence string  `json:"sequence"`
}

// QueryStats counts the work of one search.
type QueryStats struct {
	Expanded int64 `json:"expanded"`
	Pruned   int64 `json:"pruned"`
	Rejected int64 `json:"rejected"`
}

// QueryResponse is the answer to a weight query. Time is in seconds.
type QueryResponse struct {
	QueryID   string        `json:"query_id"`
	Accession string        `json:"accession"`
	Algorithm string        `json:"algorithm"`
	K         int           `json:"k"`
	Target    [2]float64    `json:"target"`
	Time      float64       `json:"time"`
	TimedOut  bool          `json:"timed_out"`
	Results   []QueryResult `json:"results"`
	Stats     QueryStats    `json:"stats"`
}
