// Package storage reads protein graph files from the graph directory.
package storage

import "github.com/starford/protweight/internal/models"

// Provider is the interface for graph file operations.
type Provider interface {
	// List returns metadata for every graph file under the root.
	List() ([]models.GraphMetadata, error)
	// Read returns the raw document of accession and its metadata.
	Read(accession string) ([]byte, models.GraphMetadata, error)
	// Write atomically stores a graph document for accession. ext is one of
	// the parser extensions, e.g. ".json".
	Write(accession, ext string, content []byte) error
	// Delete removes every graph file of accession.
	Delete(accession string) error
	// AccessionOf maps a path relative to the root back to its accession.
	AccessionOf(rel string) (string, bool)
}
