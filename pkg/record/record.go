// ABOUTME: Flat catalog record exchanged with the catalog boundary
// ABOUTME: Typed top-level fields plus ENTITY.attribute keyed extras

package record

import (
	"maps"
	"slices"
	"time"

	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/nsili"
)

// Record is one catalog item
type Record struct {
	ID           string                   `json:"id"`
	Title        string                   `json:"title,omitempty"`
	Description  string                   `json:"description,omitempty"`
	Created      time.Time                `json:"created,omitzero"`
	Modified     time.Time                `json:"modified,omitzero"`
	Effective    time.Time                `json:"effective,omitzero"`
	Location     string                   `json:"location,omitempty"` // WKT
	ContentType  string                   `json:"content_type,omitempty"`
	ResourceURI  string                   `json:"resource_uri,omitempty"`
	ResourceSize int64                    `json:"resource_size,omitempty"` // bytes
	SourceID     string                   `json:"source_id,omitempty"`
	Deleted      bool                     `json:"deleted,omitempty"`
	Attributes   map[string]dag.Value     `json:"attributes,omitempty"`
	Security     nsili.SecurityDescriptor `json:"security"`
	Associations []string                 `json:"associations,omitempty"`
	ThumbnailURL string                   `json:"thumbnail_url,omitempty"`
	Thumbnail    []byte                   `json:"thumbnail,omitempty"`
}

// Set stores an ENTITY.attribute value
func (r *Record) Set(entity, attribute string, v dag.Value) {
	if r.Attributes == nil {
		r.Attributes = make(map[string]dag.Value)
	}
	r.Attributes[nsili.Key(entity, attribute)] = v
}

// Get returns an ENTITY.attribute value
func (r *Record) Get(entity, attribute string) (dag.Value, bool) {
	v, ok := r.Attributes[nsili.Key(entity, attribute)]
	return v, ok
}

// AttributeKeys returns the extra attribute keys in sorted order
func (r *Record) AttributeKeys() []string {
	return slices.Sorted(maps.Keys(r.Attributes))
}
