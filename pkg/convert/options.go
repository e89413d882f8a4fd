// ABOUTME: Conversion context passed explicitly into every conversion call
// ABOUTME: Carries the thumbnail resolver, logger and validation settings

package convert

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// ErrMissingRequired is returned when a produced DAG lacks a required attribute
var ErrMissingRequired = errors.New("missing required attribute")

// ResourceResolver fetches the bytes behind a resource URI
type ResourceResolver interface {
	ResolveResource(ctx context.Context, uri string) ([]byte, error)
}

// Options configures one conversion. The zero value is usable.
type Options struct {
	// Resolver fetches thumbnails referenced by related-file entities; nil disables fetching
	Resolver ResourceResolver
	Logger   *zerolog.Logger
	// SourceLibrary fills NSIL_CARD.sourceLibrary when a record has no source id
	SourceLibrary string
	// RequiredAttributes lists ENTITY.attribute pairs every produced DAG must carry
	RequiredAttributes []string
	// ResultAttributes restricts emitted attributes to these ENTITY.attribute pairs when non-empty
	ResultAttributes []string
	Now              func() time.Time
}

func (o Options) logger() *zerolog.Logger {
	if o.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return o.Logger
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}
