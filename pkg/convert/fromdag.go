// ABOUTME: DAG to record conversion in a single depth-first walk
// ABOUTME: Attributes dispatch through an (entity, attribute) handler table

package convert

import (
	"context"
	"strings"

	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/geo"
	"github.com/nainya/nsilibridge/pkg/nsili"
	"github.com/nainya/nsilibridge/pkg/record"
)

type attrKey struct {
	entity, attribute string
}

type handler func(w *walker, entity dag.Node, v dag.Value)

// capturedEntities keep attributes without a dedicated handler in Record.Attributes
var capturedEntities = map[string]bool{
	nsili.Imagery:          true,
	nsili.Video:            true,
	nsili.GMTI:             true,
	nsili.Message:          true,
	nsili.Report:           true,
	nsili.RFI:              true,
	nsili.Task:             true,
	nsili.TDL:              true,
	nsili.CBRN:             true,
	nsili.CXP:              true,
	nsili.SDS:              true,
	nsili.ExploitationInfo: true,
	nsili.Common:           true,
	nsili.Coverage:         true,
}

var handlers map[attrKey]handler

func init() {
	handlers = map[attrKey]handler{
		{nsili.Card, nsili.AttrIdentifier}:             setText(func(r *record.Record, s string) { r.ID = s }),
		{nsili.Card, nsili.AttrSourceDateTimeModified}: (*walker).setCreated,
		{nsili.Card, nsili.AttrDateTimeModified}:       (*walker).setModified,
		{nsili.Card, nsili.AttrSourceLibrary}:          setText(func(r *record.Record, s string) { r.SourceID = s }),
		{nsili.Card, nsili.AttrStatus}:                 setText(func(r *record.Record, s string) { r.Deleted = strings.EqualFold(s, nsili.StatusObsolete) }),

		{nsili.File, nsili.AttrProductURL}:       func(w *walker, _ dag.Node, v dag.Value) { w.fileURL, _ = v.AsText() },
		{nsili.File, nsili.AttrTitle}:            (*walker).setFileTitle,
		{nsili.File, nsili.AttrExtent}:           (*walker).setExtent,
		{nsili.File, nsili.AttrDateTimeDeclared}: (*walker).setDeclared,
		{nsili.Stream, nsili.AttrSourceURL}:      func(w *walker, _ dag.Node, v dag.Value) { w.streamURL, _ = v.AsText() },
		{nsili.Stream, nsili.AttrDateTimeDeclared}: (*walker).setDeclared,

		{nsili.Security, nsili.AttrClassification}:         (*walker).setClassification,
		{nsili.Security, nsili.AttrPolicy}:                 (*walker).setPolicy,
		{nsili.Security, nsili.AttrReleasability}:          (*walker).setReleasability,
		{nsili.MetadataSecurity, nsili.AttrClassification}: (*walker).setClassification,
		{nsili.MetadataSecurity, nsili.AttrPolicy}:         (*walker).setPolicy,
		{nsili.MetadataSecurity, nsili.AttrReleasability}:  (*walker).setReleasability,

		{nsili.Coverage, nsili.AttrSpatialRefBox}:      (*walker).setReferenceBox,
		{nsili.Coverage, nsili.AttrAdvancedGeoSpatial}: (*walker).setAdvancedGeo,
		{nsili.Coverage, nsili.AttrTemporalEnd}:        (*walker).setEffective,

		{nsili.Common, nsili.AttrDescriptionAbstract}: setText(func(r *record.Record, s string) { r.Description = s }),
		{nsili.Common, nsili.AttrIdentifierUUID}:      func(w *walker, _ dag.Node, v dag.Value) { w.uuid, _ = v.AsText() },
		{nsili.Common, nsili.AttrType}:                func(w *walker, _ dag.Node, v dag.Value) { w.declaredType, _ = v.AsText() },
		{nsili.Common, nsili.AttrTitle}:               func(w *walker, _ dag.Node, v dag.Value) { w.commonTitle, _ = v.AsText() },

		{nsili.Imagery, nsili.AttrTitle}: (*walker).setImageryTitle,

		{nsili.RelatedFile, nsili.AttrFileType}: (*walker).setRelatedType,
		{nsili.RelatedFile, nsili.AttrURL}:      (*walker).setRelatedURL,

		{nsili.Part, nsili.AttrPartIdentifier}: func(*walker, dag.Node, dag.Value) {},
	}
}

func setText(set func(r *record.Record, s string)) handler {
	return func(w *walker, _ dag.Node, v dag.Value) {
		if s, ok := v.AsText(); ok {
			set(w.rec, s)
		}
	}
}

type relatedFile struct {
	entity   int
	fileType string
	url      string
	done     bool
}

type walker struct {
	ctx  context.Context
	opts Options
	g    *dag.Graph
	rec  *record.Record

	assoc     int
	inAssoc   bool
	fragments map[int]*nsili.SecurityDescriptor
	order     []int
	related   relatedFile

	fileURL, streamURL string
	uuid               string
	declaredType       string
	commonTitle        string
	entityType         string
	imageryTitle       bool
	advancedGeo        bool
}

// FromDAG converts a product DAG into a record. Empty or structurally invalid DAGs
// yield ok == false; attributes without a usable value are skipped.
func FromDAG(ctx context.Context, d dag.DAG, opts Options) (record.Record, bool) {
	log := opts.logger()
	g, err := dag.Build(d)
	if err != nil {
		log.Warn().Err(err).Int("nodes", len(d.Nodes)).Int("edges", len(d.Edges)).Msg("Discarding malformed dag")
		return record.Record{}, false
	}

	w := &walker{
		ctx:       ctx,
		opts:      opts,
		g:         g,
		rec:       &record.Record{},
		fragments: make(map[int]*nsili.SecurityDescriptor),
		related:   relatedFile{entity: -1},
	}
	for n := range g.Walk() {
		switch n.Kind {
		case dag.KindEntity, dag.KindRecord:
			w.enterEntity(n)
		case dag.KindAttribute:
			w.visitAttribute(n)
		}
	}
	w.finish()
	return *w.rec, true
}

func (w *walker) enterEntity(n dag.Node) {
	if n.Name == nsili.Association {
		w.assoc, w.inAssoc = n.ID, true
	} else if w.inAssoc && !w.g.IsDescendant(w.assoc, n.ID) {
		w.inAssoc = false
	}

	switch n.Name {
	case nsili.Security, nsili.MetadataSecurity:
		w.fragments[n.ID] = &nsili.SecurityDescriptor{}
		w.order = append(w.order, n.ID)
	case nsili.RelatedFile:
		w.related = relatedFile{entity: n.ID}
	}

	if t, ok := nsili.ProductTypeFor(n.Name); ok && w.entityType == "" {
		w.entityType = t
	}
}

func (w *walker) visitAttribute(n dag.Node) {
	log := w.opts.logger()
	parent, ok := w.g.Parent(n.ID)
	if !ok {
		return
	}
	if n.Value == nil {
		log.Debug().Str("entity", parent.Name).Str("attribute", n.Name).Msg("Skipping attribute without value")
		return
	}

	if w.inAssoc && parent.Name == nsili.Card && w.g.IsDescendant(w.assoc, n.ID) {
		if n.Name == nsili.AttrIdentifier {
			if id, ok := n.Value.AsText(); ok {
				w.rec.Associations = append(w.rec.Associations, id)
			}
		}
		return
	}

	if h, ok := handlers[attrKey{parent.Name, n.Name}]; ok {
		h(w, parent, *n.Value)
		return
	}
	if capturedEntities[parent.Name] {
		w.rec.Set(parent.Name, n.Name, *n.Value)
		return
	}
	log.Debug().Str("entity", parent.Name).Str("attribute", n.Name).Msg("Ignoring unmapped attribute")
}

func (w *walker) setCreated(_ dag.Node, v dag.Value) {
	if t, ok := v.AsDateTime(); ok {
		w.rec.Created = t
	}
}

func (w *walker) setModified(_ dag.Node, v dag.Value) {
	if t, ok := v.AsDateTime(); ok {
		w.rec.Modified = t
	}
}

func (w *walker) setDeclared(_ dag.Node, v dag.Value) {
	if t, ok := v.AsDateTime(); ok && w.rec.Created.IsZero() {
		w.rec.Created = t
	}
}

func (w *walker) setEffective(_ dag.Node, v dag.Value) {
	if t, ok := v.AsDateTime(); ok {
		w.rec.Effective = t
	}
}

func (w *walker) setFileTitle(_ dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok && !w.imageryTitle {
		w.rec.Title = s
	}
}

func (w *walker) setImageryTitle(_ dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		w.rec.Title = s
		w.imageryTitle = true
	}
}

func (w *walker) setExtent(_ dag.Node, v dag.Value) {
	if mb, ok := v.AsDouble(); ok {
		w.rec.ResourceSize = int64(mb * bytesPerMB)
	}
}

func (w *walker) setReferenceBox(_ dag.Node, v dag.Value) {
	if r, ok := v.AsGeometry(); ok && !w.advancedGeo {
		w.rec.Location = geo.RectangleWKT(r)
	}
}

func (w *walker) setAdvancedGeo(_ dag.Node, v dag.Value) {
	s, ok := v.AsText()
	if !ok {
		return
	}
	if _, err := geo.Parse(s); err != nil {
		w.opts.logger().Warn().Err(err).Str("wkt", s).Msg("Ignoring unparsable coverage geometry")
		return
	}
	w.rec.Location = s
	w.advancedGeo = true
}

func (w *walker) fragment(entity dag.Node) *nsili.SecurityDescriptor {
	f, ok := w.fragments[entity.ID]
	if !ok {
		f = &nsili.SecurityDescriptor{}
		w.fragments[entity.ID] = f
		w.order = append(w.order, entity.ID)
	}
	return f
}

func (w *walker) setClassification(entity dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		w.fragment(entity).Classification = nsili.ParseClassification(s)
	}
}

func (w *walker) setPolicy(entity dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		f := w.fragment(entity)
		f.Policy = append(f.Policy, nsili.SplitMarkings(s)...)
	}
}

func (w *walker) setReleasability(entity dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		f := w.fragment(entity)
		f.Releasability = append(f.Releasability, nsili.SplitMarkings(s)...)
		if f.Releasability == nil {
			f.Releasability = []string{}
		}
	}
}

func (w *walker) setRelatedType(entity dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		w.relatedFor(entity).fileType = s
		w.fetchThumbnail()
	}
}

func (w *walker) setRelatedURL(entity dag.Node, v dag.Value) {
	if s, ok := v.AsText(); ok {
		w.relatedFor(entity).url = s
		w.fetchThumbnail()
	}
}

func (w *walker) relatedFor(entity dag.Node) *relatedFile {
	if w.related.entity != entity.ID {
		w.related = relatedFile{entity: entity.ID}
	}
	return &w.related
}

func (w *walker) fetchThumbnail() {
	rf := &w.related
	if rf.done || rf.fileType == "" || rf.url == "" {
		return
	}
	if !strings.EqualFold(rf.fileType, nsili.ThumbnailFileType) {
		return
	}
	rf.done = true
	w.rec.ThumbnailURL = rf.url

	if w.opts.Resolver == nil {
		return
	}
	data, err := w.opts.Resolver.ResolveResource(w.ctx, rf.url)
	if err != nil {
		w.opts.logger().Warn().Err(err).Str("url", rf.url).Msg("Thumbnail fetch failed")
		return
	}
	w.rec.Thumbnail = data
}

func (w *walker) finish() {
	var merged nsili.SecurityDescriptor
	for _, id := range w.order {
		merged = merged.Merge(*w.fragments[id])
	}
	w.rec.Security = merged

	switch {
	case w.fileURL != "":
		w.rec.ResourceURI = w.fileURL
	case w.streamURL != "":
		w.rec.ResourceURI = w.streamURL
	}

	if w.rec.ID == "" {
		w.rec.ID = w.uuid
	}
	if w.rec.Title == "" {
		w.rec.Title = w.commonTitle
	}

	switch {
	case w.declaredType != "":
		w.rec.ContentType = w.declaredType
	case w.entityType != "":
		w.rec.ContentType = w.entityType
	default:
		w.rec.ContentType = nsili.TypeDocument
	}
}
