// ABOUTME: Record to DAG conversion
// ABOUTME: Lays out card, file or stream, security, part and related entities

package convert

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/nainya/nsilibridge/pkg/dag"
	"github.com/nainya/nsilibridge/pkg/geo"
	"github.com/nainya/nsilibridge/pkg/nsili"
	"github.com/nainya/nsilibridge/pkg/record"
)

const bytesPerMB = 1024 * 1024

var streamSchemes = []string{"rtsp", "rtp", "rtmp", "udp"}

// builder appends nodes with a parent link; edges are derived in a second pass
type builder struct {
	nodes   []dag.Node
	parents []int
	allowed map[string]bool
	emitted map[string]bool
}

func newBuilder(resultAttributes []string) *builder {
	b := &builder{emitted: make(map[string]bool)}
	if len(resultAttributes) > 0 {
		b.allowed = make(map[string]bool, len(resultAttributes))
		for _, a := range resultAttributes {
			b.allowed[a] = true
		}
	}
	return b
}

func (b *builder) add(parent int, kind dag.NodeKind, name string, v *dag.Value) int {
	id := len(b.nodes)
	b.nodes = append(b.nodes, dag.Node{ID: id, Kind: kind, Name: name, Value: v})
	b.parents = append(b.parents, parent)
	return id
}

func (b *builder) entity(parent int, name string) int {
	return b.add(parent, dag.KindEntity, name, nil)
}

func (b *builder) attr(entity int, name string, v dag.Value) {
	key := nsili.Key(b.nodes[entity].Name, name)
	if b.allowed != nil && !b.allowed[key] {
		return
	}
	b.emitted[key] = true
	b.add(entity, dag.KindAttribute, name, &v)
}

func (b *builder) text(entity int, name, s string) {
	if s != "" {
		b.attr(entity, name, dag.Text(s))
	}
}

func (b *builder) build() (dag.DAG, error) {
	g := dag.NewGraph()
	for _, n := range b.nodes {
		if err := g.AddNode(n); err != nil {
			return dag.DAG{}, err
		}
	}
	for id, parent := range b.parents {
		if parent < 0 {
			continue
		}
		if err := g.AddEdge(parent, id); err != nil {
			return dag.DAG{}, err
		}
	}
	return g.DAG(), nil
}

// ToDAG converts a record into a product DAG
func ToDAG(r record.Record, opts Options) (dag.DAG, error) {
	b := newBuilder(opts.ResultAttributes)
	root := b.add(-1, dag.KindRoot, nsili.Product, nil)

	addCard(b, root, r, opts)
	titled := addResource(b, root, r, opts)

	sec := r.Security.WithDefaults()
	addSecurity(b, b.entity(root, nsili.Security), sec)
	addSecurity(b, b.entity(root, nsili.MetadataSecurity), sec)

	addPart(b, root, r, sec, titled)

	if r.ThumbnailURL != "" {
		related := b.entity(root, nsili.RelatedFile)
		b.text(related, nsili.AttrFileType, nsili.ThumbnailFileType)
		b.text(related, nsili.AttrURL, r.ThumbnailURL)
		b.attr(related, nsili.AttrIsFileLocal, dag.Boolean(true))
	}

	for _, id := range r.Associations {
		assoc := b.entity(root, nsili.Association)
		dest := b.entity(assoc, nsili.Destination)
		card := b.entity(dest, nsili.Card)
		b.text(card, nsili.AttrIdentifier, id)
	}

	var missing []string
	for _, req := range opts.RequiredAttributes {
		if !b.emitted[req] {
			missing = append(missing, req)
		}
	}
	if len(missing) > 0 {
		return dag.DAG{}, fmt.Errorf("%w: record %q: %s", ErrMissingRequired, r.ID, strings.Join(missing, ", "))
	}

	return b.build()
}

func cardStatus(r record.Record) string {
	switch {
	case r.Deleted:
		return nsili.StatusObsolete
	case r.Created.IsZero() || r.Created.Equal(r.Modified):
		return nsili.StatusNew
	default:
		return nsili.StatusChanged
	}
}

func addCard(b *builder, root int, r record.Record, opts Options) {
	card := b.entity(root, nsili.Card)
	b.text(card, nsili.AttrIdentifier, r.ID)

	created := r.Created
	if created.IsZero() {
		created = opts.now()
	}
	b.attr(card, nsili.AttrSourceDateTimeModified, dag.DateTime(created))
	if !r.Modified.IsZero() {
		b.attr(card, nsili.AttrDateTimeModified, dag.DateTime(r.Modified))
	}

	library := r.SourceID
	if library == "" {
		library = opts.SourceLibrary
	}
	if library == "" {
		library = nsili.Unknown
	}
	b.text(card, nsili.AttrSourceLibrary, library)
	b.text(card, nsili.AttrStatus, cardStatus(r))
}

func isStream(uri string) bool {
	u, err := url.Parse(uri)
	if err != nil {
		return false
	}
	return slices.Contains(streamSchemes, strings.ToLower(u.Scheme))
}

// addResource emits the file or stream entity and reports whether the title went on a file
func addResource(b *builder, root int, r record.Record, opts Options) bool {
	if r.ResourceURI == "" {
		return false
	}
	declared := r.Created
	if declared.IsZero() {
		declared = opts.now()
	}

	if isStream(r.ResourceURI) {
		stream := b.entity(root, nsili.Stream)
		b.attr(stream, nsili.AttrArchived, dag.Boolean(false))
		b.attr(stream, nsili.AttrDateTimeDeclared, dag.DateTime(declared))
		b.text(stream, nsili.AttrSourceURL, r.ResourceURI)
		return false
	}

	file := b.entity(root, nsili.File)
	b.attr(file, nsili.AttrArchived, dag.Boolean(false))
	b.attr(file, nsili.AttrDateTimeDeclared, dag.DateTime(declared))
	if r.ResourceSize > 0 {
		b.attr(file, nsili.AttrExtent, dag.Double(float64(r.ResourceSize)/bytesPerMB))
	}
	b.attr(file, nsili.AttrIsProductLocal, dag.Boolean(true))
	b.text(file, nsili.AttrProductURL, r.ResourceURI)
	b.text(file, nsili.AttrTitle, r.Title)
	return true
}

func addSecurity(b *builder, entity int, sec nsili.SecurityDescriptor) {
	b.text(entity, nsili.AttrClassification, sec.Classification.String())
	if len(sec.Policy) > 0 {
		b.text(entity, nsili.AttrPolicy, nsili.JoinMarkings(sec.Policy))
	}
	if len(sec.Releasability) > 0 {
		b.text(entity, nsili.AttrReleasability, nsili.JoinMarkings(sec.Releasability))
	}
}

func addPart(b *builder, root int, r record.Record, sec nsili.SecurityDescriptor, titled bool) {
	part := b.entity(root, nsili.Part)
	b.text(part, nsili.AttrPartIdentifier, "1")
	addSecurity(b, b.entity(part, nsili.Security), sec)

	coverage := b.entity(part, nsili.Coverage)
	if r.Location != "" {
		if g, err := geo.Parse(r.Location); err == nil {
			b.attr(coverage, nsili.AttrSpatialRefBox, dag.Geometry(geo.BoundingBox(g)))
		}
		b.text(coverage, nsili.AttrAdvancedGeoSpatial, r.Location)
	}
	if !r.Effective.IsZero() {
		b.attr(coverage, nsili.AttrTemporalEnd, dag.DateTime(r.Effective))
	}
	addExtras(b, coverage, r)

	if typeEntity, ok := nsili.PartEntityFor(r.ContentType); ok {
		e := b.entity(part, typeEntity)
		if typeEntity == nsili.Imagery {
			b.text(e, nsili.AttrTitle, r.Title)
			titled = true
		}
		addExtras(b, e, r)
	}

	if hasExtras(r, nsili.ExploitationInfo) {
		addExtras(b, b.entity(part, nsili.ExploitationInfo), r)
	}

	common := b.entity(part, nsili.Common)
	b.text(common, nsili.AttrDescriptionAbstract, r.Description)
	b.text(common, nsili.AttrIdentifierUUID, r.ID)
	b.text(common, nsili.AttrType, r.ContentType)
	if !titled {
		b.text(common, nsili.AttrTitle, r.Title)
	}
	addExtras(b, common, r)
}

func hasExtras(r record.Record, entity string) bool {
	prefix := entity + "."
	for k := range r.Attributes {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}

// addExtras emits the record's keyed attributes that belong to the entity and have no dedicated field
func addExtras(b *builder, entity int, r record.Record) {
	name := b.nodes[entity].Name
	prefix := name + "."
	for _, k := range r.AttributeKeys() {
		if !strings.HasPrefix(k, prefix) {
			continue
		}
		attrName := strings.TrimPrefix(k, prefix)
		if _, dedicated := handlers[attrKey{name, attrName}]; dedicated {
			continue
		}
		b.attr(entity, attrName, r.Attributes[k])
	}
}

// ToDAGs converts a batch, dropping records that fail and returning how many did
func ToDAGs(records []record.Record, opts Options) ([]dag.DAG, int) {
	out := make([]dag.DAG, 0, len(records))
	failed := 0
	for _, r := range records {
		d, err := ToDAG(r, opts)
		if err != nil {
			failed++
			opts.logger().Warn().Err(err).Str("record_id", r.ID).Msg("Dropping record that failed conversion")
			continue
		}
		out = append(out, d)
	}
	return out, failed
}
