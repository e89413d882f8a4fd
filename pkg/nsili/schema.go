// ABOUTME: Per-view attribute schema consulted for query eligibility and validation
// ABOUTME: A default table covers the views and attributes this bridge emits

package nsili

import (
	"slices"
	"sort"
)

// AttributeType is the protocol data type of an attribute
type AttributeType string

const (
	TextAttribute      AttributeType = "TEXT"
	IntegerAttribute   AttributeType = "INTEGER"
	FloatAttribute     AttributeType = "FLOATING_POINT"
	BooleanAttribute   AttributeType = "BOOLEAN"
	DateTimeAttribute  AttributeType = "ABS_TIME"
	RectangleAttribute AttributeType = "UCOS_RECTANGLE"
)

// DomainKind describes the set of legal values for an attribute
type DomainKind string

const (
	FreeText DomainKind = "FREE_TEXT"
	List     DomainKind = "LIST"
	Range    DomainKind = "RANGE"
	Geo      DomainKind = "GEOGRAPHIC"
	Time     DomainKind = "TIME"
	Bool     DomainKind = "BOOLEAN"
)

// AttributeInfo describes one ENTITY.attribute pair within a view
type AttributeInfo struct {
	Name      string        `json:"name" yaml:"name"`
	Type      AttributeType `json:"type" yaml:"type"`
	Domain    DomainKind    `json:"domain" yaml:"domain"`
	Queryable bool          `json:"queryable" yaml:"queryable"`
	Sortable  bool          `json:"sortable" yaml:"sortable"`
	Required  bool          `json:"required" yaml:"required"`
}

// IsText reports whether the attribute holds text
func (a AttributeInfo) IsText() bool {
	return a.Type == TextAttribute
}

// Schema maps view names to their attribute tables
type Schema struct {
	views map[string][]AttributeInfo
}

// NewSchema creates a schema from explicit view tables
func NewSchema(views map[string][]AttributeInfo) *Schema {
	s := &Schema{views: make(map[string][]AttributeInfo, len(views))}
	for name, attrs := range views {
		s.views[name] = slices.Clone(attrs)
	}
	return s
}

// Views returns the view names in sorted order
func (s *Schema) Views() []string {
	out := make([]string, 0, len(s.views))
	for v := range s.views {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// HasView reports whether the view exists
func (s *Schema) HasView(view string) bool {
	_, ok := s.views[view]
	return ok
}

// Attributes returns every attribute of a view
func (s *Schema) Attributes(view string) []AttributeInfo {
	return s.views[view]
}

// Queryable returns the attributes of a view that may appear in a query.
// A nil result means the view is unknown.
func (s *Schema) Queryable(view string) []AttributeInfo {
	attrs, ok := s.views[view]
	if !ok {
		return nil
	}
	out := []AttributeInfo{}
	for _, a := range attrs {
		if a.Queryable {
			out = append(out, a)
		}
	}
	return out
}

// Lookup finds an attribute in a view
func (s *Schema) Lookup(view, name string) (AttributeInfo, bool) {
	for _, a := range s.views[view] {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeInfo{}, false
}

// IsQueryable reports whether name may be filtered on in view
func (s *Schema) IsQueryable(view, name string) bool {
	a, ok := s.Lookup(view, name)
	return ok && a.Queryable
}

// Required returns the names of attributes a product must carry to be valid in view
func (s *Schema) Required(view string) []string {
	var out []string
	for _, a := range s.views[view] {
		if a.Required {
			out = append(out, a.Name)
		}
	}
	return out
}

func text(entity, attr string, domain DomainKind) AttributeInfo {
	return AttributeInfo{Name: Key(entity, attr), Type: TextAttribute, Domain: domain, Queryable: true, Sortable: true}
}

func typed(entity, attr string, t AttributeType, domain DomainKind) AttributeInfo {
	return AttributeInfo{Name: Key(entity, attr), Type: t, Domain: domain, Queryable: true, Sortable: t != RectangleAttribute}
}

func required(a AttributeInfo) AttributeInfo {
	a.Required = true
	return a
}

var coreAttributes = []AttributeInfo{
	required(text(Card, AttrIdentifier, FreeText)),
	required(typed(Card, AttrSourceDateTimeModified, DateTimeAttribute, Time)),
	required(typed(Card, AttrDateTimeModified, DateTimeAttribute, Time)),
	required(text(Card, AttrSourceLibrary, FreeText)),
	text(Card, AttrStatus, List),
	text(Card, AttrPublisher, FreeText),
	typed(File, AttrArchived, BooleanAttribute, Bool),
	text(File, AttrCreator, FreeText),
	typed(File, AttrDateTimeDeclared, DateTimeAttribute, Time),
	typed(File, AttrExtent, FloatAttribute, Range),
	text(File, AttrFormat, List),
	text(File, AttrFormatVersion, FreeText),
	typed(File, AttrIsProductLocal, BooleanAttribute, Bool),
	text(File, AttrProductURL, FreeText),
	text(File, AttrTitle, FreeText),
	typed(Stream, AttrArchived, BooleanAttribute, Bool),
	text(Stream, AttrCreator, FreeText),
	typed(Stream, AttrDateTimeDeclared, DateTimeAttribute, Time),
	text(Stream, AttrFormat, List),
	text(Stream, AttrSourceURL, FreeText),
	required(text(Security, AttrClassification, List)),
	required(text(Security, AttrPolicy, FreeText)),
	required(text(Security, AttrReleasability, FreeText)),
	text(MetadataSecurity, AttrClassification, List),
	text(MetadataSecurity, AttrPolicy, FreeText),
	text(MetadataSecurity, AttrReleasability, FreeText),
	text(Part, AttrPartIdentifier, FreeText),
	typed(Coverage, AttrSpatialRefBox, RectangleAttribute, Geo),
	text(Coverage, AttrAdvancedGeoSpatial, FreeText),
	text(Coverage, AttrSpatialCountryCode, List),
	typed(Coverage, AttrTemporalStart, DateTimeAttribute, Time),
	typed(Coverage, AttrTemporalEnd, DateTimeAttribute, Time),
	text(Common, AttrDescriptionAbstract, FreeText),
	text(Common, AttrIdentifierUUID, FreeText),
	text(Common, AttrIdentifierMission, FreeText),
	text(Common, AttrLanguage, List),
	text(Common, AttrSource, FreeText),
	text(Common, AttrTargetNumber, FreeText),
	text(Common, AttrTitle, FreeText),
	required(text(Common, AttrType, List)),
	text(ExploitationInfo, AttrDescription, FreeText),
	typed(ExploitationInfo, AttrLevel, IntegerAttribute, Range),
	typed(ExploitationInfo, AttrAutoGenerated, BooleanAttribute, Bool),
	text(RelatedFile, AttrFileType, List),
	text(RelatedFile, AttrURL, FreeText),
}

var typeAttributes = map[string][]AttributeInfo{
	Imagery: {
		text(Imagery, AttrCategory, List),
		typed(Imagery, AttrCloudCoverPercentage, IntegerAttribute, Range),
		text(Imagery, AttrComments, FreeText),
		text(Imagery, AttrIdentifier, FreeText),
		typed(Imagery, AttrNIIRS, IntegerAttribute, Range),
		typed(Imagery, AttrNumberOfBands, IntegerAttribute, Range),
		text(Imagery, AttrTitle, FreeText),
	},
	Video: {
		text(Video, AttrCategory, List),
		text(Video, AttrEncodingScheme, List),
		typed(Video, AttrFrameRate, FloatAttribute, Range),
	},
	GMTI: {
		text(GMTI, AttrIdentifierMission, FreeText),
		typed(GMTI, AttrNumberOfTargetReports, IntegerAttribute, Range),
	},
	Message: {
		text(Message, AttrMessageBody, FreeText),
		text(Message, AttrMessageType, List),
		text(Message, AttrRecipient, FreeText),
		text(Message, AttrSubject, FreeText),
	},
	Report: {
		text(Report, AttrOriginatorsReqSerial, FreeText),
		text(Report, AttrPriority, List),
		text(Report, AttrType, List),
	},
	RFI: {
		text(RFI, AttrForAction, FreeText),
		text(RFI, AttrWorkflowStatus, List),
	},
	Task: {
		text(Task, AttrComments, FreeText),
		text(Task, AttrStatus, List),
	},
	TDL: {
		typed(TDL, AttrActivity, IntegerAttribute, Range),
		typed(TDL, AttrMessageNumber, IntegerAttribute, Range),
		typed(TDL, AttrPlatform, IntegerAttribute, Range),
		text(TDL, AttrTrackNumber, FreeText),
	},
	CBRN: {
		text(CBRN, AttrEventType, List),
		text(CBRN, AttrAlarmClassification, List),
	},
	CXP: {
		text(CXP, AttrStatus, List),
	},
}

func viewOf(entities ...string) []AttributeInfo {
	out := slices.Clone(coreAttributes)
	for _, e := range entities {
		out = append(out, typeAttributes[e]...)
	}
	return out
}

// DefaultSchema returns the built-in view tables
func DefaultSchema() *Schema {
	return NewSchema(map[string][]AttributeInfo{
		AllView:     viewOf(Imagery, Video, GMTI, Message, Report, RFI, Task, TDL, CBRN, CXP),
		ImageryView: viewOf(Imagery),
		VideoView:   viewOf(Video),
		GMTIView:    viewOf(GMTI),
		MessageView: viewOf(Message),
		ReportView:  viewOf(Report),
		CCIRMView:   viewOf(RFI, Task, CXP),
		TDLView:     viewOf(TDL),
		CBRNView:    viewOf(CBRN),
		AssociationView: {
			required(text(Card, AttrIdentifier, FreeText)),
			text(Relation, AttrRelationship, List),
		},
	})
}
