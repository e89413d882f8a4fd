// ABOUTME: Protocol vocabulary for STANAG 4559 product metadata
// ABOUTME: Entity, attribute, view and product type names used on the wire

package nsili

// Entity names
const (
	Product          = "NSIL_PRODUCT"
	Card             = "NSIL_CARD"
	File             = "NSIL_FILE"
	Stream           = "NSIL_STREAM"
	Security         = "NSIL_SECURITY"
	MetadataSecurity = "NSIL_METADATASECURITY"
	Part             = "NSIL_PART"
	Coverage         = "NSIL_COVERAGE"
	Common           = "NSIL_COMMON"
	ExploitationInfo = "EXPLOITATION_INFO"
	RelatedFile      = "NSIL_RELATED_FILE"
	Association      = "NSIL_ASSOCIATION"
	Relation         = "NSIL_RELATION"
	Destination      = "NSIL_DESTINATION"
	Source           = "NSIL_SOURCE"
	Approval         = "NSIL_APPROVAL"
	Imagery          = "NSIL_IMAGERY"
	Video            = "NSIL_VIDEO"
	GMTI             = "NSIL_GMTI"
	Message          = "NSIL_MESSAGE"
	Report           = "NSIL_REPORT"
	RFI              = "NSIL_RFI"
	Task             = "NSIL_TASK"
	TDL              = "NSIL_TDL"
	CBRN             = "NSIL_CBRN"
	CXP              = "NSIL_CXP"
	IR               = "NSIL_IR"
	SDS              = "NSIL_SDS"
	Entity           = "NSIL_ENTITY"
	IntRep           = "NSIL_INTREP"
	IntSum           = "NSIL_INTSUM"
)

// Attribute names
const (
	AttrIdentifier             = "identifier"
	AttrIdentifierUUID         = "identifierUUID"
	AttrSourceDateTimeModified = "sourceDateTimeModified"
	AttrDateTimeModified       = "dateTimeModified"
	AttrSourceLibrary          = "sourceLibrary"
	AttrStatus                 = "status"
	AttrPublisher              = "publisher"
	AttrArchived               = "archived"
	AttrCreator                = "creator"
	AttrDateTimeDeclared       = "dateTimeDeclared"
	AttrExtent                 = "extent"
	AttrFormat                 = "format"
	AttrFormatVersion          = "formatVersion"
	AttrIsProductLocal         = "isProductLocal"
	AttrProductURL             = "productURL"
	AttrSourceURL              = "sourceURL"
	AttrTitle                  = "title"
	AttrClassification         = "classification"
	AttrPolicy                 = "policy"
	AttrReleasability          = "releasability"
	AttrPartIdentifier         = "partIdentifier"
	AttrSpatialRefBox          = "spatialGeographicReferenceBox"
	AttrAdvancedGeoSpatial     = "advancedGeoSpatial"
	AttrSpatialCountryCode     = "spatialCountryCode"
	AttrTemporalStart          = "temporalStart"
	AttrTemporalEnd            = "temporalEnd"
	AttrDescriptionAbstract    = "descriptionAbstract"
	AttrType                   = "type"
	AttrLanguage               = "language"
	AttrSource                 = "source"
	AttrFileType               = "fileType"
	AttrURL                    = "URL"
	AttrIsFileLocal            = "isFileLocal"
	AttrRelationship           = "relationship"
	AttrCloudCoverPercentage   = "cloudCoverPercentage"
	AttrNIIRS                  = "NIIRS"
	AttrNumberOfBands          = "numberOfBands"
	AttrCategory               = "category"
	AttrEncodingScheme         = "encodingScheme"
	AttrFrameRate              = "frameRate"
	AttrNumberOfTargetReports  = "numberOfTargetReports"
	AttrMessageType            = "messageType"
	AttrMessageBody            = "messageBody"
	AttrSubject                = "subject"
	AttrRecipient              = "recipient"
	AttrOriginatorsReqSerial   = "originatorsRequestSerialNumber"
	AttrPriority               = "priority"
	AttrSituationType          = "situationType"
	AttrForAction              = "forAction"
	AttrWorkflowStatus         = "workflowStatus"
	AttrComments               = "comments"
	AttrActivity               = "activity"
	AttrMessageNumber          = "messageNumber"
	AttrPlatform               = "platform"
	AttrTrackNumber            = "trackNumber"
	AttrEventType              = "eventType"
	AttrAlarmClassification    = "alarmClassification"
	AttrDescription            = "description"
	AttrLevel                  = "level"
	AttrAutoGenerated          = "autoGenerated"
	AttrKeywords               = "keywords"
	AttrIdentifierMission      = "identifierMission"
	AttrTargetNumber           = "targetNumber"
)

// Views
const (
	AllView         = "NSIL_ALL_VIEW"
	ImageryView     = "NSIL_IMAGERY_VIEW"
	GMTIView        = "NSIL_GMTI_VIEW"
	MessageView     = "NSIL_MESSAGE_VIEW"
	VideoView       = "NSIL_VIDEO_VIEW"
	AssociationView = "NSIL_ASSOCIATION_VIEW"
	ReportView      = "NSIL_REPORT_VIEW"
	CCIRMView       = "NSIL_CCIRM_VIEW"
	TDLView         = "NSIL_TDL_VIEW"
	CBRNView        = "NSIL_CBRN_VIEW"
)

// Product types
const (
	TypeCBRN                    = "CBRN"
	TypeCollectionExploitation  = "COLLECTION/EXPLOITATION PLAN"
	TypeDocument                = "DOCUMENT"
	TypeGMTI                    = "GMTI"
	TypeImagery                 = "IMAGERY"
	TypeIntelligenceRequirement = "INTELLIGENCE REQUIREMENT"
	TypeMessage                 = "MESSAGE"
	TypeReport                  = "REPORT"
	TypeRFI                     = "RFI"
	TypeTask                    = "TASK"
	TypeTDL                     = "TDL DATA"
	TypeVideo                   = "VIDEO"
)

// Card status values
const (
	StatusNew      = "NEW"
	StatusChanged  = "CHANGED"
	StatusObsolete = "OBSOLETE"
)

// Relationship values
const (
	RelHasPart         = "HAS PART"
	RelIsVersionOf     = "IS VERSION OF"
	RelReplaces        = "REPLACES"
	RelIsSupportDataTo = "IS SUPPORT DATA TO"
	RelOriginatingFrom = "ORIGINATING FROM"
	RelFollows         = "FOLLOWS"
)

const (
	// ThumbnailFileType marks a related file carrying a preview image
	ThumbnailFileType = "THUMBNAIL"
	// NATO is the default policy and releasability marking
	NATO              = "NATO"
	// Unknown is used where a required text attribute has no source value
	Unknown           = "Unknown"
)

var partEntityByType = map[string]string{
	TypeImagery:                 Imagery,
	TypeVideo:                   Video,
	TypeGMTI:                    GMTI,
	TypeMessage:                 Message,
	TypeReport:                  Report,
	TypeRFI:                     RFI,
	TypeTask:                    Task,
	TypeTDL:                     TDL,
	TypeCBRN:                    CBRN,
	TypeCollectionExploitation:  CXP,
	TypeIntelligenceRequirement: IR,
}

var typeByPartEntity = func() map[string]string {
	m := make(map[string]string, len(partEntityByType))
	for t, e := range partEntityByType {
		m[e] = t
	}
	return m
}()

// PartEntityFor returns the type-specific part entity for a product type
func PartEntityFor(productType string) (string, bool) {
	e, ok := partEntityByType[productType]
	return e, ok
}

// ProductTypeFor returns the product type a part entity implies
func ProductTypeFor(entity string) (string, bool) {
	t, ok := typeByPartEntity[entity]
	return t, ok
}

// Key joins an entity and attribute name in the ENTITY.attribute form used by schemas and records
func Key(entity, attribute string) string {
	return entity + "." + attribute
}
