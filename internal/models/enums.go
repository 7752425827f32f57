package models

// Kind names an entity kind of the document.
type Kind string

// Entity kinds.
const (
	KindPerson     Kind = "person"
	KindFamily     Kind = "family"
	KindEvent      Kind = "event"
	KindPlace      Kind = "place"
	KindSource     Kind = "source"
	KindCitation   Kind = "citation"
	KindRepository Kind = "repository"
	KindNote       Kind = "note"
	KindTag        Kind = "tag"
)

// Kinds lists every entity kind in section order.
var Kinds = []Kind{
	KindPerson, KindFamily, KindEvent, KindPlace, KindSource,
	KindCitation, KindRepository, KindNote, KindTag,
}

// Valid reports whether k is a known entity kind.
func (k Kind) Valid() bool {
	for _, v := range Kinds {
		if k == v {
			return true
		}
	}
	return false
}

// Gender is the closed gender enumeration of a person. Values outside the
// enumeration are kept verbatim.
type Gender string

// Genders.
const (
	GenderMale    Gender = "M"
	GenderFemale  Gender = "F"
	GenderUnknown Gender = "U"
)

// Genders lists the recognized gender values.
var Genders = []Gender{GenderMale, GenderFemale, GenderUnknown}

// Valid reports whether g is a recognized value.
func (g Gender) Valid() bool {
	for _, v := range Genders {
		if g == v {
			return true
		}
	}
	return false
}

// Confidence is the citation confidence level, "0" (very low) to "4" (very high).
type Confidence string

// Confidence levels.
const (
	ConfidenceVeryLow  Confidence = "0"
	ConfidenceLow      Confidence = "1"
	ConfidenceNormal   Confidence = "2"
	ConfidenceHigh     Confidence = "3"
	ConfidenceVeryHigh Confidence = "4"
)

// Confidences lists the recognized confidence levels.
var Confidences = []Confidence{
	ConfidenceVeryLow, ConfidenceLow, ConfidenceNormal, ConfidenceHigh, ConfidenceVeryHigh,
}

// Label returns the human-readable label of the level, or the raw value.
func (c Confidence) Label() string {
	switch c {
	case ConfidenceVeryLow:
		return "Very Low"
	case ConfidenceLow:
		return "Low"
	case ConfidenceNormal:
		return "Normal"
	case ConfidenceHigh:
		return "High"
	case ConfidenceVeryHigh:
		return "Very High"
	}
	return string(c)
}

// ChildRefType is the relationship of a child to one of its parents.
type ChildRefType string

// Child relationship tags.
const (
	ChildRefNone      ChildRefType = "None"
	ChildRefBirth     ChildRefType = "Birth"
	ChildRefAdopted   ChildRefType = "Adopted"
	ChildRefStepchild ChildRefType = "Stepchild"
	ChildRefSponsored ChildRefType = "Sponsored"
	ChildRefFoster    ChildRefType = "Foster"
	ChildRefUnknown   ChildRefType = "Unknown"
	ChildRefCustom    ChildRefType = "Custom"
)

// ChildRefTypes lists the recognized child relationship tags.
var ChildRefTypes = []ChildRefType{
	ChildRefNone, ChildRefBirth, ChildRefAdopted, ChildRefStepchild,
	ChildRefSponsored, ChildRefFoster, ChildRefUnknown, ChildRefCustom,
}
