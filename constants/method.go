package constants

// ExtractionMethod tags which path produced the metadata of a result.
type ExtractionMethod string

// Stable values (exported and persisted as-is).
const (
	MethodCompletion ExtractionMethod = "completion"
	MethodFallback   ExtractionMethod = "fallback"
	MethodHybrid     ExtractionMethod = "hybrid" // only with the fill_gaps merge policy
)

// ISODateLayout is the output layout of every extracted date.
const ISODateLayout = "2006-01-02"

// MergePolicy controls whether fallback values may fill gaps of a
// successful completion result.
type MergePolicy string

const (
	MergeNone     MergePolicy = "none"
	MergeFillGaps MergePolicy = "fill_gaps"
)
