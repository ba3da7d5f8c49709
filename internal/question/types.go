package question

// Variant constants for the secondary offline-store key component.
const (
	VariantRandom  = "random"
	VariantBulk    = "bulk"
	VariantOffline = "offline"
)

// SupplementedSubject always blends fetched content with the curated bundled
// set, regardless of how the sources behaved.
const SupplementedSubject = "english"

// Question is the canonical shape delivered to clients and persisted offline.
type Question struct {
	ID          string            `json:"id"`
	Subject     string            `json:"subject"`
	Prompt      string            `json:"prompt"`
	Options     map[string]string `json:"options"`
	AnswerKey   string            `json:"answer"`
	Explanation string            `json:"explanation,omitempty"`
	ExamType    string            `json:"exam_type,omitempty"`
	ExamYear    string            `json:"exam_year,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Section     string            `json:"section,omitempty"`
	Passage     string            `json:"passage,omitempty"`
	Generated   bool              `json:"generated,omitempty"`
}

// RawRecord covers the field spellings seen across sources. The third-party
// API nests options under "option"; the backend store and bundled sets key
// them a..e at the top level. ID and Examyear arrive as string or number
// depending on the source, hence the loose typing.
type RawRecord struct {
	ID       any               `json:"id,omitempty"`
	Question string            `json:"question"`
	Option   map[string]string `json:"option,omitempty"`
	A        string            `json:"a,omitempty"`
	B        string            `json:"b,omitempty"`
	C        string            `json:"c,omitempty"`
	D        string            `json:"d,omitempty"`
	E        string            `json:"e,omitempty"`
	Answer   string            `json:"answer"`
	Solution string            `json:"solution,omitempty"`
	Examtype string            `json:"examtype,omitempty"`
	Examyear any               `json:"examyear,omitempty"`
	Image    string            `json:"image,omitempty"`
	Section  string            `json:"section,omitempty"`
	Passage  string            `json:"passage,omitempty"`
}

// ResolveRequest names what the caller wants from the resolver.
type ResolveRequest struct {
	Subject string
	Count   int
	Year    string
}

// Variant returns the offline-store variant key this request resolves under.
func (r ResolveRequest) Variant() string {
	if r.Year != "" {
		return r.Year
	}
	return VariantRandom
}
