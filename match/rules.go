package match

import (
	"strings"
	"unicode/utf8"

	"github.com/hupe1980/entigo/cleanse"
	"github.com/hupe1980/entigo/internal/editdist"
	"github.com/hupe1980/entigo/schema"
)

// Rule compares one tagged field of two records. Rules see only cleaned,
// non-empty field values; the matcher resolves the column through the
// schema and skips records whose value is absent.
type Rule interface {
	// Name identifies the rule in pair provenance.
	Name() string

	// Tag is the schema tag whose column the rule reads.
	Tag() schema.FieldTag

	// Confidence is the score assigned to matched pairs.
	Confidence() float32

	// Match reports whether the two field values agree under the rule.
	Match(a, b string) bool
}

// Compile time check to ensure ExactRule satisfies the Rule interface.
var _ Rule = (*ExactRule)(nil)

// ExactRule matches when the cleaned values are identical.
type ExactRule struct {
	tag        schema.FieldTag
	confidence float32
}

// NewExactRule creates an exact-equality rule on the given tag.
func NewExactRule(tag schema.FieldTag, confidence float32) (*ExactRule, error) {
	if !tag.Valid() {
		return nil, &schema.ErrInvalidTag{Tag: tag}
	}

	if confidence < 0 || confidence > 1 {
		return nil, &ErrInvalidConfidence{Confidence: confidence}
	}

	return &ExactRule{tag: tag, confidence: confidence}, nil
}

// Name implements Rule.
func (r *ExactRule) Name() string {
	return "exact_" + r.tag.String()
}

// Tag implements Rule.
func (r *ExactRule) Tag() schema.FieldTag {
	return r.tag
}

// Confidence implements Rule.
func (r *ExactRule) Confidence() float32 {
	return r.confidence
}

// Match implements Rule.
func (r *ExactRule) Match(a, b string) bool {
	return a == b
}

// Compile time check to ensure EditDistanceRule satisfies the Rule interface.
var _ Rule = (*EditDistanceRule)(nil)

// EditDistanceRule matches when the whole values are within MaxEdits
// Levenshtein edits of each other. With MaxEdits zero it degenerates to
// exact equality.
type EditDistanceRule struct {
	tag        schema.FieldTag
	maxEdits   int
	confidence float32
}

// NewEditDistanceRule creates a bounded edit-distance rule on the given tag.
func NewEditDistanceRule(tag schema.FieldTag, maxEdits int, confidence float32) (*EditDistanceRule, error) {
	if !tag.Valid() {
		return nil, &schema.ErrInvalidTag{Tag: tag}
	}

	if maxEdits < 0 {
		return nil, &ErrInvalidMaxEdits{MaxEdits: maxEdits}
	}

	if confidence < 0 || confidence > 1 {
		return nil, &ErrInvalidConfidence{Confidence: confidence}
	}

	return &EditDistanceRule{tag: tag, maxEdits: maxEdits, confidence: confidence}, nil
}

// Name implements Rule.
func (r *EditDistanceRule) Name() string {
	return "edit_distance_" + r.tag.String()
}

// Tag implements Rule.
func (r *EditDistanceRule) Tag() schema.FieldTag {
	return r.tag
}

// Confidence implements Rule.
func (r *EditDistanceRule) Confidence() float32 {
	return r.confidence
}

// Match implements Rule.
func (r *EditDistanceRule) Match(a, b string) bool {
	return editdist.Within(a, b, r.maxEdits)
}

// minStemRunes is the shortest token that still counts as a meaningful stem
// for prefix expansion. Below it, "jo"/"joan" style coincidences would pair
// unrelated names.
const minStemRunes = 3

// Compile time check to ensure NameRule satisfies the Rule interface.
var _ Rule = (*NameRule)(nil)

// NameRule compares person names token by token. Tokens are paired by
// position; a token pair where one extends the other ("jon"/"jonathan")
// costs a single edit when the shorter side is at least minStemRunes long,
// any other unequal pair costs its Levenshtein distance, and unpaired
// trailing tokens cost their full length. The names match when the total
// stays within MaxEdits.
//
// With MaxEdits zero the rule degenerates to exact token-sequence equality.
type NameRule struct {
	tag        schema.FieldTag
	maxEdits   int
	confidence float32
}

// NewNameRule creates a token-aware name rule on the given tag.
func NewNameRule(tag schema.FieldTag, maxEdits int, confidence float32) (*NameRule, error) {
	if !tag.Valid() {
		return nil, &schema.ErrInvalidTag{Tag: tag}
	}

	if maxEdits < 0 {
		return nil, &ErrInvalidMaxEdits{MaxEdits: maxEdits}
	}

	if confidence < 0 || confidence > 1 {
		return nil, &ErrInvalidConfidence{Confidence: confidence}
	}

	return &NameRule{tag: tag, maxEdits: maxEdits, confidence: confidence}, nil
}

// Name implements Rule.
func (r *NameRule) Name() string {
	return "name_" + r.tag.String()
}

// Tag implements Rule.
func (r *NameRule) Tag() schema.FieldTag {
	return r.tag
}

// Confidence implements Rule.
func (r *NameRule) Confidence() float32 {
	return r.confidence
}

// Match implements Rule.
func (r *NameRule) Match(a, b string) bool {
	return nameWithin(a, b, r.maxEdits)
}

func nameWithin(a, b string, maxEdits int) bool {
	at := strings.Fields(a)
	bt := strings.Fields(b)

	paired := min(len(at), len(bt))
	total := 0

	for i := 0; i < paired; i++ {
		total += tokenDistance(at[i], bt[i])
		if total > maxEdits {
			return false
		}
	}

	for _, t := range at[paired:] {
		total += utf8.RuneCountInString(t)
		if total > maxEdits {
			return false
		}
	}

	for _, t := range bt[paired:] {
		total += utf8.RuneCountInString(t)
		if total > maxEdits {
			return false
		}
	}

	return true
}

func tokenDistance(a, b string) int {
	if a == b {
		return 0
	}

	if prefixExpansion(a, b) {
		return 1
	}

	return editdist.Distance(a, b)
}

// prefixExpansion reports whether one token extends the other, with the
// shorter side long enough to be a stem rather than a coincidence.
func prefixExpansion(a, b string) bool {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}

	if len(shorter) == len(longer) {
		return false
	}

	if utf8.RuneCountInString(shorter) < minStemRunes {
		return false
	}

	return strings.HasPrefix(longer, shorter)
}

// Compile time check to ensure EmailRule satisfies the Rule interface.
var _ Rule = (*EmailRule)(nil)

// EmailRule matches when two addresses canonicalize to the same mailbox:
// case folded, any "+suffix" stripped from the local part, and dots in the
// local part ignored for Google-hosted domains.
type EmailRule struct {
	confidence float32
}

// NewEmailRule creates a canonical-email rule. It always reads the email
// tag.
func NewEmailRule(confidence float32) (*EmailRule, error) {
	if confidence < 0 || confidence > 1 {
		return nil, &ErrInvalidConfidence{Confidence: confidence}
	}

	return &EmailRule{confidence: confidence}, nil
}

// Name implements Rule.
func (r *EmailRule) Name() string {
	return "email_canonical"
}

// Tag implements Rule.
func (r *EmailRule) Tag() schema.FieldTag {
	return schema.TagEmail
}

// Confidence implements Rule.
func (r *EmailRule) Confidence() float32 {
	return r.confidence
}

// Match implements Rule.
func (r *EmailRule) Match(a, b string) bool {
	return cleanse.CanonicalEmail(a) == cleanse.CanonicalEmail(b)
}
