package contact

import "strings"

// Default CRM property names used by the reservation forms.
const (
	DefaultActivityProperty   = "gekozen_activiteit"
	DefaultCompletionProperty = "reservatie_voltooid"
)

// Standard CRM contact property names.
const (
	PropertyEmail     = "email"
	PropertyFirstName = "firstname"
	PropertyLastName  = "lastname"
)

// Fields names the custom CRM properties that carry the activity list and the
// completion flag.
type Fields struct {
	Activity   string
	Completion string
}

// DefaultFields returns the property names the reservation forms have always used.
func DefaultFields() Fields {
	return Fields{Activity: DefaultActivityProperty, Completion: DefaultCompletionProperty}
}

func (f Fields) withDefaults() Fields {
	if strings.TrimSpace(f.Activity) == "" {
		f.Activity = DefaultActivityProperty
	}
	if strings.TrimSpace(f.Completion) == "" {
		f.Completion = DefaultCompletionProperty
	}
	return f
}

// Properties is the CRM property bag sent in an upsert.
type Properties map[string]any

// Email returns the trimmed email property, or "" when absent or not a string.
func (p Properties) Email() string {
	v, _ := p[PropertyEmail].(string)
	return strings.TrimSpace(v)
}

// JoinActivities serializes selections for the CRM: filter names first in the
// order given, then click names, each trimmed, blanks dropped, joined with
// ", ". A name appears once even when it was both filtered and clicked; the
// dedup key only governs which entries the draft keeps.
func JoinActivities(entries []SelectionEntry) string {
	names := make([]string, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))
	for _, source := range []Source{SourceFilter, SourceClick} {
		for _, e := range entries {
			if e.Source != source {
				continue
			}
			name := strings.TrimSpace(e.Name)
			if name == "" {
				continue
			}
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

// BuildProperties derives the canonical upsert payload from a draft. Optional
// name fields are omitted when blank rather than sent empty.
func BuildProperties(d Draft, finalize bool, fields Fields) (Properties, error) {
	if !d.HasEmail() {
		return nil, ErrMissingEmail
	}
	fields = fields.withDefaults()

	props := Properties{
		PropertyEmail:     strings.TrimSpace(d.Email),
		fields.Activity:   JoinActivities(d.Activities),
		fields.Completion: finalize,
	}
	if first := strings.TrimSpace(d.FirstName); first != "" {
		props[PropertyFirstName] = first
	}
	if last := strings.TrimSpace(d.LastName); last != "" {
		props[PropertyLastName] = last
	}
	return props, nil
}

// Sanitize keeps only the properties a reservation form is allowed to write and
// drops nil values. Unknown keys are discarded.
func Sanitize(in map[string]any, fields Fields) Properties {
	fields = fields.withDefaults()
	allowed := []string{PropertyEmail, PropertyFirstName, PropertyLastName, fields.Activity, fields.Completion}

	out := make(Properties, len(allowed))
	for _, k := range allowed {
		v, ok := in[k]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString {
			s = strings.TrimSpace(s)
			if s == "" && (k == PropertyFirstName || k == PropertyLastName) {
				continue
			}
			v = s
		}
		out[k] = v
	}
	return out
}
