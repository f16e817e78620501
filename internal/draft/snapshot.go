package draft

// Checkbox is one filter control as currently shown on the form.
type Checkbox struct {
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
	Label   string `json:"label"`
}

// FormSnapshot reads the current state of the form's filter checkboxes, in
// document order.
type FormSnapshot interface {
	Checkboxes() []Checkbox
}

// StaticSnapshot is a FormSnapshot over a fixed list, e.g. decoded from a
// request body.
type StaticSnapshot []Checkbox

func (s StaticSnapshot) Checkboxes() []Checkbox {
	return s
}
