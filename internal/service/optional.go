package service

import "encoding/json"

// NullableString tells an absent JSON field apart from an explicit null.
// Set is false when the field was missing from the body.
type NullableString struct {
	Value *string
	Set   bool
}

// NewNullableString returns a present field holding s.
func NewNullableString(s string) NullableString {
	return NullableString{Value: &s, Set: true}
}

func (n *NullableString) UnmarshalJSON(data []byte) error {
	n.Set = true
	if string(data) == "null" {
		n.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	n.Value = &s
	return nil
}

func (n NullableString) MarshalJSON() ([]byte, error) {
	return json.Marshal(n.Value)
}
