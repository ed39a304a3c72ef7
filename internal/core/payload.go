package core

import "encoding/json"

// jsonPayload is the free-form data column of an action-log record.
type jsonPayload map[string]any

func (p jsonPayload) marshal() []byte {
	if p == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(p)
	if err != nil {
		return []byte("{}")
	}
	return b
}
