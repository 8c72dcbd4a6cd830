package models

import (
	"encoding/json"
	"strings"
)

// QuestionDTO is what a learner sees. There is deliberately no answer field.
type QuestionDTO struct {
	ID       uint     `json:"id"`
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	ImageURL string   `json:"image_url,omitempty"`
	Choices  []string `json:"choices"`
}

func (q Question) ToDTO() QuestionDTO {
	return QuestionDTO{
		ID:       q.ID,
		Type:     q.Type,
		Text:     q.Text,
		ImageURL: q.ImageURL,
		Choices:  q.ChoiceTexts(),
	}
}

// ChoiceTexts decodes Choices. Entries may be plain strings or objects with
// a "text" field; anything else becomes an empty entry so indexes still line
// up with the stored order.
func (q Question) ChoiceTexts() []string {
	if len(q.Choices) == 0 {
		return []string{}
	}
	var raw []json.RawMessage
	if err := json.Unmarshal(q.Choices, &raw); err != nil {
		return []string{}
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out[i] = strings.TrimSpace(s)
			continue
		}
		var obj struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(item, &obj); err == nil {
			out[i] = strings.TrimSpace(obj.Text)
		}
	}
	return out
}
