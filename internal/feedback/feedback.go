// Package feedback accepts user feedback about model predictions and
// appends it to a JSON Lines file.
package feedback

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	pkgerrors "github.com/agentstation/modelcast/pkg/errors"
)

// Answer is one answered question.
type Answer struct {
	QuestionID string `json:"questionID"`
	Answer     string `json:"answer"`
}

// Submission is one feedback entry as posted by the mobile app, plus the
// fields assigned on receipt.
type Submission struct {
	ID          string    `json:"id"`
	ReceivedAt  time.Time `json:"receivedAt"`
	ModelName   string    `json:"modelName"`
	ImageKey    string    `json:"imageKey,omitempty"`
	APIResponse string    `json:"apiResponse,omitempty"`
	QA          []Answer  `json:"qa"`
}

// Validate checks the fields a submission must carry.
func (s *Submission) Validate() error {
	if strings.TrimSpace(s.ModelName) == "" {
		return pkgerrors.NewValidationError("modelName", s.ModelName, "is required")
	}
	for i, qa := range s.QA {
		if strings.TrimSpace(qa.QuestionID) == "" {
			return pkgerrors.NewValidationError("qa", i, "questionID is required")
		}
	}
	return nil
}

// Decode reads and validates one submission from r. An id or receivedAt
// sent by the client is discarded.
func Decode(r io.Reader) (*Submission, error) {
	var s Submission
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, pkgerrors.WrapParse("json", "", err)
	}
	s.ID = ""
	s.ReceivedAt = time.Time{}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
