package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaseStatus(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  CaseStatus
		ok    bool
	}{
		{name: "pending", input: "pending", want: CaseStatusPending, ok: true},
		{name: "mixed case with spaces", input: "  Under_Review ", want: CaseStatusUnderReview, ok: true},
		{name: "proposals", input: "proposals_available", want: CaseStatusProposalsAvailable, ok: true},
		{name: "completed", input: "completed", want: CaseStatusCompleted, ok: true},
		{name: "cancelled", input: "cancelled", want: CaseStatusCancelled, ok: true},
		{name: "unknown", input: "whatever", want: "", ok: false},
		{name: "empty", input: "", want: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseCaseStatus(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCaseStatusLabelsAreExhaustive(t *testing.T) {
	// Every supported status must map to a label and a progress value
	// without hitting the panic branch.
	for _, s := range AllCaseStatuses() {
		assert.NotEmpty(t, s.Label(), "label for %s", s)
		p := s.Progress()
		assert.GreaterOrEqual(t, p, 0)
		assert.LessOrEqual(t, p, 100)
	}
}

func TestCaseStatusLabelPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { _ = CaseStatus("bogus").Label() })
}

func TestCreateProfileRequestValidate(t *testing.T) {
	valid := func() CreateProfileRequest {
		return CreateProfileRequest{
			ID:       "user-1",
			Name:     "Maria Souza",
			Document: "123.456.789-00",
			Email:    "maria@example.com",
			Phone:    "+55 11 99999-0000",
		}
	}

	t.Run("valid", func(t *testing.T) {
		req := valid()
		require.NoError(t, req.Validate())
	})

	t.Run("missing id", func(t *testing.T) {
		req := valid()
		req.ID = " "
		assert.Error(t, req.Validate())
	})

	t.Run("missing name", func(t *testing.T) {
		req := valid()
		req.Name = ""
		assert.Error(t, req.Validate())
	})

	t.Run("name too long", func(t *testing.T) {
		req := valid()
		req.Name = strings.Repeat("a", maxNameLen+1)
		assert.Error(t, req.Validate())
	})

	t.Run("missing document", func(t *testing.T) {
		req := valid()
		req.Document = ""
		assert.Error(t, req.Validate())
	})

	t.Run("bad person type", func(t *testing.T) {
		req := valid()
		req.PersonType = "alien"
		assert.Error(t, req.Validate())
	})

	t.Run("empty person type defaults to individual", func(t *testing.T) {
		req := valid()
		req.PersonType = ""
		assert.NoError(t, req.Validate())
	})
}
