package boards

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lmedina/mailboard/internal/extract"
	"github.com/lmedina/mailboard/internal/model"
)

// fakeAPI is an in-memory API implementation recording create calls.
type fakeAPI struct {
	itemTypes    []string
	itemTypesErr error
	states       []string
	statesErr    error
	createErr    error

	created []CreateRequest
}

func (f *fakeAPI) ListItemTypes(context.Context) ([]string, error) {
	return f.itemTypes, f.itemTypesErr
}

func (f *fakeAPI) ListStates(context.Context, string) ([]string, error) {
	return f.states, f.statesErr
}

func (f *fakeAPI) CreateWorkItem(_ context.Context, req CreateRequest) (*CreatedItem, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	return &CreatedItem{ID: "42", URL: "https://dev.azure.com/acme/proj/_workitems/edit/42"}, nil
}

func details() extract.Details {
	return extract.Details{
		Error:  "compile error",
		Body:   "Error: compile error",
		Sender: "azuredevops@microsoft.com",
	}
}

func newSubmitter(api API) *Submitter {
	return NewSubmitter(api, "Issue", model.DefaultTitlePrefixes(), zap.NewNop())
}

func TestSubmitUsesMappedState(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue", "Task"},
		states:    []string{"To Do", "Doing", "Done"},
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build #42 failed", model.CategoryFailure, details())

	require.True(t, result.Success)
	assert.Equal(t, "42", result.ItemID)
	assert.Equal(t, "https://dev.azure.com/acme/proj/_workitems/edit/42", result.ItemURL)
	assert.Equal(t, "To Do", result.State)

	require.Len(t, api.created, 1)
	req := api.created[0]
	assert.Equal(t, "Issue", req.ItemType)
	assert.Equal(t, "To Do", req.State)
	assert.Equal(t, autoTag, req.Tags)
	assert.Contains(t, req.Title, "Build #42 failed")
	assert.Contains(t, req.Description, "compile error")
	assert.Contains(t, req.HistoryNote, "azuredevops@microsoft.com")
}

func TestSubmitFallsBackToFirstValidState(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue"},
		states:    []string{"New", "Active", "Closed"},
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, details())

	require.True(t, result.Success)
	assert.Equal(t, "New", result.State)
}

func TestSubmitEmptyStatesUsesHardcodedDefault(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue"},
		states:    nil,
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, details())

	require.True(t, result.Success)
	assert.Equal(t, model.DefaultState, result.State)
}

func TestSubmitStatesErrorKeepsMappedState(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue"},
		statesErr: errors.New("boom"),
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Run succeeded", model.CategorySuccess, details())

	require.True(t, result.Success)
	assert.Equal(t, "Done", result.State)
}

func TestSubmitItemTypeFallback(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Bug", "Task"},
		states:    []string{"To Do"},
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, details())

	require.True(t, result.Success)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Bug", api.created[0].ItemType)
}

func TestSubmitItemTypesErrorKeepsConfiguredType(t *testing.T) {
	api := &fakeAPI{
		itemTypesErr: errors.New("boom"),
		states:       []string{"To Do"},
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, details())

	require.True(t, result.Success)
	require.Len(t, api.created, 1)
	assert.Equal(t, "Issue", api.created[0].ItemType)
}

func TestSubmitCreateFailureIsSoft(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue"},
		states:    []string{"To Do"},
		createErr: errors.New("503 from backend"),
	}
	s := newSubmitter(api)

	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, details())

	assert.False(t, result.Success)
	assert.Empty(t, result.ItemID)
	assert.Empty(t, result.ItemURL)
}

func TestSubmitBlankSenderSkipsHistoryNote(t *testing.T) {
	api := &fakeAPI{
		itemTypes: []string{"Issue"},
		states:    []string{"To Do"},
	}
	s := newSubmitter(api)

	d := details()
	d.Sender = ""
	result := s.Submit(context.Background(), "Build failed", model.CategoryFailure, d)

	require.True(t, result.Success)
	require.Len(t, api.created, 1)
	assert.Empty(t, api.created[0].HistoryNote)
}
