package model

// Category classifies a CI/CD notification into a closed set of outcomes.
// Every category drives both the target board state and the description
// template used when filing a work item.
type Category string

const (
	// CategoryFailure marks a failed build, deploy, or test run.
	CategoryFailure Category = "failure"

	// CategorySuccess marks a run that completed without errors.
	CategorySuccess Category = "success"

	// CategoryWarning marks a run that completed but needs review.
	CategoryWarning Category = "warning"
)

// DefaultState is the board state used when a category has no mapping
// or the backend reports no states at all.
const DefaultState = "To Do"

// categoryStates maps each category to its board workflow state.
// Every category the classifier can return has an entry here.
var categoryStates = map[Category]string{
	CategoryFailure: "To Do",
	CategoryWarning: "Doing",
	CategorySuccess: "Done",
}

// StateForCategory returns the board state a category maps to.
// Unknown categories resolve to DefaultState.
func StateForCategory(c Category) string {
	if state, ok := categoryStates[c]; ok {
		return state
	}
	return DefaultState
}

// CategoryStates returns a copy of the Category→state table, in a fixed
// order suitable for logging at startup.
func CategoryStates() []CategoryState {
	return []CategoryState{
		{CategoryFailure, categoryStates[CategoryFailure]},
		{CategoryWarning, categoryStates[CategoryWarning]},
		{CategorySuccess, categoryStates[CategorySuccess]},
	}
}

// CategoryState is one row of the Category→state table.
type CategoryState struct {
	Category Category
	State    string
}
