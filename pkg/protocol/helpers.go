package protocol

// NewGazeMessage creates a gaze message
func NewGazeMessage(x, y float64, word string, hasFrame bool) (*Message, error) {
	return NewMessage(TypeGaze, GazeData{
		X:        x,
		Y:        y,
		Word:     word,
		HasFrame: hasFrame,
	})
}

// NewStateMessage creates a state message
func NewStateMessage(state, sessionID string) (*Message, error) {
	return NewMessage(TypeState, StateData{
		State:     state,
		SessionID: sessionID,
	})
}

// NewSummaryMessage creates a summary message. summary is encoded as-is.
func NewSummaryMessage(summary interface{}) (*Message, error) {
	return NewMessage(TypeSummary, summary)
}

// NewLayoutMessage creates a layout message
func NewLayoutMessage(version uint64, words int) (*Message, error) {
	return NewMessage(TypeLayout, LayoutData{Version: version, Words: words})
}
