package router

import (
	"encoding/json"
	"fmt"

	"github.com/sustc/cookbook/appview"
	"github.com/sustc/cookbook/appview/storage"
)

// Hint is presentation state a page leaves behind for the next
// navigation.
type Hint struct {
	// ShowEnvelope is set while the recipe page's envelope closing
	// animation is still playing.
	ShowEnvelope bool `json:"showEnvelope"`
}

// State is the router's memory between navigations. It is not safe for
// concurrent use.
type State struct {
	// Last is the full path of the most recent completed navigation.
	Last string `json:"last,omitempty"`
	Hint *Hint  `json:"hint,omitempty"`
}

func (s *State) SetHint(h Hint) {
	s.Hint = &h
}

func (s *State) ClearHint() {
	if s != nil {
		s.Hint = nil
	}
}

func (s *State) ShowEnvelope() bool {
	return s != nil && s.Hint != nil && s.Hint.ShowEnvelope
}

// LoadState reads the navigation state from st. A missing or malformed
// entry yields a fresh state.
func LoadState(st storage.Storage) (*State, error) {
	raw, ok, err := st.GetItem(appview.NavStateKey)
	if err != nil {
		return &State{}, err
	}
	if !ok {
		return &State{}, nil
	}

	var s State
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return &State{}, nil
	}
	return &s, nil
}

func SaveState(st storage.Storage, s *State) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding navigation state: %w", err)
	}
	return st.SetItem(appview.NavStateKey, string(data))
}
