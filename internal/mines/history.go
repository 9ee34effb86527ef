package mines

import (
	"encoding/json"
	"fmt"
)

const (
	HistoryLimit     = 10
	ResultDateLayout = "02.01.2006, 15:04:05"
)

// Result is a finished game as recorded in the results history.
type Result struct {
	Time  int    `json:"time"` // seconds
	Moves int    `json:"moves"`
	Date  string `json:"date"`
}

// History holds the most recent results, oldest first.
type History []Result

// Add appends r and evicts the oldest entries past [HistoryLimit].
func (h History) Add(r Result) History {
	h = append(h, r)
	if len(h) > HistoryLimit {
		h = append(History(nil), h[len(h)-HistoryLimit:]...)
	}
	return h
}

// DecodeHistory parses a stored history. An empty blob is an empty history.
func DecodeHistory(blob []byte) (History, error) {
	if len(blob) == 0 {
		return History{}, nil
	}
	var h History
	if err := json.Unmarshal(blob, &h); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedState, err)
	}
	if h == nil {
		h = History{}
	}
	return h, nil
}

func (h History) Bytes() ([]byte, error) {
	if h == nil {
		h = History{}
	}
	return json.Marshal(h)
}
