package ledger

import (
	"encoding/json"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

// Block records one message exchanged during a game.
type Block struct {
	Index     int             `json:"index"`
	Timestamp int64           `json:"timestamp"`
	PrevHash  string          `json:"prev_hash"`
	Hash      string          `json:"hash"`
	Type      string          `json:"type"`
	From      int             `json:"from"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  Metadata        `json:"metadata"`

	// Message is the decoded form of Payload.
	Message protocol.Message `json:"-"`
}

type Metadata struct {
	GameID string            `json:"game_id"`
	Extra  map[string]string `json:"extra,omitempty"`
}
