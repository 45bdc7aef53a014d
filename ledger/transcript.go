package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/luca-patrignani/headsup-poker/protocol"
)

const genesisType = "genesis"

// Transcript is the append-only, hash-chained log of the messages of a game.
// It is safe for concurrent use.
type Transcript struct {
	mu     sync.RWMutex
	gameID string
	blocks []Block
}

// NewTranscript creates a transcript with an initialized genesis block.
// The genesis block has index 0, previous hash "0" and no message.
func NewTranscript(gameID string) *Transcript {
	t := &Transcript{
		gameID: gameID,
		blocks: make([]Block, 0),
	}
	genesis := Block{
		Index:     0,
		Timestamp: time.Now().UnixNano(),
		PrevHash:  "0",
		Type:      genesisType,
		From:      protocol.Verifier,
		Metadata:  Metadata{GameID: gameID},
	}
	genesis.Hash = calculateHash(genesis)
	t.blocks = append(t.blocks, genesis)
	return t
}

func (t *Transcript) GameID() string {
	return t.gameID
}

// Append records m at the end of the transcript and returns the new block.
func (t *Transcript) Append(m protocol.Message, extra ...map[string]string) (Block, error) {
	payload, err := protocol.Encode(m)
	if err != nil {
		return Block{}, fmt.Errorf("cannot encode %s: %w", protocol.Type(m), err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	var extraMsg map[string]string
	if len(extra) > 0 {
		extraMsg = extra[0]
	}
	latest := t.blocks[len(t.blocks)-1]
	newBlock := Block{
		Index:     latest.Index + 1,
		Timestamp: time.Now().UnixNano(),
		PrevHash:  latest.Hash,
		Type:      protocol.Type(m),
		From:      m.Sender(),
		Payload:   payload,
		Metadata:  Metadata{GameID: t.gameID, Extra: extraMsg},
		Message:   m,
	}
	newBlock.Hash = calculateHash(newBlock)

	if err := validateBlock(newBlock, latest); err != nil {
		return Block{}, fmt.Errorf("invalid block: %w", err)
	}
	t.blocks = append(t.blocks, newBlock)
	return newBlock, nil
}

// Len returns the number of blocks, genesis included.
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.blocks)
}

// GetLatest returns the most recently added block.
func (t *Transcript) GetLatest() Block {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.blocks[len(t.blocks)-1]
}

// GetByIndex retrieves a block by its index in the chain. Returns an error if the index
// is out of range.
func (t *Transcript) GetByIndex(index int) (Block, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if index < 0 || index >= len(t.blocks) {
		return Block{}, fmt.Errorf("index %d out of range", index)
	}
	return t.blocks[index], nil
}

// Messages returns the recorded messages in order, genesis excluded.
func (t *Transcript) Messages() []protocol.Message {
	t.mu.RLock()
	defer t.mu.RUnlock()

	messages := make([]protocol.Message, 0, len(t.blocks)-1)
	for _, b := range t.blocks[1:] {
		messages = append(messages, b.Message)
	}
	return messages
}

// Verify validates the integrity of the entire chain by checking the genesis block
// and verifying each subsequent block's hash, index continuity, and previous hash linkage.
func (t *Transcript) Verify() error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.blocks[0].PrevHash != "0" || t.blocks[0].Type != genesisType {
		return fmt.Errorf("invalid genesis block")
	}
	if t.blocks[0].Hash != calculateHash(t.blocks[0]) {
		return fmt.Errorf("invalid genesis hash")
	}
	for i := 1; i < len(t.blocks); i++ {
		if err := validateBlock(t.blocks[i], t.blocks[i-1]); err != nil {
			return fmt.Errorf("block %d invalid: %w", i, err)
		}
	}
	return nil
}

// validateBlock verifies that a block is valid relative to the previous block. It checks
// index continuity, previous hash linkage and current hash validity.
func validateBlock(current, previous Block) error {
	if current.Index != previous.Index+1 {
		return fmt.Errorf("invalid index: expected %d, got %d", previous.Index+1, current.Index)
	}
	if current.PrevHash != previous.Hash {
		return fmt.Errorf("invalid prev hash: expected %s, got %s", previous.Hash, current.PrevHash)
	}
	expectedHash := calculateHash(current)
	if current.Hash != expectedHash {
		return fmt.Errorf("invalid hash: expected %s, got %s", expectedHash, current.Hash)
	}
	return nil
}

// calculateHash computes the SHA256 hash of a block based on its index, timestamp,
// previous hash, type, sender, payload and game ID.
func calculateHash(block Block) string {
	data := fmt.Sprintf("%d%d%s%s%d%s%s",
		block.Index,
		block.Timestamp,
		block.PrevHash,
		block.Type,
		block.From,
		string(block.Payload),
		block.Metadata.GameID,
	)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
