package deck

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"

	"go.dedis.ch/kyber/v4/util/random"
)

// Size is the number of card slots in a deck.
const Size = 52

// labelSpace bounds the random label of a secret.
const labelSpace = 1_000_000_000

// ErrRevealInvalid is returned when a revealed token does not follow the
// card grammar, meaning the sender did not cooperate in the reveal.
var ErrRevealInvalid = errors.New("invalid card reveal")

// validCard is the grammar a revealed card must respect: either a single
// remaining secret layer or a bare card index.
var validCard = regexp.MustCompile(`^s\d_\d{1,9}_\d{1,2}$|^\d{1,2}$`)

var layerPrefix = regexp.MustCompile(`^s(\d)_(\d{1,9})_`)

// Token is an encrypted card: zero or more secret layers followed by the
// index of the card in the unshuffled deck.
type Token string

// Secret is the layer a player applies to one deck slot. Slot is a random
// label, not the position of the slot in the deck.
type Secret struct {
	Player int `json:"player"`
	Slot   int `json:"slot"`
}

func (s Secret) String() string {
	return fmt.Sprintf("s%d_%d_", s.Player, s.Slot)
}

// SecretSet holds the secrets one player generated for a single shuffle pass.
// Epoch is unique per Codec and tags the pass the secrets belong to.
type SecretSet struct {
	Player  int      `json:"player"`
	Epoch   uint64   `json:"epoch"`
	Secrets []Secret `json:"secrets"`
}

// Contains reports whether s is one of the secrets of the set.
func (ss SecretSet) Contains(s Secret) bool {
	for _, own := range ss.Secrets {
		if own == s {
			return true
		}
	}
	return false
}

// Codec implements the placeholder commutative transform used to encrypt,
// shuffle and reveal the deck. It is safe for concurrent use.
type Codec struct {
	epoch atomic.Uint64

	mu     sync.Mutex
	issued map[Secret]struct{}
}

func NewCodec() *Codec {
	return &Codec{issued: make(map[Secret]struct{})}
}

// NewDeck returns the plain deck, one bare token per card index.
func (c *Codec) NewDeck() []Token {
	tokens := make([]Token, Size)
	for i := range tokens {
		tokens[i] = Token(strconv.Itoa(i))
	}
	return tokens
}

// NewSecrets produces one fresh secret per slot for player. Labels are
// drawn at random and never issued twice by the same Codec, so the secrets
// of one pass cannot strip the layers of another.
func (c *Codec) NewSecrets(player int, slotCount int) SecretSet {
	set := SecretSet{
		Player:  player,
		Epoch:   c.epoch.Add(1),
		Secrets: make([]Secret, slotCount),
	}
	stream := random.New()
	bound := big.NewInt(labelSpace)
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range set.Secrets {
		for {
			s := Secret{Player: player, Slot: int(random.Int(bound, stream).Int64())}
			if _, used := c.issued[s]; used {
				continue
			}
			c.issued[s] = struct{}{}
			set.Secrets[i] = s
			break
		}
	}
	return set
}

// Encrypt applies secret on top of the layers already present in t.
func (c *Codec) Encrypt(t Token, secret Secret) Token {
	return Token(secret.String() + string(t))
}

// EncryptDeck encrypts tokens[i] with set.Secrets[i].
func (c *Codec) EncryptDeck(tokens []Token, set SecretSet) ([]Token, error) {
	if len(tokens) != len(set.Secrets) {
		return nil, fmt.Errorf("deck has %d slots but %d secrets were given", len(tokens), len(set.Secrets))
	}
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		out[i] = c.Encrypt(t, set.Secrets[i])
	}
	return out, nil
}

// match returns the position of the only layer of layers that belongs to
// known, or -1.
func match(layers []Secret, known SecretSet) int {
	found := -1
	for i, l := range layers {
		if known.Contains(l) {
			if found >= 0 {
				return -1
			}
			found = i
		}
	}
	return found
}

// Layer returns the secret of known that encrypts t. ok is false when no
// layer or more than one layer matches.
func (c *Codec) Layer(t Token, known SecretSet) (Secret, bool) {
	layers, _, err := Parse(t)
	if err != nil {
		return Secret{}, false
	}
	i := match(layers, known)
	if i < 0 {
		return Secret{}, false
	}
	return layers[i], true
}

// Decrypt strips the layer of t that belongs to known. ok is false when no
// layer or more than one layer matches, in which case t is returned unchanged.
func (c *Codec) Decrypt(t Token, known SecretSet) (Token, bool) {
	layers, payload, err := Parse(t)
	if err != nil {
		return t, false
	}
	strip := match(layers, known)
	if strip < 0 {
		return t, false
	}
	var stripped string
	for i, l := range layers {
		if i != strip {
			stripped += l.String()
		}
	}
	return Token(stripped + payload), true
}

// Validate checks that t is a well-formed reveal.
func (c *Codec) Validate(t Token) error {
	if !validCard.MatchString(string(t)) {
		return fmt.Errorf("%w: %q", ErrRevealInvalid, t)
	}
	return nil
}

// Plain returns the card index of a token without layers.
func (c *Codec) Plain(t Token) (int, error) {
	layers, payload, err := Parse(t)
	if err != nil {
		return 0, err
	}
	if len(layers) > 0 {
		return 0, fmt.Errorf("token %q still has %d layers", t, len(layers))
	}
	index, err := strconv.Atoi(payload)
	if err != nil || index < 0 || index >= Size {
		return 0, fmt.Errorf("token %q is not a card index", t)
	}
	return index, nil
}

// Parse splits t into its secret layers, outermost first, and the payload.
func Parse(t Token) ([]Secret, string, error) {
	rest := string(t)
	var layers []Secret
	for {
		m := layerPrefix.FindStringSubmatch(rest)
		if m == nil {
			break
		}
		player, _ := strconv.Atoi(m[1])
		slot, _ := strconv.Atoi(m[2])
		layers = append(layers, Secret{Player: player, Slot: slot})
		rest = rest[len(m[0]):]
	}
	if _, err := strconv.Atoi(rest); err != nil || len(rest) == 0 || len(rest) > 2 {
		return nil, "", fmt.Errorf("malformed token %q", t)
	}
	return layers, rest, nil
}
