package deck

import (
	"fmt"
	"math/big"

	"go.dedis.ch/kyber/v4/util/random"
)

// Shuffle applies the same uniformly random permutation to tokens and to the
// secrets of set, so that set.Secrets[i] keeps encrypting tokens[i].
// Randomness comes from the system source only.
func (c *Codec) Shuffle(tokens []Token, set SecretSet) ([]Token, SecretSet, error) {
	if len(tokens) != len(set.Secrets) {
		return nil, SecretSet{}, fmt.Errorf("deck has %d slots but %d secrets were given", len(tokens), len(set.Secrets))
	}
	deck := append([]Token(nil), tokens...)
	shuffled := SecretSet{
		Player:  set.Player,
		Epoch:   set.Epoch,
		Secrets: append([]Secret(nil), set.Secrets...),
	}
	stream := random.New()
	for i := len(deck) - 1; i > 0; i-- {
		j := int(random.Int(big.NewInt(int64(i+1)), stream).Int64())
		deck[i], deck[j] = deck[j], deck[i]
		shuffled.Secrets[i], shuffled.Secrets[j] = shuffled.Secrets[j], shuffled.Secrets[i]
	}
	return deck, shuffled, nil
}

// Pass runs one player's turn of the deck exchange: the deck is encrypted
// with fresh secrets and then shuffled together with them.
func (c *Codec) Pass(tokens []Token, player int) ([]Token, SecretSet, error) {
	set := c.NewSecrets(player, len(tokens))
	encrypted, err := c.EncryptDeck(tokens, set)
	if err != nil {
		return nil, SecretSet{}, err
	}
	return c.Shuffle(encrypted, set)
}
