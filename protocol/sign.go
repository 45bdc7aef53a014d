package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/sign/schnorr"
	"go.dedis.ch/kyber/v4/suites"
)

var suite suites.Suite = suites.MustFind("Ed25519")

// Group is the name of the group turns are signed in.
func Group() string {
	return suite.String()
}

// KeyPair is the signing identity of a seat for one game.
type KeyPair struct {
	Private kyber.Scalar
	Public  kyber.Point
}

func NewKeyPair() KeyPair {
	x := suite.Scalar().Pick(suite.RandomStream())
	return KeyPair{Private: x, Public: suite.Point().Mul(x, nil)}
}

// Hello returns the opening turn announcing kp.
func (kp KeyPair) Hello() (Hello, error) {
	pub, err := kp.Public.MarshalBinary()
	if err != nil {
		return Hello{}, err
	}
	return Hello{Group: Group(), PublicKey: pub}, nil
}

// Key decodes the public key announced by h.
func (h Hello) Key() (kyber.Point, error) {
	if h.Group != Group() {
		return nil, fmt.Errorf("unsupported group %q", h.Group)
	}
	p := suite.Point()
	if err := p.UnmarshalBinary(h.PublicKey); err != nil {
		return nil, fmt.Errorf("invalid public key: %w", err)
	}
	return p, nil
}

// serialize returns the JSON form of the submission with the Signature
// cleared, which is the signed data.
func (t *TurnSubmission) serialize() ([]byte, error) {
	tmp := *t
	tmp.Signature = nil
	return json.Marshal(tmp)
}

// Sign signs the submission with the Schnorr scheme of the game group.
func (t *TurnSubmission) Sign(priv kyber.Scalar) error {
	b, err := t.serialize()
	if err != nil {
		return err
	}
	sig, err := schnorr.Sign(suite, priv, b)
	if err != nil {
		return err
	}
	t.Signature = sig
	return nil
}

// VerifySignature checks the signature of the submission against pub.
func (t *TurnSubmission) VerifySignature(pub kyber.Point) error {
	if len(t.Signature) == 0 {
		return errors.New("missing signature")
	}
	b, err := t.serialize()
	if err != nil {
		return err
	}
	return schnorr.Verify(suite, pub, b, t.Signature)
}
