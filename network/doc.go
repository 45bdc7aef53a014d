// Package network carries the messages of a game between two machines.
//
// A Peer is the channel.TurnChannel of one seat. It serves the messages
// of the opponent over HTTP, one route per message type, and posts its
// own to the opponent. Each request carries the Clock and SenderRank
// headers: the receiver delivers clock n+1 only after n and acknowledges
// retransmissions without delivering them twice, so a sender can retry
// until its message is accepted.
//
// A Verifier publishes verification updates to both seats with the same
// mechanism, as sender protocol.Verifier.
//
// WithTLS switches a Peer to HTTPS with mutual authentication, using
// certificates such as those of GenerateSelfSignedCert.
package network
