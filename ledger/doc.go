// Package ledger implements the immutable transcript of a heads-up game:
// every turn, claim, confirmation and challenge exchanged by the two seats.
//
// # Core Components
//
// Transcript: an append-only log with cryptographic hash chaining for
// tamper detection.
//
// Block: a single recorded message with its encoded payload and the link
// to the previous block.
//
// # Usage
//
// The turn channel appends each message it carries. During a dispute the
// verifier replays the transcript to find which seat broke the protocol.
// The Verify method can be called at any time to ensure the chain remains
// intact.
package ledger
