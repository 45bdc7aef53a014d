// Package verification settles disputes between the two seats of a game.
//
// A dispute goes through the states of protocol.VerificationStates. Its
// progress is produced by a Driver: either the Simulator, which advances
// on local timers and asks a Referee for the verdict, or a ChannelDriver,
// which follows the updates of an external verifier. TranscriptReferee
// decides from the shared transcript, so that both seats reach the same
// verdict without trusting each other.
package verification
