// Package game plays one heads-up hand for one seat.
//
// An Engine is built from a GameContext and driven by Start. It deals the
// cards with the opponent over a channel.TurnChannel, runs the betting
// rounds and settles the result, either by agreement at showdown or
// through a verification when a check on the messages of the opponent
// fails.
//
// The player uses Call, Check, Raise and Fold when OnBetRequested fires.
// Every other event is reported through Handlers, which run on a goroutine
// owned by the engine.
package game
