// Package poker implements the domain logic of a heads-up Texas Hold'em
// hand: cards, phases, betting and the computation of results.
//
// # Core Types
//
// Card: a playing card with suit and rank.
//
// GamePhase: START → PREFLOP → FLOP → TURN → RIVER → SHOWDOWN → END, plus
// the VERIFICATION interrupt that can only be left for END.
//
// Betting: the stakes of both seats and the bet leader, seen from one seat.
// It classifies the opponent's stake updates as raise, call or check and
// signals when a betting round is over.
//
// Arbiter: computes the Result of a hand for showdowns, folds,
// verifications that caught a cheater and timeout claims.
//
// # Hand Evaluation
//
// HandEvaluator decides the winner among revealed 7-card hands. Evaluator
// implements it with paulhankin/poker; ties mark both seats as winners.
package poker
