package main

import (
	"strings"

	"github.com/pterm/pterm"

	"github.com/luca-patrignani/headsup-poker/domain/poker"
	"github.com/luca-patrignani/headsup-poker/game"
	"github.com/luca-patrignani/headsup-poker/protocol"
)

func cardsString(cards []poker.Card) string {
	s := make([]string, len(cards))
	for i, c := range cards {
		s[i] = c.String()
	}
	return strings.Join(s, " - ")
}

func seatName(seat, me int) string {
	if seat == me {
		return "You"
	}
	return "Opponent"
}

func playerInfo(name string, cards []poker.Card, stake, funds uint, hand string, main bool) string {
	hpadding := 4
	if main {
		hpadding = 10
	}
	pbox := pterm.DefaultBox.WithHorizontalPadding(hpadding).WithTopPadding(1).WithBottomPadding(1)
	info := pterm.Sprintfln("Current Bet: %d\nBankroll: %d", stake, funds-stake)
	if hand != "" {
		info += pterm.Sprintfln("%s", pterm.LightCyan(hand))
	}
	return pbox.WithTitle(name).WithTitleTopLeft().Sprintf("%s%s", info, pterm.BgGreen.Sprint(cardsString(cards)))
}

func boardInfo(cards []poker.Card, phase poker.GamePhase, stakes [2]uint) string {
	pot := stakes[0] + stakes[1]
	return pterm.BgGreen.Sprintf("\n %s | Pot: %d | %s \n", cardsString(cards), pot, phase)
}

// printState renders the table as seen by the seat of e.
func printState(e *game.Engine, funds [2]uint, additionalPanel ...pterm.Panel) {
	me := e.Seat()
	stakes := e.Stakes()
	hands := e.HandDescriptions()
	opponent := pterm.Panel{Data: playerInfo(seatName(1-me, me), e.OpponentCards(), stakes[1-me], funds[1-me], hands[1-me], false)}
	mainPlayer := pterm.Panel{Data: playerInfo(seatName(me, me), e.PlayerCards(), stakes[me], funds[me], hands[me], true)}
	board := pterm.Panel{Data: boardInfo(e.CommunityCards(), e.State(), stakes)}
	dashboard := append([]pterm.Panel{mainPlayer}, additionalPanel...)
	pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		{opponent},
		{board},
		dashboard,
	}).Render()
}

func betPanel(kind poker.BetKind, amount uint) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var s string
	switch kind {
	case poker.BetRaise:
		s = pterm.Sprintfln("Opponent raised to %d", amount)
	case poker.BetFold:
		s = pterm.Sprintfln("Opponent folded")
	default:
		s = pterm.Sprintfln("Opponent performed action: %s", kind)
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|LAST ACTION|")).WithTitleTopCenter().Sprint(s)}
}

// resultPanel describes res from the point of view of seat me.
func resultPanel(res poker.Result, me int, funds [2]uint) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var info string
	for seat := range res.IsWinner {
		name := pterm.LightCyan(seatName(seat, me))
		delta := int(res.FundsShare[seat]) - int(funds[seat])
		switch {
		case res.IsWinner[seat] && delta > 0:
			info += pterm.Sprintfln("%s won %d", name, delta)
		case res.IsWinner[seat]:
			info += pterm.Sprintfln("%s split the pot", name)
		default:
			info += pterm.Sprintfln("%s lost %d", name, -delta)
		}
		if hand := res.Hands[seat]; len(hand) > 0 {
			info += pterm.Sprintfln("  %s", cardsString(hand))
		}
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|RESULT|")).WithTitleTopCenter().Sprint(info)}
}

func printVerification(state protocol.VerificationState, message string) {
	pterm.Warning.Printfln("Verification %s: %s", state, message)
}
