package card

import (
	"fmt"

	"discipline-service/internal/model"
)

// Classify derives the card status from counts. A red card always wins over a
// residual yellow card.
func Classify(yellow, red int) model.CardStatus {
	switch {
	case red > 0:
		return model.CardStatusRed
	case yellow > 0:
		return model.CardStatusYellow
	default:
		return model.CardStatusNormal
	}
}

func DisplayText(status model.ViolationStatus) string {
	switch Classify(status.CurrentYellowCards, status.CurrentRedCards) {
	case model.CardStatusRed:
		return fmt.Sprintf("红牌 %d张", status.CurrentRedCards)
	case model.CardStatusYellow:
		return fmt.Sprintf("黄牌 %d张", status.CurrentYellowCards)
	default:
		return "正常"
	}
}

func DisplayColor(status model.ViolationStatus) model.Color {
	switch Classify(status.CurrentYellowCards, status.CurrentRedCards) {
	case model.CardStatusRed:
		return model.ColorRed
	case model.CardStatusYellow:
		return model.ColorOrange
	default:
		return model.ColorGreen
	}
}

// IsNearRedCard reports whether one more violation this week would escalate.
func IsNearRedCard(status model.ViolationStatus) bool {
	return status.CurrentYellowCards >= 1 && status.CurrentRedCards == 0
}

// YellowCardsToRed is the number of further yellow cards needed within the
// current week to force an escalation.
func YellowCardsToRed(currentYellowCards int) int {
	if n := yellowPerRed - currentYellowCards; n > 0 {
		return n
	}
	return 0
}

// PredictNextWeek projects the counts after one week without violations.
// Escalation needs a new violation and is never predicted.
func PredictNextWeek(status model.ViolationStatus) model.Prediction {
	p := model.Prediction{
		YellowCards: status.CurrentYellowCards,
		RedCards:    status.CurrentRedCards,
	}
	if status.CurrentYellowCards > 0 && status.CurrentRedCards == 0 {
		p.WillRecover = true
		p.YellowCards--
	}
	return p
}
