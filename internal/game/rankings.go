package game

import "sort"

// Ranking is one row of the final standings.
type Ranking struct {
	Place      int    `json:"place"`
	PlayerID   string `json:"player_id"`
	Total      int    `json:"total"`
	TurnsTaken int    `json:"turns_taken"`
}

// Rankings computes final standings: descending total score, ties broken by
// the fewest turns needed to complete the card.
func Rankings(s *State) []Ranking {
	rows := make([]Ranking, 0, len(s.PlayerOrder))
	for _, id := range s.PlayerOrder {
		p := s.Players[id]
		if p == nil {
			continue
		}
		rows = append(rows, Ranking{
			PlayerID:   id,
			Total:      p.Scorecard.Total(),
			TurnsTaken: completionTurns(p),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Total != rows[j].Total {
			return rows[i].Total > rows[j].Total
		}
		if rows[i].TurnsTaken != rows[j].TurnsTaken {
			return rows[i].TurnsTaken < rows[j].TurnsTaken
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})
	for i := range rows {
		if i > 0 && rows[i].Total == rows[i-1].Total && rows[i].TurnsTaken == rows[i-1].TurnsTaken {
			rows[i].Place = rows[i-1].Place
			continue
		}
		rows[i].Place = i + 1
	}
	return rows
}

func completionTurns(p *PlayerState) int {
	if p.CompletedOnTurn > 0 {
		return p.CompletedOnTurn
	}
	return p.TurnsTaken
}
