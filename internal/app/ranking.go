package app

import (
	"sort"

	"brainspark-quiz-service/internal/domain"
)

// Combined-score weights: marks dominate, speed is a secondary signal scaled
// into the same rough 0..10 magnitude as the marks domain.
const (
	marksWeight = 0.7
	timeWeight  = 0.3
	timeScale   = 10
)

// ComputeLeaderboard derives the full leaderboard from one immutable snapshot:
// per-participant aggregates, the weighted combined score, and the three rank
// orders. It is a pure function; running it twice over the same snapshot
// yields identical entries, which is what makes the recompute cycle idempotent.
// Entries are returned ordered by participant ID.
func ComputeLeaderboard(snap domain.RankingSnapshot) []domain.LeaderboardEntry {
	aggregates := aggregateAnswers(snap.Participants, snap.Answers)

	entries := make([]domain.LeaderboardEntry, 0, len(snap.Participants))
	for _, p := range snap.Participants {
		agg := aggregates[p.ID]
		avg := 0
		if agg.TotalQuestions > 0 {
			avg = agg.TotalTime / agg.TotalQuestions
		}
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID:  p.ID,
			TotalQuestions: agg.TotalQuestions,
			TotalMarks:     agg.TotalMarks,
			TotalTime:      agg.TotalTime,
			AvgTime:        avg,
		})
	}
	// Canonical base order so rank assignment is deterministic regardless of
	// the order the store returned participants in.
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].ParticipantID < entries[j].ParticipantID
	})

	applyCombinedScores(entries)
	rankByMarks(entries)
	rankByTime(entries, snap.QuestionCount)
	rankCombined(entries)
	return entries
}

// aggregateAnswers folds the raw answer rows into per-participant totals.
// Every participant is present in the result, including those with no rows at
// all (all-zero aggregate). Rows are counted as-is: duplicates for the same
// question and rows referencing questions that no longer exist both count,
// since correctness was graded at submission time and is not re-derived here.
func aggregateAnswers(participants []domain.Participant, answers []domain.Answer) map[int64]domain.Aggregate {
	aggregates := make(map[int64]domain.Aggregate, len(participants))
	for _, p := range participants {
		aggregates[p.ID] = domain.Aggregate{}
	}
	for _, a := range answers {
		agg, ok := aggregates[a.ParticipantID]
		if !ok {
			// Answer rows for unknown participants are ignored; the
			// participant table is the authority on who gets ranked.
			continue
		}
		agg.TotalQuestions++
		if a.Correct {
			agg.TotalMarks++
		}
		agg.TotalTime += a.TimeTaken
		aggregates[a.ParticipantID] = agg
	}
	return aggregates
}

// applyCombinedScores sets CombinedScore on every entry: marks weighted
// against total time normalized to the maximum across all participants.
// With no recorded time anywhere max_time falls back to 1 so the division
// stays defined and all scores reduce to the marks term.
func applyCombinedScores(entries []domain.LeaderboardEntry) {
	maxTime := 0
	for _, e := range entries {
		if e.TotalTime > maxTime {
			maxTime = e.TotalTime
		}
	}
	if maxTime == 0 {
		maxTime = 1
	}
	for i := range entries {
		normalized := float64(entries[i].TotalTime) / float64(maxTime) * timeScale
		score := marksWeight*float64(entries[i].TotalMarks) - timeWeight*normalized
		entries[i].CombinedScore = &score
	}
}

// rankByMarks assigns dense 1-based ranks to every entry: marks descending,
// total time ascending, participant ID ascending as the final tie-break so
// equal (marks, time) pairs still get a deterministic strict order.
func rankByMarks(entries []domain.LeaderboardEntry) {
	order := sortedIndexes(entries, func(a, b *domain.LeaderboardEntry) bool {
		if a.TotalMarks != b.TotalMarks {
			return a.TotalMarks > b.TotalMarks
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.ParticipantID < b.ParticipantID
	})
	for rank, idx := range order {
		r := rank + 1
		entries[idx].RankByMarks = &r
	}
}

// rankByTime ranks only participants who answered every question in the
// current question set; everyone else keeps a nil rank. With zero questions
// configured nobody is eligible. Ties on time break by participant ID.
func rankByTime(entries []domain.LeaderboardEntry, questionCount int) {
	if questionCount <= 0 {
		return
	}
	eligible := make([]int, 0, len(entries))
	for i := range entries {
		if entries[i].TotalQuestions == questionCount {
			eligible = append(eligible, i)
		}
	}
	sort.Slice(eligible, func(i, j int) bool {
		a, b := &entries[eligible[i]], &entries[eligible[j]]
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.ParticipantID < b.ParticipantID
	})
	for rank, idx := range eligible {
		r := rank + 1
		entries[idx].RankByTime = &r
	}
}

// rankCombined assigns dense 1-based ranks by combined score descending, with
// marks descending then participant ID ascending breaking exact score ties.
func rankCombined(entries []domain.LeaderboardEntry) {
	order := sortedIndexes(entries, func(a, b *domain.LeaderboardEntry) bool {
		if *a.CombinedScore != *b.CombinedScore {
			return *a.CombinedScore > *b.CombinedScore
		}
		if a.TotalMarks != b.TotalMarks {
			return a.TotalMarks > b.TotalMarks
		}
		return a.ParticipantID < b.ParticipantID
	})
	for rank, idx := range order {
		r := rank + 1
		entries[idx].RankCombined = &r
	}
}

// sortedIndexes returns the indexes of entries sorted by less, leaving the
// slice itself in its canonical participant-ID order.
func sortedIndexes(entries []domain.LeaderboardEntry, less func(a, b *domain.LeaderboardEntry) bool) []int {
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return less(&entries[order[i]], &entries[order[j]])
	})
	return order
}
