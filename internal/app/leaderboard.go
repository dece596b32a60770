package app

import (
	"context"
	"sort"
	"sync"

	"brainspark-quiz-service/internal/domain"
)

// ParticipantRepository abstracts participant storage (Postgres, in-memory).
type ParticipantRepository interface {
	Create(ctx context.Context, p *domain.Participant) error
	ByID(ctx context.Context, id int64) (domain.Participant, error)
	ByEmail(ctx context.Context, email string) (domain.Participant, error)
	ByApplicationNumber(ctx context.Context, number string) (domain.Participant, error)
	List(ctx context.Context) ([]domain.Participant, error)
}

// AnswerRepository stores raw answer rows. The submission path is the sole
// writer; the ranking core only reads.
type AnswerRepository interface {
	Record(ctx context.Context, a domain.Answer) error
	ListAnswers(ctx context.Context) ([]domain.Answer, error)
}

// QuestionRepository holds the static question set.
type QuestionRepository interface {
	ListQuestions(ctx context.Context) ([]domain.Question, error)
	Count(ctx context.Context) (int, error)
	Upsert(ctx context.Context, questions []domain.Question) (added, updated int, err error)
}

// LeaderboardRepository persists computed leaderboard entries. ReplaceAll must
// apply the whole batch atomically: a failed cycle leaves no partial state.
type LeaderboardRepository interface {
	ReplaceAll(ctx context.Context, entries []domain.LeaderboardEntry) error
	Entry(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error)
	Top(ctx context.Context, limit int) ([]domain.TopperRow, error)
}

// TopperCache caches the rendered leaderboard view between recomputations.
type TopperCache interface {
	Get(ctx context.Context, limit int) ([]domain.TopperRow, bool)
	Set(ctx context.Context, limit int, rows []domain.TopperRow)
	Invalidate(ctx context.Context)
}

// LeaderboardService runs the recompute cycle and serves result views.
type LeaderboardService struct {
	participants ParticipantRepository
	answers      AnswerRepository
	questions    QuestionRepository
	leaderboard  LeaderboardRepository
	cache        TopperCache // optional

	// Serializes recompute cycles; interleaved writers could otherwise
	// produce inconsistent rank assignments.
	mu sync.Mutex
}

func NewLeaderboardService(
	participants ParticipantRepository,
	answers AnswerRepository,
	questions QuestionRepository,
	leaderboard LeaderboardRepository,
	cache TopperCache,
) *LeaderboardService {
	return &LeaderboardService{
		participants: participants,
		answers:      answers,
		questions:    questions,
		leaderboard:  leaderboard,
		cache:        cache,
	}
}

// Recompute runs one full cycle: snapshot-read participants, answers and the
// question count, derive aggregates, scores and all three rank orders, then
// write every entry in one atomic batch. Answers submitted while the cycle is
// in flight are picked up by the next run. Returns the number of participants
// written; any store failure aborts the whole cycle with nothing applied.
func (s *LeaderboardService) Recompute(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.snapshot(ctx)
	if err != nil {
		return 0, err
	}

	entries := ComputeLeaderboard(snap)
	if err := s.leaderboard.ReplaceAll(ctx, entries); err != nil {
		return 0, err
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx)
	}
	return len(entries), nil
}

func (s *LeaderboardService) snapshot(ctx context.Context) (domain.RankingSnapshot, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return domain.RankingSnapshot{}, err
	}
	answers, err := s.answers.ListAnswers(ctx)
	if err != nil {
		return domain.RankingSnapshot{}, err
	}
	count, err := s.questions.Count(ctx)
	if err != nil {
		return domain.RankingSnapshot{}, err
	}
	return domain.RankingSnapshot{
		Participants:  participants,
		Answers:       answers,
		QuestionCount: count,
	}, nil
}

// Top returns up to limit leaderboard rows joined with participant display
// fields. The view re-sorts at read time (marks descending, time ascending,
// ID ascending) rather than trusting the stored rank columns, so it matches
// the marks ordering even before the first recompute after new answers.
func (s *LeaderboardService) Top(ctx context.Context, limit int) ([]domain.TopperRow, error) {
	if s.cache != nil {
		if rows, ok := s.cache.Get(ctx, limit); ok {
			return rows, nil
		}
	}
	rows, err := s.leaderboard.Top(ctx, limit)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		rows[i].Rank = i + 1
	}
	if s.cache != nil {
		s.cache.Set(ctx, limit, rows)
	}
	return rows, nil
}

// Statistics folds current answers into per-participant totals joined with
// display fields. It reads live data, not the persisted leaderboard, so it
// reflects submissions made since the last recompute.
func (s *LeaderboardService) Statistics(ctx context.Context) ([]domain.ParticipantStatistics, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	aggregates := aggregateAnswers(participants, answers)

	stats := make([]domain.ParticipantStatistics, 0, len(participants))
	for _, p := range participants {
		agg := aggregates[p.ID]
		avg := 0.0
		if agg.TotalQuestions > 0 {
			avg = float64(agg.TotalTime) / float64(agg.TotalQuestions)
		}
		stats = append(stats, domain.ParticipantStatistics{
			ParticipantID:  p.ID,
			FullName:       p.FullName,
			Email:          p.Email,
			SchoolCollege:  p.SchoolCollege,
			TotalQuestions: agg.TotalQuestions,
			TotalMarks:     agg.TotalMarks,
			AvgTime:        avg,
		})
	}
	sort.Slice(stats, func(i, j int) bool {
		return stats[i].ParticipantID < stats[j].ParticipantID
	})
	return stats, nil
}

// ParticipantScores lists every participant with rank and percentage, sorted
// marks descending, time ascending, ID ascending.
func (s *LeaderboardService) ParticipantScores(ctx context.Context) ([]domain.ParticipantScore, error) {
	participants, err := s.participants.List(ctx)
	if err != nil {
		return nil, err
	}
	answers, err := s.answers.ListAnswers(ctx)
	if err != nil {
		return nil, err
	}
	aggregates := aggregateAnswers(participants, answers)

	scores := make([]domain.ParticipantScore, 0, len(participants))
	for _, p := range participants {
		agg := aggregates[p.ID]
		percentage := 0.0
		avg := 0.0
		if agg.TotalQuestions > 0 {
			percentage = float64(agg.TotalMarks) / float64(agg.TotalQuestions) * 100
			avg = float64(agg.TotalTime) / float64(agg.TotalQuestions)
		}
		scores = append(scores, domain.ParticipantScore{
			ParticipantID:  p.ID,
			FullName:       p.FullName,
			Email:          p.Email,
			SchoolCollege:  p.SchoolCollege,
			ContactNumber:  p.ContactNumber,
			TotalMarks:     agg.TotalMarks,
			TotalQuestions: agg.TotalQuestions,
			Percentage:     percentage,
			AvgTime:        avg,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		a, b := scores[i], scores[j]
		if a.TotalMarks != b.TotalMarks {
			return a.TotalMarks > b.TotalMarks
		}
		at, bt := aggregates[a.ParticipantID].TotalTime, aggregates[b.ParticipantID].TotalTime
		if at != bt {
			return at < bt
		}
		return a.ParticipantID < b.ParticipantID
	})
	for i := range scores {
		scores[i].Rank = i + 1
	}
	return scores, nil
}
