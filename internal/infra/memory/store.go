package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brainspark-quiz-service/internal/domain"
)

// Store is an in-memory implementation of all app repositories, used for
// tests and for running the service without Postgres.
type Store struct {
	mu           sync.RWMutex
	nextID       int64
	participants map[int64]domain.Participant
	questions    map[int]domain.Question
	answers      []domain.Answer
	leaderboard  map[int64]domain.LeaderboardEntry
}

func NewStore() *Store {
	return &Store{
		nextID:       1,
		participants: make(map[int64]domain.Participant),
		questions:    make(map[int]domain.Question),
		answers:      nil,
		leaderboard:  make(map[int64]domain.LeaderboardEntry),
	}
}

func (s *Store) Create(_ context.Context, p *domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID
	s.nextID++
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now()
	}
	s.participants[p.ID] = *p
	return nil
}

func (s *Store) ByID(_ context.Context, id int64) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return p, nil
}

func (s *Store) ByEmail(_ context.Context, email string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.Email == email {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (s *Store) ByApplicationNumber(_ context.Context, number string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.participants {
		if p.ApplicationNumber != "" && p.ApplicationNumber == number {
			return p, nil
		}
	}
	return domain.Participant{}, domain.ErrParticipantNotFound
}

func (s *Store) List(_ context.Context) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Participant, 0, len(s.participants))
	for _, p := range s.participants {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Record(_ context.Context, a domain.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.answers = append(s.answers, a)
	return nil
}

func (s *Store) ListAnswers(_ context.Context) ([]domain.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Answer, len(s.answers))
	copy(out, s.answers)
	return out, nil
}

func (s *Store) ListQuestions(_ context.Context) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (s *Store) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions), nil
}

func (s *Store) Upsert(_ context.Context, questions []domain.Question) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	added, updated := 0, 0
	for _, q := range questions {
		if _, ok := s.questions[q.Number]; ok {
			updated++
		} else {
			added++
		}
		s.questions[q.Number] = q
	}
	return added, updated, nil
}

func (s *Store) ReplaceAll(_ context.Context, entries []domain.LeaderboardEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range entries {
		s.leaderboard[e.ParticipantID] = e
	}
	return nil
}

func (s *Store) Entry(_ context.Context, participantID int64) (domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.leaderboard[participantID]
	if !ok {
		return domain.LeaderboardEntry{}, domain.ErrLeaderboardEntryNotFound
	}
	return e, nil
}

func (s *Store) Top(_ context.Context, limit int) ([]domain.TopperRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]domain.TopperRow, 0, len(s.leaderboard))
	for id, e := range s.leaderboard {
		p, ok := s.participants[id]
		if !ok {
			continue
		}
		rows = append(rows, domain.TopperRow{
			ParticipantID:  id,
			FullName:       p.FullName,
			Email:          p.Email,
			SchoolCollege:  p.SchoolCollege,
			TotalMarks:     e.TotalMarks,
			TotalTime:      e.TotalTime,
			AvgTime:        e.AvgTime,
			TotalQuestions: e.TotalQuestions,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.TotalMarks != b.TotalMarks {
			return a.TotalMarks > b.TotalMarks
		}
		if a.TotalTime != b.TotalTime {
			return a.TotalTime < b.TotalTime
		}
		return a.ParticipantID < b.ParticipantID
	})
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// SeedQuestions replaces the question set wholesale; test helper.
func (s *Store) SeedQuestions(questions []domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions = make(map[int]domain.Question, len(questions))
	for _, q := range questions {
		s.questions[q.Number] = q
	}
}
