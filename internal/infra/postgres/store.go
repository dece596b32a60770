package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"brainspark-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/uptrace/bun"
)

// Store implements the app repositories on Postgres. Hot-path reads go
// through the pgx pool; writes and the transactional leaderboard rewrite go
// through bun, which also owns the schema migrations.
type Store struct {
	pool *pgxpool.Pool
	db   *bun.DB
}

func NewStore(pool *pgxpool.Pool, db *bun.DB) *Store {
	return &Store{pool: pool, db: db}
}

func (s *Store) Create(ctx context.Context, p *domain.Participant) error {
	row := participantRow{
		FullName:          p.FullName,
		ContactNumber:     p.ContactNumber,
		Email:             p.Email,
		SchoolCollege:     p.SchoolCollege,
		ApplicationNumber: p.ApplicationNumber,
	}
	if _, err := s.db.NewInsert().Model(&row).Returning("id, created_at").Exec(ctx); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	p.ID = row.ID
	p.CreatedAt = row.CreatedAt
	return nil
}

func (s *Store) ByID(ctx context.Context, id int64) (domain.Participant, error) {
	return s.participantWhere(ctx, `id = $1`, id)
}

func (s *Store) ByEmail(ctx context.Context, email string) (domain.Participant, error) {
	return s.participantWhere(ctx, `email = $1`, email)
}

func (s *Store) ByApplicationNumber(ctx context.Context, number string) (domain.Participant, error) {
	return s.participantWhere(ctx, `application_number = $1 AND application_number <> ''`, number)
}

func (s *Store) participantWhere(ctx context.Context, where string, arg interface{}) (domain.Participant, error) {
	var p domain.Participant
	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, contact_number, email, school_college, application_number, created_at
		 FROM participants WHERE `+where, arg,
	).Scan(&p.ID, &p.FullName, &p.ContactNumber, &p.Email, &p.SchoolCollege, &p.ApplicationNumber, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("load participant: %w", err)
	}
	return p, nil
}

func (s *Store) List(ctx context.Context) ([]domain.Participant, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, full_name, contact_number, email, school_college, application_number, created_at
		 FROM participants ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()

	var out []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(&p.ID, &p.FullName, &p.ContactNumber, &p.Email, &p.SchoolCollege, &p.ApplicationNumber, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) Record(ctx context.Context, a domain.Answer) error {
	row := answerRow{
		ParticipantID:  a.ParticipantID,
		QuestionNumber: a.QuestionNumber,
		TimeTaken:      a.TimeTaken,
		IsCorrect:      a.Correct,
	}
	if a.Selected != "" {
		row.SelectedAnswer = &a.Selected
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("record answer: %w", err)
	}
	return nil
}

func (s *Store) ListAnswers(ctx context.Context) ([]domain.Answer, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT participant_id, question_number, COALESCE(selected_answer, ''), COALESCE(time_taken, 0), COALESCE(is_correct, false)
		 FROM quiz_responses ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	defer rows.Close()

	var out []domain.Answer
	for rows.Next() {
		var a domain.Answer
		if err := rows.Scan(&a.ParticipantID, &a.QuestionNumber, &a.Selected, &a.TimeTaken, &a.Correct); err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) ListQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT question_number, text,
		        option1_text, option1_is_correct,
		        option2_text, option2_is_correct,
		        option3_text, option3_is_correct,
		        option4_text, option4_is_correct
		 FROM questions ORDER BY question_number`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		var q domain.Question
		err := rows.Scan(&q.Number, &q.Text,
			&q.Options[0].Text, &q.Options[0].Correct,
			&q.Options[1].Text, &q.Options[1].Correct,
			&q.Options[2].Text, &q.Options[2].Correct,
			&q.Options[3].Text, &q.Options[3].Correct)
		if err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM questions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return count, nil
}

func (s *Store) Upsert(ctx context.Context, questions []domain.Question) (int, int, error) {
	if len(questions) == 0 {
		return 0, 0, nil
	}

	added, updated := 0, 0
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		existing := make(map[int]bool)
		var numbers []int
		if err := tx.NewSelect().Model((*questionRow)(nil)).Column("question_number").Scan(ctx, &numbers); err != nil {
			return err
		}
		for _, n := range numbers {
			existing[n] = true
		}

		for _, q := range questions {
			row := questionRowFromDomain(q)
			_, err := tx.NewInsert().Model(&row).
				On("CONFLICT (question_number) DO UPDATE").
				Set("text = EXCLUDED.text").
				Set("option1_text = EXCLUDED.option1_text, option1_is_correct = EXCLUDED.option1_is_correct").
				Set("option2_text = EXCLUDED.option2_text, option2_is_correct = EXCLUDED.option2_is_correct").
				Set("option3_text = EXCLUDED.option3_text, option3_is_correct = EXCLUDED.option3_is_correct").
				Set("option4_text = EXCLUDED.option4_text, option4_is_correct = EXCLUDED.option4_is_correct").
				Exec(ctx)
			if err != nil {
				return err
			}
			if existing[q.Number] {
				updated++
			} else {
				added++
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("upsert questions: %w", err)
	}
	return added, updated, nil
}

// ReplaceAll writes every computed leaderboard entry in one transaction so a
// failed cycle leaves the previous leaderboard untouched.
func (s *Store) ReplaceAll(ctx context.Context, entries []domain.LeaderboardEntry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]leaderboardRow, 0, len(entries))
	now := time.Now()
	for _, e := range entries {
		row := leaderboardRowFromDomain(e)
		row.UpdatedAt = now
		rows = append(rows, row)
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&rows).
			On("CONFLICT (participant_id) DO UPDATE").
			Set("total_questions = EXCLUDED.total_questions").
			Set("total_marks = EXCLUDED.total_marks").
			Set("total_time = EXCLUDED.total_time").
			Set("avg_time = EXCLUDED.avg_time").
			Set("rank_by_marks = EXCLUDED.rank_by_marks").
			Set("rank_by_time = EXCLUDED.rank_by_time").
			Set("rank_combined = EXCLUDED.rank_combined").
			Set("combined_score = EXCLUDED.combined_score").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		return err
	})
	if err != nil {
		return fmt.Errorf("replace leaderboard: %w", err)
	}
	return nil
}

func (s *Store) Entry(ctx context.Context, participantID int64) (domain.LeaderboardEntry, error) {
	var e domain.LeaderboardEntry
	err := s.pool.QueryRow(ctx,
		`SELECT participant_id, total_questions, total_marks, total_time, avg_time,
		        rank_by_marks, rank_by_time, rank_combined, combined_score
		 FROM leaderboard WHERE participant_id = $1`, participantID,
	).Scan(&e.ParticipantID, &e.TotalQuestions, &e.TotalMarks, &e.TotalTime, &e.AvgTime,
		&e.RankByMarks, &e.RankByTime, &e.RankCombined, &e.CombinedScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.LeaderboardEntry{}, domain.ErrLeaderboardEntryNotFound
	}
	if err != nil {
		return domain.LeaderboardEntry{}, fmt.Errorf("load leaderboard entry: %w", err)
	}
	return e, nil
}

// Top re-sorts at read time instead of trusting the stored rank columns, so
// the view stays on the marks ordering even if ranks are stale.
func (s *Store) Top(ctx context.Context, limit int) ([]domain.TopperRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT l.participant_id, p.full_name, p.email, p.school_college,
		        l.total_marks, l.total_time, l.avg_time, l.total_questions
		 FROM leaderboard l
		 JOIN participants p ON p.id = l.participant_id
		 ORDER BY l.total_marks DESC, l.total_time ASC, l.participant_id ASC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("load leaderboard: %w", err)
	}
	defer rows.Close()

	var out []domain.TopperRow
	for rows.Next() {
		var r domain.TopperRow
		if err := rows.Scan(&r.ParticipantID, &r.FullName, &r.Email, &r.SchoolCollege,
			&r.TotalMarks, &r.TotalTime, &r.AvgTime, &r.TotalQuestions); err != nil {
			return nil, fmt.Errorf("scan leaderboard row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
