package postgres

import (
	"time"

	"brainspark-quiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type participantRow struct {
	bun.BaseModel `bun:"table:participants"`

	ID                int64     `bun:"id,pk,autoincrement"`
	FullName          string    `bun:"full_name"`
	ContactNumber     string    `bun:"contact_number"`
	Email             string    `bun:"email"`
	SchoolCollege     string    `bun:"school_college"`
	ApplicationNumber string    `bun:"application_number"`
	CreatedAt         time.Time `bun:"created_at,nullzero,default:now()"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions"`

	ID               int64  `bun:"id,pk,autoincrement"`
	QuestionNumber   int    `bun:"question_number"`
	Text             string `bun:"text"`
	Option1Text      string `bun:"option1_text"`
	Option1IsCorrect bool   `bun:"option1_is_correct"`
	Option2Text      string `bun:"option2_text"`
	Option2IsCorrect bool   `bun:"option2_is_correct"`
	Option3Text      string `bun:"option3_text"`
	Option3IsCorrect bool   `bun:"option3_is_correct"`
	Option4Text      string `bun:"option4_text"`
	Option4IsCorrect bool   `bun:"option4_is_correct"`
}

type answerRow struct {
	bun.BaseModel `bun:"table:quiz_responses"`

	ID             int64   `bun:"id,pk,autoincrement"`
	ParticipantID  int64   `bun:"participant_id"`
	QuestionNumber int     `bun:"question_number"`
	SelectedAnswer *string `bun:"selected_answer"`
	TimeTaken      int     `bun:"time_taken"`
	IsCorrect      bool    `bun:"is_correct"`
}

type leaderboardRow struct {
	bun.BaseModel `bun:"table:leaderboard"`

	ID             int64     `bun:"id,pk,autoincrement"`
	ParticipantID  int64     `bun:"participant_id"`
	TotalQuestions int       `bun:"total_questions"`
	TotalMarks     int       `bun:"total_marks"`
	TotalTime      int       `bun:"total_time"`
	AvgTime        int       `bun:"avg_time"`
	RankByMarks    *int      `bun:"rank_by_marks"`
	RankByTime     *int      `bun:"rank_by_time"`
	RankCombined   *int      `bun:"rank_combined"`
	CombinedScore  *float64  `bun:"combined_score"`
	UpdatedAt      time.Time `bun:"updated_at,nullzero,default:now()"`
}

func questionRowFromDomain(q domain.Question) questionRow {
	return questionRow{
		QuestionNumber:   q.Number,
		Text:             q.Text,
		Option1Text:      q.Options[0].Text,
		Option1IsCorrect: q.Options[0].Correct,
		Option2Text:      q.Options[1].Text,
		Option2IsCorrect: q.Options[1].Correct,
		Option3Text:      q.Options[2].Text,
		Option3IsCorrect: q.Options[2].Correct,
		Option4Text:      q.Options[3].Text,
		Option4IsCorrect: q.Options[3].Correct,
	}
}

func leaderboardRowFromDomain(e domain.LeaderboardEntry) leaderboardRow {
	return leaderboardRow{
		ParticipantID:  e.ParticipantID,
		TotalQuestions: e.TotalQuestions,
		TotalMarks:     e.TotalMarks,
		TotalTime:      e.TotalTime,
		AvgTime:        e.AvgTime,
		RankByMarks:    e.RankByMarks,
		RankByTime:     e.RankByTime,
		RankCombined:   e.RankCombined,
		CombinedScore:  e.CombinedScore,
	}
}
