package domain

import "time"

// Participant is a registered quiz taker. Display and contact fields are
// pass-through for result views; ranking only cares about the ID.
type Participant struct {
	ID                int64
	FullName          string
	ContactNumber     string
	Email             string
	SchoolCollege     string
	ApplicationNumber string
	CreatedAt         time.Time
}

// OptionKeys enumerates the four answer slots of a question in order.
var OptionKeys = []string{"A", "B", "C", "D"}

// Option is one of the four candidate answers of a question.
type Option struct {
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is static reference data, addressed by its dense 1-based number.
// Exactly one option is expected to be correct, but that is not enforced here.
type Question struct {
	Number  int       `json:"number"`
	Text    string    `json:"text"`
	Options [4]Option `json:"options"`
}

// IsCorrect reports whether the selected key ("A".."D") hits a correct option.
func (q Question) IsCorrect(selected string) bool {
	for i, key := range OptionKeys {
		if key == selected {
			return q.Options[i].Correct
		}
	}
	return false
}

// Answer is one recorded response row. A participant may have several rows
// for the same question number; aggregation counts every row.
type Answer struct {
	ParticipantID  int64
	QuestionNumber int
	// Selected is "A".."D", or empty when the question was skipped.
	Selected string
	// TimeTaken is seconds spent on the question.
	TimeTaken int
	// Correct is graded once at submission time and never recomputed.
	Correct bool
}

// AnswerSubmission is one response in a quiz submission payload.
type AnswerSubmission struct {
	QuestionNumber int
	Selected       string
	TimeTaken      int
}

// SubmitResult summarizes a graded quiz submission.
type SubmitResult struct {
	Score          int
	TotalQuestions int
	CorrectAnswers int
}

// Aggregate holds the per-participant totals folded from raw answer rows.
type Aggregate struct {
	TotalQuestions int
	TotalMarks     int
	TotalTime      int
}

// LeaderboardEntry is the persisted per-participant ranking row. Rank fields
// are nil when the participant is not ranked on that axis (e.g. an incomplete
// attempt never gets a time rank).
type LeaderboardEntry struct {
	ParticipantID  int64
	TotalQuestions int
	TotalMarks     int
	TotalTime      int
	AvgTime        int
	RankByMarks    *int
	RankByTime     *int
	RankCombined   *int
	CombinedScore  *float64
}

// RankingSnapshot is the immutable input of one recomputation cycle, read
// once near cycle start. Answers submitted afterwards wait for the next run.
type RankingSnapshot struct {
	Participants  []Participant
	Answers       []Answer
	QuestionCount int
}

// TopperRow is the read-time leaderboard view joined with display fields.
type TopperRow struct {
	Rank           int    `json:"rank"`
	ParticipantID  int64  `json:"participantId"`
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	SchoolCollege  string `json:"schoolCollege"`
	TotalMarks     int    `json:"totalMarks"`
	TotalTime      int    `json:"totalTime"`
	AvgTime        int    `json:"avgTime"`
	TotalQuestions int    `json:"totalQuestions"`
}

// ParticipantStatistics is the per-participant results view.
type ParticipantStatistics struct {
	ParticipantID  int64
	FullName       string
	Email          string
	SchoolCollege  string
	TotalQuestions int
	TotalMarks     int
	AvgTime        float64
}

// ParticipantScore is the admin dashboard row with rank and percentage.
type ParticipantScore struct {
	Rank           int
	ParticipantID  int64
	FullName       string
	Email          string
	SchoolCollege  string
	ContactNumber  string
	TotalMarks     int
	TotalQuestions int
	Percentage     float64
	AvgTime        float64
}

// QuestionUploadResult reports a bulk question upsert.
type QuestionUploadResult struct {
	Added   int
	Updated int
	Total   int
}
