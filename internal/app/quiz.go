package app

import (
	"context"
	"log"

	"brainspark-quiz-service/internal/domain"
)

// QuestionProvider serves the question set, possibly from a cache in front of
// the backing store.
type QuestionProvider interface {
	Questions(ctx context.Context) ([]domain.Question, error)
}

// QuizService grades and records quiz submissions and serves questions.
type QuizService struct {
	participants ParticipantRepository
	questions    QuestionRepository
	answers      AnswerRepository
	provider     QuestionProvider
}

func NewQuizService(
	participants ParticipantRepository,
	questions QuestionRepository,
	answers AnswerRepository,
	provider QuestionProvider,
) *QuizService {
	return &QuizService{
		participants: participants,
		questions:    questions,
		answers:      answers,
		provider:     provider,
	}
}

// Questions returns the full question set ordered by question number. Callers
// rendering it to quiz takers must strip the correctness flags.
func (s *QuizService) Questions(ctx context.Context) ([]domain.Question, error) {
	return s.provider.Questions(ctx)
}

// Submit grades a batch of responses against the current question set and
// records one answer row per response. Responses referencing unknown question
// numbers are skipped entirely (not stored, never correct). A failure to
// store an individual row is logged and skipped so one bad row does not void
// the rest of the submission; this tolerant policy applies only here, the
// ranking cycle is all-or-nothing.
func (s *QuizService) Submit(ctx context.Context, participantID int64, responses []domain.AnswerSubmission) (domain.SubmitResult, error) {
	if _, err := s.participants.ByID(ctx, participantID); err != nil {
		return domain.SubmitResult{}, err
	}

	questions, err := s.provider.Questions(ctx)
	if err != nil {
		return domain.SubmitResult{}, err
	}
	byNumber := make(map[int]domain.Question, len(questions))
	for _, q := range questions {
		byNumber[q.Number] = q
	}

	correct := 0
	for _, r := range responses {
		question, ok := byNumber[r.QuestionNumber]
		if !ok {
			log.Printf("submit: participant %d answered unknown question %d, skipping", participantID, r.QuestionNumber)
			continue
		}

		isCorrect := r.Selected != "" && question.IsCorrect(r.Selected)
		if isCorrect {
			correct++
		}

		err := s.answers.Record(ctx, domain.Answer{
			ParticipantID:  participantID,
			QuestionNumber: r.QuestionNumber,
			Selected:       r.Selected,
			TimeTaken:      r.TimeTaken,
			Correct:        isCorrect,
		})
		if err != nil {
			log.Printf("submit: recording answer for participant %d question %d failed: %v", participantID, r.QuestionNumber, err)
			continue
		}
	}

	return domain.SubmitResult{
		Score:          correct,
		TotalQuestions: len(responses),
		CorrectAnswers: correct,
	}, nil
}

// UploadQuestions bulk-upserts reference questions keyed by question number.
func (s *QuizService) UploadQuestions(ctx context.Context, questions []domain.Question) (domain.QuestionUploadResult, error) {
	added, updated, err := s.questions.Upsert(ctx, questions)
	if err != nil {
		return domain.QuestionUploadResult{}, err
	}
	total, err := s.questions.Count(ctx)
	if err != nil {
		return domain.QuestionUploadResult{}, err
	}
	if inv, ok := s.provider.(interface{ Invalidate(context.Context) }); ok {
		inv.Invalidate(ctx)
	}
	return domain.QuestionUploadResult{Added: added, Updated: updated, Total: total}, nil
}
