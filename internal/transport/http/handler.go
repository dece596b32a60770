package http

import (
	"encoding/json"
	"errors"
	"log"
	"math"
	"net/http"
	"regexp"
	"strconv"

	"brainspark-quiz-service/internal/app"
	"brainspark-quiz-service/internal/domain"
)

// Handler exposes the REST API over the application services.
type Handler struct {
	registration *app.RegistrationService
	quiz         *app.QuizService
	leaderboard  *app.LeaderboardService
}

func NewHandler(registration *app.RegistrationService, quiz *app.QuizService, leaderboard *app.LeaderboardService) *Handler {
	return &Handler{
		registration: registration,
		quiz:         quiz,
		leaderboard:  leaderboard,
	}
}

// Register wires every route into the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/api/participants", h.registerParticipant)
	mux.HandleFunc("/api/quiz/questions", h.listQuestions)
	mux.HandleFunc("/api/quiz/submit", h.submitQuiz)
	mux.HandleFunc("/api/results/statistics", h.statistics)
	mux.HandleFunc("/api/admin/leaderboard/refresh", h.refreshLeaderboard)
	mux.HandleFunc("/api/admin/leaderboard", h.getLeaderboard)
	mux.HandleFunc("/api/admin/participants/scores", h.participantScores)
	mux.HandleFunc("/api/admin/questions/upload", h.uploadQuestions)
}

var (
	contactNumberRe  = regexp.MustCompile(`^\d{10}$`)
	selectedAnswerRe = regexp.MustCompile(`^[A-D]$`)
)

type registerRequest struct {
	FullName          string `json:"fullName"`
	ContactNumber     string `json:"contactNumber"`
	Email             string `json:"email"`
	SchoolCollege     string `json:"schoolCollege"`
	ApplicationNumber string `json:"applicationNumber"`
}

type registerResponse struct {
	ParticipantID int64  `json:"participantId"`
	Message       string `json:"message"`
}

func (h *Handler) registerParticipant(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FullName == "" || req.Email == "" || req.SchoolCollege == "" {
		writeError(w, http.StatusBadRequest, "fullName, email, and schoolCollege are required")
		return
	}
	if !contactNumberRe.MatchString(req.ContactNumber) {
		writeError(w, http.StatusBadRequest, "contactNumber must be 10 digits")
		return
	}

	participant, err := h.registration.Register(r.Context(), domain.Participant{
		FullName:          req.FullName,
		ContactNumber:     req.ContactNumber,
		Email:             req.Email,
		SchoolCollege:     req.SchoolCollege,
		ApplicationNumber: req.ApplicationNumber,
	})
	switch {
	case errors.Is(err, domain.ErrEmailTaken):
		writeError(w, http.StatusBadRequest, "Email already registered. Please use a different email address.")
		return
	case errors.Is(err, domain.ErrApplicationNumberTaken):
		writeError(w, http.StatusBadRequest, "Application ID already registered. Please use a different Application ID.")
		return
	case err != nil:
		h.internalError(w, "register participant", err)
		return
	}
	writeJSON(w, http.StatusOK, registerResponse{
		ParticipantID: participant.ID,
		Message:       "Registration successful",
	})
}

type questionOptions struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

type questionResponse struct {
	QuestionNumber int             `json:"questionNumber"`
	Text           string          `json:"text"`
	Options        questionOptions `json:"options"`
}

// listQuestions returns the question set without correctness flags.
func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	questions, err := h.quiz.Questions(r.Context())
	if err != nil {
		h.internalError(w, "list questions", err)
		return
	}
	out := make([]questionResponse, 0, len(questions))
	for _, q := range questions {
		out = append(out, questionResponse{
			QuestionNumber: q.Number,
			Text:           q.Text,
			Options: questionOptions{
				A: q.Options[0].Text,
				B: q.Options[1].Text,
				C: q.Options[2].Text,
				D: q.Options[3].Text,
			},
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": out})
}

type submitAnswer struct {
	QuestionNumber int     `json:"questionNumber"`
	SelectedAnswer *string `json:"selectedAnswer"`
	TimeTaken      int     `json:"timeTaken"`
}

type submitRequest struct {
	ParticipantID int64          `json:"participantId"`
	Responses     []submitAnswer `json:"responses"`
}

type submitResponse struct {
	Message        string `json:"message"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	CorrectAnswers int    `json:"correctAnswers"`
}

func (h *Handler) submitQuiz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	submissions := make([]domain.AnswerSubmission, 0, len(req.Responses))
	for _, resp := range req.Responses {
		selected := ""
		if resp.SelectedAnswer != nil {
			if !selectedAnswerRe.MatchString(*resp.SelectedAnswer) {
				writeError(w, http.StatusBadRequest, "selectedAnswer must be A, B, C, or D")
				return
			}
			selected = *resp.SelectedAnswer
		}
		// per-question timer caps at 10 seconds
		if resp.TimeTaken < 0 || resp.TimeTaken > 10 {
			writeError(w, http.StatusBadRequest, "timeTaken must be between 0 and 10 seconds")
			return
		}
		submissions = append(submissions, domain.AnswerSubmission{
			QuestionNumber: resp.QuestionNumber,
			Selected:       selected,
			TimeTaken:      resp.TimeTaken,
		})
	}

	result, err := h.quiz.Submit(r.Context(), req.ParticipantID, submissions)
	if errors.Is(err, domain.ErrParticipantNotFound) {
		writeError(w, http.StatusNotFound, "Participant not found")
		return
	}
	if err != nil {
		h.internalError(w, "submit quiz", err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		Message:        "Quiz submitted successfully",
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		CorrectAnswers: result.CorrectAnswers,
	})
}

type statisticsEntry struct {
	ParticipantID  int64   `json:"participantId"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	SchoolCollege  string  `json:"schoolCollege"`
	TotalQuestions int     `json:"totalQuestions"`
	TotalMarks     int     `json:"totalMarks"`
	AvgTime        float64 `json:"avgTime"`
}

func (h *Handler) statistics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	stats, err := h.leaderboard.Statistics(r.Context())
	if err != nil {
		h.internalError(w, "load statistics", err)
		return
	}
	out := make([]statisticsEntry, 0, len(stats))
	for _, s := range stats {
		out = append(out, statisticsEntry{
			ParticipantID:  s.ParticipantID,
			FullName:       s.FullName,
			Email:          s.Email,
			SchoolCollege:  s.SchoolCollege,
			TotalQuestions: s.TotalQuestions,
			TotalMarks:     s.TotalMarks,
			AvgTime:        round2(s.AvgTime),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"statistics": out})
}

type refreshResponse struct {
	Message             string `json:"message"`
	ParticipantsUpdated int    `json:"participantsUpdated"`
}

func (h *Handler) refreshLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	updated, err := h.leaderboard.Recompute(r.Context())
	if err != nil {
		h.internalError(w, "refresh leaderboard", err)
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		Message:             "Leaderboard refreshed successfully",
		ParticipantsUpdated: updated,
	})
}

type toppersResponse struct {
	Category          string             `json:"category"`
	TotalParticipants int                `json:"totalParticipants"`
	Toppers           []domain.TopperRow `json:"toppers"`
}

func (h *Handler) getLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 1000 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 1000")
			return
		}
		limit = parsed
	}
	rows, err := h.leaderboard.Top(r.Context(), limit)
	if err != nil {
		h.internalError(w, "load leaderboard", err)
		return
	}
	if rows == nil {
		rows = []domain.TopperRow{}
	}
	writeJSON(w, http.StatusOK, toppersResponse{
		Category:          "leaderboard",
		TotalParticipants: len(rows),
		Toppers:           rows,
	})
}

type participantScoreEntry struct {
	Rank           int     `json:"rank"`
	ParticipantID  int64   `json:"participantId"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	SchoolCollege  string  `json:"schoolCollege"`
	ContactNumber  string  `json:"contactNumber"`
	TotalMarks     int     `json:"totalMarks"`
	TotalQuestions int     `json:"totalQuestions"`
	Percentage     float64 `json:"percentage"`
	AvgTime        float64 `json:"avgTime"`
}

func (h *Handler) participantScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	scores, err := h.leaderboard.ParticipantScores(r.Context())
	if err != nil {
		h.internalError(w, "load participant scores", err)
		return
	}
	out := make([]participantScoreEntry, 0, len(scores))
	for _, s := range scores {
		out = append(out, participantScoreEntry{
			Rank:           s.Rank,
			ParticipantID:  s.ParticipantID,
			FullName:       s.FullName,
			Email:          s.Email,
			SchoolCollege:  s.SchoolCollege,
			ContactNumber:  s.ContactNumber,
			TotalMarks:     s.TotalMarks,
			TotalQuestions: s.TotalQuestions,
			Percentage:     round2(s.Percentage),
			AvgTime:        round2(s.AvgTime),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"participants":      out,
		"totalParticipants": len(out),
	})
}

type questionUpload struct {
	QuestionNumber   int    `json:"questionNumber"`
	Text             string `json:"text"`
	Option1Text      string `json:"option1Text"`
	Option1IsCorrect bool   `json:"option1IsCorrect"`
	Option2Text      string `json:"option2Text"`
	Option2IsCorrect bool   `json:"option2IsCorrect"`
	Option3Text      string `json:"option3Text"`
	Option3IsCorrect bool   `json:"option3IsCorrect"`
	Option4Text      string `json:"option4Text"`
	Option4IsCorrect bool   `json:"option4IsCorrect"`
}

type questionUploadRequest struct {
	Questions []questionUpload `json:"questions"`
}

type questionUploadResponse struct {
	Message          string `json:"message"`
	QuestionsAdded   int    `json:"questionsAdded"`
	QuestionsUpdated int    `json:"questionsUpdated"`
	TotalQuestions   int    `json:"totalQuestions"`
}

func (h *Handler) uploadQuestions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req questionUploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		if q.QuestionNumber < 1 {
			writeError(w, http.StatusBadRequest, "questionNumber must be >= 1")
			return
		}
		questions = append(questions, domain.Question{
			Number: q.QuestionNumber,
			Text:   q.Text,
			Options: [4]domain.Option{
				{Text: q.Option1Text, Correct: q.Option1IsCorrect},
				{Text: q.Option2Text, Correct: q.Option2IsCorrect},
				{Text: q.Option3Text, Correct: q.Option3IsCorrect},
				{Text: q.Option4Text, Correct: q.Option4IsCorrect},
			},
		})
	}
	result, err := h.quiz.UploadQuestions(r.Context(), questions)
	if err != nil {
		h.internalError(w, "upload questions", err)
		return
	}
	writeJSON(w, http.StatusOK, questionUploadResponse{
		Message:          "Questions uploaded successfully",
		QuestionsAdded:   result.Added,
		QuestionsUpdated: result.Updated,
		TotalQuestions:   result.Total,
	})
}

func (h *Handler) internalError(w http.ResponseWriter, op string, err error) {
	log.Printf("%s: %v", op, err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
