package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"brainspark-quiz-service/internal/app"
	"brainspark-quiz-service/internal/domain"
	"brainspark-quiz-service/internal/infra/memory"
)

func newTestServer(t *testing.T, questionCount int) *httptest.Server {
	t.Helper()
	store := memory.NewStore()
	questions := make([]domain.Question, 0, questionCount)
	for i := 1; i <= questionCount; i++ {
		questions = append(questions, domain.Question{
			Number: i,
			Text:   fmt.Sprintf("Question %d", i),
			Options: [4]domain.Option{
				{Text: "Wrong"},
				{Text: "Right", Correct: true},
				{Text: "Wrong"},
				{Text: "Wrong"},
			},
		})
	}
	store.SeedQuestions(questions)

	provider := memory.NewQuestionCache(store, 5*time.Minute)
	handler := NewHandler(
		app.NewRegistrationService(store),
		app.NewQuizService(store, store, store, provider),
		app.NewLeaderboardService(store, store, store, store, nil),
	)
	mux := http.NewServeMux()
	handler.Register(mux)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode: %v", err)
	}
}

func registerParticipant(t *testing.T, server *httptest.Server, email string) int64 {
	t.Helper()
	resp := postJSON(t, server.URL+"/api/participants", map[string]string{
		"fullName":      "Alice",
		"contactNumber": "9876543210",
		"email":         email,
		"schoolCollege": "Test College",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("register status %d", resp.StatusCode)
	}
	var body struct {
		ParticipantID int64 `json:"participantId"`
	}
	decode(t, resp, &body)
	return body.ParticipantID
}

func TestRegisterValidation(t *testing.T) {
	server := newTestServer(t, 1)

	resp := postJSON(t, server.URL+"/api/participants", map[string]string{
		"fullName":      "Alice",
		"contactNumber": "not-a-number",
		"email":         "alice@example.com",
		"schoolCollege": "Test College",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad contact number, got %d", resp.StatusCode)
	}

	registerParticipant(t, server, "alice@example.com")
	resp = postJSON(t, server.URL+"/api/participants", map[string]string{
		"fullName":      "Alice Again",
		"contactNumber": "9876543210",
		"email":         "alice@example.com",
		"schoolCollege": "Test College",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", resp.StatusCode)
	}
}

func TestQuestionsHideCorrectness(t *testing.T) {
	server := newTestServer(t, 2)

	resp, err := http.Get(server.URL + "/api/quiz/questions")
	if err != nil {
		t.Fatalf("get questions: %v", err)
	}
	var body struct {
		Questions []map[string]interface{} `json:"questions"`
	}
	decode(t, resp, &body)
	if len(body.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(body.Questions))
	}
	for _, q := range body.Questions {
		if _, leaked := q["correct"]; leaked {
			t.Fatalf("correctness leaked in response: %+v", q)
		}
		options, ok := q["options"].(map[string]interface{})
		if !ok || len(options) != 4 {
			t.Fatalf("expected four lettered options, got %+v", q["options"])
		}
	}
}

func TestSubmitRefreshAndLeaderboard(t *testing.T) {
	server := newTestServer(t, 2)

	alice := registerParticipant(t, server, "alice@example.com")
	bob := registerParticipant(t, server, "bob@example.com")

	// Alice: both correct, 10s total. Bob: one correct, 4s total.
	b := "B"
	a := "A"
	resp := postJSON(t, server.URL+"/api/quiz/submit", map[string]interface{}{
		"participantId": alice,
		"responses": []map[string]interface{}{
			{"questionNumber": 1, "selectedAnswer": b, "timeTaken": 5},
			{"questionNumber": 2, "selectedAnswer": b, "timeTaken": 5},
		},
	})
	var submitBody struct {
		Score int `json:"score"`
	}
	decode(t, resp, &submitBody)
	if submitBody.Score != 2 {
		t.Fatalf("expected Alice score 2, got %d", submitBody.Score)
	}

	resp = postJSON(t, server.URL+"/api/quiz/submit", map[string]interface{}{
		"participantId": bob,
		"responses": []map[string]interface{}{
			{"questionNumber": 1, "selectedAnswer": b, "timeTaken": 2},
			{"questionNumber": 2, "selectedAnswer": a, "timeTaken": 2},
		},
	})
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/api/admin/leaderboard/refresh", nil)
	var refreshBody struct {
		ParticipantsUpdated int `json:"participantsUpdated"`
	}
	decode(t, resp, &refreshBody)
	if refreshBody.ParticipantsUpdated != 2 {
		t.Fatalf("expected 2 participants updated, got %d", refreshBody.ParticipantsUpdated)
	}

	resp, err := http.Get(server.URL + "/api/admin/leaderboard?limit=10")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	var lbBody struct {
		TotalParticipants int                `json:"totalParticipants"`
		Toppers           []domain.TopperRow `json:"toppers"`
	}
	decode(t, resp, &lbBody)
	if lbBody.TotalParticipants != 2 {
		t.Fatalf("expected 2 toppers, got %d", lbBody.TotalParticipants)
	}
	if lbBody.Toppers[0].ParticipantID != alice || lbBody.Toppers[0].Rank != 1 {
		t.Fatalf("expected Alice leading, got %+v", lbBody.Toppers[0])
	}
	if lbBody.Toppers[1].ParticipantID != bob {
		t.Fatalf("expected Bob second, got %+v", lbBody.Toppers[1])
	}
}

func TestSubmitRejectsOutOfRangeTime(t *testing.T) {
	server := newTestServer(t, 1)
	alice := registerParticipant(t, server, "alice@example.com")

	b := "B"
	resp := postJSON(t, server.URL+"/api/quiz/submit", map[string]interface{}{
		"participantId": alice,
		"responses": []map[string]interface{}{
			{"questionNumber": 1, "selectedAnswer": b, "timeTaken": 11},
		},
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for timeTaken over the cap, got %d", resp.StatusCode)
	}
}

func TestLeaderboardEmptyIsArray(t *testing.T) {
	server := newTestServer(t, 1)

	resp, err := http.Get(server.URL + "/api/admin/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !bytes.Contains(raw, []byte(`"toppers":[]`)) {
		t.Fatalf("empty leaderboard must serialize as an array, got %s", raw)
	}
}

func TestLeaderboardLimitValidation(t *testing.T) {
	server := newTestServer(t, 1)

	resp, err := http.Get(server.URL + "/api/admin/leaderboard?limit=0")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit 0, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/api/admin/leaderboard?limit=1001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for limit 1001, got %d", resp.StatusCode)
	}
}

func TestUploadQuestionsEndpoint(t *testing.T) {
	server := newTestServer(t, 1)

	resp := postJSON(t, server.URL+"/api/admin/questions/upload", map[string]interface{}{
		"questions": []map[string]interface{}{
			{
				"questionNumber":   2,
				"text":             "What is the capital of France?",
				"option1Text":      "Paris",
				"option1IsCorrect": true,
				"option2Text":      "Lyon",
				"option3Text":      "Nice",
				"option4Text":      "Lille",
			},
		},
	})
	var body struct {
		QuestionsAdded int `json:"questionsAdded"`
		TotalQuestions int `json:"totalQuestions"`
	}
	decode(t, resp, &body)
	if body.QuestionsAdded != 1 || body.TotalQuestions != 2 {
		t.Fatalf("unexpected upload response: %+v", body)
	}
}
