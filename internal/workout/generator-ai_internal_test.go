package workout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// newChatServer starts a chat completion endpoint that answers every request with content.
func newChatServer(t *testing.T, content string, requests chan<- map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			http.NotFound(w, r)
			return
		}
		if requests != nil {
			body, _ := io.ReadAll(r.Body)
			var params map[string]any
			_ = json.Unmarshal(body, &params)
			requests <- params
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1700000000,
			"model":   "test-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"logprobs":      nil,
				"message":       map[string]any{"role": "assistant", "content": content, "refusal": nil},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSuggester(t *testing.T, cfg AIConfig) *openAISuggester {
	t.Helper()
	cfg.APIKey = "test-key"
	s, err := newOpenAISuggester(cfg)
	if err != nil {
		t.Fatalf("newOpenAISuggester() error = %v", err)
	}
	return s
}

var testAIRequest = Request{ //nolint:gochecknoglobals // test fixture.
	Muscles:         []MuscleGroup{MuscleChest, MuscleTriceps},
	Equipment:       []Equipment{EquipmentBodyweight, EquipmentDumbbells},
	Difficulty:      DifficultyIntermediate,
	DurationMinutes: 30,
}

const validAIAnswer = `{
  "name": "Press Session",
  "exercises": [
    {"name": "Push-Ups", "sets": 3, "reps": "10-12", "restSeconds": 60, "muscle": "CHEST",
     "equipment": "Bodyweight", "instructions": "Keep your body straight."},
    {"name": "Dumbbell Kickback", "sets": 3, "reps": "12", "restSeconds": null, "muscle": "TRICEPS",
     "equipment": "Dumbbells", "instructions": "Keep the elbow still."}
  ],
  "estimatedDuration": 25
}`

func Test_openAISuggester_suggest(t *testing.T) {
	requests := make(chan map[string]any, 1)
	srv := newChatServer(t, "```json\n"+validAIAnswer+"\n```", requests)
	s := newTestSuggester(t, AIConfig{BaseURL: srv.URL + "/", Model: "test-model"})

	got, err := s.suggest(t.Context(), testAIRequest)
	if err != nil {
		t.Fatalf("suggest() error = %v", err)
	}

	rest, duration := 60, 25
	want := aiWorkout{
		Name: "Press Session",
		Exercises: []aiExercise{
			{
				Name: "Push-Ups", Sets: 3, Reps: "10-12", RestSeconds: &rest, Muscle: "CHEST",
				Equipment: "Bodyweight", Instructions: "Keep your body straight.",
			},
			{
				Name: "Dumbbell Kickback", Sets: 3, Reps: "12", Muscle: "TRICEPS", Equipment: "Dumbbells",
				Instructions: "Keep the elbow still.",
			},
		},
		EstimatedDuration: &duration,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("suggest() mismatch (-want +got):\n%s", diff)
	}

	params := <-requests
	if params["model"] != "test-model" {
		t.Errorf("model = %v, want test-model", params["model"])
	}
	format, _ := params["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Errorf("response_format = %v, want json_schema", format)
	}
	messages, _ := params["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(messages))
	}
	prompt, _ := messages[1].(map[string]any)["content"].(string)
	for _, want := range []string{"30 minute intermediate", "CHEST, TRICEPS", "Bodyweight, Dumbbells"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt does not mention %q:\n%s", want, prompt)
		}
	}
}

func Test_openAISuggester_suggest_errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "not json", content: "Here is your workout!", wantErr: errAIMalformed},
		{name: "truncated", content: `{"name": "Press", "exercises": [`, wantErr: errAIMalformed},
		{
			name:    "unknown field",
			content: `{"name": "Press", "calories": 100, "exercises": []}`,
			wantErr: errAIMalformed,
		},
		{name: "no exercises", content: `{"name": "Press", "exercises": []}`, wantErr: errAISchema},
		{
			name: "unknown muscle",
			content: `{"name": "Press", "exercises": [{"name": "Neck Curl", "sets": 3, "reps": "10",
				"muscle": "NECK", "equipment": "Bodyweight", "instructions": "Slowly."}]}`,
			wantErr: errAISchema,
		},
		{
			name: "too many sets",
			content: `{"name": "Press", "exercises": [{"name": "Push-Ups", "sets": 40, "reps": "10",
				"muscle": "CHEST", "equipment": "Bodyweight", "instructions": "Slowly."}]}`,
			wantErr: errAISchema,
		},
		{
			name: "unavailable equipment",
			content: `{"name": "Press", "exercises": [{"name": "Bench Press", "sets": 3, "reps": "8",
				"muscle": "CHEST", "equipment": "Barbell", "instructions": "Slowly."}]}`,
			wantErr: errAISchema,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newChatServer(t, tt.content, nil)
			s := newTestSuggester(t, AIConfig{BaseURL: srv.URL + "/"})

			_, err := s.suggest(t.Context(), testAIRequest)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("suggest() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func Test_openAISuggester_suggest_timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		// The server only notices the client going away once the body has been read.
		_, _ = io.Copy(io.Discard, r.Body)
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)
	s := newTestSuggester(t, AIConfig{BaseURL: srv.URL + "/", Timeout: 50 * time.Millisecond})

	_, err := s.suggest(t.Context(), testAIRequest)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("suggest() error = %v, want deadline exceeded", err)
	}
	if got := aiFailureReason(err); got != "timeout" {
		t.Errorf("aiFailureReason() = %q, want timeout", got)
	}
}

func Test_openAISuggester_suggest_serverError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": {"message": "overloaded"}}`, http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)
	s := newTestSuggester(t, AIConfig{BaseURL: srv.URL + "/"})

	_, err := s.suggest(t.Context(), testAIRequest)
	if err == nil {
		t.Fatal("suggest() succeeded against a failing server")
	}
	if got := aiFailureReason(err); got != "transport" {
		t.Errorf("aiFailureReason() = %q, want transport", got)
	}
}

func Test_openAISuggester_suggest_rateLimited(t *testing.T) {
	srv := newChatServer(t, validAIAnswer, nil)
	s := newTestSuggester(t, AIConfig{BaseURL: srv.URL + "/", CallsPerMinute: 1})

	if _, err := s.suggest(t.Context(), testAIRequest); err != nil {
		t.Fatalf("first suggest() error = %v", err)
	}
	if _, err := s.suggest(t.Context(), testAIRequest); !errors.Is(err, errAIRateLimited) {
		t.Errorf("second suggest() error = %v, want errAIRateLimited", err)
	}
}

func Test_stripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: `{"a":1}`, want: `{"a":1}`},
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{in: "  {\"a\":1}  ", want: `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripCodeFences(tt.in); got != tt.want {
			t.Errorf("stripCodeFences(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func Test_slugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Push-Ups", want: "push-ups"},
		{in: "Wall Push", want: "wall-push"},
		{in: "  90/90 Hip Switch!  ", want: "90-90-hip-switch"},
		{in: "Farmer's   Walk", want: "farmer-s-walk"},
	}
	for _, tt := range tests {
		if got := slugify(tt.in); got != tt.want {
			t.Errorf("slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func Test_aiWorkout_toGenerated_ids(t *testing.T) {
	answer := aiWorkout{
		Name: "Жим",
		Exercises: []aiExercise{
			{Name: "Жим лёжа", Sets: 3, Reps: "8", Muscle: "CHEST", Equipment: "Dumbbells", Instructions: "Жми"},
			{Name: "Отжимания", Sets: 3, Reps: "12", Muscle: "CHEST", Equipment: "Bodyweight", Instructions: "Жми"},
			{Name: "Dips", Sets: 3, Reps: "10", Muscle: "TRICEPS", Equipment: "Bodyweight", Instructions: "Push"},
		},
	}

	w := answer.toGenerated(testAIRequest, nil)
	ids := make([]string, len(w.Exercises))
	for i, e := range w.Exercises {
		ids[i] = e.ID
	}
	if diff := cmp.Diff([]string{"ai-1", "ai-2", "ai-dips"}, ids); diff != "" {
		t.Errorf("exercise ids mismatch (-want +got):\n%s", diff)
	}
}

func Test_workoutJSONSchema(t *testing.T) {
	schema := workoutJSONSchema([]Equipment{EquipmentCable})
	exercises := schema["properties"].(map[string]any)["exercises"].(map[string]any)
	props := exercises["items"].(map[string]any)["properties"].(map[string]any)

	gear := props["equipment"].(map[string]any)["enum"]
	if diff := cmp.Diff([]string{"Cable"}, gear); diff != "" {
		t.Errorf("equipment enum mismatch (-want +got):\n%s", diff)
	}
	muscles, _ := props["muscle"].(map[string]any)["enum"].([]string)
	if len(muscles) != len(allMuscleGroups) {
		t.Errorf("muscle enum has %d values, want %d", len(muscles), len(allMuscleGroups))
	}
}
