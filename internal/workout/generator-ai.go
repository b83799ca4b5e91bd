package workout

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"golang.org/x/time/rate"
)

const (
	defaultAIModel     = "gpt-4o-mini"
	defaultRestSeconds = 60
	// aiCaloriesPerSet is used for AI exercises that have no catalog counterpart.
	aiCaloriesPerSet = 8
)

var (
	errAIDisabled    = errors.New("ai generation disabled")
	errAIRateLimited = errors.New("ai call budget exhausted")
	errAIMalformed   = errors.New("malformed ai response")
	errAISchema      = errors.New("ai response does not match schema")
)

// AIConfig configures the AI collaborator. An empty APIKey disables it.
type AIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
	// CallsPerMinute caps calls to the provider. Zero means no cap.
	CallsPerMinute int
}

// suggester proposes a workout for a validated request.
type suggester interface {
	suggest(ctx context.Context, req Request) (aiWorkout, error)
}

type aiWorkout struct {
	Name              string       `json:"name"              validate:"required,max=100"`
	Exercises         []aiExercise `json:"exercises"         validate:"required,min=1,max=20,dive"`
	EstimatedDuration *int         `json:"estimatedDuration" validate:"omitempty,min=1,max=180"`
}

type aiExercise struct {
	Name         string `json:"name"         validate:"required,max=100"`
	Sets         int    `json:"sets"         validate:"min=1,max=10"`
	Reps         string `json:"reps"         validate:"required,max=20"`
	RestSeconds  *int   `json:"restSeconds"  validate:"omitempty,min=0,max=600"`
	Muscle       string `json:"muscle"       validate:"required,musclegroup"`
	Equipment    string `json:"equipment"    validate:"required,equipment"`
	Instructions string `json:"instructions" validate:"required"`
}

// openAISuggester asks an OpenAI compatible chat completion endpoint for a workout.
type openAISuggester struct {
	client   openai.Client
	model    openai.ChatModel
	timeout  time.Duration
	limiter  *rate.Limiter
	validate *validator.Validate
}

func newOpenAISuggester(cfg AIConfig) (*openAISuggester, error) {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = defaultAIModel
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.CallsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.CallsPerMinute)), cfg.CallsPerMinute)
	}
	validate, err := newAIValidator()
	if err != nil {
		return nil, err
	}
	return &openAISuggester{
		client:   openai.NewClient(opts...),
		model:    openai.ChatModel(model),
		timeout:  cfg.Timeout,
		limiter:  limiter,
		validate: validate,
	}, nil
}

func newAIValidator() (*validator.Validate, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.RegisterValidation("musclegroup", func(fl validator.FieldLevel) bool {
		_, err := ParseMuscleGroup(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("register musclegroup validation: %w", err)
	}
	if err := validate.RegisterValidation("equipment", func(fl validator.FieldLevel) bool {
		_, err := ParseEquipment(fl.Field().String())
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("register equipment validation: %w", err)
	}
	return validate, nil
}

func (s *openAISuggester) suggest(ctx context.Context, req Request) (aiWorkout, error) {
	if !s.limiter.Allow() {
		return aiWorkout{}, errAIRateLimited
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{ //nolint:exhaustruct // defaults.
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage("You are a certified personal trainer. Answer with JSON only."),
			openai.UserMessage(buildPrompt(req)),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{ //nolint:exhaustruct // one variant.
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{ //nolint:exhaustruct // type has a default.
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "workout",
					Description: openai.String("A workout plan for one training session"),
					Schema:      workoutJSONSchema(req.Equipment),
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return aiWorkout{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return aiWorkout{}, fmt.Errorf("%w: no choices", errAIMalformed)
	}

	return s.decode(chat.Choices[0].Message.Content, req)
}

// decode parses and validates the model output. Markdown code fences around the JSON are tolerated.
func (s *openAISuggester) decode(content string, req Request) (aiWorkout, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(stripCodeFences(content))))
	dec.DisallowUnknownFields()
	var w aiWorkout
	if err := dec.Decode(&w); err != nil {
		return aiWorkout{}, fmt.Errorf("%w: %w", errAIMalformed, err)
	}
	if err := s.validate.Struct(w); err != nil {
		return aiWorkout{}, fmt.Errorf("%w: %w", errAISchema, err)
	}
	for _, e := range w.Exercises {
		if !slices.Contains(req.Equipment, Equipment(e.Equipment)) {
			return aiWorkout{}, fmt.Errorf("%w: exercise %q needs unavailable equipment %s",
				errAISchema, e.Name, e.Equipment)
		}
	}
	return w, nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func buildPrompt(req Request) string {
	muscles := make([]string, len(req.Muscles))
	for i, m := range req.Muscles {
		muscles[i] = string(m)
	}
	equipment := make([]string, len(req.Equipment))
	for i, e := range req.Equipment {
		equipment[i] = string(e)
	}
	return fmt.Sprintf(`Create a %d minute %s level workout.

Target muscle groups: %s
Available equipment: %s

Guidelines:
- Cover every target muscle group with at least one exercise.
- Only use the available equipment.
- Give sets, a rep range such as "8-12", rest in seconds and one sentence of instructions per exercise.
- Keep the total time including rest within %d minutes.`,
		req.DurationMinutes, req.Difficulty, strings.Join(muscles, ", "), strings.Join(equipment, ", "),
		req.DurationMinutes)
}

// workoutJSONSchema is the strict structured output schema for aiWorkout.
func workoutJSONSchema(equipment []Equipment) map[string]any {
	muscles := make([]string, 0, len(allMuscleGroups))
	for _, m := range allMuscleGroups {
		muscles = append(muscles, string(m))
	}
	gear := make([]string, 0, len(equipment))
	for _, e := range equipment {
		gear = append(gear, string(e))
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"name", "exercises", "estimatedDuration"},
		"properties": map[string]any{
			"name": map[string]any{"type": "string"},
			"exercises": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required": []string{
						"name", "sets", "reps", "restSeconds", "muscle", "equipment", "instructions",
					},
					"properties": map[string]any{
						"name":         map[string]any{"type": "string"},
						"sets":         map[string]any{"type": "integer"},
						"reps":         map[string]any{"type": "string"},
						"restSeconds":  map[string]any{"type": []string{"integer", "null"}},
						"muscle":       map[string]any{"type": "string", "enum": muscles},
						"equipment":    map[string]any{"type": "string", "enum": gear},
						"instructions": map[string]any{"type": "string"},
					},
				},
			},
			"estimatedDuration": map[string]any{"type": []string{"integer", "null"}},
		},
	}
}

// toGenerated converts an AI answer into a workout. Exercises whose name matches a catalog entry reuse its id and
// calorie figure.
func (w aiWorkout) toGenerated(req Request, catalog []ExerciseDefinition) GeneratedWorkout {
	exercises := make([]ExerciseDefinition, 0, len(w.Exercises))
	for i, e := range w.Exercises {
		rest := defaultRestSeconds
		if e.RestSeconds != nil {
			rest = *e.RestSeconds
		}
		def := ExerciseDefinition{
			ID:             aiExerciseID(e.Name, i),
			Name:           e.Name,
			Muscles:        []MuscleGroup{MuscleGroup(e.Muscle)},
			Equipment:      []Equipment{Equipment(e.Equipment)},
			Difficulty:     req.Difficulty,
			Sets:           e.Sets,
			Reps:           e.Reps,
			RestSeconds:    rest,
			Tip:            e.Instructions,
			CaloriesPerSet: aiCaloriesPerSet,
		}
		if j := slices.IndexFunc(catalog, func(c ExerciseDefinition) bool {
			return strings.EqualFold(c.Name, e.Name)
		}); j >= 0 {
			def.ID = catalog[j].ID
			def.CaloriesPerSet = catalog[j].CaloriesPerSet
		}
		exercises = append(exercises, def)
	}

	minutes := estimateMinutes(exercises)
	if w.EstimatedDuration != nil {
		minutes = *w.EstimatedDuration
	}
	return GeneratedWorkout{
		SuggestedName:     w.Name,
		Muscles:           slices.Clone(req.Muscles),
		Equipment:         slices.Clone(req.Equipment),
		DurationMinutes:   req.DurationMinutes,
		Difficulty:        req.Difficulty,
		Exercises:         exercises,
		EstimatedCalories: roughCalories(req.DurationMinutes),
		EstimatedMinutes:  minutes,
		Source:            SourceAI,
	}
}

// aiExerciseID falls back to the 1-based position when name has nothing to slug, such as non-Latin names.
func aiExerciseID(name string, i int) string {
	if slug := slugify(name); slug != "" {
		return "ai-" + slug
	}
	return "ai-" + strconv.Itoa(i+1)
}

func slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
