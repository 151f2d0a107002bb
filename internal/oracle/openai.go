package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"

	"dental-intake-agent/internal/intake"
)

const (
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
)

// Client implements intake.Oracle against the OpenAI chat completion API.
// API credentials, model name and the per-call timeout are loaded from
// environment variables.
type Client struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewClient constructs an OpenAI-backed extraction client. It reads
// OPENAI_API_KEY, OPENAI_MODEL and ORACLE_TIMEOUT_SECONDS from the
// environment and falls back to sensible defaults.
func NewClient() *Client {
	apiKey := os.Getenv("OPENAI_API_KEY")

	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = defaultModel
	}

	timeout := defaultTimeout
	if v := os.Getenv("ORACLE_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &Client{
		client:  openai.NewClient(apiKey),
		model:   model,
		timeout: timeout,
	}
}

// ProcessTurn sends the combined extract+assess+respond prompt for one
// dialogue turn. The call carries a bounded timeout; transport failures and
// malformed replies both surface as errors for the controller to absorb.
func (c *Client) ProcessTurn(ctx context.Context, recentTurns []intake.Message, current intake.CollectedInfo, latestUserText string) (*intake.Extraction, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	prompt := buildPrompt(recentTurns, current, latestUserText)
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    []openai.ChatCompletionMessage{{Role: openai.ChatMessageRoleUser, Content: prompt}},
		Temperature: 0.2,
	})
	if err != nil {
		return nil, errors.Wrap(err, "oracle call failed")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("oracle returned no choices")
	}
	return parseExtraction(resp.Choices[0].Message.Content)
}

func buildPrompt(recentTurns []intake.Message, current intake.CollectedInfo, latestUserText string) string {
	symptomsJSON, err := json.Marshal(current.Symptoms)
	if err != nil {
		symptomsJSON = []byte("{}")
	}
	values := fmt.Sprintf(`- Age: %s
- Gender: %s
- Dental history: %s
- Smoking status: %s
- Affected area: %s
- Symptoms: %s
- Duration: %s
- Other info: %s`,
		orNotProvided(current.Age),
		orNotProvided(current.Gender),
		orNotProvided(current.DentalHistory),
		orNotProvided(current.SmokingStatus),
		orNotProvided(current.AffectedArea),
		string(symptomsJSON),
		orNotProvided(current.Duration),
		orNotProvided(current.OtherInformation),
	)

	lines := make([]string, 0, len(recentTurns))
	for _, m := range recentTurns {
		lines = append(lines, m.Role+": "+m.Content)
	}

	return fmt.Sprintf(combinedPromptTemplate, values, strings.Join(lines, "\n"), latestUserText)
}

func orNotProvided(v string) string {
	if v == "" {
		return "Not provided"
	}
	return v
}

// oracleResult mirrors the JSON structure the prompt demands. Scalar fields
// are pointers so an explicit null and an absent key both read as nil;
// symptoms stay a loose map because the model may invent sub-field names.
type oracleResult struct {
	ExtractedInfo struct {
		Age              *string            `json:"age"`
		Gender           *string            `json:"gender"`
		DentalHistory    *string            `json:"dental_history"`
		SmokingStatus    *string            `json:"smoking_status"`
		AffectedArea     *string            `json:"affected_area"`
		Symptoms         map[string]*string `json:"symptoms"`
		Duration         *string            `json:"duration"`
		OtherInformation *string            `json:"other_information"`
	} `json:"extracted_info"`
	Assessment struct {
		InformationComplete bool `json:"information_complete"`
	} `json:"assessment"`
	Response struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		ShouldEnd bool   `json:"should_end"`
	} `json:"response"`
}

// parseExtraction validates the raw model output against the expected shape
// and converts it to the merge engine's input. Any deviation is an error,
// never silently-accepted partial data.
func parseExtraction(raw string) (*intake.Extraction, error) {
	cleaned := stripFences(raw)

	var result oracleResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, errors.Wrap(err, "oracle response is not valid JSON")
	}
	if strings.TrimSpace(result.Response.Message) == "" {
		return nil, errors.New("oracle response is missing a message")
	}

	ext := &intake.Extraction{
		Scalars:              map[string]string{},
		Symptoms:             map[string]string{},
		SuggestedMessage:     strings.TrimSpace(result.Response.Message),
		SelfAssessedComplete: result.Assessment.InformationComplete,
	}
	putScalar(ext.Scalars, intake.FieldAge, result.ExtractedInfo.Age)
	putScalar(ext.Scalars, intake.FieldGender, result.ExtractedInfo.Gender)
	putScalar(ext.Scalars, intake.FieldDentalHistory, result.ExtractedInfo.DentalHistory)
	putScalar(ext.Scalars, intake.FieldSmokingStatus, result.ExtractedInfo.SmokingStatus)
	putScalar(ext.Scalars, intake.FieldAffectedArea, result.ExtractedInfo.AffectedArea)
	putScalar(ext.Scalars, intake.FieldDuration, result.ExtractedInfo.Duration)
	for name, value := range result.ExtractedInfo.Symptoms {
		putScalar(ext.Symptoms, name, value)
	}
	if note := result.ExtractedInfo.OtherInformation; note != nil {
		ext.Note = strings.TrimSpace(*note)
	}
	return ext, nil
}

// putScalar records a value only when the oracle reported it: nil pointers,
// empty strings and the literal "null" some models emit are all treated as
// not-reported.
func putScalar(dst map[string]string, field string, value *string) {
	if value == nil {
		return
	}
	v := strings.TrimSpace(*value)
	if v == "" || strings.EqualFold(v, "null") {
		return
	}
	dst[field] = v
}

// stripFences removes the markdown code fences models like to wrap JSON in.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```json") {
		s = strings.TrimPrefix(s, "```json")
	} else if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
