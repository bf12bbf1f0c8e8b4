package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"arenahub/models"

	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

const generationFallback = "System error: cognitive processors offline."

var difficultyStyles = map[string]string{
	"easy":   "logical but simple, sometimes making minor errors or using circular reasoning",
	"medium": "coherent, logic-driven, and persuasive",
	"hard":   "highly aggressive, utilizing advanced rhetorical techniques, philosophy, and cutting logic",
}

var phaseInstructions = map[models.Phase]string{
	models.PhaseOpeningP2:  "Provide a strong opening statement supporting your position. Establish your core arguments.",
	models.PhaseRebuttalP2: "Directly address and dismantle the last points made by the opponent. Use logic to invalidate their claims.",
	models.PhaseCrossfire:  "Engage in quick, sharp exchanges. Keep it punchy and defensive/offensive as needed.",
	models.PhaseClosingP2:  "Summarize your strongest points and provide a powerful concluding statement on why you won.",
}

// GeminiOracle judges utterances and generates AI-opponent speech through
// the Gemini API. Every failure path degrades to a neutral or fallback
// value so a broken oracle can never stall a match.
type GeminiOracle struct {
	client *genai.Client
	model  string
}

// NewGeminiOracle initializes the Gemini client with the given API key.
func NewGeminiOracle(apiKey string) (*GeminiOracle, error) {
	cfg := &genai.ClientConfig{}
	if apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := genai.NewClient(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &GeminiOracle{client: client, model: defaultGeminiModel}, nil
}

// ScoreImpact returns a momentum delta in [-10,10] for the utterance.
// Negative favors the left player, positive the right. System lines and
// any failure score 0.
func (o *GeminiOracle) ScoreImpact(ctx context.Context, text string, phase models.Phase, side models.Side) int {
	if o == nil || o.client == nil || side == models.SideSystem {
		return 0
	}

	prompt := fmt.Sprintf(`You are an expert AI judge for a fast-paced debate game.
Given a transcript snippet from the "%s" phase, spoken by the %s player.

MOMENTUM SCORING RULES:
- The game tracks momentum on a scale where Left = Negative and Right = Positive.
- If the %s player makes a strong, logical, or persuasive point, you MUST award them points in THEIR direction.
- If %s is LEFT: a good point should be a NEGATIVE integer (e.g., -5).
- If %s is RIGHT: a good point should be a POSITIVE integer (e.g., +5).
- Neutral or weak points should be close to 0.
- Extremely strong points can be up to 10 (or -10).

Return ONLY a single integer between -10 and 10.
Consider logic, rhetoric, and aggression.

Snippet: %s`,
		phase, strings.ToUpper(string(side)),
		strings.ToUpper(string(side)), strings.ToUpper(string(side)), strings.ToUpper(string(side)),
		text)

	raw, err := o.generateText(ctx, prompt)
	if err != nil {
		log.Printf("Oracle scoring failed: %v", err)
		return 0
	}

	delta, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Oracle returned non-integer score %q", raw)
		return 0
	}
	if delta < -10 {
		delta = -10
	}
	if delta > 10 {
		delta = 10
	}
	return delta
}

// GenerateResponse produces the AI opponent's next line. The opponent
// always argues the right side against the human on the left.
func (o *GeminiOracle) GenerateResponse(ctx context.Context, topic models.Topic, recent []string, difficulty string, phase models.Phase) string {
	if o == nil || o.client == nil {
		return generationFallback
	}

	style, ok := difficultyStyles[strings.ToLower(difficulty)]
	if !ok {
		style = difficultyStyles["medium"]
	}
	instruction, ok := phaseInstructions[phase]
	if !ok {
		instruction = "Respond to the debate."
	}

	prompt := fmt.Sprintf(`You are an expert debater (AI) competing in a real-time game.
The topic is: "%s - %s".
You are Player 2 (Right Side), arguing against Player 1 (Human).

CURRENT PHASE: %s.
TASK: %s

STYLE: Your response should be %s.
Keep it concise (max 3 sentences) to maintain game pace.

Recent debate history: %s. Provide your response.`,
		topic.Title, topic.Description, phase, instruction, style,
		strings.Join(recent, " | "))

	text, err := o.generateText(ctx, prompt)
	if err != nil {
		log.Printf("Oracle generation failed: %v", err)
		return generationFallback
	}
	if text == "" {
		return "I await your next point."
	}
	return text
}

func (o *GeminiOracle) generateText(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.Models.GenerateContent(ctx, o.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	return cleanModelOutput(resp.Text()), nil
}

func cleanModelOutput(text string) string {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```JSON")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	return strings.TrimSpace(cleaned)
}
