package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/salescoach/backend/internal/domain"
)

// Reply sources
const (
	SourceLLM      = "llm"
	SourceFallback = "fallback"
)

const (
	maxHistoryMessages = 10
	maxPromptVehicles  = 40
	maxFeaturesInReply = 4
)

const systemPromptHeader = `You are a sales coach for car dealership staff. Answer questions about the vehicles ` +
	`below, help rehearse customer conversations and suggest ways to handle objections. ` +
	`Keep answers short and practical. Only quote prices and specifications listed here.`

// chatIntent is one entry of the fallback keyword table
type chatIntent struct {
	name     string
	keywords []string
	reply    string
}

// chatIntents are checked in order; the first intent with a keyword in the message wins
var chatIntents = []chatIntent{
	{
		name:     "price",
		keywords: []string{"price", "cost", "how much", "msrp", "discount", "cheapest", "budget"},
		reply:    "Lead with value before price: confirm the trim the customer wants, then walk through the on-road price and current offers.",
	},
	{
		name:     "mileage",
		keywords: []string{"mileage", "mpg", "fuel economy", "efficiency", "kmpl"},
		reply:    "Quote the combined figure first, then city and highway, and relate it to the customer's daily commute.",
	},
	{
		name:     "features",
		keywords: []string{"feature", "features", "safety", "infotainment", "sunroof", "carplay", "spec", "specs"},
		reply:    "Pick the two or three features that match what the customer told you they care about and demonstrate them in the car.",
	},
	{
		name:     "financing",
		keywords: []string{"finance", "financing", "loan", "emi", "lease", "down payment", "interest"},
		reply:    "Ask about the monthly budget first, then present finance and lease options side by side. Never quote a rate before the credit check.",
	},
	{
		name:     "test_drive",
		keywords: []string{"test drive", "drive it", "demo"},
		reply:    "Offer a test drive early. Plan a route with a highway stretch and some city traffic so the customer feels both.",
	},
	{
		name:     "objection",
		keywords: []string{"too expensive", "think about it", "competitor", "cheaper", "not sure", "objection", "better deal"},
		reply:    "Acknowledge the concern, ask a question to find the real reason behind it, then answer that reason with a specific benefit.",
	},
	{
		name:     "greeting",
		keywords: []string{"hello", "hi", "hey", "good morning", "good afternoon", "good evening"},
		reply:    "Hi! Ask me about any vehicle in the catalog, pricing, mileage, financing or how to handle a customer objection.",
	},
}

const defaultFallbackReply = "I can help with vehicle details, pricing, mileage, features, financing, test drives and objection handling. Try asking about a specific model."

// ChatService answers sales staff questions through the LLM, falling back to a
// keyword responder whenever the LLM is unavailable.
type ChatService struct {
	client  domain.ChatClient
	catalog domain.CatalogRepository
	matcher *VehicleMatcher
	logger  zerolog.Logger
}

// NewChatService creates a chat service. A nil client always uses the fallback responder.
func NewChatService(client domain.ChatClient, catalog domain.CatalogRepository, matcher *VehicleMatcher, logger zerolog.Logger) *ChatService {
	return &ChatService{
		client:  client,
		catalog: catalog,
		matcher: matcher,
		logger:  logger.With().Str("component", "chat").Logger(),
	}
}

// Reply answers the last user message of the conversation
func (s *ChatService) Reply(ctx context.Context, messages []domain.ChatMessage) (domain.ChatReply, error) {
	history := sanitizeHistory(messages)
	if len(history) == 0 || history[len(history)-1].Role != "user" {
		return domain.ChatReply{}, fmt.Errorf("%w: the last message must be a non-empty user message", domain.ErrInvalidRequest)
	}
	question := history[len(history)-1].Content

	entries, err := s.catalog.Load(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("catalog unavailable for chat")
		entries = nil
	}

	if s.client != nil {
		reply, usage, err := s.client.Chat(ctx, buildSystemPrompt(entries), history)
		if err == nil && strings.TrimSpace(reply) != "" {
			return domain.ChatReply{Reply: reply, Source: SourceLLM, Usage: usage}, nil
		}
		s.logger.Warn().Err(err).Msg("llm unavailable, using fallback responder")
	}

	return domain.ChatReply{Reply: s.fallbackReply(question, entries), Source: SourceFallback}, nil
}

// sanitizeHistory drops empty and unknown-role messages and keeps the most recent ones
func sanitizeHistory(messages []domain.ChatMessage) []domain.ChatMessage {
	var out []domain.ChatMessage
	for _, m := range messages {
		content := strings.TrimSpace(m.Content)
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if content == "" || (role != "user" && role != "assistant") {
			continue
		}
		out = append(out, domain.ChatMessage{Role: role, Content: content})
	}
	if len(out) > maxHistoryMessages {
		out = out[len(out)-maxHistoryMessages:]
	}
	return out
}

func buildSystemPrompt(entries []domain.CatalogEntry) string {
	var b strings.Builder
	b.WriteString(systemPromptHeader)
	if len(entries) == 0 {
		return b.String()
	}

	b.WriteString("\n\nCatalog:\n")
	for i, e := range entries {
		if i == maxPromptVehicles {
			fmt.Fprintf(&b, "... and %d more\n", len(entries)-maxPromptVehicles)
			break
		}
		b.WriteString("- ")
		b.WriteString(vehicleSummary(e))
		b.WriteString("\n")
	}
	return b.String()
}

// vehicleSummary is a one-line description of an entry, skipping unknown values
func vehicleSummary(e domain.CatalogEntry) string {
	parts := []string{e.Name}
	if e.Category != "" {
		parts[0] += " (" + e.Category + ")"
	}
	if p := formatAmount(e.Price); p != "" {
		parts = append(parts, "price "+p)
	}
	if e.Specs.Engine != "" {
		parts = append(parts, e.Specs.Engine)
	}
	if e.Specs.Horsepower != "" {
		parts = append(parts, e.Specs.Horsepower+" hp")
	}
	if e.Mileage.Combined != "" {
		parts = append(parts, e.Mileage.Combined+" mpg combined")
	}
	return strings.Join(parts, ", ")
}

func (s *ChatService) fallbackReply(question string, entries []domain.CatalogEntry) string {
	intent := detectIntent(question)

	var matches []VehicleMatch
	if s.matcher != nil {
		matches = s.matcher.FindVehicles(question, entries)
	}
	if len(matches) == 0 {
		if intent != nil {
			return intent.reply
		}
		return defaultFallbackReply
	}

	var lines []string
	for _, m := range matches {
		lines = append(lines, vehicleAnswer(intent, m.Entry))
	}
	return strings.Join(lines, "\n")
}

func detectIntent(message string) *chatIntent {
	padded := " " + strings.Join(tokenizeWords(message), " ") + " "
	for i := range chatIntents {
		for _, kw := range chatIntents[i].keywords {
			if strings.Contains(padded, " "+kw+" ") {
				return &chatIntents[i]
			}
		}
	}
	return nil
}

// tokenizeWords lowercases and splits on anything that is not a letter or digit
func tokenizeWords(s string) []string {
	return strings.Fields(punctuationRegex.ReplaceAllString(strings.ToLower(s), " "))
}

// vehicleAnswer answers intent for a single catalog entry
func vehicleAnswer(intent *chatIntent, e domain.CatalogEntry) string {
	name := intentName(intent)
	switch name {
	case "price":
		price := formatAmount(e.Price)
		if price == "" {
			return fmt.Sprintf("I don't have a price for the %s yet.", e.Name)
		}
		answer := fmt.Sprintf("The %s is priced at %s", e.Name, price)
		if msrp := formatAmount(e.OriginalPrice); msrp != "" && msrp != price {
			answer += fmt.Sprintf(" (MSRP %s)", msrp)
		}
		return answer + "."
	case "mileage":
		m := e.Mileage
		if m.City == "" && m.Highway == "" && m.Combined == "" {
			return fmt.Sprintf("I don't have mileage figures for the %s yet.", e.Name)
		}
		return fmt.Sprintf("The %s returns %s city / %s highway mpg (%s combined).",
			e.Name, orUnknown(m.City), orUnknown(m.Highway), orUnknown(m.Combined))
	case "features":
		if len(e.Features) == 0 {
			return fmt.Sprintf("I don't have a feature list for the %s yet.", e.Name)
		}
		features := e.Features
		if len(features) > maxFeaturesInReply {
			features = features[:maxFeaturesInReply]
		}
		return fmt.Sprintf("Highlights of the %s: %s.", e.Name, strings.Join(features, ", "))
	case "":
		return "Here is what I have: " + vehicleSummary(e) + "."
	}
	return fmt.Sprintf("%s For reference: %s.", intent.reply, vehicleSummary(e))
}

func intentName(intent *chatIntent) string {
	if intent == nil {
		return ""
	}
	return intent.name
}

func orUnknown(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

// formatAmount groups a whole-number amount with commas. Non-numeric and zero
// amounts are treated as unknown.
func formatAmount(amount string) string {
	amount = strings.TrimSpace(amount)
	if amount == "" || amount == "0" || !isNumeric(amount) {
		return ""
	}
	var b strings.Builder
	lead := len(amount) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(amount[:lead])
	for i := lead; i < len(amount); i += 3 {
		b.WriteByte(',')
		b.WriteString(amount[i : i+3])
	}
	return b.String()
}
