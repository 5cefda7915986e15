package domain

import "time"

// QuizQuestion is a multiple-choice training question
type QuizQuestion struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Question    string   `json:"question"`
	Options     []string `json:"options"`
	Answer      int      `json:"answer"` // index into Options
	Explanation string   `json:"explanation,omitempty"`
}

// QuizPrompt is a question as shown to the trainee, without the answer
type QuizPrompt struct {
	ID       string   `json:"id"`
	Category string   `json:"category"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// Prompt strips the answer and explanation from q
func (q QuizQuestion) Prompt() QuizPrompt {
	return QuizPrompt{ID: q.ID, Category: q.Category, Question: q.Question, Options: q.Options}
}

// QuizSubmission maps question IDs to the selected option index
type QuizSubmission struct {
	Answers map[string]int `json:"answers" binding:"required"`
}

// QuizGrade is the graded result of one answered question
type QuizGrade struct {
	QuestionID  string `json:"questionId"`
	Selected    int    `json:"selected"`
	Correct     bool   `json:"correct"`
	Answer      int    `json:"answer"`
	Explanation string `json:"explanation,omitempty"`
}

// QuizResult summarizes a graded submission
type QuizResult struct {
	Total   int         `json:"total"`
	Correct int         `json:"correct"`
	Score   float64     `json:"score"` // percentage 0-100
	Grades  []QuizGrade `json:"grades"`
}

// SalesScript is a Q&A or objection-handling script
type SalesScript struct {
	ID       string   `json:"id"`
	Category string   `json:"category"` // e.g. "objection", "qa"
	Prompt   string   `json:"prompt"`
	Response string   `json:"response"`
	Tags     []string `json:"tags,omitempty"`
}

// OTPChallenge is the stored state of an outstanding one-time password
type OTPChallenge struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	Attempts   int       `json:"attempts"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// OTPRequest is the body of an OTP request
type OTPRequest struct {
	Identifier string `json:"identifier" binding:"required"`
}

// OTPVerifyRequest is the body of an OTP verification
type OTPVerifyRequest struct {
	Identifier string `json:"identifier" binding:"required"`
	Code       string `json:"code" binding:"required"`
}

// Session is an authenticated login
type Session struct {
	Token      string    `json:"token"`
	Identifier string    `json:"identifier"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ChatMessage is one turn of a chatbot conversation
type ChatMessage struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// ChatRequest is the body of a chat call
type ChatRequest struct {
	Messages []ChatMessage `json:"messages" binding:"required"`
}

// TokenUsage reports LLM token accounting
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// ChatReply is the chatbot answer
type ChatReply struct {
	Reply  string      `json:"reply"`
	Source string      `json:"source"` // "llm" or "fallback"
	Usage  *TokenUsage `json:"usage,omitempty"`
}
