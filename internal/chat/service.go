package chat

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sirish76/healthcare-assistant/internal/doctors"
	"github.com/sirish76/healthcare-assistant/pkg/logging"
)

var chatTracer = otel.Tracer("healthassist.internal.chat")

const systemPrompt = `You are HealthAssist AI (also known as "Zume"), a knowledgeable and empathetic healthcare insurance assistant.
Your role is to help users understand healthcare and medical insurance topics including:

- Medicare (Parts A, B, C, D), enrollment periods, eligibility, and coverage details
- Medicaid eligibility, coverage, and state-specific programs
- Private health insurance (HMO, PPO, EPO, POS plans)
- ACA/Marketplace insurance plans and subsidies
- Insurance terminology (deductibles, copays, coinsurance, out-of-pocket maximums)
- Claims processes and appeals
- Prescription drug coverage
- Preventive care benefits
- Special enrollment periods and qualifying life events
- Specific insurance plan details (e.g., Kaiser Permanente Bronze 60, Blue Shield Silver 70, etc.)

INSURANCE PLAN EXPERTISE:
When a user mentions their specific insurance plan (e.g., "Kaiser Permanente Bronze 60 HMO"
or "Blue Shield Silver 70 PPO"), use your knowledge of publicly available plan information
to provide helpful details about:
- Monthly premiums (typical ranges)
- Annual deductible amounts
- Copay amounts for office visits, specialists, urgent care, ER
- Coinsurance percentages
- Out-of-pocket maximum
- What the plan covers (preventive care, prescriptions, mental health, etc.)
- Network type (HMO vs PPO vs EPO) and what that means
- Referral requirements

If the user's message begins with "[User's insurance plan: ...]", that indicates their saved
plan. Use this context to personalize your responses throughout the conversation. When answering
ANY health insurance question, relate it back to their specific plan when possible.

Always clarify that plan details can vary by state and year, and that users should verify
specific numbers with their carrier or the Summary of Benefits and Coverage (SBC) document.

IMPORTANT GUIDELINES:
1. Always provide accurate, helpful information but remind users to verify with their specific insurance provider.
2. Never provide specific medical advice — direct users to healthcare providers for medical decisions.
3. When users ask about finding doctors in their area, extract the specialty and location,
   then respond with: [DOCTOR_SEARCH: specialty="<specialty>", location="<location>", insurance="<insurance_if_mentioned>"]
   This tag will trigger a doctor directory search.
4. Be conversational and supportive — insurance topics can be confusing and stressful.
5. Use simple, clear language and avoid excessive jargon.
6. If you're unsure about something, say so rather than guessing.

You are NOT a substitute for professional insurance or medical advice. Always encourage users
to contact their insurance provider, healthcare.gov, or their state Medicaid office for
definitive answers about their specific situation.`

const errorReply = "I'm sorry, I encountered an error. Please try again or contact support."

// Content types for chat responses.
const (
	ContentTypeText          = "TEXT"
	ContentTypeDoctorResults = "DOCTOR_RESULTS"
	ContentTypeError         = "ERROR"
)

var doctorSearchRE = regexp.MustCompile(
	`(?i)\[DOCTOR_SEARCH:\s*specialty="([^"]*)",\s*location="([^"]*)",\s*insurance="([^"]*)"\]`)

// Request is an inbound chat message with optional prior turns.
type Request struct {
	Message   string    `json:"message"`
	SessionID string    `json:"sessionId,omitempty"`
	History   []Message `json:"conversationHistory,omitempty"`
}

// Response is the assistant's reply, optionally carrying doctor results when
// the model signalled a directory search.
type Response struct {
	Message            string                `json:"message"`
	ContentType        string                `json:"contentType"`
	DoctorSearchResult *doctors.SearchResult `json:"doctorSearchResult,omitempty"`
	SessionID          string                `json:"sessionId"`
}

// DoctorSearcher is the directory capability the chat service consumes.
type DoctorSearcher interface {
	Search(ctx context.Context, req doctors.SearchRequest) doctors.SearchResult
}

// Service orchestrates model completion and doctor-search tag handling.
type Service struct {
	llm      Completer
	searcher DoctorSearcher
	logger   *logging.Logger
}

// NewService creates the chat service.
func NewService(llm Completer, searcher DoctorSearcher, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{llm: llm, searcher: searcher, logger: logger}
}

// ProcessMessage produces a response for one chat turn. Model failures come
// back as an ERROR-typed reply, never as a transport error to the caller.
func (s *Service) ProcessMessage(ctx context.Context, req Request) Response {
	ctx, span := chatTracer.Start(ctx, "chat.process_message")
	defer span.End()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	span.SetAttributes(attribute.String("healthassist.session_id", sessionID))

	messages := make([]Message, 0, len(req.History)+1)
	for _, m := range req.History {
		role := strings.ToLower(m.Role)
		if role != "user" && role != "assistant" {
			continue
		}
		messages = append(messages, Message{Role: role, Content: m.Content})
	}
	messages = append(messages, Message{Role: "user", Content: req.Message})

	callCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	reply, err := s.llm.Complete(callCtx, systemPrompt, messages)
	if err != nil {
		span.RecordError(err)
		s.logger.Error("chat completion failed", "error", err, "session_id", sessionID)
		return Response{Message: errorReply, ContentType: ContentTypeError, SessionID: sessionID}
	}

	if match := doctorSearchRE.FindStringSubmatchIndex(reply); match != nil {
		groups := doctorSearchRE.FindStringSubmatch(reply)
		specialty, location, insurance := groups[1], groups[2], groups[3]
		s.logger.Info("doctor search detected",
			"specialty", specialty, "location", location, "insurance", insurance)

		clean := strings.TrimSpace(reply[:match[0]])
		if clean == "" {
			clean = fmt.Sprintf("I found some %s doctors near %s for you. Here are the available options:",
				specialty, location)
		}

		result := s.searcher.Search(ctx, doctors.SearchRequest{
			Specialty: specialty,
			Location:  location,
			Insurance: insurance,
			PageSize:  10,
		})
		return Response{
			Message:            clean,
			ContentType:        ContentTypeDoctorResults,
			DoctorSearchResult: &result,
			SessionID:          sessionID,
		}
	}

	return Response{Message: reply, ContentType: ContentTypeText, SessionID: sessionID}
}
