package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sirish76/healthcare-assistant/internal/doctors"
)

type stubCompleter struct {
	reply    string
	err      error
	system   string
	messages []Message
}

func (s *stubCompleter) Complete(ctx context.Context, system string, messages []Message) (string, error) {
	s.system = system
	s.messages = messages
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

type stubSearcher struct {
	calls   int
	lastReq doctors.SearchRequest
	result  doctors.SearchResult
}

func (s *stubSearcher) Search(ctx context.Context, req doctors.SearchRequest) doctors.SearchResult {
	s.calls++
	s.lastReq = req
	return s.result
}

func TestProcessMessagePlainReply(t *testing.T) {
	llm := &stubCompleter{reply: "Medicare Part A covers hospital stays."}
	searcher := &stubSearcher{}
	svc := NewService(llm, searcher, nil)

	resp := svc.ProcessMessage(context.Background(), Request{Message: "What does Part A cover?"})

	if resp.ContentType != ContentTypeText {
		t.Errorf("expected TEXT content type, got %s", resp.ContentType)
	}
	if resp.Message != "Medicare Part A covers hospital stays." {
		t.Errorf("unexpected message: %s", resp.Message)
	}
	if resp.SessionID == "" {
		t.Error("expected generated session id")
	}
	if searcher.calls != 0 {
		t.Errorf("expected no doctor search, got %d", searcher.calls)
	}
	if !strings.Contains(llm.system, "healthcare insurance assistant") {
		t.Error("system prompt not passed to completer")
	}
}

func TestProcessMessageDoctorSearchTag(t *testing.T) {
	llm := &stubCompleter{
		reply: `Here are cardiologists near you. [DOCTOR_SEARCH: specialty="Cardiology", location="Boston, MA", insurance="Medicare"]`,
	}
	searcher := &stubSearcher{result: doctors.SearchResult{
		Doctors:      []doctors.Doctor{{ID: "doc-1", FirstName: "Ada"}},
		TotalResults: 1,
	}}
	svc := NewService(llm, searcher, nil)

	resp := svc.ProcessMessage(context.Background(), Request{Message: "find me a cardiologist in boston"})

	if resp.ContentType != ContentTypeDoctorResults {
		t.Fatalf("expected DOCTOR_RESULTS, got %s", resp.ContentType)
	}
	if resp.Message != "Here are cardiologists near you." {
		t.Errorf("expected tag stripped from message, got %q", resp.Message)
	}
	if resp.DoctorSearchResult == nil || len(resp.DoctorSearchResult.Doctors) != 1 {
		t.Fatalf("expected doctor results attached: %+v", resp.DoctorSearchResult)
	}
	if searcher.lastReq.Specialty != "Cardiology" || searcher.lastReq.Location != "Boston, MA" || searcher.lastReq.Insurance != "Medicare" {
		t.Errorf("unexpected search request: %+v", searcher.lastReq)
	}
}

func TestProcessMessageTagOnlyReplyGetsDefaultText(t *testing.T) {
	llm := &stubCompleter{
		reply: `[DOCTOR_SEARCH: specialty="Dermatology", location="Austin, TX", insurance=""]`,
	}
	svc := NewService(llm, &stubSearcher{}, nil)

	resp := svc.ProcessMessage(context.Background(), Request{Message: "dermatologist in austin"})

	if !strings.Contains(resp.Message, "Dermatology doctors near Austin, TX") {
		t.Errorf("expected synthesized intro message, got %q", resp.Message)
	}
}

func TestProcessMessageCompleterError(t *testing.T) {
	llm := &stubCompleter{err: errors.New("upstream timeout")}
	svc := NewService(llm, &stubSearcher{}, nil)

	resp := svc.ProcessMessage(context.Background(), Request{Message: "hello", SessionID: "sess-1"})

	if resp.ContentType != ContentTypeError {
		t.Errorf("expected ERROR content type, got %s", resp.ContentType)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("expected caller session id preserved, got %s", resp.SessionID)
	}
}

func TestProcessMessageFiltersSystemRolesFromHistory(t *testing.T) {
	llm := &stubCompleter{reply: "ok"}
	svc := NewService(llm, &stubSearcher{}, nil)

	svc.ProcessMessage(context.Background(), Request{
		Message: "next question",
		History: []Message{
			{Role: "USER", Content: "earlier question"},
			{Role: "assistant", Content: "earlier answer"},
			{Role: "system", Content: "should be dropped"},
		},
	})

	if len(llm.messages) != 3 {
		t.Fatalf("expected 3 messages (2 history + current), got %d", len(llm.messages))
	}
	if llm.messages[0].Role != "user" {
		t.Errorf("expected history role lowercased, got %s", llm.messages[0].Role)
	}
	if llm.messages[2].Content != "next question" {
		t.Errorf("expected current message last, got %q", llm.messages[2].Content)
	}
}
