package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mes-labs/plantquery/internal/catalog"
	"github.com/mes-labs/plantquery/internal/dialect"
	"github.com/mes-labs/plantquery/internal/mfgdb"
	"github.com/mes-labs/plantquery/internal/sqlguard"
	"github.com/mes-labs/plantquery/internal/store"
)

// ErrThreadNotFound is returned when a request names a thread that does not
// exist or belongs to another user.
var ErrThreadNotFound = errors.New("thread not found")

// ConversationStore persists query exchanges. A GetThread miss is reported
// as (nil, nil), not an error.
type ConversationStore interface {
	GetThread(threadID string, userID int64) (*store.Thread, error)
	CreateThread(userID int64, title string) (*store.Thread, error)
	AppendMessage(msg *store.Message) error
	ListThreads(userID int64) ([]store.Thread, error)
	ListMessages(threadID string, limit int, offset int) ([]store.Message, error)
}

// Executor runs one sanitized statement against the manufacturing store.
type Executor interface {
	Execute(ctx context.Context, query string) (*mfgdb.Result, error)
}

type QueryRequest struct {
	Message    string `json:"message"`
	ContextTag string `json:"context_tag,omitempty"`
	ThreadID   string `json:"thread_id,omitempty"`
}

type QueryResponse struct {
	ThreadID         string        `json:"thread_id"`
	MessageID        string        `json:"message_id,omitempty"`
	OriginalMessage  string        `json:"original_message"`
	CorrectedMessage string        `json:"corrected_message"`
	GeneratedSQL     string        `json:"generated_sql"`
	Result           *mfgdb.Result `json:"result"`
	ElapsedMS        float64       `json:"elapsed_ms"`
	Warning          string        `json:"warning,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

// GeneratedQuery is the synthesis stage's output after validation. Exactly
// one of SanitizedSQL/ValidationError is set.
type GeneratedQuery struct {
	RawSQL          string
	SanitizedSQL    string
	ValidationError *sqlguard.ValidationError
}

// QueryService runs the full pipeline: correct the question, classify it,
// synthesize SQL, validate, execute, persist the exchange.
type QueryService struct {
	corrector   *Corrector
	classifier  *Classifier
	synthesizer *Synthesizer
	guard       *sqlguard.Guard
	executor    Executor
	convStore   ConversationStore
	timeout     time.Duration
}

func NewQueryService(snap *catalog.Snapshot, d dialect.Dialect, maxRows int, timeout time.Duration, executor Executor, convStore ConversationStore) *QueryService {
	return &QueryService{
		corrector:   NewCorrector(snap),
		classifier:  NewClassifier(snap, d),
		synthesizer: NewSynthesizer(snap),
		guard:       sqlguard.New(maxRows),
		executor:    executor,
		convStore:   convStore,
		timeout:     timeout,
	}
}

// Process answers one question. The returned error is one of
// ErrThreadNotFound, *sqlguard.ValidationError, *mfgdb.ExecError or a
// wrapped persistence error; on a validation failure the executor is never
// invoked.
func (s *QueryService) Process(ctx context.Context, userID int64, req QueryRequest) (*QueryResponse, error) {
	start := time.Now()

	var thread *store.Thread
	var err error
	if req.ThreadID != "" {
		thread, err = s.convStore.GetThread(req.ThreadID, userID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up thread: %w", err)
		}
		if thread == nil {
			return nil, ErrThreadNotFound
		}
	} else {
		thread, err = s.convStore.CreateThread(userID, threadTitle(req.Message))
		if err != nil {
			return nil, fmt.Errorf("failed to create thread: %w", err)
		}
	}

	corrected := s.corrector.Correct(req.Message)
	intent := s.classifier.Classify(corrected)

	gq := s.generate(intent)
	if gq.ValidationError != nil {
		log.Printf("Rejected generated SQL for thread %s: %v", thread.ID, gq.ValidationError)
		return nil, gq.ValidationError
	}
	log.Printf("Generated SQL for thread %s: %s", thread.ID, gq.SanitizedSQL)

	execCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	result, err := s.executor.Execute(execCtx, gq.SanitizedSQL)
	if err != nil {
		return nil, err
	}

	messageID, warning := s.persistExchange(thread.ID, req, corrected, gq.SanitizedSQL, result)

	return &QueryResponse{
		ThreadID:         thread.ID,
		MessageID:        messageID,
		OriginalMessage:  req.Message,
		CorrectedMessage: corrected,
		GeneratedSQL:     gq.SanitizedSQL,
		Result:           result,
		ElapsedMS:        float64(time.Since(start).Microseconds()) / 1000.0,
		Warning:          warning,
		CreatedAt:        time.Now(),
	}, nil
}

// generate renders the intent and runs the statement through the safety
// checks.
func (s *QueryService) generate(intent QueryIntent) GeneratedQuery {
	gq := GeneratedQuery{RawSQL: s.synthesizer.Synthesize(intent)}
	sanitized, verr := s.guard.ValidateAndSanitize(gq.RawSQL)
	if verr != nil {
		gq.ValidationError = verr
		return gq
	}
	gq.SanitizedSQL = sanitized
	return gq
}

// persistExchange stores the user question and the assistant answer. A
// store failure here does not overturn the already-computed result; it is
// logged and reported back as a warning.
func (s *QueryService) persistExchange(threadID string, req QueryRequest, corrected, sanitized string, result *mfgdb.Result) (string, string) {
	userMsg := &store.Message{
		ThreadID: threadID,
		Role:     "user",
		Message:  req.Message,
	}
	if req.ContextTag != "" {
		userMsg.ContextTag = &req.ContextTag
	}
	if err := s.convStore.AppendMessage(userMsg); err != nil {
		log.Printf("Failed to store user message for thread %s: %v", threadID, err)
		return "", "대화 기록 저장에 실패했습니다"
	}

	payload, err := json.Marshal(result)
	if err != nil {
		log.Printf("Failed to marshal result payload for thread %s: %v", threadID, err)
	}
	summary := fmt.Sprintf("생산 데이터 조회 결과 %d행 반환", result.RowCount)
	assistantMsg := &store.Message{
		ThreadID:     threadID,
		Role:         "assistant",
		Message:      summary,
		CorrectedMsg: &corrected,
		GenSQL:       &sanitized,
		ResultData:   payload,
	}
	if err := s.convStore.AppendMessage(assistantMsg); err != nil {
		log.Printf("Failed to store assistant message for thread %s: %v", threadID, err)
		return userMsg.ID, "대화 기록 저장에 실패했습니다"
	}
	return userMsg.ID, ""
}

// Threads lists the caller's query threads, newest first.
func (s *QueryService) Threads(userID int64) ([]store.Thread, error) {
	return s.convStore.ListThreads(userID)
}

// ThreadMessages returns the messages of one thread after verifying the
// thread belongs to the caller.
func (s *QueryService) ThreadMessages(threadID string, userID int64) ([]store.Message, error) {
	thread, err := s.convStore.GetThread(threadID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to verify thread: %w", err)
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	return s.convStore.ListMessages(threadID, 100, 0) // Get up to 100 messages
}

// threadTitle derives a new thread's title from its first question.
func threadTitle(message string) string {
	runes := []rune(message)
	if len(runes) > 50 {
		runes = runes[:50]
	}
	return string(runes)
}
