package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/mes-labs/plantquery/internal/auth"
	"github.com/mes-labs/plantquery/internal/core"
	"github.com/mes-labs/plantquery/internal/mfgdb"
	"github.com/mes-labs/plantquery/internal/sqlguard"
	"github.com/mes-labs/plantquery/internal/store"
)

type APIHandler struct {
	queryService *core.QueryService
	users        *store.SQLiteStore
}

func NewAPIHandler(qs *core.QueryService, users *store.SQLiteStore) *APIHandler {
	return &APIHandler{queryService: qs, users: users}
}

func (h *APIHandler) JWTAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			http.Error(w, "Authorization header is required", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		externalUserID, err := auth.ValidateJWT(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		user, err := h.users.GetUserByExternalID(externalUserID)
		if err != nil {
			log.Printf("Error in JWTAuthMiddleware for user %s: %v", externalUserID, err)
			http.Error(w, "Failed to process user identity", http.StatusInternalServerError)
			return
		}

		if user == nil {
			http.Error(w, "User not found", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), "userID", user.ID)
		ctx = context.WithValue(ctx, "externalUserID", user.ExternalUserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type SignupRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	existing, err := h.users.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error checking user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}
	if existing != nil {
		http.Error(w, "User already exists", http.StatusConflict)
		return
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("Error hashing password for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to process password", http.StatusInternalServerError)
		return
	}

	user, err := h.users.CreateUser(req.UserID, hashedPassword)
	if err != nil {
		log.Printf("Error creating user %s: %v", req.UserID, err)
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(user)
}

type LoginRequest struct {
	UserID   string `json:"user_id"`
	Password string `json:"password"`
}

func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if req.UserID == "" || req.Password == "" {
		http.Error(w, "User ID and password are required", http.StatusBadRequest)
		return
	}

	user, err := h.users.GetUserByExternalID(req.UserID)
	if err != nil {
		log.Printf("Error getting user %s: %v", req.UserID, err)
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	if user == nil || !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateJWT(req.UserID)
	if err != nil {
		log.Printf("Error generating JWT for user %s: %v", req.UserID, err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"token": token})
}

// errorResponse is the wire shape for pipeline failures, so clients can
// distinguish a rejected statement from a store-side failure.
type errorResponse struct {
	ErrorKind string `json:"error_kind"`
	Reason    string `json:"reason"`
	Message   string `json:"message,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, reason, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{ErrorKind: kind, Reason: reason, Message: message})
}

func (h *APIHandler) QueryHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	var req core.QueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		http.Error(w, "Message cannot be empty", http.StatusBadRequest)
		return
	}

	resp, err := h.queryService.Process(r.Context(), userID, req)
	if err != nil {
		h.writeQueryError(w, userID, err)
		return
	}
	json.NewEncoder(w).Encode(resp)
}

func (h *APIHandler) writeQueryError(w http.ResponseWriter, userID int64, err error) {
	var verr *sqlguard.ValidationError
	var execErr *mfgdb.ExecError
	switch {
	case errors.Is(err, core.ErrThreadNotFound):
		http.Error(w, "Thread not found", http.StatusNotFound)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "validation", string(verr.Reason), verr.UserMessage())
	case errors.As(err, &execErr):
		log.Printf("Execution error for user %d: %v", userID, execErr)
		if execErr.Kind == mfgdb.ErrTimeout {
			writeError(w, http.StatusBadGateway, "execution", string(execErr.Kind), "쿼리 실행 시간이 초과되었습니다")
		} else {
			writeError(w, http.StatusInternalServerError, "execution", string(execErr.Kind), "데이터 조회 중 오류가 발생했습니다")
		}
	default:
		log.Printf("Error processing query for user %d: %v", userID, err)
		http.Error(w, "Failed to process query", http.StatusInternalServerError)
	}
}

func (h *APIHandler) ListThreadsHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)

	threads, err := h.queryService.Threads(userID)
	if err != nil {
		log.Printf("Error listing threads for user %d: %v", userID, err)
		http.Error(w, "Failed to list threads", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(threads)
}

func (h *APIHandler) ThreadMessagesHandler(w http.ResponseWriter, r *http.Request) {
	userID := r.Context().Value("userID").(int64)
	threadID := chi.URLParam(r, "threadID")

	messages, err := h.queryService.ThreadMessages(threadID, userID)
	if err != nil {
		if errors.Is(err, core.ErrThreadNotFound) {
			http.Error(w, "Thread not found", http.StatusNotFound)
			return
		}
		log.Printf("Error listing messages for user %d, thread %s: %v", userID, threadID, err)
		http.Error(w, "Failed to list messages", http.StatusInternalServerError)
		return
	}
	json.NewEncoder(w).Encode(messages)
}
