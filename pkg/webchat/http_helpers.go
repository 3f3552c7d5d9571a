package webchat

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

// maxBodyBytes bounds a request body. The whole transcript travels with every submit.
const maxBodyBytes = 4 << 20

// NewChatHTTPHandler handles onSubmit. Empty input is a valid submission.
func NewChatHTTPHandler(svc ChatService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if svc == nil {
			http.Error(w, "chat service not initialized", http.StatusServiceUnavailable)
			return
		}

		var body ChatRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
		if err := dec.Decode(&body); err != nil {
			logger.Debug().Err(err).Msg("could not decode chat request")
			writeJSON(w, logger, http.StatusBadRequest, ErrorResponse{
				Error: "invalid request body",
				Kind:  ErrorKindBadRequest,
			})
			return
		}

		input, out, err := svc.Submit(req.Context(), body.Input, body.Transcript)
		if err != nil {
			status, kind, msg := classifyError(err)
			logger.Warn().Err(err).Str("kind", kind).Msg("chat submission failed")
			writeJSON(w, logger, status, ErrorResponse{
				Error:      msg,
				Kind:       kind,
				Input:      input,
				Transcript: out,
			})
			return
		}
		writeJSON(w, logger, http.StatusOK, ChatResponse{Input: input, Transcript: out})
	}
}

// NewClearHTTPHandler handles onClear.
func NewClearHTTPHandler(svc ChatService, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if svc == nil {
			http.Error(w, "chat service not initialized", http.StatusServiceUnavailable)
			return
		}
		input, out := svc.Reset()
		writeJSON(w, logger, http.StatusOK, ChatResponse{Input: input, Transcript: out})
	}
}

type healthResponse struct {
	Status        string `json:"status"`
	WSConnections int    `json:"ws_connections"`
}

func NewHealthHTTPHandler(pool *ConnectionPool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, zerolog.Nop(), http.StatusOK, healthResponse{
			Status:        "ok",
			WSConnections: pool.Count(),
		})
	}
}

// classifyError maps a submission failure to an HTTP status, an error kind and the message
// shown to the user.
func classifyError(err error) (int, string, string) {
	var ue *llm.UpstreamError
	if stderrors.As(err, &ue) {
		return http.StatusBadGateway, ErrorKindUpstream, "The model could not answer: " + ue.Error()
	}
	return http.StatusInternalServerError, ErrorKindInternal, "internal error"
}

func writeJSON(w http.ResponseWriter, logger zerolog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn().Err(err).Msg("response write failed")
	}
}
