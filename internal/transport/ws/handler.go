package ws

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quizhub-live-service/internal/app"
	"quizhub-live-service/internal/domain"
)

// Handler upgrades HTTP requests to websockets and feeds inbound events into
// the session coordinator.
type Handler struct {
	hub         *Hub
	coordinator *app.Coordinator
	upgrader    websocket.Upgrader
	log         *zap.Logger
}

func NewHandler(hub *Hub, coordinator *app.Coordinator, log *zap.Logger) *Handler {
	return &Handler{
		hub:         hub,
		coordinator: coordinator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

type joinPayload struct {
	QuizID string `json:"quizId"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
}

type startPayload struct {
	QuizID string `json:"quizId"`
}

type nextQuestionPayload struct {
	QuizID        string `json:"quizId"`
	QuestionIndex int    `json:"questionIndex"`
}

type answerPayload struct {
	QuizID        string `json:"quizId"`
	UserID        string `json:"userId"`
	QuestionIndex int    `json:"questionIndex"`
	OptionID      string `json:"optionId"`
}

// ServeWS runs one connection: a writer goroutine drains the send channel
// while this goroutine reads frames until the peer goes away, then reports
// the disconnect so sessions can clean up their rosters.
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan outbound, 16),
	}
	h.hub.add(c)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Warn("ws write failed", zap.String("connId", c.id), zap.Error(err))
				return
			}
		}
	}()

	for {
		var inbound envelope
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(r, c.id, inbound)
	}

	// Removing the client closes its send channel, which stops the writer.
	h.hub.remove(c.id)
	h.coordinator.HandleDisconnect(c.id)
	<-writerDone
}

func (h *Handler) dispatch(r *http.Request, connID string, inbound envelope) {
	switch inbound.Type {
	case "joinQuiz":
		var p joinPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.QuizID == "" {
			h.hub.ToConn(connID, app.EventError, app.ErrorEvent{Message: "invalid join payload"})
			return
		}
		h.hub.JoinRoom(p.QuizID, connID)
		h.coordinator.HandleJoin(r.Context(), connID, p.QuizID, p.UserID, parseRole(p.Role))

	case "quizStarted":
		var p startPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.QuizID == "" {
			h.hub.ToConn(connID, app.EventError, app.ErrorEvent{Message: "invalid start payload"})
			return
		}
		h.hub.JoinRoom(p.QuizID, connID)
		h.coordinator.HandleStart(r.Context(), connID, p.QuizID)

	case "nextQuestion":
		var p nextQuestionPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.QuizID == "" {
			h.hub.ToConn(connID, app.EventError, app.ErrorEvent{Message: "invalid advance payload"})
			return
		}
		h.coordinator.HandleAdvance(r.Context(), connID, p.QuizID, p.QuestionIndex)

	case "submitAnswer":
		var p answerPayload
		if err := json.Unmarshal(inbound.Payload, &p); err != nil || p.QuizID == "" {
			h.hub.ToConn(connID, app.EventError, app.ErrorEvent{Message: "invalid answer payload"})
			return
		}
		h.coordinator.HandleSubmitAnswer(connID, p.QuizID, p.UserID, p.QuestionIndex, p.OptionID)

	default:
		h.hub.ToConn(connID, app.EventError, app.ErrorEvent{Message: "unsupported message type"})
	}
}

// parseRole defaults to student, matching the permissive join contract.
func parseRole(role string) domain.Role {
	if role == string(domain.RoleTeacher) {
		return domain.RoleTeacher
	}
	return domain.RoleStudent
}
