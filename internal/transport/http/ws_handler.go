package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"club-trivia-service/internal/app"
	"club-trivia-service/internal/domain"
	"github.com/gorilla/websocket"
)

// WSHandler runs one quiz session per websocket connection: the client joins
// with its onboarding details, the server streams machine snapshots
// (countdown, questions, feedback, results) and the client sends answers.
type WSHandler struct {
	service      *app.GameService
	club         domain.ClubConfig
	setID        string
	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

func NewWSHandler(service *app.GameService, club domain.ClubConfig, setID string) *WSHandler {
	return &WSHandler{
		service:      service,
		club:         club,
		setID:        setID,
		tickInterval: time.Second,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// SetTickInterval overrides the scheduler second (tests).
func (h *WSHandler) SetTickInterval(d time.Duration) {
	h.tickInterval = d
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinPayload struct {
	Nickname string `json:"nickname"`
	Email    string `json:"email"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type joinedPayload struct {
	SessionID      string            `json:"sessionId"`
	Club           domain.ClubConfig `json:"club"`
	TotalQuestions int               `json:"totalQuestions"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into a session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// Onboarding: keep reading until a valid join arrives, so a validation
	// failure is recoverable by resubmission on the same connection.
	sessionID, machine, err := h.awaitJoin(r.Context(), conn)
	if err != nil {
		return
	}
	defer h.service.EndSession(sessionID)

	_ = conn.WriteJSON(outboundMessage[joinedPayload]{Type: "joined", Payload: joinedPayload{
		SessionID:      sessionID,
		Club:           h.club,
		TotalQuestions: machine.QuestionCount(),
	}})

	updates, cancelUpdates := machine.Subscribe()
	defer cancelUpdates()

	machine.Begin()

	runnerCtx, stopRunner := context.WithCancel(context.Background())
	defer stopRunner()
	runner := app.NewRunner(machine, h.tickInterval)
	go runner.Run(runnerCtx)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			feedback, ok := machine.Select(payload.Option)
			if !ok {
				// Already answered or between questions: ignored, not an error.
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: feedback}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// awaitJoin reads messages until a join passes validation, returning the
// registered session. Validation errors go back as error frames.
func (h *WSHandler) awaitJoin(ctx context.Context, conn *websocket.Conn) (string, *app.Machine, error) {
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return "", nil, err
		}
		if inbound.Type != "join" {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "join first"}})
			continue
		}
		var payload joinPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "invalid join payload"}})
			continue
		}
		sessionID, machine, err := h.service.StartSession(ctx, h.setID, domain.Player{
			Nickname: payload.Nickname,
			Email:    payload.Email,
		})
		if err != nil {
			if errors.Is(err, domain.ErrQuestionSetNotFound) {
				_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "quiz unavailable"}})
				return "", nil, err
			}
			_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
			continue
		}
		return sessionID, machine, nil
	}
}
