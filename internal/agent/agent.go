package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Ayash-Bera/travelbot/internal/models"
	"github.com/Ayash-Bera/travelbot/internal/session"
	"github.com/sirupsen/logrus"
)

const emptyReply = "Sorry, I don't have an answer for that."

// Reply is what one turn produced. Tool is empty for direct replies.
type Reply struct {
	Text     string
	Tool     string
	Duration time.Duration
}

// Agent runs conversation turns: route, call the chosen tool, record both
// sides of the exchange.
type Agent struct {
	router IntentRouter
	tools  map[string]Tool
	store  *session.Store
	logger *logrus.Logger
}

func New(router IntentRouter, store *session.Store, logger *logrus.Logger, tools ...Tool) *Agent {
	registry := make(map[string]Tool, len(tools))
	for _, tool := range tools {
		registry[tool.Name] = tool
	}
	return &Agent{
		router: router,
		tools:  registry,
		store:  store,
		logger: logger,
	}
}

// Run handles one user utterance in the given session. The transcript is
// only extended when the turn succeeds.
func (a *Agent) Run(ctx context.Context, sessionID, utterance string) (Reply, error) {
	unlock := a.store.Lock(sessionID)
	defer unlock()

	start := time.Now()
	logger := a.logger.WithField("session_id", sessionID)

	decision, err := a.router.Route(ctx, a.store.History(sessionID), utterance)
	if err != nil {
		logger.WithError(err).Error("Failed to route utterance")
		return Reply{}, err
	}

	reply := Reply{Text: decision.Reply}
	if !decision.Direct() {
		tool, ok := a.tools[decision.Tool]
		if !ok {
			logger.WithField("tool", decision.Tool).Warn("Router chose an unknown tool")
			reply.Text = fmt.Sprintf("Sorry, the %s tool is unavailable right now.", decision.Tool)
		} else {
			output, err := tool.Run(ctx, decision.Input)
			if err != nil {
				logger.WithError(err).WithField("tool", tool.Name).Error("Tool failed")
				return Reply{}, fmt.Errorf("%s failed: %w", tool.Name, err)
			}
			reply.Text = output
			reply.Tool = tool.Name
		}
	}
	if strings.TrimSpace(reply.Text) == "" {
		reply.Text = emptyReply
	}

	a.store.Append(sessionID,
		models.ChatTurn{Speaker: models.SpeakerUser, Text: utterance},
		models.ChatTurn{Speaker: models.SpeakerBot, Text: reply.Text},
	)
	reply.Duration = time.Since(start)

	logger.WithFields(logrus.Fields{
		"tool":        reply.Tool,
		"duration_ms": reply.Duration.Milliseconds(),
	}).Info("Turn completed")

	return reply, nil
}

// History returns the session transcript, oldest first.
func (a *Agent) History(sessionID string) []models.ChatTurn {
	return a.store.History(sessionID)
}
