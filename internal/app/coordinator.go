package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"quizhub-live-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// ParticipantDirectory resolves user ids to display profiles.
type ParticipantDirectory interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
}

// Emitter is the outbound half of the realtime channel: room broadcast plus
// unicast to a known connection. The websocket hub implements it; tests use
// a recorder.
type Emitter interface {
	ToRoom(quizID, event string, payload any)
	ToConn(connID, event string, payload any)
}

// Coordinator maps inbound channel events onto live-session operations and
// fans the resulting state changes back out. Recoverable anomalies (stale or
// duplicate votes, out-of-sequence advances, events for missing sessions)
// are dropped here and never reach clients.
type Coordinator struct {
	registry  *Registry
	quizzes   QuizRepository
	directory ParticipantDirectory
	emitter   Emitter
	log       *zap.Logger
}

func NewCoordinator(registry *Registry, quizzes QuizRepository, directory ParticipantDirectory, emitter Emitter, log *zap.Logger) *Coordinator {
	return &Coordinator{
		registry:  registry,
		quizzes:   quizzes,
		directory: directory,
		emitter:   emitter,
		log:       log,
	}
}

// HandleJoin registers the connection in the quiz's session and replays the
// in-progress question to a late joiner.
func (c *Coordinator) HandleJoin(ctx context.Context, connID, quizID, userID string, role domain.Role) {
	session := c.registry.GetOrCreate(quizID)
	state := session.join(userID, connID, role)

	c.emitter.ToConn(connID, EventJoined, JoinedEvent{QuizID: quizID, Phase: state.phase})
	if state.question != nil {
		c.emitter.ToConn(connID, EventShowQuestion, ShowQuestionEvent{
			QuestionIndex: state.questionIndex,
			Question:      *state.question,
			LiveStats:     state.tally,
		})
	}
	c.log.Debug("participant joined",
		zap.String("quizId", quizID),
		zap.String("userId", userID),
		zap.String("role", string(role)))
}

// HandleStart fetches and caches the quiz content, flips the session into
// QuestionActive and shows question 0 to the room. The content fetch
// completes before any state changes, so a failed lookup leaves the session
// exactly as it was.
func (c *Coordinator) HandleStart(ctx context.Context, connID, quizID string) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		c.log.Warn("quiz content lookup failed", zap.String("quizId", quizID), zap.Error(err))
		c.emitter.ToConn(connID, EventError, ErrorEvent{Message: "quiz not found"})
		return
	}
	if len(quiz.Questions) == 0 {
		c.emitter.ToConn(connID, EventError, ErrorEvent{Message: "quiz has no questions"})
		return
	}

	session := c.registry.GetOrCreate(quizID)
	first, err := session.start(connID, quiz.Questions)
	if err != nil {
		c.log.Warn("duplicate start dropped", zap.String("quizId", quizID), zap.Error(err))
		return
	}

	c.emitter.ToRoom(quizID, EventQuizStarted, QuizStartedEvent{})
	c.emitter.ToRoom(quizID, EventShowQuestion, ShowQuestionEvent{
		QuestionIndex: 0,
		Question:      first,
		LiveStats:     map[string]int{},
	})
	c.log.Info("live quiz started", zap.String("quizId", quizID), zap.Int("questions", len(quiz.Questions)))
}

// HandleAdvance moves the room to the next question, or ends the session and
// publishes the leaderboard once the index runs past the last question.
func (c *Coordinator) HandleAdvance(ctx context.Context, connID, quizID string, questionIndex int) {
	session, ok := c.registry.Get(quizID)
	if !ok {
		c.log.Warn("advance for unknown session dropped", zap.String("quizId", quizID))
		return
	}

	result, err := session.advance(questionIndex)
	if err != nil {
		if errors.Is(err, domain.ErrOutOfSequence) {
			c.log.Warn("out-of-sequence advance dropped",
				zap.String("quizId", quizID),
				zap.Int("questionIndex", questionIndex))
		}
		return
	}

	if result.ended {
		rows := c.buildLeaderboard(ctx, session.results())
		c.emitter.ToRoom(quizID, EventQuizEnded, QuizEndedEvent{Leaderboard: rows})
		c.registry.Remove(quizID)
		c.log.Info("live quiz ended", zap.String("quizId", quizID), zap.Int("participants", len(rows)))
		return
	}

	c.emitter.ToRoom(quizID, EventShowQuestion, ShowQuestionEvent{
		QuestionIndex: questionIndex,
		Question:      result.question,
		LiveStats:     result.tally,
	})
}

// HandleSubmitAnswer counts a vote and pushes refreshed stats to the teacher
// connection only; students never see the tallies mid-question.
func (c *Coordinator) HandleSubmitAnswer(connID, quizID, userID string, questionIndex int, optionID string) {
	session, ok := c.registry.Get(quizID)
	if !ok {
		return
	}

	result, err := session.submitVote(userID, questionIndex, optionID)
	if err != nil {
		c.log.Debug("vote dropped",
			zap.String("quizId", quizID),
			zap.String("userId", userID),
			zap.Int("questionIndex", questionIndex),
			zap.Error(err))
		return
	}

	if teacher := session.teacherConnID(); teacher != "" {
		c.emitter.ToConn(teacher, EventLiveStats, LiveStatsEvent{
			QuestionIndex: questionIndex,
			Answers:       result.tally,
			TotalStudents: result.totalStudents,
		})
	}
}

// HandleDisconnect sweeps every session the connection participates in.
// Losing the teacher tears the session down with an empty leaderboard.
func (c *Coordinator) HandleDisconnect(connID string) {
	for quizID, session := range c.registry.Snapshot() {
		result := session.leave(connID)
		if result.wasTeacher {
			c.emitter.ToRoom(quizID, EventQuizEnded, QuizEndedEvent{Leaderboard: []domain.LeaderboardRow{}})
			c.registry.Remove(quizID)
			c.log.Info("teacher disconnected, session terminated", zap.String("quizId", quizID))
		}
	}
}

// buildLeaderboard resolves display names for each participant result. A
// failed directory lookup degrades to placeholders rather than blocking the
// leaderboard.
func (c *Coordinator) buildLeaderboard(ctx context.Context, results []participantResult) []domain.LeaderboardRow {
	rows := make([]domain.LeaderboardRow, 0, len(results))
	for _, r := range results {
		profile, err := c.directory.GetProfile(ctx, r.userID)
		if err != nil {
			profile = domain.Profile{Name: "Unknown", Username: "Unknown"}
		}
		rows = append(rows, domain.LeaderboardRow{
			StudentID:   r.userID,
			Name:        profile.Name,
			Username:    profile.Username,
			Correct:     r.correct,
			Incorrect:   r.incorrect,
			Unattempted: r.unattempted,
		})
	}
	return rows
}
