package app

import "quizhub-live-service/internal/domain"

// Wire event names shared by the coordinator and the websocket transport.
const (
	EventJoined       = "joined"
	EventQuizStarted  = "quizStarted"
	EventShowQuestion = "showQuestion"
	EventLiveStats    = "liveStats"
	EventQuizEnded    = "quizEnded"
	EventError        = "error"
)

// QuestionView is the student-safe projection of a question. It deliberately
// has no field for the correct option, so it cannot leak one even if a
// domain.Question is mapped through it carelessly.
type QuestionView struct {
	ID      string          `json:"id"`
	Text    string          `json:"text"`
	Options []domain.Option `json:"options"`
}

func viewOf(q domain.Question) QuestionView {
	return QuestionView{ID: q.ID, Text: q.Text, Options: q.Options}
}

// JoinedEvent acknowledges a join and tells the client what state it landed in.
type JoinedEvent struct {
	QuizID string `json:"quizId"`
	Phase  Phase  `json:"phase"`
}

// QuizStartedEvent is broadcast to the room when the teacher starts the run.
type QuizStartedEvent struct{}

// ShowQuestionEvent pushes the current question and its live tally to the room.
type ShowQuestionEvent struct {
	QuestionIndex int            `json:"questionIndex"`
	Question      QuestionView   `json:"question"`
	LiveStats     map[string]int `json:"liveStats"`
}

// LiveStatsEvent is unicast to the teacher connection after each vote.
type LiveStatsEvent struct {
	QuestionIndex int            `json:"questionIndex"`
	Answers       map[string]int `json:"answers"`
	TotalStudents int            `json:"totalStudents"`
}

// QuizEndedEvent carries the final leaderboard; empty on abnormal termination.
type QuizEndedEvent struct {
	Leaderboard []domain.LeaderboardRow `json:"leaderboard"`
}

// ErrorEvent is the only client-visible failure shape.
type ErrorEvent struct {
	Message string `json:"message"`
}
