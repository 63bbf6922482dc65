package domain

// Option is a possible answer for a question. Correctness is not stored on
// the option itself; Question.CorrectOptionID identifies the right one so
// options can be pushed to students verbatim.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Question models an MCQ question with exactly one correct option.
// CorrectOptionID must never reach a student-facing payload.
type Question struct {
	ID              string   `json:"id"`
	Text            string   `json:"text"`
	Options         []Option `json:"options"`
	CorrectOptionID string   `json:"correctOptionId"`
}

// Quiz is the ordered question list for one live run.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Profile is the directory view of a user, used for leaderboard rows.
type Profile struct {
	Name     string `json:"name"`
	Username string `json:"username"`
}

// LeaderboardRow summarizes one student's run at session end.
type LeaderboardRow struct {
	StudentID   string `json:"studentId"`
	Name        string `json:"name"`
	Username    string `json:"username"`
	Correct     int    `json:"correct"`
	Incorrect   int    `json:"incorrect"`
	Unattempted int    `json:"unattempted"`
}
