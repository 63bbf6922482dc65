package memory

import (
	"context"

	"quizhub-live-service/internal/domain"
)

// StaticQuizLoader serves quizzes from an in-memory map (tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

// StaticDirectory is an in-memory participant directory.
type StaticDirectory struct {
	profiles map[string]domain.Profile
}

func NewStaticDirectory(profiles map[string]domain.Profile) *StaticDirectory {
	return &StaticDirectory{profiles: profiles}
}

func (d *StaticDirectory) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	if profile, ok := d.profiles[userID]; ok {
		return profile, nil
	}
	return domain.Profile{}, domain.ErrUserNotFound
}
