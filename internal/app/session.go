package app

import (
	"sync"

	"quizhub-live-service/internal/domain"
)

// Phase is the coarse state of a live session.
type Phase string

const (
	PhaseWaiting Phase = "waiting"
	PhaseActive  Phase = "active"
	PhaseEnded   Phase = "ended"
)

// Session is the in-memory state machine for one quiz's live run. All
// mutation happens under the session mutex; methods hand out copies of the
// internal maps so emitted payloads never alias locked state.
type Session struct {
	quizID string

	mu           sync.Mutex
	phase        Phase
	teacherConn  string
	participants map[string]string // userID -> live connection id
	joined       map[string]struct{}
	questions    []domain.Question
	current      int
	tally        map[int]map[string]int    // question index -> option id -> votes
	votes        map[int]map[string]string // question index -> userID -> option id
}

func newSession(quizID string) *Session {
	return &Session{
		quizID:       quizID,
		phase:        PhaseWaiting,
		participants: make(map[string]string),
		joined:       make(map[string]struct{}),
		current:      -1,
		tally:        make(map[int]map[string]int),
		votes:        make(map[int]map[string]string),
	}
}

// joinState is what a joiner needs to render the in-progress run.
type joinState struct {
	phase         Phase
	questionIndex int
	question      *QuestionView
	tally         map[string]int
}

// join registers or refreshes a participant. Rejoining with the same user id
// overwrites the stored connection (reconnect semantics, not rejection).
func (s *Session) join(userID, connID string, role domain.Role) joinState {
	s.mu.Lock()
	defer s.mu.Unlock()

	if role == domain.RoleTeacher {
		s.teacherConn = connID
	} else {
		s.participants[userID] = connID
		s.joined[userID] = struct{}{}
	}

	st := joinState{phase: s.phase}
	if s.phase == PhaseActive {
		view := viewOf(s.questions[s.current])
		st.questionIndex = s.current
		st.question = &view
		st.tally = s.tallySnapshotLocked(s.current)
	}
	return st
}

// start flips the session into QuestionActive at index 0. The content
// snapshot is cached for the session lifetime so advances never hit the
// content store again.
func (s *Session) start(teacherConn string, questions []domain.Question) (QuestionView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseWaiting {
		return QuestionView{}, domain.ErrAlreadyStarted
	}

	s.teacherConn = teacherConn
	s.questions = questions
	s.current = 0
	s.phase = PhaseActive
	s.tally = make(map[int]map[string]int)
	s.votes = make(map[int]map[string]string)
	return viewOf(s.questions[0]), nil
}

type advanceResult struct {
	ended    bool
	question QuestionView
	tally    map[string]int
}

// advance moves the current question pointer to next. Only the strictly
// sequential index is accepted; anything else leaves the session untouched.
// When next runs past the last question the session ends.
func (s *Session) advance(next int) (advanceResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive {
		return advanceResult{}, domain.ErrNotActive
	}
	if next != s.current+1 {
		return advanceResult{}, domain.ErrOutOfSequence
	}
	if next >= len(s.questions) {
		s.phase = PhaseEnded
		return advanceResult{ended: true}, nil
	}

	s.current = next
	return advanceResult{
		question: viewOf(s.questions[next]),
		tally:    s.tallySnapshotLocked(next),
	}, nil
}

type voteResult struct {
	tally         map[string]int
	totalStudents int
}

// submitVote counts one vote for the current question. A participant's first
// vote per question wins; anything stale or repeated is rejected unchanged.
func (s *Session) submitVote(userID string, questionIndex int, optionID string) (voteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhaseActive || questionIndex != s.current {
		return voteResult{}, domain.ErrStaleVote
	}
	if _, voted := s.votes[questionIndex][userID]; voted {
		return voteResult{}, domain.ErrDuplicateVote
	}

	if s.votes[questionIndex] == nil {
		s.votes[questionIndex] = make(map[string]string)
	}
	s.votes[questionIndex][userID] = optionID

	if s.tally[questionIndex] == nil {
		s.tally[questionIndex] = make(map[string]int)
	}
	s.tally[questionIndex][optionID]++

	return voteResult{
		tally:         s.tallySnapshotLocked(questionIndex),
		totalStudents: len(s.participants),
	}, nil
}

type leaveResult struct {
	wasTeacher bool
}

// leave drops whichever identity holds connID. Losing the teacher connection
// force-ends the session.
func (s *Session) leave(connID string) leaveResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.teacherConn == connID {
		s.teacherConn = ""
		s.phase = PhaseEnded
		return leaveResult{wasTeacher: true}
	}
	for userID, conn := range s.participants {
		if conn == connID {
			delete(s.participants, userID)
		}
	}
	return leaveResult{}
}

func (s *Session) teacherConnID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.teacherConn
}

type participantResult struct {
	userID      string
	correct     int
	incorrect   int
	unattempted int
}

// results classifies every question for every student who ever joined,
// comparing their single recorded vote against the answer key.
func (s *Session) results() []participantResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]participantResult, 0, len(s.joined))
	for userID := range s.joined {
		r := participantResult{userID: userID}
		for i, q := range s.questions {
			optionID, ok := s.votes[i][userID]
			switch {
			case !ok:
				r.unattempted++
			case optionID == q.CorrectOptionID:
				r.correct++
			default:
				r.incorrect++
			}
		}
		out = append(out, r)
	}
	return out
}

func (s *Session) tallySnapshotLocked(questionIndex int) map[string]int {
	snapshot := make(map[string]int, len(s.tally[questionIndex]))
	for optionID, count := range s.tally[questionIndex] {
		snapshot[optionID] = count
	}
	return snapshot
}
