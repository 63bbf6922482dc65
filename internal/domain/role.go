package domain

// Role identifies which side of a live quiz a connection is on.
type Role string

const (
	RoleTeacher Role = "teacher"
	RoleStudent Role = "student"
)
