package model

type Client struct {
	ID    int64
	Name  string
	Phone string // raw, as entered; normalized only at dispatch time
	Email string
}

type Service struct {
	ID              int64
	Name            string
	DurationMinutes int
}
