package staff

import "time"

type Staff struct {
	ID        string
	Name      string
	Email     string
	Role      string
	Enabled   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
