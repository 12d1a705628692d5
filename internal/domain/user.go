package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Street       string `json:"street"`
	Apartment    string `json:"apartment"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	Country      string `json:"country"`
	Phone        string `json:"phone"`
	Role         Role   `json:"role"`
}

type UserRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID string
	Role   Role
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
