package models

// Client is the walk-in customer attached to an appointment; it has no login.
type Client struct {
	Name     string `json:"name"`
	LastName string `json:"last_name,omitempty"`
	Phone    string `json:"phone"`
}

func (c Client) FullName() string {
	if c.LastName == "" {
		return c.Name
	}
	return c.Name + " " + c.LastName
}
