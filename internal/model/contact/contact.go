package contact

// EmergencyContact receives silent alerts. The call engine only reads it.
type EmergencyContact struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Relationship string `json:"relationship"`
}

// Seed provides the default contacts of a fresh install.
func Seed() []EmergencyContact {
	return []EmergencyContact{
		{ID: "1", Name: "Mom", Phone: "+1 (555) 123-4567", Relationship: "Mother"},
		{ID: "2", Name: "Best Friend", Phone: "+1 (555) 987-6543", Relationship: "Friend"},
	}
}
