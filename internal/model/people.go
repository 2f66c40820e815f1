package model

// Patient is a reference-list entry for form population.
type Patient struct {
	ID       string `json:"id" db:"id"`
	ClinicID string `json:"clinic_id" db:"clinic_id"`
	Name     string `json:"name" db:"name"`
	Email    string `json:"email" db:"email"`
	Phone    string `json:"phone" db:"phone"`
	Status   string `json:"status" db:"status"`
}

// Doctor is a reference-list entry for form population.
type Doctor struct {
	ID        string `json:"id" db:"id"`
	ClinicID  string `json:"clinic_id" db:"clinic_id"`
	Name      string `json:"name" db:"name"`
	Email     string `json:"email" db:"email"`
	Phone     string `json:"phone" db:"phone"`
	Specialty string `json:"specialty" db:"specialty"`
}

// Nurse is a reference-list entry for form population.
type Nurse struct {
	ID       string `json:"id" db:"id"`
	ClinicID string `json:"clinic_id" db:"clinic_id"`
	Name     string `json:"name" db:"name"`
	Phone    string `json:"phone" db:"phone"`
}

// Service is a bookable clinic service.
type Service struct {
	ID       string  `json:"id" db:"id"`
	ClinicID string  `json:"clinic_id" db:"clinic_id"`
	Name     string  `json:"name" db:"name"`
	Duration int     `json:"duration" db:"duration"` // in minutes
	Price    float64 `json:"price" db:"price"`
}

// Workspace is everything the appointment screen loads in one go.
type Workspace struct {
	Patients     []Patient     `json:"patients"`
	Doctors      []Doctor      `json:"doctors"`
	Nurses       []Nurse       `json:"nurses"`
	Services     []Service     `json:"services"`
	Appointments []Appointment `json:"appointments"`
}
