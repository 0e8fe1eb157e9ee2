package domain

import "time"

type Application struct {
	ID        string            `json:"id"`
	Type      ApplicationType   `json:"application_type" enum:"Demonstration,Amendment,Extension"`
	Name      string            `json:"name"`
	Status    ApplicationStatus `json:"status"`
	CreatedAt string            `json:"created_at" format:"date-time"`
	UpdatedAt string            `json:"updated_at" format:"date-time"`
}

// ApplicationDate is one milestone date. Value is an absolute instant; its
// time of day is interpreted in the business timezone.
type ApplicationDate struct {
	ApplicationID string    `json:"application_id"`
	DateType      DateType  `json:"date_type"`
	Value         time.Time `json:"date_value"`
}

type ApplicationPhase struct {
	ApplicationID string      `json:"application_id"`
	PhaseName     PhaseName   `json:"phase_name"`
	PhaseNumber   int         `json:"phase_number"`
	Status        PhaseStatus `json:"phase_status" enum:"Not Started,Started,Completed,Skipped"`
}

type Document struct {
	ID            string       `json:"id"`
	ApplicationID string       `json:"application_id"`
	PhaseName     PhaseName    `json:"phase_name"`
	DocumentType  DocumentType `json:"document_type"`
	Name          string       `json:"name"`
	CreatedAt     string       `json:"created_at" format:"date-time"`
}

// ApplicationAggregate is an application with every phase, date and document.
type ApplicationAggregate struct {
	Application Application        `json:"application"`
	Phases      []ApplicationPhase `json:"phases"`
	Dates       []ApplicationDate  `json:"dates"`
	Documents   []Document         `json:"documents"`
}

// Phase returns the status of the named phase, defaulting to Not Started.
func (a ApplicationAggregate) Phase(name PhaseName) PhaseStatus {
	for _, p := range a.Phases {
		if p.PhaseName == name {
			return p.Status
		}
	}
	return PhaseNotStarted
}

// Date returns the value stored for dt, if any.
func (a ApplicationAggregate) Date(dt DateType) (time.Time, bool) {
	for _, d := range a.Dates {
		if d.DateType == dt {
			return d.Value, true
		}
	}
	return time.Time{}, false
}

type Event struct {
	ID            int64  `json:"id"`
	TS            string `json:"ts" format:"date-time"`
	Type          string `json:"type"`
	ApplicationID string `json:"application_id,omitempty"`
	EntityKind    string `json:"entity_kind"`
	EntityID      string `json:"entity_id,omitempty"`
	ActorID       string `json:"actor_id"`
	Payload       string `json:"payload_json"`
}

// APIKey authenticates a service caller as ActorID. Only the SHA-256 hash of
// the secret is stored.
type APIKey struct {
	ID        string   `json:"id"`
	ActorID   string   `json:"actor_id"`
	Name      string   `json:"name,omitempty"`
	KeyHash   string   `json:"-"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at" format:"date-time"`
}
