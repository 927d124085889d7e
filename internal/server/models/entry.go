// Package models defines the persistence and wire types shared by the sync
// services: logbook entries, the client change set, sync conflicts, and
// outbox events.
package models

import "encoding/json"

// Entry statuses. The store normalizes these to uppercase.
const (
	StatusDraft            = "DRAFT"
	StatusSaved            = "SAVED"
	StatusPendingSignature = "PENDING_SIGNATURE"
	StatusSigned           = "SIGNED"
	StatusReturned         = "RETURNED"
)

// Signature is the tamper-evidence block attached to a SIGNED entry.
// Hash is a client-computed SHA-256 over the entry's signed fields.
type Signature struct {
	Hash           string `json:"hash,omitempty"`
	SignatureImage string `json:"signatureImage,omitempty"`
	Timestamp      int64  `json:"timestamp,omitempty"`
}

// InstructorSnapshot is an immutable copy of the instructor's identity taken
// at signing time. It is part of the signed payload and never updated.
type InstructorSnapshot struct {
	Name                  string `json:"name,omitempty"`
	CertificateNumber     string `json:"certificateNumber,omitempty"`
	ActingAs              string `json:"actingAs,omitempty"`
	CertificateExpiration string `json:"certificateExpiration,omitempty"`
}

// StudentSnapshot is the student-side counterpart, stamped onto mirror
// entries so the instructor's logbook records who was instructed.
type StudentSnapshot struct {
	Name              string `json:"name,omitempty"`
	CertificateNumber string `json:"certificateNumber,omitempty"`
}

// Entry is one logbook entry, owned by exactly one user and identified by a
// client-generated UUID. CreatedAt/UpdatedAt/DeletedAt are epoch
// milliseconds; DeletedAt is zero for live rows (soft delete).
type Entry struct {
	EntryID     string          `json:"entryId"`
	UserID      string          `json:"userId,omitempty"`
	Date        string          `json:"date,omitempty"`
	Aircraft    json.RawMessage `json:"aircraft,omitempty"`
	TailNumber  string          `json:"tailNumber,omitempty"`
	Route       string          `json:"route,omitempty"`
	RouteLegs   json.RawMessage `json:"routeLegs,omitempty"`
	FlightTypes []string        `json:"flightTypes,omitempty"`

	TotalTime           float64 `json:"totalTime,omitempty"`
	PIC                 float64 `json:"pic,omitempty"`
	SIC                 float64 `json:"sic,omitempty"`
	DualReceived        float64 `json:"dualReceived,omitempty"`
	DualGiven           float64 `json:"dualGiven,omitempty"`
	Solo                float64 `json:"solo,omitempty"`
	CrossCountry        float64 `json:"crossCountry,omitempty"`
	Night               float64 `json:"night,omitempty"`
	ActualIMC           float64 `json:"actualImc,omitempty"`
	SimulatedInstrument float64 `json:"simulatedInstrument,omitempty"`

	DayTakeoffs           int `json:"dayTakeoffs,omitempty"`
	DayLandings           int `json:"dayLandings,omitempty"`
	NightTakeoffs         int `json:"nightTakeoffs,omitempty"`
	NightLandings         int `json:"nightLandings,omitempty"`
	DayFullStopLandings   int `json:"dayFullStopLandings,omitempty"`
	NightFullStopLandings int `json:"nightFullStopLandings,omitempty"`
	Approaches            int `json:"approaches,omitempty"`

	Holds    bool `json:"holds,omitempty"`
	Tracking bool `json:"tracking,omitempty"`

	LessonTopic       string   `json:"lessonTopic,omitempty"`
	GroundInstruction float64  `json:"groundInstruction,omitempty"`
	Maneuvers         []string `json:"maneuvers,omitempty"`
	Remarks           string   `json:"remarks,omitempty"`
	SafetyNotes       string   `json:"safetyNotes,omitempty"`
	SafetyRelevant    bool     `json:"safetyRelevant,omitempty"`
	IsFlightReview    bool     `json:"isFlightReview,omitempty"`

	Status    string     `json:"status,omitempty"`
	Signature *Signature `json:"signature,omitempty"`

	InstructorUserID   string              `json:"instructorUserId,omitempty"`
	InstructorSnapshot *InstructorSnapshot `json:"instructorSnapshot,omitempty"`
	StudentUserID      string              `json:"studentUserId,omitempty"`
	StudentSnapshot    *StudentSnapshot    `json:"studentSnapshot,omitempty"`

	// Provenance, set only on derived (mirror) entries.
	MirroredFromEntryID string `json:"mirroredFromEntryId,omitempty"`
	MirroredFromUserID  string `json:"mirroredFromUserId,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
	DeletedAt int64 `json:"-"`
}

// Signed reports whether the entry claims SIGNED status.
func (e *Entry) Signed() bool { return e.Status == StatusSigned }
