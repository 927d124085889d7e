package models

// EntryUpdate is the update branch of the change set: a full-column
// replacement payload addressed by entry id.
type EntryUpdate struct {
	EntryID string `json:"entryId"`
	Data    Entry  `json:"data"`
}

// EntryChanges is the discriminated union of client-side changes for the
// logbook aggregate. Each branch carries its own validation and conflict
// handling in the push service.
type EntryChanges struct {
	Created []Entry       `json:"created"`
	Updated []EntryUpdate `json:"updated"`
	Deleted []string      `json:"deleted"`
}

// ChangeSet is the top-level changes payload exchanged on pull and push.
type ChangeSet struct {
	LogbookEntries EntryChanges `json:"logbookEntries"`
}

// Conflict types reported to the client on push.
const (
	ConflictAlreadyExists    = "ALREADY_EXISTS"
	ConflictSignatureInvalid = "SIGNATURE_INVALID"
	ConflictServerNewer      = "SERVER_NEWER"
)

// Conflict tells the client one item of a push batch was not applied and
// why. It is data, not an error: the batch itself still commits.
type Conflict struct {
	EntryID         string `json:"entryId"`
	Type            string `json:"type"`
	ServerTimestamp int64  `json:"serverTimestamp,omitempty"`
}
