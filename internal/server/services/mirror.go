package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/skyready/logbook-sync/internal/server/models"
	"github.com/skyready/logbook-sync/internal/server/repositories/entries"
)

// MirrorEntry derives the instructor-side companion of a signed student
// entry. The instructor logs PIC for the instructed time and dual given
// for the student's dual received; the rest of the flight data is copied
// verbatim. The mirror is a plain SAVED entry: it carries no signature and
// never triggers further mirroring.
func MirrorEntry(src *models.Entry, now time.Time) *models.Entry {
	m := *src

	m.EntryID = uuid.NewString()
	m.UserID = src.InstructorUserID

	m.PIC = src.TotalTime
	m.DualGiven = src.DualReceived
	m.DualReceived = 0
	m.Solo = 0

	m.Status = models.StatusSaved
	m.Signature = nil
	m.InstructorUserID = ""
	m.InstructorSnapshot = nil

	m.StudentUserID = src.StudentUserID
	if m.StudentUserID == "" {
		m.StudentUserID = src.UserID
	}
	if src.StudentSnapshot != nil {
		snap := *src.StudentSnapshot
		m.StudentSnapshot = &snap
	}

	m.MirroredFromEntryID = src.EntryID
	m.MirroredFromUserID = src.UserID

	m.CreatedAt = now.UnixMilli()
	m.UpdatedAt = now.UnixMilli()
	return &m
}

// mirrorSigned creates the companion entry for a just-signed source entry,
// idempotently: a retried push finds the existing mirror and does nothing.
// This is the only cross-tenant write in the system and stays reachable
// solely from the push path.
func mirrorSigned(ctx context.Context, repo entries.Repository, src *models.Entry, now time.Time) (bool, error) {
	exists, err := repo.HasMirror(ctx, src.EntryID, src.InstructorUserID)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	if err := repo.Insert(ctx, MirrorEntry(src, now), now); err != nil {
		return false, err
	}
	return true, nil
}
