package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/skyready/logbook-sync/internal/server/models"
)

// SignaturePayload builds the canonical string the signature hash covers.
// The field order is fixed; missing optional fields contribute an empty
// string. Clients compute the same string when signing.
func SignaturePayload(e *models.Entry) string {
	var snap models.InstructorSnapshot
	if e.InstructorSnapshot != nil {
		snap = *e.InstructorSnapshot
	}

	var image, timestamp string
	if e.Signature != nil {
		image = e.Signature.SignatureImage
		if e.Signature.Timestamp != 0 {
			timestamp = strconv.FormatInt(e.Signature.Timestamp, 10)
		}
	}

	fields := []string{
		e.EntryID,
		e.Date,
		strconv.FormatFloat(e.TotalTime, 'f', -1, 64),
		snap.Name,
		snap.CertificateNumber,
		snap.ActingAs,
		snap.CertificateExpiration,
		image,
		timestamp,
	}
	return strings.Join(fields, "|")
}

// SignatureHash returns the hex-encoded SHA-256 of the canonical payload.
func SignatureHash(e *models.Entry) string {
	sum := sha256.Sum256([]byte(SignaturePayload(e)))
	return hex.EncodeToString(sum[:])
}

// VerifySignature recomputes the hash and compares it to the
// client-supplied one. An entry without a signature is trivially valid:
// there is nothing to verify. A mismatch is a data-integrity conflict for
// the caller to report, not a system error.
func VerifySignature(e *models.Entry) bool {
	if e.Signature == nil {
		return true
	}
	return SignatureHash(e) == e.Signature.Hash
}
