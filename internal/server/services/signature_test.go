package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/skyready/logbook-sync/internal/server/models"
)

func signedEntry() *models.Entry {
	e := &models.Entry{
		EntryID:          "7d4f9a6e-1b2c-4d3e-8f90-123456789abc",
		Date:             "2026-03-14",
		TotalTime:        1.5,
		DualReceived:     1.5,
		Status:           models.StatusSigned,
		InstructorUserID: "cfi-1",
		InstructorSnapshot: &models.InstructorSnapshot{
			Name:                  "Pat Jones",
			CertificateNumber:     "1234567",
			ActingAs:              "CFI",
			CertificateExpiration: "2027-06-30",
		},
		Signature: &models.Signature{
			SignatureImage: "base64-image-data",
			Timestamp:      1770000000000,
		},
	}
	e.Signature.Hash = SignatureHash(e)
	return e
}

func TestSignaturePayload_FieldOrder(t *testing.T) {
	e := signedEntry()
	payload := SignaturePayload(e)

	want := strings.Join([]string{
		e.EntryID, "2026-03-14", "1.5",
		"Pat Jones", "1234567", "CFI", "2027-06-30",
		"base64-image-data", "1770000000000",
	}, "|")
	require.Equal(t, want, payload)
}

func TestSignaturePayload_MissingFieldsAreEmpty(t *testing.T) {
	e := &models.Entry{
		EntryID:   "e1",
		Signature: &models.Signature{},
	}
	require.Equal(t, "e1||0||||||", SignaturePayload(e))
}

func TestVerifySignature_Valid(t *testing.T) {
	require.True(t, VerifySignature(signedEntry()))
}

func TestVerifySignature_TamperedHash(t *testing.T) {
	e := signedEntry()

	// flip one character of the hash
	tampered := []byte(e.Signature.Hash)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}
	e.Signature.Hash = string(tampered)

	require.False(t, VerifySignature(e))
}

func TestVerifySignature_TamperedField(t *testing.T) {
	e := signedEntry()
	e.TotalTime = 2.0
	require.False(t, VerifySignature(e))
}

func TestVerifySignature_NoSignatureIsTriviallyValid(t *testing.T) {
	require.True(t, VerifySignature(&models.Entry{EntryID: "e1"}))
}
