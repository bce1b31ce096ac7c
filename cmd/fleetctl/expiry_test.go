package main

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-ops-api/internal/models"
)

func TestRenderExpiryTable(t *testing.T) {
	out := renderExpiryTable([]models.ExpiringCertificate{
		{SubjectKind: models.SubjectDriver, SubjectName: "Dana Fox", CertificateType: "TAS Badge", ExpiryDate: time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), DaysRemaining: -1},
		{SubjectKind: models.SubjectVehicle, SubjectName: "AB12 CDE", CertificateType: "MOT", ExpiryDate: time.Date(2026, 10, 30, 0, 0, 0, 0, time.UTC), DaysRemaining: 14},
	})

	assert.Contains(t, out, "CERTIFICATE")
	assert.Contains(t, out, "TAS Badge")
	assert.Contains(t, out, "2026-10-15")
	assert.Contains(t, out, "-1")
	assert.Contains(t, out, "AB12 CDE")
	assert.Less(t, strings.Index(out, "Dana Fox"), strings.Index(out, "AB12 CDE"))
}

func TestRenderExpiryTableEmpty(t *testing.T) {
	assert.Equal(t, "no certificates in this window", renderExpiryTable(nil))
}

func TestExpiryCommandRejectsUnknownWindow(t *testing.T) {
	cmd := newExpiryCmd()
	cmd.SetArgs([]string{"--window", "60-days"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window must be one of")
}

func TestWriteOutputToStdout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput("", &buf, func(w io.Writer) error {
		_, err := w.Write([]byte("hello"))
		return err
	}))
	assert.Equal(t, "hello", buf.String())
}
