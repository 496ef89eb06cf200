package qr

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestEncodeProducesDataURL(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	payload := Payload{
		SessionCode: "ABCDEF-234567",
		CourseCode:  "CSC301",
		CourseName:  "Operating Systems",
		Lecturer:    "Dr. Adaeze Obi",
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(30 * time.Minute),
	}

	dataURL, err := Encode(payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !strings.HasPrefix(dataURL, "data:image/png;base64,") {
		t.Errorf("Encode() = %q..., want data:image/png;base64 prefix", dataURL[:32])
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	payload := Payload{
		SessionCode: "ABCDEF-234567",
		CourseCode:  "CSC301",
		CourseName:  "Operating Systems",
		Lecturer:    "Dr. Adaeze Obi",
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(30 * time.Minute),
	}

	text, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}

	decoded, err := DecodePayload(string(text))
	if err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if decoded.SessionCode != payload.SessionCode {
		t.Errorf("SessionCode = %q, want %q", decoded.SessionCode, payload.SessionCode)
	}
	if !decoded.ExpiresAt.Equal(payload.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", decoded.ExpiresAt, payload.ExpiresAt)
	}
}

func TestPayloadTimestampsAreISO8601(t *testing.T) {
	issued := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	text, err := json.Marshal(Payload{SessionCode: "ABCDEF-234567", IssuedAt: issued, ExpiresAt: issued})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if !strings.Contains(string(text), `"issuedAt":"2025-03-10T09:00:00Z"`) {
		t.Errorf("payload timestamps not RFC3339: %s", text)
	}
}

func TestDecodePayloadErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{name: "not json", text: "ABCDEF-234567"},
		{name: "empty", text: ""},
		{name: "json without code", text: `{"courseCode":"CSC301"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodePayload(tt.text); err == nil {
				t.Errorf("DecodePayload(%q) expected error", tt.text)
			}
		})
	}
}
