package qr

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	qrcode "github.com/skip2/go-qrcode"
)

// Payload is the object embedded as JSON text inside the generated QR image.
// It is bit-for-bit the same object persisted with the session, so a scanned
// code resolves back to the stored session without any extra lookup data.
type Payload struct {
	SessionCode string    `json:"sessionCode"`
	CourseCode  string    `json:"courseCode"`
	CourseName  string    `json:"courseName"`
	Lecturer    string    `json:"lecturer"`
	IssuedAt    time.Time `json:"issuedAt"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// imageSize is the square pixel size of the generated PNG.
const imageSize = 256

// Encode renders the payload as a PNG QR image and returns it as a data URL
// suitable for direct embedding in an <img> tag.
func Encode(payload Payload) (string, error) {
	text, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal QR payload: %w", err)
	}

	png, err := qrcode.Encode(string(text), qrcode.Medium, imageSize)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR image: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// DecodePayload parses the JSON text a client extracted from a scanned QR
// image. Check-in requests may carry this text instead of a bare session code.
func DecodePayload(text string) (Payload, error) {
	var payload Payload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return Payload{}, fmt.Errorf("failed to parse QR payload: %w", err)
	}
	if payload.SessionCode == "" {
		return Payload{}, fmt.Errorf("QR payload has no session code")
	}
	return payload, nil
}
