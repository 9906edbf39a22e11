package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
)

// FallbackReply closes the loop when a coach call fails. The chat screen
// appends exactly one of these per failed send so the user is never left
// waiting on a reply that will not come.
const FallbackReply = "I couldn't reach your coach just now. Take a breath and try again in a minute — your streak is safe."

type coachRequest struct {
	Message string `json:"message"`
}

type coachResponse struct {
	Response string `json:"response"`
}

// SendText submits a chat message to the coach and returns the reply.
// Single shot, no retry; callers decide what a failure means for the UI.
func (c *Client) SendText(ctx context.Context, message string) (string, error) {
	var out coachResponse
	if err := c.doJSON(ctx, http.MethodPost, "text-chat/", coachRequest{Message: message}, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", &APIError{Message: "coach response missing"}
	}
	return out.Response, nil
}

// SendVoice uploads a finished recording as a multipart form (field "audio",
// audio/m4a) and returns the coach's reply to the transcript.
func (c *Client) SendVoice(ctx context.Context, audio []byte) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="audio"; filename="recording.m4a"`)
	header.Set("Content-Type", "audio/m4a")

	part, err := form.CreatePart(header)
	if err != nil {
		return "", &APIError{Message: fmt.Sprintf("build upload: %v", err)}
	}
	if _, err := part.Write(audio); err != nil {
		return "", &APIError{Message: fmt.Sprintf("build upload: %v", err)}
	}
	if err := form.Close(); err != nil {
		return "", &APIError{Message: fmt.Sprintf("build upload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("voice-chat/"), &buf)
	if err != nil {
		return "", &APIError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	var out coachResponse
	if err := c.send(req, &out); err != nil {
		return "", err
	}
	if out.Response == "" {
		return "", &APIError{Message: "coach response missing"}
	}
	return out.Response, nil
}
