package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

const otpSubject = "POztLite Verification"

var otpHTML = template.Must(template.New("otp").Parse(`<div style="font-family:Arial,sans-serif">
<h2>POztLite Verification</h2>
<p>Your one-time passcode is</p>
<p style="font-size:28px;letter-spacing:4px"><strong>{{.Code}}</strong></p>
<p>It expires in {{.Minutes}} minutes. If you did not try to sign in, ignore this email.</p>
</div>`))

// OTPMessage renders the passcode email.
func OTPMessage(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}

	var html bytes.Buffer
	_ = otpHTML.Execute(&html, struct {
		Code    string
		Minutes int
	}{code, minutes})

	return Message{
		To:      to,
		Subject: otpSubject,
		Text:    fmt.Sprintf("Your OTP code is %s. It expires in %d minutes.", code, minutes),
		HTML:    html.String(),
	}
}
