package mailer

import (
	"bytes"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="margin:0;padding:0;background-color:#f4f6f8;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;">
    <div style="max-width:500px;margin:40px auto;background:#ffffff;border-radius:12px;overflow:hidden;border:1px solid #e2e8f0;">
        <div style="background:{{.Accent}};padding:28px;text-align:center;">
            <h1 style="color:#fff;margin:0;font-size:26px;font-weight:700;">HomeNest</h1>
            <p style="color:rgba(255,255,255,0.9);margin:8px 0 0;font-size:14px;">{{.Heading}}</p>
        </div>
        <div style="padding:32px;">
            <p style="color:#334155;font-size:14px;line-height:1.6;margin:0 0 24px;">{{.Intro}}</p>
            <div style="background:#f8fafc;border:2px dashed #cbd5e1;border-radius:12px;padding:24px;text-align:center;margin:0 0 24px;">
                <span style="font-size:34px;font-weight:800;letter-spacing:8px;color:#0f172a;font-family:'Courier New',monospace;">{{.Code}}</span>
            </div>
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0 0 8px;">
                This code expires in <strong>{{.ExpiryMinutes}} minutes</strong>.
            </p>
            <p style="color:#64748b;font-size:13px;line-height:1.5;margin:0;">{{.Footer}}</p>
        </div>
    </div>
</body>
</html>`))

var appointmentTemplate = template.Must(template.New("appointment").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;background-color:#f4f6f8;font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;">
    <div style="max-width:500px;margin:40px auto;background:#ffffff;border-radius:12px;border:1px solid #e2e8f0;padding:32px;">
        <h2 style="color:#0f172a;margin:0 0 16px;">{{.Heading}}</h2>
        <p style="color:#334155;font-size:14px;line-height:1.6;margin:0 0 8px;"><strong>{{.PropertyTitle}}</strong></p>
        <p style="color:#334155;font-size:14px;line-height:1.6;margin:0 0 8px;">{{.PropertyAddress}}</p>
        <p style="color:#334155;font-size:14px;line-height:1.6;margin:0 0 8px;">{{.When}}</p>
        <p style="color:#64748b;font-size:13px;line-height:1.5;margin:16px 0 0;">Agent: {{.AgentName}}</p>
    </div>
</body>
</html>`))

// OTPKind selects the wording of a passcode email
type OTPKind string

const (
	OTPKindVerification  OTPKind = "verification"
	OTPKindPasswordReset OTPKind = "password_reset"
)

// RenderOTP returns subject and HTML body for a passcode email
func RenderOTP(kind OTPKind, code string, expiryMinutes int) (string, string, error) {
	data := map[string]interface{}{
		"Code":          code,
		"ExpiryMinutes": expiryMinutes,
		"Accent":        "#0f766e",
		"Heading":       "Email Verification",
		"Intro":         "Use the code below to verify your email address.",
		"Footer":        "If you did not request this code, you can ignore this email.",
	}
	subject := "HomeNest - Your verification code"
	if kind == OTPKindPasswordReset {
		subject = "HomeNest - Reset your password"
		data["Accent"] = "#b91c1c"
		data["Heading"] = "Password Reset"
		data["Intro"] = "We received a request to reset your password. Use this code:"
		data["Footer"] = "If you did not request a password reset, your password will remain unchanged."
	}

	var buf bytes.Buffer
	if err := otpTemplate.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return subject, buf.String(), nil
}

// AppointmentEmail carries the fields shown in a viewing confirmation
type AppointmentEmail struct {
	Heading         string
	PropertyTitle   string
	PropertyAddress string
	AgentName       string
	ScheduledAt     time.Time
}

// RenderAppointment returns the HTML body for a viewing notice
func RenderAppointment(a AppointmentEmail) (string, error) {
	var buf bytes.Buffer
	err := appointmentTemplate.Execute(&buf, map[string]interface{}{
		"Heading":         a.Heading,
		"PropertyTitle":   a.PropertyTitle,
		"PropertyAddress": a.PropertyAddress,
		"AgentName":       a.AgentName,
		"When":            a.ScheduledAt.UTC().Format("Mon, 02 Jan 2006 15:04 MST"),
	})
	return buf.String(), err
}
