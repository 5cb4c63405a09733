package lib

import (
	"fmt"
	"math/rand"
	"strings"
	"time"
)

const charset = "abcdefghijklmnopqrstuvwxyz " +
	"ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789 "

const boundary = "MAILPOLL-BOUNDARY"

const multipartTemplate = "From: %s\r\n" +
	"To: %s\r\n" +
	"Subject: %s\r\n" +
	"Date: %s\r\n" +
	"Message-ID: <%d@localhost/>\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=\"" + boundary + "\"\r\n" +
	"\r\n" +
	"--" + boundary + "\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"%s\r\n" +
	"--" + boundary + "\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"%s\r\n" +
	"--" + boundary + "--\r\n"

var seededRand *rand.Rand = rand.New(
	rand.NewSource(time.Now().UnixMilli()))

// TestEmail describes a message built by GenerateEmail.
type TestEmail struct {
	// From is written verbatim in the From header; leave empty to omit the header.
	From    string
	To      string
	Subject string
	// Date is written verbatim in the Date header; leave empty to omit the header.
	Date string
	// Body becomes the second MIME part. A random text is generated when empty.
	Body string
	ID   uint32
}

func stringWithCharset(length int, charset string) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[seededRand.Intn(len(charset))]
	}
	return string(b)
}

// GenerateEmail returns a multipart/alternative RFC 5322 message: the first part is a
// random plain text, the second part carries email.Body.
func GenerateEmail(email TestEmail) []byte {
	body := email.Body
	if body == "" {
		body = stringWithCharset(1+seededRand.Intn(300), charset)
	}
	msg := fmt.Sprintf(multipartTemplate,
		email.From,
		email.To,
		email.Subject,
		email.Date,
		email.ID,
		stringWithCharset(1+seededRand.Intn(300), charset),
		body,
	)
	if email.From == "" {
		msg = strings.Replace(msg, "From: \r\n", "", 1)
	}
	if email.Date == "" {
		msg = strings.Replace(msg, "Date: \r\n", "", 1)
	}
	return []byte(msg)
}
