package integration

import (
	"fmt"
	"strings"
	"time"
)

// TestUser generates unique test user credentials using timestamp
func TestUser(suffix string) (email, password string) {
	ts := time.Now().UnixNano()
	email = fmt.Sprintf("test-%d-%s@example.com", ts, suffix)
	password = "TestPassword123!"
	return
}

// ExtractTokenFromResetLink extracts the reset token from a captured email
// body. The mail body carries a link of the form
// "{clientURL}/reset-password/{token}".
func ExtractTokenFromResetLink(body string) string {
	marker := "/reset-password/"
	idx := strings.LastIndex(body, marker)
	if idx < 0 {
		return ""
	}
	token := body[idx+len(marker):]
	// Trim anything after the token (quote, whitespace, line break)
	if end := strings.IndexAny(token, "\"' \n\r<"); end >= 0 {
		token = token[:end]
	}
	return token
}
